// Package memstore is an in-memory reactive store: collections of records,
// directed links between them, atomic batches and live queries that are
// re-evaluated after every committed batch.
//
// It has no persistence, auth or conflict resolution and is meant for local
// runs and tests.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sync"

	"github.com/reichert621/instachat/internal/common"
	"github.com/reichert621/instachat/internal/logging"
	"github.com/reichert621/instachat/internal/protocol"
)

var ErrClosed = errors.New("store closed")

type linkKey struct {
	entity   string
	id       string
	relation string
}

type collection struct {
	records map[string]map[string]any
	order   []string
}

type Store struct {
	mu          sync.Mutex
	collections map[string]*collection
	links       map[linkKey][]string
	watches     map[*protocol.Feed]protocol.Query
	closed      bool
	log         logging.Logger
}

func New(log logging.Logger) *Store {
	return &Store{
		collections: make(map[string]*collection),
		links:       make(map[linkKey][]string),
		watches:     make(map[*protocol.Feed]protocol.Query),
		log:         log.With("module", "memstore"),
	}
}

// Transact validates every op of b and then applies them all. Nothing is
// applied when any op is invalid.
func (s *Store) Transact(ctx context.Context, b protocol.Batch) error {
	if err := b.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	for _, op := range b.Ops {
		switch op.Kind {
		case protocol.OpUpdate:
			s.update(op.Entity, op.ID, op.Fields)
		case protocol.OpLink:
			s.link(op.Entity, op.ID, op.Relation, op.Target)
		}
	}

	s.log.Debug(ctx, "batch committed", "tx_id", b.TxID, "ops", len(b.Ops))
	s.notifyLocked(ctx)
	return nil
}

func (s *Store) update(entity, id string, fields map[string]any) {
	c, ok := s.collections[entity]
	if !ok {
		c = &collection{records: make(map[string]map[string]any)}
		s.collections[entity] = c
	}
	rec, ok := c.records[id]
	if !ok {
		rec = map[string]any{}
		c.records[id] = rec
		c.order = append(c.order, id)
	}
	for k, v := range fields {
		rec[k] = v
	}
	rec["id"] = id
}

func (s *Store) link(entity, id, relation, target string) {
	key := linkKey{entity: entity, id: id, relation: relation}
	if slices.Contains(s.links[key], target) {
		return
	}
	s.links[key] = append(s.links[key], target)
}

// Query evaluates q once against the current state.
func (s *Store) Query(q protocol.Query) (protocol.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	return s.eval(q), nil
}

// Subscribe registers a live query. The returned feed receives the current
// result immediately and a fresh one after each commit, until ctx ends
// (Err is nil) or the store is closed (Err is ErrClosed).
func (s *Store) Subscribe(ctx context.Context, q protocol.Query) (*protocol.Feed, error) {
	if len(q) == 0 {
		return nil, fmt.Errorf("%w: empty query", common.ErrInvalidOp)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	feed := protocol.NewFeed()
	feed.Push(s.eval(q))
	s.watches[feed] = q
	n := len(s.watches)
	s.mu.Unlock()

	s.log.Debug(ctx, "subscribed", "watches", n)

	go func() {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			delete(s.watches, feed)
			s.mu.Unlock()
			feed.Finish(nil)
		case <-feed.Done():
		}
	}()

	return feed, nil
}

func (s *Store) notifyLocked(ctx context.Context) {
	for feed, q := range s.watches {
		if !feed.Push(s.eval(q)) {
			delete(s.watches, feed)
		}
	}
	s.log.Debug(ctx, "watches notified", "count", len(s.watches))
}

// Close ends all live queries with ErrClosed. Further calls fail.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for feed := range s.watches {
		feed.Finish(ErrClosed)
	}
	clear(s.watches)
}

func (s *Store) eval(q protocol.Query) protocol.Result {
	out := make(protocol.Result, len(q))
	for key, node := range q {
		coll := node.Collection(key)
		var ids []string
		if c, ok := s.collections[coll]; ok {
			ids = c.order
		}
		out[key] = s.shape(node, coll, ids)
	}
	return out
}

// shape filters ids by node.Where, expands children and applies cardinality.
func (s *Store) shape(node protocol.Node, coll string, ids []string) any {
	c := s.collections[coll]

	recs := make([]any, 0, len(ids))
	for _, id := range ids {
		if c == nil {
			break
		}
		rec, ok := c.records[id]
		if !ok || !matches(rec, node.Where) {
			continue
		}
		recs = append(recs, s.expand(node, coll, id, rec))
	}

	// an ambiguous match is reported like a missing one
	if node.Cardinality == protocol.CardinalityOne {
		if len(recs) != 1 {
			return nil
		}
		return recs[0]
	}
	return recs
}

func (s *Store) expand(node protocol.Node, coll, id string, rec map[string]any) map[string]any {
	out := maps.Clone(rec)
	for rel, child := range node.Children {
		targets := s.links[linkKey{entity: coll, id: id, relation: rel}]
		if len(targets) > 0 || child.Is == "" {
			out[rel] = s.shape(child, child.Collection(rel), targets)
			continue
		}
		out[rel] = s.shape(child, child.Is, s.reverse(child.Is, id))
	}
	return out
}

// reverse lists records of coll that link to target through any relation.
func (s *Store) reverse(coll, target string) []string {
	c, ok := s.collections[coll]
	if !ok {
		return nil
	}
	var ids []string
	for _, id := range c.order {
		for key, targets := range s.links {
			if key.entity == coll && key.id == id && slices.Contains(targets, target) {
				ids = append(ids, id)
				break
			}
		}
	}
	return ids
}

func matches(rec map[string]any, where map[string]any) bool {
	for k, want := range where {
		if !equalValue(rec[k], want) {
			return false
		}
	}
	return true
}

func equalValue(a, b any) bool {
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	if aNum && bNum {
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
