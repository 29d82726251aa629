package protocol

import (
	"fmt"

	"github.com/reichert621/instachat/internal/common"
)

type OpKind string

const (
	OpUpdate OpKind = "update"
	OpLink   OpKind = "link"
)

// Op is a single mutation. Update creates or merges Fields into the entity
// Entity/ID; Link attaches Target to the Relation of Entity/ID.
type Op struct {
	Kind     OpKind         `json:"kind"`
	Entity   string         `json:"entity"`
	ID       string         `json:"id"`
	Fields   map[string]any `json:"fields,omitempty"`
	Relation string         `json:"relation,omitempty"`
	Target   string         `json:"target,omitempty"`
}

// Batch is applied by the store atomically, all ops or none.
type Batch struct {
	TxID string `json:"tx_id"`
	Ops  []Op   `json:"ops"`
}

func Update(entity, id string, fields map[string]any) Op {
	return Op{Kind: OpUpdate, Entity: entity, ID: id, Fields: fields}
}

func Link(entity, id, relation, target string) Op {
	return Op{Kind: OpLink, Entity: entity, ID: id, Relation: relation, Target: target}
}

func (o Op) Validate() error {
	if o.Entity == "" || o.ID == "" {
		return fmt.Errorf("%w: %s op without entity or id", common.ErrInvalidOp, o.Kind)
	}
	switch o.Kind {
	case OpUpdate:
		return nil
	case OpLink:
		if o.Relation == "" || o.Target == "" {
			return fmt.Errorf("%w: link %s/%s without relation or target", common.ErrInvalidOp, o.Entity, o.ID)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown op kind %q", common.ErrInvalidOp, o.Kind)
	}
}

func (b Batch) Validate() error {
	if len(b.Ops) == 0 {
		return fmt.Errorf("%w: empty batch", common.ErrInvalidOp)
	}
	for i, op := range b.Ops {
		if err := op.Validate(); err != nil {
			return fmt.Errorf("op %d: %w", i, err)
		}
	}
	return nil
}

// Map renders the batch as a JSON-compatible mapping.
func (b Batch) Map() map[string]any {
	ops := make([]any, 0, len(b.Ops))
	for _, op := range b.Ops {
		m := map[string]any{
			"kind":   string(op.Kind),
			"entity": op.Entity,
			"id":     op.ID,
		}
		switch op.Kind {
		case OpUpdate:
			fields := make(map[string]any, len(op.Fields))
			for k, v := range op.Fields {
				fields[k] = Normalize(v)
			}
			m["fields"] = fields
		case OpLink:
			m["relation"] = op.Relation
			m["target"] = op.Target
		}
		ops = append(ops, m)
	}
	return map[string]any{"tx_id": b.TxID, "ops": ops}
}

// ParseBatch is the inverse of Batch.Map.
func ParseBatch(m map[string]any) (Batch, error) {
	var b Batch
	b.TxID, _ = m["tx_id"].(string)

	rawOps, ok := m["ops"].([]any)
	if !ok {
		return Batch{}, fmt.Errorf("%w: batch without ops", common.ErrInvalidOp)
	}
	for i, raw := range rawOps {
		om, ok := raw.(map[string]any)
		if !ok {
			return Batch{}, fmt.Errorf("%w: op %d is %T", common.ErrInvalidOp, i, raw)
		}
		op := Op{
			Kind:     OpKind(str(om["kind"])),
			Entity:   str(om["entity"]),
			ID:       str(om["id"]),
			Relation: str(om["relation"]),
			Target:   str(om["target"]),
		}
		if fields, ok := om["fields"].(map[string]any); ok {
			op.Fields = fields
		}
		b.Ops = append(b.Ops, op)
	}
	return b, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
