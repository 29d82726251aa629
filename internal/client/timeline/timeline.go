// Package timeline turns an unordered set of channel messages into the
// display sequence rendered by the chat view.
package timeline

import (
	"sort"
	"time"

	"github.com/reichert621/instachat/internal/client/models"
)

const (
	DisplayLayout = "Jan 2 3:04 pm"
	UnknownAuthor = "unknown"
)

type Entry struct {
	ID         string
	Body       string
	Timestamp  int64
	AuthorID   string
	AuthorName string

	IsMine         bool
	IsFirstInGroup bool
	IsLastInGroup  bool

	DisplayTime string
}

type Assembler struct {
	loc *time.Location
}

// NewAssembler formats display times in loc, time.Local when nil.
func NewAssembler(loc *time.Location) *Assembler {
	if loc == nil {
		loc = time.Local
	}
	return &Assembler{loc: loc}
}

// Assemble sorts messages by timestamp (stable, so equal timestamps keep
// their delivered order) and derives grouping flags from author changes
// between neighbours. The input slice is not modified.
func (a *Assembler) Assemble(messages []models.Message, currentUserID string) []Entry {
	sorted := make([]models.Message, len(messages))
	copy(sorted, messages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	entries := make([]Entry, len(sorted))
	for i, m := range sorted {
		e := Entry{
			ID:          m.ID,
			Body:        m.Body,
			Timestamp:   m.Timestamp,
			AuthorName:  UnknownAuthor,
			DisplayTime: a.format(m.Timestamp),
		}
		if m.Author != nil {
			e.AuthorID = m.Author.ID
			e.AuthorName = m.Author.Name
		}
		e.IsMine = currentUserID != "" && e.AuthorID == currentUserID
		entries[i] = e
	}

	for i := range entries {
		entries[i].IsFirstInGroup = i == 0 || entries[i-1].AuthorID != entries[i].AuthorID
		entries[i].IsLastInGroup = i == len(entries)-1 || entries[i+1].AuthorID != entries[i].AuthorID
	}
	return entries
}

func (a *Assembler) format(ms int64) string {
	return time.UnixMilli(ms).In(a.loc).Format(DisplayLayout)
}

// Groups splits entries into maximal runs by the same author, using the
// group flags Assemble computed.
func Groups(entries []Entry) [][]Entry {
	var (
		groups  [][]Entry
		current []Entry
	)
	for _, e := range entries {
		if e.IsFirstInGroup && len(current) > 0 {
			groups = append(groups, current)
			current = nil
		}
		current = append(current, e)
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}
