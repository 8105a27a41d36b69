package history

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/modelhistory/internal/models"
)

// Change is one field of a history entry, ready for display. Old and New are
// strings, or a Link for foreign keys that resolve to a related entity.
type Change struct {
	Field string      `json:"field"`
	Label string      `json:"label"`
	Old   interface{} `json:"old,omitempty"`
	New   interface{} `json:"new,omitempty"`
}

// Entry is a history row rendered for display.
type Entry struct {
	ID          uuid.UUID              `json:"id"`
	Model       string                 `json:"model"`
	ForeignKey  string                 `json:"foreign_key"`
	Action      string                 `json:"action"`
	Revision    int                    `json:"revision"`
	UserID      *uuid.UUID             `json:"user_id,omitempty"`
	UserName    string                 `json:"user_name,omitempty"`
	ContextType string                 `json:"context_type"`
	ContextSlug string                 `json:"context_slug,omitempty"`
	Context     map[string]interface{} `json:"context,omitempty"`
	Comment     string                 `json:"comment,omitempty"`
	Changes     []Change               `json:"changes"`
	CreatedAt   time.Time              `json:"created_at"`
}

// Display renders a stored history row: labels, display filters, obfuscation
// and relation links are applied to every changed field.
func (b *Behavior) Display(ctx context.Context, row models.ModelHistory) (Entry, error) {
	entry := Entry{
		ID:          row.ID,
		Model:       row.Model,
		ForeignKey:  row.ForeignKey,
		Action:      row.Action,
		Revision:    row.Revision,
		UserID:      row.UserID,
		ContextType: row.ContextType,
		ContextSlug: row.ContextSlug,
		Context:     row.Context,
		CreatedAt:   row.CreatedAt,
		Changes:     []Change{},
	}

	if row.Action == models.ActionComment {
		if c, ok := row.Data["comment"].(string); ok {
			entry.Comment = c
		}
		return entry, nil
	}

	for _, col := range b.orderedKeys(row.Data, row.OldData) {
		change := Change{Field: col, Label: b.cfg.label(col)}

		if v, ok := row.OldData[col]; ok {
			old, err := b.displayValue(ctx, col, v)
			if err != nil {
				return Entry{}, err
			}
			change.Old = old
		}
		if v, ok := row.Data[col]; ok {
			nv, err := b.displayValue(ctx, col, v)
			if err != nil {
				return Entry{}, err
			}
			change.New = nv
		}
		entry.Changes = append(entry.Changes, change)
	}
	return entry, nil
}

func (b *Behavior) displayValue(ctx context.Context, col string, v interface{}) (interface{}, error) {
	if b.cfg.obfuscated(col) {
		return ObfuscatedValue, nil
	}
	if v == nil {
		return "", nil
	}
	if f, ok := b.h.formatters.Filter(b.table, col); ok {
		s, err := f.Display(col, v, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to display %s.%s: %w", b.table, col, err)
		}
		return s, nil
	}
	if link, ok := b.RelationLink(ctx, col, v).(Link); ok {
		return link, nil
	}
	return formatScalar(v), nil
}

// orderedKeys returns the keys of the given maps, tracked columns first in
// tracking order, then any others alphabetically.
func (b *Behavior) orderedKeys(maps ...models.JSONMap) []string {
	seen := make(map[string]bool)
	for _, m := range maps {
		for k := range m {
			seen[k] = true
		}
	}

	keys := make([]string, 0, len(seen))
	for _, col := range b.columns {
		if seen[col] {
			keys = append(keys, col)
			delete(seen, col)
		}
	}
	var rest []string
	for k := range seen {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

func formatScalar(v interface{}) string {
	switch t := v.(type) {
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case bool:
		if t {
			return "Yes"
		}
		return "No"
	default:
		return fmt.Sprint(v)
	}
}
