package history

import (
	"context"
	"fmt"
	"reflect"

	"github.com/pageza/modelhistory/internal/models"
)

// StateAt rebuilds the tracked fields of an entity as of revision by replaying
// its history. Revision 0 is the empty state before creation.
func (b *Behavior) StateAt(ctx context.Context, id string, revision int) (models.JSONMap, error) {
	state := models.JSONMap{}
	if revision <= 0 {
		return state, nil
	}

	var rows []models.ModelHistory
	err := b.entity(ctx, id).
		Where("revision <= ?", revision).
		Order("revision ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if len(rows) == 0 || rows[len(rows)-1].Revision != revision {
		return nil, fmt.Errorf("%w: %s %s revision %d", ErrRevisionNotFound, b.table, id, revision)
	}

	for _, row := range rows {
		switch row.Action {
		case models.ActionCreate:
			state = models.JSONMap{}
			for k, v := range row.Data {
				state[k] = v
			}
		case models.ActionUpdate:
			for k, v := range row.Data {
				state[k] = v
			}
		case models.ActionDelete:
			state = models.JSONMap{}
		}
	}
	return state, nil
}

// Diff compares the entity's tracked fields between two revisions.
func (b *Behavior) Diff(ctx context.Context, id string, from, to int) ([]Change, error) {
	before, err := b.StateAt(ctx, id, from)
	if err != nil {
		return nil, err
	}
	after, err := b.StateAt(ctx, id, to)
	if err != nil {
		return nil, err
	}

	changes := []Change{}
	for _, col := range b.orderedKeys(before, after) {
		ov, inOld := before[col]
		nv, inNew := after[col]
		if inOld == inNew && reflect.DeepEqual(ov, nv) {
			continue
		}

		change := Change{Field: col, Label: b.cfg.label(col)}
		if inOld {
			if change.Old, err = b.displayValue(ctx, col, ov); err != nil {
				return nil, err
			}
		}
		if inNew {
			if change.New, err = b.displayValue(ctx, col, nv); err != nil {
				return nil, err
			}
		}
		changes = append(changes, change)
	}
	return changes, nil
}
