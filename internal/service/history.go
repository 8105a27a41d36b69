package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/pageza/modelhistory/internal/archive"
	"github.com/pageza/modelhistory/internal/cache"
	"github.com/pageza/modelhistory/internal/history"
	"github.com/pageza/modelhistory/internal/models"
	"github.com/pageza/modelhistory/internal/types"
	"gorm.io/gorm"
)

var ErrArchiveDisabled = errors.New("history archive is not configured")

// HistoryService serves the history of tracked models by table name.
type HistoryService struct {
	db       *gorm.DB
	plugin   *history.Historizable
	names    cache.UserNames
	archiver *archive.Archiver
}

// NewHistoryService creates the service. names and archiver may be nil.
func NewHistoryService(db *gorm.DB, plugin *history.Historizable, names cache.UserNames, archiver *archive.Archiver) *HistoryService {
	return &HistoryService{
		db:       db,
		plugin:   plugin,
		names:    names,
		archiver: archiver,
	}
}

// Models lists the tracked tables.
func (s *HistoryService) Models() []string {
	return s.plugin.Tables()
}

func (s *HistoryService) behavior(model string) (*history.Behavior, error) {
	b, ok := s.plugin.Behavior(model)
	if !ok {
		return nil, fmt.Errorf("%w: %s", history.ErrModelNotTracked, model)
	}
	return b, nil
}

// List returns one page of display entries, newest first.
func (s *HistoryService) List(ctx context.Context, model, id string, page history.Page) (*types.HistoryPage, error) {
	b, err := s.behavior(model)
	if err != nil {
		return nil, err
	}

	total, err := b.Count(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := b.History(ctx, id, page)
	if err != nil {
		return nil, err
	}
	entries, err := s.display(ctx, b, rows)
	if err != nil {
		return nil, err
	}

	page = page.Normalize()
	return &types.HistoryPage{
		Total:   total,
		Page:    page.Number,
		Limit:   page.Limit,
		Entries: entries,
	}, nil
}

// Diff compares two revisions of the entity.
func (s *HistoryService) Diff(ctx context.Context, model, id string, from, to int) ([]history.Change, error) {
	b, err := s.behavior(model)
	if err != nil {
		return nil, err
	}
	return b.Diff(ctx, id, from, to)
}

// Comment adds a comment by the user on ctx and returns it as an entry.
func (s *HistoryService) Comment(ctx context.Context, model, id, comment string) (*history.Entry, error) {
	b, err := s.behavior(model)
	if err != nil {
		return nil, err
	}
	row, err := b.AddComment(ctx, id, comment)
	if err != nil {
		return nil, err
	}
	entries, err := s.display(ctx, b, []models.ModelHistory{*row})
	if err != nil {
		return nil, err
	}
	return &entries[0], nil
}

// SearchByUser returns the model's entries written by authors matching name.
func (s *HistoryService) SearchByUser(ctx context.Context, model, name string) ([]history.Entry, error) {
	b, err := s.behavior(model)
	if err != nil {
		return nil, err
	}
	rows, err := b.SearchByUser(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.display(ctx, b, rows)
}

// Archive uploads the full history of the entity and returns the object key.
func (s *HistoryService) Archive(ctx context.Context, model, id string) (string, error) {
	if s.archiver == nil {
		return "", ErrArchiveDisabled
	}
	b, err := s.behavior(model)
	if err != nil {
		return "", err
	}

	total, err := b.Count(ctx, id)
	if err != nil {
		return "", err
	}
	var rows []models.ModelHistory
	page := history.Page{Number: 1, Limit: 100}
	for int64(len(rows)) < total {
		chunk, err := b.History(ctx, id, page)
		if err != nil {
			return "", err
		}
		if len(chunk) == 0 {
			break
		}
		rows = append(rows, chunk...)
		page.Number++
	}

	entries, err := s.display(ctx, b, rows)
	if err != nil {
		return "", err
	}
	return s.archiver.Archive(ctx, model, id, entries)
}

func (s *HistoryService) display(ctx context.Context, b *history.Behavior, rows []models.ModelHistory) ([]history.Entry, error) {
	names := s.userNames(ctx, b, rows)

	entries := make([]history.Entry, 0, len(rows))
	for _, row := range rows {
		entry, err := b.Display(ctx, row)
		if err != nil {
			return nil, err
		}
		if row.UserID != nil {
			entry.UserName = names[row.UserID.String()]
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// userNames resolves the authors of rows, from the cache when possible.
// Lookup failures leave names empty rather than failing the listing.
func (s *HistoryService) userNames(ctx context.Context, b *history.Behavior, rows []models.ModelHistory) map[string]string {
	seen := make(map[string]bool)
	var ids []string
	for _, row := range rows {
		if row.UserID == nil {
			continue
		}
		id := row.UserID.String()
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names
	}

	if s.names != nil {
		cached, err := s.names.Get(ctx, ids)
		if err != nil {
			log.Printf("Warning: user name cache unavailable: %v", err)
		}
		for id, name := range cached {
			names[id] = name
		}
	}

	var missing []string
	for _, id := range ids {
		if _, ok := names[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return names
	}

	columns := b.UserNameColumns(true)
	var users []map[string]interface{}
	err := s.db.WithContext(ctx).
		Table(b.UserTable()).
		Select(columns).
		Where("id IN ?", missing).
		Find(&users).Error
	if err != nil {
		log.Printf("Warning: failed to load user names: %v", err)
		return names
	}

	fetched := make(map[string]string, len(users))
	for _, u := range users {
		id := idString(u["id"])
		var parts []string
		for _, col := range columns {
			if col == "id" {
				continue
			}
			if v, ok := u[col]; ok && v != nil {
				if p := strings.TrimSpace(fmt.Sprint(stringValue(v))); p != "" {
					parts = append(parts, p)
				}
			}
		}
		name := strings.Join(parts, " ")
		if name == "" {
			name = id
		}
		fetched[id] = name
		names[id] = name
	}

	if s.names != nil {
		if err := s.names.Set(ctx, fetched); err != nil {
			log.Printf("Warning: failed to cache user names: %v", err)
		}
	}
	return names
}

func stringValue(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// idString formats a user id read back from a generic row scan; drivers
// return uuid columns as strings, raw bytes or 16-byte arrays.
func idString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		if len(t) == 16 {
			if id, err := uuid.FromBytes(t); err == nil {
				return id.String()
			}
		}
		return string(t)
	case [16]byte:
		return uuid.UUID(t).String()
	}
	return fmt.Sprint(v)
}
