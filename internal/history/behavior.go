package history

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pageza/modelhistory/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
	// maxPageNumber keeps (Number-1)*Limit inside int.
	maxPageNumber = math.MaxInt / maxPageLimit
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Behavior is history tracking attached to one model.
type Behavior struct {
	h       *Historizable
	table   string
	pk      *schema.Field
	cfg     ModelConfig
	columns []string
}

// Link points at a related entity.
type Link struct {
	URL   string `json:"url"`
	Label string `json:"label"`
}

// Page selects a slice of history, newest revision first. Number starts at 1.
type Page struct {
	Number int
	Limit  int
}

// Normalize clamps the page to valid values.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Number > maxPageNumber {
		p.Number = maxPageNumber
	}
	if p.Limit < 1 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	return p
}

// FieldInfo describes a tracked column for clients.
type FieldInfo struct {
	Name       string `json:"name"`
	Label      string `json:"label"`
	Searchable bool   `json:"searchable"`
}

// Table returns the name of the tracked table.
func (b *Behavior) Table() string {
	return b.table
}

// Fields lists the tracked columns in tracking order.
func (b *Behavior) Fields() []FieldInfo {
	fields := make([]FieldInfo, len(b.columns))
	for i, col := range b.columns {
		f, _ := b.cfg.field(col)
		fields[i] = FieldInfo{Name: col, Label: b.cfg.label(col), Searchable: f.Searchable}
	}
	return fields
}

// UserNameFields maps each author name field to its column, qualified with the
// user table alias unless unqualified is set.
func (b *Behavior) UserNameFields(unqualified bool) map[string]string {
	fields := make(map[string]string, len(b.cfg.UserNameFields))
	for _, f := range b.cfg.UserNameFields {
		if unqualified {
			fields[f] = f
		} else {
			fields[f] = b.cfg.UserTableAlias + "." + f
		}
	}
	return fields
}

// UserNameColumns returns UserNameFields in configured order.
func (b *Behavior) UserNameColumns(unqualified bool) []string {
	fields := b.UserNameFields(unqualified)
	columns := make([]string, len(b.cfg.UserNameFields))
	for i, f := range b.cfg.UserNameFields {
		columns[i] = fields[f]
	}
	return columns
}

// UserTable returns the table authors are looked up in.
func (b *Behavior) UserTable() string {
	return b.cfg.UserTable
}

// RelationLink resolves a foreign key value to a Link to the related entity.
// When field has no relation, or the related row does not exist, value is
// returned unchanged.
func (b *Behavior) RelationLink(ctx context.Context, field string, value interface{}) interface{} {
	if isEmpty(value) {
		return value
	}
	rel, ok := b.relation(field)
	if !ok {
		return value
	}

	var labels []string
	err := b.h.db.WithContext(ctx).
		Table(rel.Table).
		Where("id = ?", value).
		Limit(1).
		Pluck(rel.DisplayField, &labels).Error
	if err != nil || len(labels) == 0 {
		return value
	}

	return Link{
		URL:   strings.ReplaceAll(rel.Path, ":id", url.PathEscape(fmt.Sprint(value))),
		Label: labels[0],
	}
}

// relation returns the configured relation of field, or one inferred from a
// "<table>_id" column naming a tracked model with a view path.
func (b *Behavior) relation(field string) (Relation, bool) {
	if rel, ok := b.cfg.Relations[field]; ok {
		if rel.DisplayField == "" {
			rel.DisplayField = "id"
		}
		return rel, true
	}
	if !strings.HasSuffix(field, "_id") {
		return Relation{}, false
	}

	name := strings.TrimSuffix(field, "_id")
	for _, table := range []string{name, name + "s"} {
		target, ok := b.h.Behavior(table)
		if !ok || target.cfg.ViewPath == "" {
			continue
		}
		display := target.cfg.DisplayField
		if display == "" {
			display = "id"
		}
		return Relation{Table: table, DisplayField: display, Path: target.cfg.ViewPath}, true
	}
	return Relation{}, false
}

// History returns one page of the entity's history, newest first.
func (b *Behavior) History(ctx context.Context, id string, page Page) ([]models.ModelHistory, error) {
	page = page.Normalize()
	var rows []models.ModelHistory
	err := b.entity(ctx, id).
		Order("revision DESC").
		Limit(page.Limit).
		Offset((page.Number - 1) * page.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return rows, nil
}

// Count returns the number of history rows of the entity.
func (b *Behavior) Count(ctx context.Context, id string) (int64, error) {
	var count int64
	if err := b.entity(ctx, id).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return count, nil
}

// AddComment appends a comment entry to the entity's history. The entity must
// exist, soft-deleted rows included.
func (b *Behavior) AddComment(ctx context.Context, id, comment string) (*models.ModelHistory, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, ErrEmptyComment
	}

	var entry *models.ModelHistory
	err := b.h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := b.exists(tx, id)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: %s %s", ErrEntityNotFound, b.table, id)
		}
		entry, err = b.write(tx, id, models.ActionComment, models.JSONMap{"comment": comment}, nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	return entry, nil
}

// exists reports whether a row with primary key id is stored in the table.
func (b *Behavior) exists(tx *gorm.DB, id string) (bool, error) {
	if b.pk == nil {
		return true, nil
	}
	key, ok := parseKey(b.pk, id)
	if !ok {
		return false, nil
	}

	var n int64
	err := tx.Session(&gorm.Session{NewDB: true}).
		Unscoped().
		Table(b.table).
		Where(clause.Eq{Column: clause.Column{Name: b.pk.DBName}, Value: key}).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// parseKey converts id to the primary key's Go type. Ids that cannot be
// converted name no row.
func parseKey(pk *schema.Field, id string) (interface{}, bool) {
	if pk.FieldType == reflect.TypeOf(uuid.UUID{}) {
		v, err := uuid.Parse(id)
		return v, err == nil
	}
	switch pk.FieldType.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := strconv.ParseInt(id, 10, 64)
		return v, err == nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseUint(id, 10, 64)
		return v, err == nil
	}
	return id, true
}

// SearchByUser returns the model's history written by authors whose name
// fields contain name.
func (b *Behavior) SearchByUser(ctx context.Context, name string) ([]models.ModelHistory, error) {
	fields := b.UserNameFields(false)
	alias := b.cfg.UserTableAlias

	var conds []string
	var args []interface{}
	pattern := "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(name))) + "%"
	for _, f := range b.cfg.UserNameFields {
		if f == "id" {
			continue
		}
		conds = append(conds, fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, fields[f]))
		args = append(args, pattern)
	}
	if len(conds) == 0 {
		return nil, nil
	}

	var rows []models.ModelHistory
	err := b.h.db.WithContext(ctx).
		Model(&models.ModelHistory{}).
		Select("model_history.*").
		Joins(fmt.Sprintf("JOIN %s AS %s ON %s.id = model_history.user_id", b.cfg.UserTable, alias, alias)).
		Where("model_history.model = ?", b.table).
		Where(strings.Join(conds, " OR "), args...).
		Order("model_history.created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search history: %w", err)
	}
	return rows, nil
}

func (b *Behavior) entity(ctx context.Context, id string) *gorm.DB {
	return b.h.db.WithContext(ctx).
		Model(&models.ModelHistory{}).
		Where("model = ? AND foreign_key = ?", b.table, id)
}

// record is called from the callbacks on the statement's connection.
func (b *Behavior) record(db *gorm.DB, id, action string, data, old models.JSONMap) error {
	_, err := b.write(db.Session(&gorm.Session{NewDB: true}), id, action, data, old)
	return err
}

func (b *Behavior) write(tx *gorm.DB, id, action string, data, old models.JSONMap) (*models.ModelHistory, error) {
	ctx := tx.Statement.Context

	var last int
	err := tx.Model(&models.ModelHistory{}).
		Where("model = ? AND foreign_key = ?", b.table, id).
		Select("COALESCE(MAX(revision), 0)").
		Scan(&last).Error
	if err != nil {
		return nil, err
	}

	rc := RequestContextFrom(ctx)
	entry := &models.ModelHistory{
		Model:       b.table,
		ForeignKey:  id,
		Action:      action,
		Data:        data,
		OldData:     old,
		Revision:    last + 1,
		ContextType: rc.Type,
		ContextSlug: rc.Slug,
		Context:     models.JSONMap(rc.Data),
		CreatedAt:   b.h.now(),
	}
	if userID, ok := UserFromContext(ctx); ok {
		entry.UserID = &userID
	}

	if err := tx.Session(&gorm.Session{NewDB: true}).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func isEmpty(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case int:
		return t == 0
	case int64:
		return t == 0
	case float64:
		return t == 0
	}
	return false
}
