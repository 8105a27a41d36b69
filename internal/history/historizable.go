package history

import (
	"fmt"
	"log"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/pageza/modelhistory/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	pluginName = "model_history"
	beforeKey  = "model_history:before"
	commitName = "gorm:commit_or_rollback_transaction"
)

// Historizable is a GORM plugin that writes a models.ModelHistory row for every
// create, update and delete of a tracked model. The row is written on the
// statement's own connection, so it commits or rolls back with the change.
//
// Only updates and deletes of a model with its primary key set are tracked.
// Statements by condition, such as db.Delete(&Article{}, "id = ?", id) or
// db.Model(&Article{}).Where(...).Updates(...), write no history.
type Historizable struct {
	formatters FieldFormatters
	now        func() time.Time

	db        *gorm.DB
	mu        sync.RWMutex
	behaviors map[string]*Behavior
}

// New returns the plugin. Register it with db.Use, then call Track per model.
func New(formatters FieldFormatters) *Historizable {
	if formatters == nil {
		formatters = NewRegistry()
	}
	return &Historizable{
		formatters: formatters,
		now:        time.Now,
		behaviors:  make(map[string]*Behavior),
	}
}

// Name returns the plugin name gorm registers it under.
func (h *Historizable) Name() string {
	return pluginName
}

// Initialize registers the lifecycle callbacks
func (h *Historizable) Initialize(db *gorm.DB) error {
	h.db = db
	cb := db.Callback()

	if err := cb.Create().After("gorm:create").Before(commitName).
		Register("model_history:after_create", h.afterCreate); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").
		Register("model_history:before_update", h.beforeChange); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Before(commitName).
		Register("model_history:after_update", h.afterUpdate); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").
		Register("model_history:before_delete", h.beforeChange); err != nil {
		return err
	}
	return cb.Delete().After("gorm:delete").Before(commitName).
		Register("model_history:after_delete", h.afterDelete)
}

// Track attaches history tracking to model and returns its behavior.
func (h *Historizable) Track(model interface{}, cfg ModelConfig) (*Behavior, error) {
	if h.db == nil {
		return nil, ErrNotInitialized
	}

	stmt := &gorm.Statement{DB: h.db}
	if err := stmt.Parse(model); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}

	cfg.applyDefaults()
	b := &Behavior{h: h, table: stmt.Schema.Table, pk: stmt.Schema.PrioritizedPrimaryField, cfg: cfg}

	columns, err := trackedColumns(stmt.Schema, &b.cfg)
	if err != nil {
		return nil, err
	}
	b.columns = columns

	h.mu.Lock()
	h.behaviors[b.table] = b
	h.mu.Unlock()

	log.Printf("Tracking history for %s (%d fields)", b.table, len(columns))
	return b, nil
}

// Behavior returns the behavior tracking table.
func (h *Historizable) Behavior(table string) (*Behavior, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	b, ok := h.behaviors[table]
	return b, ok
}

// Tables lists the tracked tables in name order.
func (h *Historizable) Tables() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	tables := make([]string, 0, len(h.behaviors))
	for t := range h.behaviors {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	return tables
}

func (h *Historizable) behaviorFor(db *gorm.DB) (*Behavior, bool) {
	if db.Error != nil || db.Statement.Schema == nil {
		return nil, false
	}
	return h.Behavior(db.Statement.Schema.Table)
}

func (h *Historizable) afterCreate(db *gorm.DB) {
	b, ok := h.behaviorFor(db)
	if !ok {
		return
	}

	eachRecord(db.Statement.ReflectValue, func(rv reflect.Value) {
		if db.Error != nil {
			return
		}
		id, _, ok := primaryKey(db, rv)
		if !ok {
			return
		}
		values := b.snapshot(db, rv)
		data, err := b.saveValues(values, rv.Interface())
		if err != nil {
			db.AddError(err)
			return
		}
		if err := b.record(db, id, models.ActionCreate, data, nil); err != nil {
			db.AddError(fmt.Errorf("failed to record history: %w", err))
		}
	})
}

// before is what beforeChange remembers for the after callbacks.
type before struct {
	id     string
	key    interface{}
	values map[string]interface{}
}

// beforeChange loads the stored row of a single-entity update or delete.
// Statements without a primary key on the model are not tracked.
func (h *Historizable) beforeChange(db *gorm.DB) {
	b, ok := h.behaviorFor(db)
	if !ok {
		return
	}
	rv := reflect.Indirect(db.Statement.ReflectValue)
	if rv.Kind() != reflect.Struct {
		return
	}
	id, key, ok := primaryKey(db, rv)
	if !ok {
		return
	}

	values, err := b.load(db, key)
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			db.AddError(fmt.Errorf("failed to load previous state: %w", err))
		}
		return
	}
	db.InstanceSet(beforeKey, &before{id: id, key: key, values: values})
}

func (h *Historizable) afterUpdate(db *gorm.DB) {
	b, ok := h.behaviorFor(db)
	if !ok {
		return
	}
	prev, ok := previous(db)
	if !ok {
		return
	}

	current, err := b.load(db, prev.key)
	if err != nil {
		db.AddError(fmt.Errorf("failed to load updated state: %w", err))
		return
	}

	changed := make(map[string]interface{})
	replaced := make(map[string]interface{})
	for _, col := range b.columns {
		if !valuesEqual(prev.values[col], current[col]) {
			changed[col] = current[col]
			replaced[col] = prev.values[col]
		}
	}
	if len(changed) == 0 {
		return
	}

	entity := db.Statement.ReflectValue.Interface()
	data, err := b.saveValues(changed, entity)
	if err != nil {
		db.AddError(err)
		return
	}
	old, err := b.saveValues(replaced, entity)
	if err != nil {
		db.AddError(err)
		return
	}
	if err := b.record(db, prev.id, models.ActionUpdate, data, old); err != nil {
		db.AddError(fmt.Errorf("failed to record history: %w", err))
	}
}

func (h *Historizable) afterDelete(db *gorm.DB) {
	b, ok := h.behaviorFor(db)
	if !ok {
		return
	}
	prev, ok := previous(db)
	if !ok {
		return
	}

	old, err := b.saveValues(prev.values, db.Statement.ReflectValue.Interface())
	if err != nil {
		db.AddError(err)
		return
	}
	if err := b.record(db, prev.id, models.ActionDelete, models.JSONMap{}, old); err != nil {
		db.AddError(fmt.Errorf("failed to record history: %w", err))
	}
}

func previous(db *gorm.DB) (*before, bool) {
	v, ok := db.InstanceGet(beforeKey)
	if !ok {
		return nil, false
	}
	prev, ok := v.(*before)
	return prev, ok
}

// load reads the stored row by primary key and snapshots its tracked columns.
func (b *Behavior) load(db *gorm.DB, key interface{}) (map[string]interface{}, error) {
	stmt := db.Statement
	pk := stmt.Schema.PrioritizedPrimaryField
	dest := reflect.New(stmt.Schema.ModelType)

	err := db.Session(&gorm.Session{NewDB: true, SkipHooks: true}).
		Unscoped().
		Table(stmt.Table).
		Where(clause.Eq{Column: clause.Column{Name: pk.DBName}, Value: key}).
		Take(dest.Interface()).Error
	if err != nil {
		return nil, err
	}
	return b.snapshot(db, dest.Elem()), nil
}

func eachRecord(rv reflect.Value, fn func(reflect.Value)) {
	rv = reflect.Indirect(rv)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			elem := reflect.Indirect(rv.Index(i))
			if elem.Kind() == reflect.Struct {
				fn(elem)
			}
		}
	case reflect.Struct:
		fn(rv)
	}
}

// primaryKey returns the key of rv both as stored in foreign_key and as the raw value.
func primaryKey(db *gorm.DB, rv reflect.Value) (string, interface{}, bool) {
	pk := db.Statement.Schema.PrioritizedPrimaryField
	if pk == nil {
		return "", nil, false
	}
	v, zero := pk.ValueOf(db.Statement.Context, rv)
	if zero {
		return "", nil, false
	}
	return fmt.Sprint(normalize(v)), v, true
}
