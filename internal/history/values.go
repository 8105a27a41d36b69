package history

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"time"

	"github.com/pageza/modelhistory/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// trackedColumns resolves the configured fields against the schema, or picks
// every column that is neither ignored nor the primary key.
func trackedColumns(s *schema.Schema, cfg *ModelConfig) ([]string, error) {
	if len(cfg.Fields) > 0 {
		columns := make([]string, 0, len(cfg.Fields))
		for i, f := range cfg.Fields {
			field := s.LookUpField(f.Name)
			if field == nil || field.DBName == "" {
				return nil, fmt.Errorf("%s has no column %q", s.Table, f.Name)
			}
			cfg.Fields[i].Name = field.DBName
			columns = append(columns, field.DBName)
		}
		return columns, nil
	}

	var columns []string
	for _, name := range s.DBNames {
		field := s.FieldsByDBName[name]
		if field.PrimaryKey || cfg.ignored(name) {
			continue
		}
		columns = append(columns, name)
	}
	return columns, nil
}

// snapshot reads the tracked columns of rv, normalized for comparison and storage.
func (b *Behavior) snapshot(db *gorm.DB, rv reflect.Value) map[string]interface{} {
	values := make(map[string]interface{}, len(b.columns))
	for _, col := range b.columns {
		field := db.Statement.Schema.LookUpField(col)
		if field == nil {
			continue
		}
		v, _ := field.ValueOf(db.Statement.Context, rv)
		values[col] = normalize(v)
	}
	return values
}

// saveValues passes values through obfuscation and the registered save filters.
func (b *Behavior) saveValues(values map[string]interface{}, entity interface{}) (models.JSONMap, error) {
	out := make(models.JSONMap, len(values))
	for col, v := range values {
		if b.cfg.obfuscated(col) {
			out[col] = ObfuscatedValue
			continue
		}
		if f, ok := b.h.formatters.Filter(b.table, col); ok {
			saved, err := f.Save(col, v, entity)
			if err != nil {
				return nil, err
			}
			v = saved
		}
		out[col] = v
	}
	return out, nil
}

// normalize dereferences pointers and unwraps driver.Valuer types so values of
// the same column compare and serialize consistently.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		return t
	case *time.Time:
		if t == nil {
			return nil
		}
		return *t
	case gorm.DeletedAt:
		if !t.Valid {
			return nil
		}
		return t.Time
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface())
	}
	if valuer, ok := v.(driver.Valuer); ok {
		val, err := valuer.Value()
		if err != nil {
			return v
		}
		if _, again := val.(driver.Valuer); again {
			return val
		}
		return normalize(val)
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func valuesEqual(a, b interface{}) bool {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return reflect.DeepEqual(a, b)
}
