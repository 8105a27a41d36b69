package history

import "strings"

// ObfuscatedValue replaces the value of obfuscated fields in stored history.
const ObfuscatedValue = "****"

// Fields never tracked unless listed explicitly in ModelConfig.Fields.
var defaultIgnoredFields = []string{"id", "created_at", "updated_at", "deleted_at"}

// Default author lookup used by UserNameFields.
var (
	DefaultUserTable      = "users"
	DefaultUserTableAlias = "Users"
	DefaultUserNameFields = []string{"firstname", "lastname", "id"}
)

// FieldConfig describes one tracked column.
type FieldConfig struct {
	// Name is the column name.
	Name string
	// Label is shown instead of Name when history is displayed.
	Label string
	// Searchable fields can be used to filter history.
	Searchable bool
	// Obfuscated values are stored as ObfuscatedValue.
	Obfuscated bool
}

// Relation points a foreign key column at the row it references.
type Relation struct {
	Table        string
	DisplayField string
	// Path is the view route of the related entity; ":id" is replaced by the key.
	Path string
}

// ModelConfig configures history tracking for one model.
type ModelConfig struct {
	// Fields to track. Empty tracks every column except IgnoredFields.
	Fields []FieldConfig
	// IgnoredFields is only consulted when Fields is empty.
	IgnoredFields []string
	Relations     map[string]Relation

	// DisplayField and ViewPath let other models link to this one by
	// naming a column "<table>_id".
	DisplayField string
	ViewPath     string

	UserTable      string
	UserTableAlias string
	UserNameFields []string
}

func (c *ModelConfig) applyDefaults() {
	if c.IgnoredFields == nil {
		c.IgnoredFields = defaultIgnoredFields
	}
	if c.UserTable == "" {
		c.UserTable = DefaultUserTable
	}
	if c.UserTableAlias == "" {
		c.UserTableAlias = DefaultUserTableAlias
	}
	if len(c.UserNameFields) == 0 {
		c.UserNameFields = DefaultUserNameFields
	}
}

func (c *ModelConfig) field(name string) (FieldConfig, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldConfig{}, false
}

func (c *ModelConfig) ignored(name string) bool {
	for _, f := range c.IgnoredFields {
		if f == name {
			return true
		}
	}
	return false
}

// label returns the configured label or a humanized column name.
func (c *ModelConfig) label(name string) string {
	if f, ok := c.field(name); ok && f.Label != "" {
		return f.Label
	}
	words := strings.Split(strings.TrimSuffix(name, "_id"), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func (c *ModelConfig) obfuscated(name string) bool {
	f, ok := c.field(name)
	return ok && f.Obfuscated
}
