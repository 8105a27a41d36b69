package history

// Filter converts a single field value on its way into the history table (Save)
// and back out for presentation (Display). The entity is the model instance the
// value belongs to; it may be nil when a value is rendered from stored history.
type Filter interface {
	Save(field string, value any, entity any) (any, error)
	Display(field string, value any, entity any) (string, error)
}
