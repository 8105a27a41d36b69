package history

import "errors"

var (
	ErrModelNotTracked  = errors.New("model is not tracked")
	ErrNotInitialized   = errors.New("history plugin is not initialized")
	ErrEmptyComment     = errors.New("comment must not be empty")
	ErrRevisionNotFound = errors.New("revision not found")
	ErrEntityNotFound   = errors.New("entity not found")
)
