package history

import (
	"context"

	"github.com/google/uuid"
	"github.com/pageza/modelhistory/internal/models"
)

type contextKey int

const (
	userKey contextKey = iota
	requestKey
)

// RequestContext is stored alongside each history row to tell where a change came from.
type RequestContext struct {
	Type string
	Slug string
	Data map[string]interface{}
}

// WithUser marks changes made with ctx as authored by userID.
func WithUser(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userKey, userID)
}

// UserFromContext returns the author set by WithUser.
func UserFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	id, ok := ctx.Value(userKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// WithRequestContext attaches rc to ctx.
func WithRequestContext(ctx context.Context, rc RequestContext) context.Context {
	return context.WithValue(ctx, requestKey, rc)
}

// RequestContextFrom returns the request context, defaulting to a custom one.
func RequestContextFrom(ctx context.Context) RequestContext {
	if ctx != nil {
		if rc, ok := ctx.Value(requestKey).(RequestContext); ok {
			return rc
		}
	}
	return RequestContext{Type: models.ContextTypeCustom}
}
