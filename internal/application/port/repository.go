package port

import (
	"context"
	"errors"

	"github.com/garyjia/firm-portal/internal/domain/entity"
)

// ErrNotFound is returned by stores when a record does not exist
var ErrNotFound = errors.New("not found")

// SessionStore persists sessions per auth scope and the anonymous visitor id
type SessionStore interface {
	// Load returns ErrNotFound when no session exists for scope
	Load(ctx context.Context, scope entity.Scope) (*entity.Session, error)
	Save(ctx context.Context, session *entity.Session) error
	Delete(ctx context.Context, scope entity.Scope) error

	// VisitorID returns ErrNotFound before one has been saved
	VisitorID(ctx context.Context) (string, error)
	SaveVisitorID(ctx context.Context, id string) error
}

// TransactionManager runs fn inside a transaction carried by ctx
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
