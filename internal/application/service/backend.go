package service

import (
	"context"
	"errors"

	"github.com/garyjia/firm-portal/internal/application/dispatcher"
	"github.com/garyjia/firm-portal/internal/application/session"
	"github.com/garyjia/firm-portal/internal/domain/entity"
	"github.com/garyjia/firm-portal/internal/domain/event"
	"github.com/garyjia/firm-portal/internal/infrastructure/httpclient"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

var (
	// ErrNotActionable is returned when a leave request is not in a state the action applies to
	ErrNotActionable = errors.New("leave request cannot take this action")

	// ErrUnsupportedPhoto is returned for staff photos that are not images
	ErrUnsupportedPhoto = errors.New("unsupported photo type")

	// ErrNoVisitor is returned when liking a post before the session is hydrated
	ErrNoVisitor = errors.New("visitor id not initialised")
)

// backend is the shared plumbing of the API services
type backend struct {
	client *httpclient.Client
	events dispatcher.Dispatcher
	logger Logger
}

// call sends req for scope and decodes the response data into out, if given.
// An empty scope sends no stored token. A 401 publishes auth.required for scope,
// unless the call carried forwarded credentials that are not ours to clear.
func (b *backend) call(ctx context.Context, scope entity.Scope, req httpclient.Request, out any) error {
	if scope != "" {
		ctx = session.WithScope(ctx, scope)
	}

	result, err := b.client.Do(ctx, req)
	if err != nil {
		if _, forwarded := httpclient.CredentialsFrom(ctx); !forwarded && httpclient.IsAuthRequired(err) {
			b.publish(ctx, event.New(event.TypeAuthRequired, string(scope), "", map[string]any{
				event.KeyPath: req.Path,
			}))
		}
		return err
	}

	if out == nil {
		return nil
	}
	return result.DecodeData(out)
}

func (b *backend) publish(ctx context.Context, evt *event.Event) {
	if b.events == nil {
		return
	}
	if err := b.events.Dispatch(ctx, evt); err != nil {
		b.logger.Error("Event handlers failed", "event_type", evt.Type, "error", err)
	}
}
