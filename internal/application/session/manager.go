// Package session holds the signed-in state of the portal: one session per auth
// scope plus the anonymous visitor id used for blog likes. It is created once at
// startup, hydrated from its store and cleared on logout.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/firm-portal/internal/application/dispatcher"
	"github.com/garyjia/firm-portal/internal/application/port"
	"github.com/garyjia/firm-portal/internal/domain/entity"
	"github.com/garyjia/firm-portal/internal/domain/event"
)

// ErrInvalidScope is returned for scopes other than cms and leave
var ErrInvalidScope = errors.New("invalid auth scope")

type scopeKey struct{}

// WithScope marks ctx as acting for scope; Token uses it to pick the session
func WithScope(ctx context.Context, scope entity.Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// ScopeFrom returns the scope set by WithScope
func ScopeFrom(ctx context.Context) (entity.Scope, bool) {
	scope, ok := ctx.Value(scopeKey{}).(entity.Scope)
	return scope, ok
}

// Manager owns the sessions of this process
type Manager struct {
	store      port.SessionStore
	dispatcher dispatcher.Dispatcher
	logger     *zap.Logger
	now        func() time.Time

	mu        sync.RWMutex
	sessions  map[entity.Scope]*entity.Session
	visitorID string
}

// Option configures a Manager
type Option func(*Manager)

// WithDispatcher publishes session events and listens for auth.required
func WithDispatcher(d dispatcher.Dispatcher) Option {
	return func(m *Manager) {
		m.dispatcher = d
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a manager. Call Hydrate before use.
func NewManager(store port.SessionStore, logger *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[entity.Scope]*entity.Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.dispatcher != nil {
		m.dispatcher.SubscribeNamed(event.TypeAuthRequired, "session.clear", m.handleAuthRequired)
	}
	return m
}

// Hydrate loads stored sessions and makes sure a visitor id exists
func (m *Manager) Hydrate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, scope := range []entity.Scope{entity.ScopeCMS, entity.ScopeLeave} {
		s, err := m.store.Load(ctx, scope)
		if errors.Is(err, port.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to hydrate session: %w", err)
		}
		m.sessions[scope] = s
	}

	id, err := m.store.VisitorID(ctx)
	if errors.Is(err, port.ErrNotFound) {
		if err := m.store.SaveVisitorID(ctx, uuid.NewString()); err != nil {
			return err
		}
		// another process may have saved first; the stored id wins
		if id, err = m.store.VisitorID(ctx); err != nil {
			return fmt.Errorf("failed to load visitor id: %w", err)
		}
		m.logger.Info("Generated visitor id", zap.String("visitor_id", id))
	} else if err != nil {
		return fmt.Errorf("failed to load visitor id: %w", err)
	}
	m.visitorID = id

	m.logger.Info("Sessions hydrated", zap.Int("count", len(m.sessions)))
	return nil
}

// Current returns a copy of the session for scope
func (m *Manager) Current(scope entity.Scope) (*entity.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[scope]
	if !ok {
		return nil, false
	}
	copied := *s
	return &copied, true
}

// Login stores a new session for scope
func (m *Manager) Login(ctx context.Context, scope entity.Scope, token string, user *entity.StaffMember) (*entity.Session, error) {
	if !scope.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidScope, scope)
	}

	s := &entity.Session{
		Scope:       scope,
		AccessToken: token,
		User:        user,
		UpdatedAt:   m.now(),
	}
	m.applyExpiry(s)

	if err := m.save(ctx, s); err != nil {
		return nil, err
	}

	m.publish(ctx, event.New(event.TypeSessionStarted, string(scope), "", map[string]any{
		event.KeyExpiresAt: s.ExpiresAt,
	}))
	copied := *s
	return &copied, nil
}

// UpdateToken replaces the access token of scope, keeping the signed-in user
func (m *Manager) UpdateToken(ctx context.Context, scope entity.Scope, token string) error {
	if !scope.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidScope, scope)
	}

	s := &entity.Session{Scope: scope}
	if current, ok := m.Current(scope); ok {
		s = current
	}
	s.AccessToken = token
	s.UpdatedAt = m.now()
	m.applyExpiry(s)

	return m.save(ctx, s)
}

// Clear removes the session for scope. The visitor id is kept.
func (m *Manager) Clear(ctx context.Context, scope entity.Scope) error {
	m.mu.Lock()
	_, existed := m.sessions[scope]
	delete(m.sessions, scope)
	m.mu.Unlock()

	if err := m.store.Delete(ctx, scope); err != nil {
		return err
	}

	if existed {
		m.publish(ctx, event.New(event.TypeSessionEnded, string(scope), "", nil))
	}
	return nil
}

// VisitorID returns the anonymous visitor id
func (m *Manager) VisitorID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.visitorID
}

// Token returns the access token for the scope on ctx, or "" when signed out
func (m *Manager) Token(ctx context.Context) (string, error) {
	scope, ok := ScopeFrom(ctx)
	if !ok {
		return "", nil
	}
	s, ok := m.Current(scope)
	if !ok {
		return "", nil
	}
	if s.Expired(m.now()) {
		m.logger.Debug("Sending expired token", zap.String("scope", string(scope)))
	}
	return s.AccessToken, nil
}

// NeedsRefresh reports whether the scope's token expires within skew
func (m *Manager) NeedsRefresh(scope entity.Scope, skew time.Duration) bool {
	s, ok := m.Current(scope)
	return ok && s.NeedsRefresh(m.now(), skew)
}

func (m *Manager) applyExpiry(s *entity.Session) {
	s.ExpiresAt = time.Time{}
	exp, ok, err := TokenExpiry(s.AccessToken)
	if err != nil {
		// opaque tokens are fine; the backend decides
		m.logger.Debug("Access token is not a JWT", zap.String("scope", string(s.Scope)))
		return
	}
	if ok {
		s.ExpiresAt = exp
	}
}

func (m *Manager) save(ctx context.Context, s *entity.Session) error {
	if err := m.store.Save(ctx, s); err != nil {
		return err
	}
	m.mu.Lock()
	m.sessions[s.Scope] = s
	m.mu.Unlock()
	return nil
}

func (m *Manager) publish(ctx context.Context, evt *event.Event) {
	if m.dispatcher == nil {
		return
	}
	if err := m.dispatcher.Dispatch(ctx, evt); err != nil {
		m.logger.Warn("Session event handlers failed", zap.String("event_type", evt.Type.String()), zap.Error(err))
	}
}

func (m *Manager) handleAuthRequired(ctx context.Context, evt *event.Event) error {
	scope := entity.Scope(evt.Scope)
	if !scope.IsValid() {
		return nil
	}
	m.logger.Info("Backend rejected credentials, clearing session",
		zap.String("scope", evt.Scope),
		zap.String("path", evt.PayloadString(event.KeyPath)))
	return m.Clear(ctx, scope)
}
