// Package container provides dependency injection and lifecycle management
// for the portal: configuration in, wired services out, torn down in reverse order.
package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/firm-portal/internal/application/dispatcher"
	"github.com/garyjia/firm-portal/internal/application/service"
	"github.com/garyjia/firm-portal/internal/application/session"
	"github.com/garyjia/firm-portal/internal/config"
	"github.com/garyjia/firm-portal/internal/infrastructure/httpclient"
	"github.com/garyjia/firm-portal/internal/report"
)

// Container manages all application dependencies and lifecycle.
type Container struct {
	config *config.Config
	logger *zap.Logger

	// forwardOnly drops stored tokens from outgoing calls; the gateway
	// relies on the browser's forwarded credentials instead.
	forwardOnly bool

	// Infrastructure
	database *DatabaseBundle
	client   *httpclient.Client

	// Application
	dispatcher dispatcher.Dispatcher
	sessions   *session.Manager
	services   *ServiceBundle
	exporter   *report.LeaveExporter

	// Lifecycle
	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Auth      service.AuthService
	Leave     service.LeaveService
	Views     *service.LeaveViews
	Blog      service.BlogService
	Staff     service.StaffService
	Directory service.DirectoryService
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// Option configures a Container
type Option func(*Container)

// ForwardOnly makes backend calls carry only request-scoped credentials
func ForwardOnly() Option {
	return func(c *Container) {
		c.forwardOnly = true
	}
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	c := &Container{
		config: cfg,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Start initializes all components in dependency order:
// 1. Database and session store
// 2. Event dispatcher
// 3. Session manager (hydrated from the store)
// 4. Backend client
// 5. Application services
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	db, err := ProvideDatabase(ctx, c.config.Database, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.database = db
	c.logger.Info("Database initialized")

	c.dispatcher = ProvideDispatcher(c.logger)

	// a forward-only gateway leaves stored sessions alone on backend 401s
	sessionEvents := c.dispatcher
	if c.forwardOnly {
		sessionEvents = nil
	}
	sessions, err := ProvideSessionManager(ctx, db.Sessions, sessionEvents, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize sessions: %w", err)
	}
	c.sessions = sessions
	c.logger.Info("Sessions hydrated", zap.String("visitor_id", sessions.VisitorID()))

	var tokens httpclient.TokenSource
	if !c.forwardOnly {
		tokens = sessions
	}
	c.client = ProvideHTTPClient(c.config.API, tokens, c.logger)
	c.logger.Info("Backend client initialized",
		zap.String("base_url", c.config.API.BaseURL),
		zap.Bool("forward_only", c.forwardOnly))

	c.services = ProvideServices(c.client, sessions, c.dispatcher, c.logger)
	c.exporter = report.NewLeaveExporter(c.logger)
	c.logger.Info("Application services initialized")

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

// Close shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	if c.database != nil {
		if err := c.database.Conn.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	if c.database != nil {
		if err := c.database.Conn.PingContext(ctx); err != nil {
			status.Components["database"] = ComponentHealth{Healthy: false, Message: err.Error()}
			status.Overall = false
		} else {
			status.Components["database"] = ComponentHealth{Healthy: true}
		}
	} else {
		status.Components["database"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	}

	if c.sessions != nil && c.sessions.VisitorID() != "" {
		status.Components["session"] = ComponentHealth{Healthy: true}
	} else {
		status.Components["session"] = ComponentHealth{Healthy: false, Message: "not hydrated"}
		status.Overall = false
	}

	return status
}

// Getters for accessing container components

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Sessions returns the session manager.
func (c *Container) Sessions() *session.Manager {
	return c.sessions
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Client returns the backend HTTP client.
func (c *Container) Client() *httpclient.Client {
	return c.client
}

// Exporter returns the leave XLSX exporter.
func (c *Container) Exporter() *report.LeaveExporter {
	return c.exporter
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// KVLogger returns the key-value logger used by services and the gateway.
func (c *Container) KVLogger() service.Logger {
	return &zapLoggerAdapter{logger: c.logger}
}

// zapLoggerAdapter adapts zap.Logger to the key-value Logger interfaces
// of the service, dispatcher and gateway packages.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...any) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...any) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...any) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, isErr := keysAndValues[i+1].(error); isErr {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
