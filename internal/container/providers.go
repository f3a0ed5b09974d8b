package container

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/firm-portal/internal/application/dispatcher"
	"github.com/garyjia/firm-portal/internal/application/port"
	"github.com/garyjia/firm-portal/internal/application/service"
	"github.com/garyjia/firm-portal/internal/application/session"
	"github.com/garyjia/firm-portal/internal/config"
	"github.com/garyjia/firm-portal/internal/infrastructure/httpclient"
	"github.com/garyjia/firm-portal/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/firm-portal/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	Conn           *database.DB
	TransactionMgr *sqlite.DB
	Sessions       port.SessionStore
}

// ProvideDatabase opens the session database, applies pending migrations and
// builds the SQLite session store on top of it.
func ProvideDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	conn, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(conn, logger).Run(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	txm := sqlite.NewDB(conn.DB, logger)
	return &DatabaseBundle{
		Conn:           conn,
		TransactionMgr: txm,
		Sessions:       sqlite.NewSessionStore(txm),
	}, nil
}

// ProvideDispatcher creates the in-process event dispatcher.
func ProvideDispatcher(logger *zap.Logger) dispatcher.Dispatcher {
	return dispatcher.NewDispatcher(dispatcher.WithLogger(&zapLoggerAdapter{logger: logger}))
}

// ProvideSessionManager creates the session manager and loads persisted sessions.
func ProvideSessionManager(ctx context.Context, store port.SessionStore, events dispatcher.Dispatcher, logger *zap.Logger) (*session.Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}

	manager := session.NewManager(store, logger, session.WithDispatcher(events))
	if err := manager.Hydrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to hydrate sessions: %w", err)
	}
	return manager, nil
}

// ProvideHTTPClient creates the backend client. A nil tokens source sends only
// request-scoped credentials and keeps no cookie jar.
func ProvideHTTPClient(cfg config.APIConfig, tokens httpclient.TokenSource, logger *zap.Logger) *httpclient.Client {
	clientCfg := httpclient.Config{
		BaseURL:           cfg.BaseURL,
		Timeout:           cfg.Timeout,
		RetryAttempts:     cfg.RetryAttempts,
		RetryDelay:        cfg.RetryDelay,
		RetryClientErrors: cfg.RetryClientErrors,
		UserAgent:         cfg.UserAgent,
	}

	var opts []httpclient.Option
	if tokens != nil {
		opts = append(opts, httpclient.WithTokenSource(tokens))
	} else {
		opts = append(opts, httpclient.WithoutCookieJar())
	}
	return httpclient.New(clientCfg, logger.Named("httpclient"), opts...)
}

// ProvideServices creates all application services.
func ProvideServices(client *httpclient.Client, sessions *session.Manager, events dispatcher.Dispatcher, logger *zap.Logger) *ServiceBundle {
	svcLogger := &zapLoggerAdapter{logger: logger}

	leave := service.NewLeaveService(client, events, svcLogger)
	staff := service.NewStaffService(client, events, svcLogger)

	return &ServiceBundle{
		Auth:      service.NewAuthService(client, sessions, events, svcLogger),
		Leave:     leave,
		Views:     service.NewLeaveViews(leave),
		Blog:      service.NewBlogService(client, sessions, events, svcLogger),
		Staff:     staff,
		Directory: service.NewDirectoryService(staff, svcLogger),
	}
}
