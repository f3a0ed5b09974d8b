package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/firm-portal/internal/config"
	"github.com/garyjia/firm-portal/internal/container"
	"github.com/garyjia/firm-portal/internal/domain/entity"
	"github.com/garyjia/firm-portal/internal/infrastructure/httpclient"
	"github.com/garyjia/firm-portal/pkg/utils"
)

// ContainerLoader builds the Env from configuration through the application container
func ContainerLoader(ctx context.Context, opts GlobalOptions) (*Env, func() error, error) {
	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	logger, err := utils.NewCLILogger(opts.Verbose)
	if err != nil {
		return nil, nil, err
	}

	c, err := container.NewContainer(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := c.Start(ctx); err != nil {
		_ = c.Close()
		return nil, nil, err
	}

	svc := c.Services()
	env := &Env{
		Auth:     svc.Auth,
		Leave:    svc.Leave,
		Views:    svc.Views,
		Blog:     svc.Blog,
		Sessions: c.Sessions(),
		Exporter: c.Exporter(),
	}

	refreshSessions(ctx, env, cfg.Session.RefreshSkew, logger)

	release := func() error {
		err := c.Close()
		_ = logger.Sync()
		return err
	}
	return env, release, nil
}

// refreshSessions renews stored tokens that expire within skew. Failures are
// logged; the command then runs with the old token and may hit a 401.
func refreshSessions(ctx context.Context, env *Env, skew time.Duration, logger *zap.Logger) {
	for _, scope := range []entity.Scope{entity.ScopeLeave, entity.ScopeCMS} {
		if !env.Sessions.NeedsRefresh(scope, skew) {
			continue
		}
		if _, err := env.Auth.Refresh(ctx, scope); err != nil {
			logger.Warn("Session refresh failed", zap.String("scope", string(scope)), zap.Error(err))
			continue
		}
		logger.Debug("Session refreshed", zap.String("scope", string(scope)))
	}
}

// Execute runs portalctl with os.Args and returns the exit status
func Execute(ctx context.Context) int {
	cmd, a := newRoot(os.Stdout, ContainerLoader)
	err := cmd.ExecuteContext(ctx)
	if cerr := a.close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if httpclient.IsAuthRequired(err) {
			fmt.Fprintln(os.Stderr, "Your session has expired. Run: portalctl login --email <you@firm>")
		}
	}
	return ExitCode(err)
}
