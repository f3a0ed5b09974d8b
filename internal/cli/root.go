// Package cli implements portalctl, the staff command line for the leave portal and CMS.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/garyjia/firm-portal/internal/application/service"
	"github.com/garyjia/firm-portal/internal/application/session"
	"github.com/garyjia/firm-portal/internal/report"
)

// Env is what commands run against
type Env struct {
	Auth     service.AuthService
	Leave    service.LeaveService
	Views    *service.LeaveViews
	Blog     service.BlogService
	Sessions *session.Manager
	Exporter *report.LeaveExporter
}

// Loader builds the Env for a command run. The returned func releases it.
type Loader func(ctx context.Context, opts GlobalOptions) (*Env, func() error, error)

// GlobalOptions are the persistent flags shared by every command
type GlobalOptions struct {
	ConfigPath string
	Verbose    bool
	JSON       bool
}

type app struct {
	out     io.Writer
	load    Loader
	opts    GlobalOptions
	env     *Env
	release func() error
}

// offline marks commands that need no backend or session
const offline = "offline"

// NewRootCmd builds the portalctl command tree
func NewRootCmd(out io.Writer, load Loader) *cobra.Command {
	cmd, _ := newRoot(out, load)
	return cmd
}

func newRoot(out io.Writer, load Loader) (*cobra.Command, *app) {
	a := &app{out: out, load: load}

	cmd := &cobra.Command{
		Use:           "portalctl",
		Short:         "Leave portal and CMS client for firm staff",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[offline] == "true" {
				return nil
			}
			env, release, err := a.load(cmd.Context(), a.opts)
			if err != nil {
				return withCode(exitConfig, fmt.Errorf("failed to start: %w", err))
			}
			a.env, a.release = env, release
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.opts.ConfigPath, "config", "", "Path to YAML config file (default $PORTAL_CONFIG)")
	flags.BoolVarP(&a.opts.Verbose, "verbose", "v", false, "Log debug output to stderr")
	flags.BoolVar(&a.opts.JSON, "json", false, "Print JSON instead of tables")

	cmd.AddCommand(a.newLoginCmd())
	cmd.AddCommand(a.newLogoutCmd())
	cmd.AddCommand(a.newLeaveCmd())
	cmd.AddCommand(a.newStatusCmd())
	cmd.AddCommand(a.newBlogCmd())
	return cmd, a
}

// close releases the Env once. Cobra skips post-run hooks when a command fails,
// so Execute calls it again.
func (a *app) close() error {
	if a.release == nil {
		return nil
	}
	release := a.release
	a.release = nil
	return release()
}
