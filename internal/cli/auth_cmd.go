package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/garyjia/firm-portal/internal/domain/entity"
)

// PasswordEnv is read when --password is not given
const PasswordEnv = "PORTAL_PASSWORD"

func scopeFlag(cmd *cobra.Command, scope *string) {
	cmd.Flags().StringVar(scope, "scope", string(entity.ScopeLeave), "Portal to act on: leave or cms")
}

func parseScope(raw string) (entity.Scope, error) {
	scope := entity.Scope(raw)
	if !scope.IsValid() {
		return "", withCode(exitUsage, fmt.Errorf("invalid --scope %q: want leave or cms", raw))
	}
	return scope, nil
}

func (a *app) newLoginCmd() *cobra.Command {
	var email, password, scope string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := parseScope(scope)
			if err != nil {
				return err
			}
			if password == "" {
				password = os.Getenv(PasswordEnv)
			}

			sess, err := a.env.Auth.Login(cmd.Context(), entity.LoginForm{
				Email:    email,
				Password: password,
				Scope:    s,
			})
			if err != nil {
				return err
			}

			if a.opts.JSON {
				return writeJSON(a.out, sess)
			}
			name := email
			if sess.User != nil && sess.User.Name != "" {
				name = sess.User.Name
			}
			fmt.Fprintf(a.out, "Signed in to %s as %s\n", s, name)
			if !sess.ExpiresAt.IsZero() {
				fmt.Fprintf(a.out, "Session expires %s\n", sess.ExpiresAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Staff email (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (default $"+PasswordEnv+")")
	scopeFlag(cmd, &scope)
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) newLogoutCmd() *cobra.Command {
	var scope string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := parseScope(scope)
			if err != nil {
				return err
			}
			if err := a.env.Auth.Logout(cmd.Context(), s); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Signed out of %s\n", s)
			return nil
		},
	}

	scopeFlag(cmd, &scope)
	return cmd
}
