package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garyjia/firm-portal/internal/domain/status"
)

func (a *app) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "status <tag>",
		Short:       "Explain a leave status tag",
		Example:     "  portalctl status pending_linemanager",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{offline: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			d := status.Describe(args[0])
			if a.opts.JSON {
				return writeJSON(a.out, d)
			}

			t := newTable(a.out, "LABEL", "BADGE", "WAITING ON", "FINAL")
			t.row(d.Label, string(d.Badge), d.CurrentApprover, yesNo(d.Terminal))
			if err := t.flush(); err != nil {
				return err
			}
			if role, ok := status.RoleFromPending(args[0]); ok {
				fmt.Fprintf(a.out, "Approver role: %s\n", role)
			}
			return nil
		},
	}
}
