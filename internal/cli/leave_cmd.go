package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/garyjia/firm-portal/internal/application/service"
	"github.com/garyjia/firm-portal/internal/domain/entity"
	"github.com/garyjia/firm-portal/internal/domain/status"
)

func (a *app) newLeaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leave",
		Short: "Leave requests, approvals and balances",
	}

	cmd.AddCommand(a.newLeaveListCmd())
	cmd.AddCommand(a.newLeavePendingCmd())
	cmd.AddCommand(a.newLeaveDecisionCmd("approve"))
	cmd.AddCommand(a.newLeaveDecisionCmd("reject"))
	cmd.AddCommand(a.newLeaveBalanceCmd())
	cmd.AddCommand(a.newLeaveTypesCmd())
	cmd.AddCommand(a.newLeaveExportCmd())
	return cmd
}

func (a *app) newLeaveListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your leave requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			views, err := a.env.Views.Mine(cmd.Context())
			if err != nil {
				return err
			}
			return a.printViews(views, false)
		},
	}
}

func (a *app) newLeavePendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List requests waiting for your approval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			views, err := a.env.Views.Pending(cmd.Context(), a.viewer())
			if err != nil {
				return err
			}
			return a.printViews(views, true)
		},
	}
}

// viewer is the signed-in leave portal user, if known
func (a *app) viewer() *entity.StaffMember {
	sess, ok := a.env.Sessions.Current(entity.ScopeLeave)
	if !ok {
		return nil
	}
	return sess.User
}

func (a *app) printViews(views []status.View, withAction bool) error {
	if a.opts.JSON {
		return writeJSON(a.out, views)
	}

	headers := []string{"ID", "STAFF", "TYPE", "START", "END", "DAYS", "STATUS", "WAITING ON"}
	if withAction {
		headers = append(headers, "CAN ACT")
	} else {
		headers = append(headers, "WARNINGS")
	}

	t := newTable(a.out, headers...)
	for _, v := range views {
		cells := []string{
			v.ID, v.Staff, v.LeaveType, v.StartDate.String(), v.EndDate.String(),
			days(v.Days), v.Display.Label, v.Display.CurrentApprover,
		}
		if withAction {
			cells = append(cells, yesNo(actionable(v)))
		} else {
			cells = append(cells, strings.Join(v.Warnings, "; "))
		}
		t.row(cells...)
	}
	return t.flush()
}

func actionable(v status.View) bool {
	for _, row := range v.Rows {
		if row.Actionable {
			return true
		}
	}
	return false
}

var decided = map[string]string{"approve": "approved", "reject": "rejected"}

func (a *app) newLeaveDecisionCmd(action string) *cobra.Command {
	var current, reason, comment string

	cmd := &cobra.Command{
		Use:   action + " <request-id>",
		Short: strings.ToUpper(action[:1]) + action[1:] + " a leave request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := service.Decision{
				RequestID:     args[0],
				CurrentStatus: current,
				DecisionForm:  entity.DecisionForm{Reason: reason, Comment: comment},
			}

			var err error
			if action == "approve" {
				err = a.env.Leave.Approve(cmd.Context(), d)
			} else {
				err = a.env.Leave.Reject(cmd.Context(), d)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Request %s %s\n", d.RequestID, decided[action])
			return nil
		},
	}

	cmd.Flags().StringVar(&current, "status", "", "Current status of the request, checked before sending")
	cmd.Flags().StringVar(&comment, "comment", "", "Comment for the requester")
	if action == "reject" {
		cmd.Flags().StringVar(&reason, "reason", "", "Reason for rejecting (required)")
		_ = cmd.MarkFlagRequired("reason")
	}
	return cmd
}

func (a *app) newLeaveBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show your leave balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			balances, err := a.env.Leave.MyBalance(cmd.Context())
			if err != nil {
				return err
			}
			if a.opts.JSON {
				return writeJSON(a.out, balances)
			}

			t := newTable(a.out, "TYPE", "ALLOCATED", "CARRIED", "USED", "PENDING", "AVAILABLE", "OVERDRAWN")
			for _, b := range balances {
				t.row(b.LeaveType.Label(), days(b.Allocated), days(b.CarriedOver),
					days(b.Used), days(b.Pending), days(b.Available()), yesNo(b.Overdrawn()))
			}
			return t.flush()
		},
	}
}

func (a *app) newLeaveTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List leave types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			types, err := a.env.Leave.Types(cmd.Context())
			if err != nil {
				return err
			}
			if a.opts.JSON {
				return writeJSON(a.out, types)
			}

			t := newTable(a.out, "ID", "NAME", "DEFAULT DAYS", "DOCUMENT")
			for _, lt := range types {
				t.row(lt.ID, lt.Name, days(lt.DefaultDays), yesNo(lt.RequiresDocument))
			}
			return t.flush()
		},
	}
}

func (a *app) newLeaveExportCmd() *cobra.Command {
	var output string
	var pending bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export leave requests to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !strings.EqualFold(filepath.Ext(output), ".xlsx") {
				return withCode(exitUsage, fmt.Errorf("--output must end in .xlsx"))
			}

			var views []status.View
			var err error
			if pending {
				views, err = a.env.Views.Pending(cmd.Context(), a.viewer())
			} else {
				views, err = a.env.Views.Mine(cmd.Context())
			}
			if err != nil {
				return err
			}

			if err := a.env.Exporter.ExportLeaves(views, output); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Exported %d requests to %s\n", len(views), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Workbook path (required)")
	cmd.Flags().BoolVar(&pending, "pending", false, "Export pending approvals instead of your own requests")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
