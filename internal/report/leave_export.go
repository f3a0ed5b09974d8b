// Package report writes leave data to spreadsheets
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/firm-portal/internal/domain/entity"
	"github.com/garyjia/firm-portal/internal/domain/status"
)

// LeaveSheet is the name of the worksheet holding leave rows
const LeaveSheet = "Leave"

var leaveHeaders = []string{
	"Request", "Staff", "Leave Type", "Start", "End", "Days",
	"Status", "Current Approver", "Team Lead", "Line Manager", "HR", "Warnings",
}

var badgeColors = map[status.BadgeKind]string{
	status.BadgeWarning: "FFF4CE",
	status.BadgeSuccess: "DFF6DD",
	status.BadgeDanger:  "FDE7E9",
	status.BadgeNeutral: "F3F2F1",
}

// LeaveExporter renders interpreted leave views as an XLSX workbook
type LeaveExporter struct {
	logger *zap.Logger
}

// NewLeaveExporter creates a leave exporter
func NewLeaveExporter(logger *zap.Logger) *LeaveExporter {
	return &LeaveExporter{logger: logger}
}

// ExportLeaves writes views to an XLSX file at path
func (e *LeaveExporter) ExportLeaves(views []status.View, path string) error {
	f, err := e.build(views)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	e.logger.Info("Leave export written", zap.String("path", path), zap.Int("rows", len(views)))
	return nil
}

// WriteLeaves writes views as XLSX to w
func (e *LeaveExporter) WriteLeaves(views []status.View, w io.Writer) error {
	f, err := e.build(views)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func (e *LeaveExporter) build(views []status.View) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), LeaveSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := e.writeHeader(f); err != nil {
		_ = f.Close()
		return nil, err
	}

	badgeStyles, err := newBadgeStyles(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	for i, view := range views {
		row := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(LeaveSheet, cell, &[]any{
			view.ID,
			view.Staff,
			view.LeaveType,
			view.StartDate.String(),
			view.EndDate.String(),
			view.Days,
			view.Display.Label,
			view.Display.CurrentApprover,
			stepCell(view.Rows, entity.ApproverTeamLead),
			stepCell(view.Rows, entity.ApproverLineManager),
			stepCell(view.Rows, entity.ApproverHR),
			strings.Join(view.Warnings, "; "),
		}); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", row, err)
		}

		statusCell, _ := excelize.CoordinatesToCellName(7, row)
		if err := f.SetCellStyle(LeaveSheet, statusCell, statusCell, badgeStyles[view.Display.Badge]); err != nil {
			e.logger.Warn("Failed to style status cell", zap.String("cell", statusCell), zap.Error(err))
		}
	}

	return f, nil
}

func (e *LeaveExporter) writeHeader(f *excelize.File) error {
	header := make([]any, len(leaveHeaders))
	for i, h := range leaveHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(LeaveSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(leaveHeaders), 1)
	if err := f.SetCellStyle(LeaveSheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	lastCol, _ := excelize.ColumnNumberToName(len(leaveHeaders))
	if err := f.SetColWidth(LeaveSheet, "A", lastCol, 18); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	return nil
}

func newBadgeStyles(f *excelize.File) (map[status.BadgeKind]int, error) {
	styles := make(map[status.BadgeKind]int, len(badgeColors))
	for badge, color := range badgeColors {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s style: %w", badge, err)
		}
		styles[badge] = id
	}
	return styles, nil
}

// stepCell summarises the chain step for role, e.g. "Approved (Tara)"
func stepCell(rows []status.ChainRow, role entity.ApproverRole) string {
	for _, row := range rows {
		if row.Role == role {
			return fmt.Sprintf("%s (%s)", row.StatusLabel, row.Assignee)
		}
	}
	return ""
}
