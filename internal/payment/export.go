package payment

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Payments"

var exportHeader = []string{"invoice", "member_id", "amount", "plan", "method", "status", "date", "last_attendance", "notes"}

// ExportXLSX renders every payment, newest first, as a workbook with a
// summary sheet of the current statistics.
func ExportXLSX(ctx context.Context, svc Service) ([]byte, error) {
	payments, err := svc.ListPayments(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := svc.Statistics(ctx)
	if err != nil {
		return nil, err
	}
	return buildWorkbook(payments, stats)
}

func buildWorkbook(payments []Payment, stats *Statistics) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	for c, v := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		_ = f.SetCellValue(exportSheet, cell, v)
	}
	for i, p := range payments {
		row := i + 2
		values := []interface{}{
			p.InvoiceNumber,
			p.MemberID,
			p.Amount,
			p.SubscriptionType,
			string(p.PaymentMethod),
			string(p.Status),
			p.Date.Format(time.RFC3339),
			p.LastAttendanceDate,
			p.Notes,
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			_ = f.SetCellValue(exportSheet, cell, v)
		}
	}

	_ = f.SetColWidth(exportSheet, "A", "A", 12)
	_ = f.SetColWidth(exportSheet, "B", "B", 44)
	_ = f.SetColWidth(exportSheet, "C", "C", 10)
	_ = f.SetColWidth(exportSheet, "D", "F", 14)
	_ = f.SetColWidth(exportSheet, "G", "H", 24)
	_ = f.SetColWidth(exportSheet, "I", "I", 40)

	style, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E5E7EB"}, Pattern: 1},
	})
	_ = f.SetCellStyle(exportSheet, "A1", "I1", style)

	if err := writeSummary(f, stats); err != nil {
		return nil, err
	}

	var buf *bytes.Buffer
	if buf, err = f.WriteToBuffer(); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, st *Statistics) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	rows := [][]interface{}{
		{"total_revenue", st.TotalRevenue},
		{"today_revenue", st.TodayRevenue},
		{"week_revenue", st.WeekRevenue},
		{"month_revenue", st.MonthRevenue},
		{"payment_count", st.PaymentCount},
		{"average_payment", st.AveragePayment},
	}
	plans := make([]string, 0, len(st.SubscriptionTypeBreakdown))
	for plan := range st.SubscriptionTypeBreakdown {
		plans = append(plans, plan)
	}
	sort.Strings(plans)
	for _, plan := range plans {
		rows = append(rows, []interface{}{"plan: " + plan, st.SubscriptionTypeBreakdown[plan]})
	}
	for i, r := range rows {
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+1), &r); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	_ = f.SetColWidth(sheet, "A", "A", 24)
	return nil
}
