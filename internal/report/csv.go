package report

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"sanjustore/backend/internal/domain"
)

// ToCSV renders a report in the fixed export layout: a summary block,
// a blank separator row, the invoices block, another separator, then
// the expenses block. Field order and "-" placeholders are a
// compatibility contract for anything parsing the export.
func ToCSV(report domain.Report) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	write := func(row ...string) { _ = w.Write(row) }

	write("Report", report.Label)
	write("Total sales", formatAmount(report.SalesTotal))
	write("Total expenses", formatAmount(report.ExpensesTotal))
	write("Net (sales - expenses)", formatAmount(report.NetTotal))
	write("")

	write("Invoices")
	write("Invoice #", "Date", "Customer", "Total", "Payment mode")
	for _, inv := range report.Invoices {
		write(
			inv.InvoiceNumber,
			inv.EffectiveDate(),
			orDash(inv.CustomerName),
			formatAmount(inv.Total),
			orDash(inv.PaymentMode),
		)
	}
	write("")

	write("Expenses")
	write("Date", "Description", "Category", "Amount")
	for _, exp := range report.Expenses {
		write(
			exp.Date,
			exp.Description,
			orDash(exp.Category),
			formatAmount(exp.Amount),
		)
	}

	w.Flush()
	return buf.Bytes()
}

// Filename suggests the download name for an exported report, e.g.
// report-daily-2024-03-15.csv or report-monthly-2024-03.csv.
func Filename(report domain.Report) string {
	selection := report.SelectedDate
	if report.Period == domain.PeriodMonthly {
		selection = report.SelectedMonth
	}
	return fmt.Sprintf("report-%s-%s.csv", report.Period, selection)
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
