package report

import (
	"context"
	"strings"
	"testing"
	"time"

	"sanjustore/backend/internal/domain"
)

func newTestEngine() *Engine {
	e := NewEngine(nil, time.Second)
	e.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }
	return e
}

func invoiceOn(date string, total float64) domain.Invoice {
	return domain.Invoice{InvoiceDate: date, Total: total}
}

func expenseOn(date string, amount float64) domain.Expense {
	return domain.Expense{Date: date, Amount: amount}
}

func TestDailyReportKnownTotals(t *testing.T) {
	e := newTestEngine()

	report := e.Build(context.Background(),
		[]domain.Invoice{invoiceOn("2024-03-15", 500)},
		[]domain.Expense{expenseOn("2024-03-15", 200)},
		domain.PeriodDaily, "2024-03-15", "")

	if report.SalesTotal != 500 || report.ExpensesTotal != 200 || report.NetTotal != 300 {
		t.Fatalf("unexpected totals: sales=%v expenses=%v net=%v", report.SalesTotal, report.ExpensesTotal, report.NetTotal)
	}
	if report.InvoiceCount != 1 || report.ExpenseCount != 1 {
		t.Fatalf("unexpected counts: %d invoices, %d expenses", report.InvoiceCount, report.ExpenseCount)
	}
	if report.Label != "2024-03-15 (Daily)" {
		t.Fatalf("unexpected label %q", report.Label)
	}
	if !strings.Contains(report.Narrative, "profitable") {
		t.Fatalf("expected profitable trend in narrative, got %q", report.Narrative)
	}
}

func TestDailyReportExcludesOtherDays(t *testing.T) {
	e := newTestEngine()

	report := e.Build(context.Background(),
		[]domain.Invoice{invoiceOn("2024-03-14", 100), invoiceOn("2024-03-15", 50)},
		[]domain.Expense{expenseOn("2024-03-16", 75)},
		domain.PeriodDaily, "2024-03-15", "")

	if report.InvoiceCount != 1 || report.SalesTotal != 50 {
		t.Fatalf("expected only the matching invoice, got %d (sales %v)", report.InvoiceCount, report.SalesTotal)
	}
	if report.ExpenseCount != 0 {
		t.Fatalf("expected no expenses, got %d", report.ExpenseCount)
	}
}

func TestDailyReportUsesCreatedAtWhenDateMissing(t *testing.T) {
	e := newTestEngine()

	inv := domain.Invoice{CreatedAt: "2024-03-15 09:30:00", Total: 120}
	report := e.Build(context.Background(), []domain.Invoice{inv}, nil, domain.PeriodDaily, "2024-03-15", "")

	if report.InvoiceCount != 1 {
		t.Fatalf("expected created_at date portion to match, got %d invoices", report.InvoiceCount)
	}
}

func TestDailyReportInvalidDateFallsBackToToday(t *testing.T) {
	e := newTestEngine()

	report := e.Build(context.Background(),
		[]domain.Invoice{invoiceOn("2024-03-15", 10)},
		nil,
		domain.PeriodDaily, "not-a-date", "")

	if report.SelectedDate != "2024-03-15" {
		t.Fatalf("expected fallback to today echoed back, got %q", report.SelectedDate)
	}
	if report.InvoiceCount != 1 {
		t.Fatalf("expected today's invoice included, got %d", report.InvoiceCount)
	}
}

func TestMonthlyReportFiltering(t *testing.T) {
	e := newTestEngine()

	report := e.Build(context.Background(),
		[]domain.Invoice{
			invoiceOn("2024-02-29", 100),
			invoiceOn("2024-03-01", 200),
			invoiceOn("2024-03-31", 300),
			invoiceOn("2024-04-01", 400),
		},
		[]domain.Expense{
			expenseOn("2024-03-10", 50),
			expenseOn("2024-04-10", 60),
			expenseOn("", 70),
		},
		domain.PeriodMonthly, "", "2024-03")

	if report.InvoiceCount != 2 || report.SalesTotal != 500 {
		t.Fatalf("expected the two March invoices, got %d (sales %v)", report.InvoiceCount, report.SalesTotal)
	}
	if report.ExpenseCount != 1 || report.ExpensesTotal != 50 {
		t.Fatalf("expected one March expense, got %d (total %v)", report.ExpenseCount, report.ExpensesTotal)
	}
	if report.Label != "2024-03 (Monthly)" {
		t.Fatalf("unexpected label %q", report.Label)
	}
}

func TestMonthlyReportInvalidMonthFallsBack(t *testing.T) {
	e := newTestEngine()

	report := e.Build(context.Background(), nil, nil, domain.PeriodMonthly, "", "bogus")
	if report.SelectedMonth != "2024-03" {
		t.Fatalf("expected current month echoed back, got %q", report.SelectedMonth)
	}
}

func TestMonthlyReportSkipsUnparsableDates(t *testing.T) {
	e := newTestEngine()

	report := e.Build(context.Background(),
		[]domain.Invoice{invoiceOn("15/03/2024", 100), invoiceOn("2024-03-02", 20)},
		[]domain.Expense{expenseOn("yesterday", 5)},
		domain.PeriodMonthly, "", "2024-03")

	if report.InvoiceCount != 1 || report.SalesTotal != 20 {
		t.Fatalf("expected unparsable invoice date excluded, got %d (sales %v)", report.InvoiceCount, report.SalesTotal)
	}
	if report.ExpenseCount != 0 {
		t.Fatalf("expected unparsable expense date excluded, got %d", report.ExpenseCount)
	}
}

func TestNarrativeNoActivity(t *testing.T) {
	e := newTestEngine()

	report := e.Build(context.Background(), nil, nil, domain.PeriodDaily, "2024-03-15", "")
	if report.Narrative != noActivityNarrative {
		t.Fatalf("expected no-activity narrative, got %q", report.Narrative)
	}
}

func TestNarrativeTrends(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	cases := []struct {
		name     string
		invoices []domain.Invoice
		expenses []domain.Expense
		trend    string
		tail     string
	}{
		{
			name:     "loss-making",
			invoices: []domain.Invoice{invoiceOn("2024-03-15", 100)},
			expenses: []domain.Expense{expenseOn("2024-03-15", 250)},
			trend:    "loss-making",
			tail:     "Consider reviewing infrastructure and operational costs",
		},
		{
			name:     "balanced",
			invoices: []domain.Invoice{invoiceOn("2024-03-15", 200)},
			expenses: []domain.Expense{expenseOn("2024-03-15", 200)},
			trend:    "balanced",
			tail:     "Consider reviewing infrastructure and operational costs",
		},
		{
			name:     "no expenses",
			invoices: []domain.Invoice{invoiceOn("2024-03-15", 200)},
			trend:    "profitable",
			tail:     "No expenses recorded, so all sales are currently counted as profit.",
		},
	}

	for _, tc := range cases {
		report := e.Build(ctx, tc.invoices, tc.expenses, domain.PeriodDaily, "2024-03-15", "")
		if !strings.Contains(report.Narrative, tc.trend) {
			t.Fatalf("%s: expected trend %q in narrative %q", tc.name, tc.trend, report.Narrative)
		}
		if !strings.Contains(report.Narrative, tc.tail) {
			t.Fatalf("%s: expected recommendation %q in narrative %q", tc.name, tc.tail, report.Narrative)
		}
	}
}

func TestUnknownPeriodDefaultsToDaily(t *testing.T) {
	e := newTestEngine()

	report := e.Build(context.Background(), nil, nil, "weekly", "2024-03-15", "")
	if report.Period != domain.PeriodDaily {
		t.Fatalf("expected unknown period to fall back to daily, got %q", report.Period)
	}
}
