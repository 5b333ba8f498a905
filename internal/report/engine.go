// Package report aggregates invoices and expenses into day and month
// reports with a generated narrative summary, and formats them for
// export. The engine itself never mutates the document.
package report

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"sanjustore/backend/internal/cache"
	"sanjustore/backend/internal/domain"
)

const noActivityNarrative = "No financial activity recorded for this period."

type Engine struct {
	cache    cache.ReportCache
	cacheTTL time.Duration

	now func() time.Time
}

func NewEngine(cacheStore cache.ReportCache, cacheTTL time.Duration) *Engine {
	if cacheStore == nil {
		cacheStore = cache.NoopReportCache{}
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}

	return &Engine{
		cache:    cacheStore,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// Build filters the given collections by the requested period and
// computes totals and narrative. Unparsable selections fall back to
// today (daily) or the current year/month (monthly); the report echoes
// whichever selection was actually used.
func (e *Engine) Build(
	ctx context.Context,
	invoices []domain.Invoice,
	expenses []domain.Expense,
	period string,
	selectedDate string,
	selectedMonth string,
) domain.Report {
	if period != domain.PeriodMonthly {
		period = domain.PeriodDaily
	}

	var report domain.Report
	var cacheKey string

	switch period {
	case domain.PeriodMonthly:
		year, month := e.resolveMonth(selectedMonth)
		cacheKey = fmt.Sprintf("%s:%d-%02d", period, year, month)
		if cached, ok, err := e.cache.Get(ctx, cacheKey); err == nil && ok {
			return *cached
		}
		report = buildMonthly(invoices, expenses, year, month)
	default:
		day := e.resolveDate(selectedDate)
		cacheKey = period + ":" + day
		if cached, ok, err := e.cache.Get(ctx, cacheKey); err == nil && ok {
			return *cached
		}
		report = buildDaily(invoices, expenses, day)
	}

	report.Narrative = narrative(report)
	_ = e.cache.Set(ctx, cacheKey, &report, e.cacheTTL)
	return report
}

// Invalidate drops every cached report. Called after each mutation of
// the underlying document.
func (e *Engine) Invalidate(ctx context.Context) error {
	return e.cache.Invalidate(ctx)
}

// resolveDate parses a daily selection, substituting today on failure.
func (e *Engine) resolveDate(selected string) string {
	selected = strings.TrimSpace(selected)
	if _, err := time.Parse(domain.DateLayout, selected); err != nil {
		return e.now().Format(domain.DateLayout)
	}
	return selected
}

// resolveMonth parses a YYYY-MM selection, substituting the current
// year and month on failure. Like the date selection, the month parts
// only need to be integers; an out-of-range month simply matches
// nothing.
func (e *Engine) resolveMonth(selected string) (year int, month int) {
	parts := strings.Split(strings.TrimSpace(selected), "-")
	if len(parts) == 2 {
		y, errY := strconv.Atoi(parts[0])
		m, errM := strconv.Atoi(parts[1])
		if errY == nil && errM == nil {
			return y, m
		}
	}
	now := e.now()
	return now.Year(), int(now.Month())
}

func buildDaily(invoices []domain.Invoice, expenses []domain.Expense, day string) domain.Report {
	filteredInvoices := make([]domain.Invoice, 0)
	for _, inv := range invoices {
		parsed, err := time.Parse(domain.DateLayout, inv.EffectiveDate())
		if err != nil {
			continue
		}
		if parsed.Format(domain.DateLayout) == day {
			filteredInvoices = append(filteredInvoices, inv)
		}
	}

	// Expense dates are matched verbatim on the daily path; no parsing.
	filteredExpenses := make([]domain.Expense, 0)
	for _, exp := range expenses {
		if exp.Date == day {
			filteredExpenses = append(filteredExpenses, exp)
		}
	}

	report := totals(filteredInvoices, filteredExpenses)
	report.Period = domain.PeriodDaily
	report.SelectedDate = day
	report.Label = day + " (Daily)"
	return report
}

func buildMonthly(invoices []domain.Invoice, expenses []domain.Expense, year int, month int) domain.Report {
	filteredInvoices := make([]domain.Invoice, 0)
	for _, inv := range invoices {
		parsed, err := time.Parse(domain.DateLayout, inv.EffectiveDate())
		if err != nil {
			continue
		}
		if parsed.Year() == year && int(parsed.Month()) == month {
			filteredInvoices = append(filteredInvoices, inv)
		}
	}

	filteredExpenses := make([]domain.Expense, 0)
	for _, exp := range expenses {
		if exp.Date == "" {
			continue
		}
		parsed, err := time.Parse(domain.DateLayout, exp.Date)
		if err != nil {
			continue
		}
		if parsed.Year() == year && int(parsed.Month()) == month {
			filteredExpenses = append(filteredExpenses, exp)
		}
	}

	report := totals(filteredInvoices, filteredExpenses)
	report.Period = domain.PeriodMonthly
	report.SelectedMonth = fmt.Sprintf("%d-%02d", year, month)
	report.Label = fmt.Sprintf("%d-%02d (Monthly)", year, month)
	return report
}

func totals(invoices []domain.Invoice, expenses []domain.Expense) domain.Report {
	var salesTotal, expensesTotal float64
	for _, inv := range invoices {
		salesTotal += inv.Total
	}
	for _, exp := range expenses {
		expensesTotal += exp.Amount
	}

	return domain.Report{
		SalesTotal:    salesTotal,
		ExpensesTotal: expensesTotal,
		NetTotal:      salesTotal - expensesTotal,
		InvoiceCount:  len(invoices),
		ExpenseCount:  len(expenses),
		Invoices:      invoices,
		Expenses:      expenses,
	}
}

func narrative(report domain.Report) string {
	if report.InvoiceCount == 0 && report.ExpenseCount == 0 {
		return noActivityNarrative
	}

	trend := "balanced"
	if report.NetTotal > 0 {
		trend = "profitable"
	} else if report.NetTotal < 0 {
		trend = "loss-making"
	}

	summary := fmt.Sprintf(
		"AI summary: For %s, total sales are Rs. %.2f across %d invoice(s), with expenses of Rs. %.2f. The period is %s with a net of Rs. %.2f. ",
		report.Label, report.SalesTotal, report.InvoiceCount, report.ExpensesTotal, trend, report.NetTotal,
	)
	if report.ExpensesTotal > 0 {
		summary += "Consider reviewing infrastructure and operational costs to optimize profit."
	} else {
		summary += "No expenses recorded, so all sales are currently counted as profit."
	}
	return summary
}
