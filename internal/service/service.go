package service

import (
	"context"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"sanjustore/backend/internal/domain"
	"sanjustore/backend/internal/report"
	"sanjustore/backend/internal/store"
	"sanjustore/backend/internal/xid"
)

type Service struct {
	repo    store.Repository
	reports *report.Engine

	now func() time.Time
}

func New(repo store.Repository, reports *report.Engine) *Service {
	return &Service{
		repo:    repo,
		reports: reports,
		now:     time.Now,
	}
}

// ListInvoices returns invoices newest first, optionally narrowed by a
// case-insensitive customer-name substring and an exact effective-date
// match.
func (s *Service) ListInvoices(ctx context.Context, customer string, date string) ([]domain.Invoice, error) {
	invoices, err := s.repo.ListInvoices(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(invoices, func(i, j int) bool {
		return invoices[i].CreatedAt > invoices[j].CreatedAt
	})

	customer = strings.ToLower(strings.TrimSpace(customer))
	date = strings.TrimSpace(date)
	if customer == "" && date == "" {
		return invoices, nil
	}

	filtered := make([]domain.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if customer != "" && !strings.Contains(strings.ToLower(inv.CustomerName), customer) {
			continue
		}
		if date != "" && inv.EffectiveDate() != date {
			continue
		}
		filtered = append(filtered, inv)
	}
	return filtered, nil
}

func (s *Service) CreateInvoice(ctx context.Context, req domain.InvoiceCreateRequest) (domain.Invoice, error) {
	now := s.now()
	createdAt := now.Format(domain.TimestampLayout)

	invoiceDate := strings.TrimSpace(req.InvoiceDate)
	if invoiceDate == "" {
		invoiceDate = now.Format(domain.DateLayout)
	}

	// Rows with a blank description are dropped entirely; unparsable
	// quantities and prices coerce to 0.0 rather than rejecting the row.
	items := make([]domain.LineItem, 0, len(req.Items))
	var subtotal float64
	for _, row := range req.Items {
		desc := strings.TrimSpace(row.Description)
		if desc == "" {
			continue
		}
		qty := coerceAmount(row.Quantity)
		price := coerceAmount(row.UnitPrice)
		lineTotal := qty * price
		subtotal += lineTotal
		items = append(items, domain.LineItem{
			Description: desc,
			Quantity:    qty,
			UnitPrice:   price,
			LineTotal:   lineTotal,
		})
	}

	discount := coerceAmount(req.Discount)
	tax := coerceAmount(req.Tax)
	total := subtotal - discount + tax

	// The counter is persisted before the invoice itself; if that write
	// fails the creation aborts so number integrity is never at risk.
	number, err := s.repo.NextInvoiceNumber(ctx)
	if err != nil {
		return domain.Invoice{}, err
	}

	invoice := domain.Invoice{
		ID:               xid.New(xid.PrefixInvoice),
		InvoiceNumber:    number,
		CreatedAt:        createdAt,
		InvoiceDate:      invoiceDate,
		CustomerName:     strings.TrimSpace(req.CustomerName),
		CustomerPhone:    strings.TrimSpace(req.CustomerPhone),
		CustomerAddress:  strings.TrimSpace(req.CustomerAddress),
		CustomerGSTIN:    strings.TrimSpace(req.CustomerGSTIN),
		Items:            items,
		Subtotal:         subtotal,
		Discount:         discount,
		Tax:              tax,
		Total:            total,
		PaymentMode:      req.PaymentMode,
		PaymentReference: strings.TrimSpace(req.PaymentReference),
		Notes:            strings.TrimSpace(req.Notes),
	}

	created, err := s.repo.AppendInvoice(ctx, invoice)
	if err != nil {
		return domain.Invoice{}, err
	}

	s.invalidateReports(ctx)
	return *created, nil
}

func (s *Service) GetInvoice(ctx context.Context, id string) (domain.Invoice, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Invoice{}, store.ErrInvalidInput
	}
	invoice, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	return *invoice, nil
}

func (s *Service) DeleteInvoice(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return store.ErrInvalidInput
	}
	if err := s.repo.DeleteInvoice(ctx, id); err != nil {
		return err
	}
	s.invalidateReports(ctx)
	return nil
}

// ConvertCreditToCash flips a CREDIT invoice to CASH, appending a
// timestamped marker line to its notes. A non-CREDIT invoice yields
// store.ErrNotCredit, distinct from not-found.
func (s *Service) ConvertCreditToCash(ctx context.Context, id string) (domain.Invoice, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Invoice{}, store.ErrInvalidInput
	}

	timestamp := s.now().Format(domain.TimestampLayout)
	converted, err := s.repo.ConvertInvoiceCreditToCash(ctx, id, timestamp)
	if err != nil {
		return domain.Invoice{}, err
	}

	s.invalidateReports(ctx)
	return *converted, nil
}

// ListExpenses returns expenses ordered by date descending.
func (s *Service) ListExpenses(ctx context.Context) ([]domain.Expense, error) {
	expenses, err := s.repo.ListExpenses(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(expenses, func(i, j int) bool {
		return expenses[i].Date > expenses[j].Date
	})
	return expenses, nil
}

func (s *Service) CreateExpense(ctx context.Context, req domain.ExpenseCreateRequest) (domain.Expense, error) {
	date := strings.TrimSpace(req.Date)
	if date == "" {
		date = s.now().Format(domain.DateLayout)
	}

	expense := domain.Expense{
		ID:          xid.New(xid.PrefixExpense),
		Date:        date,
		Description: strings.TrimSpace(req.Description),
		Category:    strings.TrimSpace(req.Category),
		Amount:      coerceAmount(req.Amount),
	}

	created, err := s.repo.AppendExpense(ctx, expense)
	if err != nil {
		return domain.Expense{}, err
	}

	s.invalidateReports(ctx)
	return *created, nil
}

func (s *Service) GetSettings(ctx context.Context) (domain.StoreSettings, error) {
	return s.repo.GetStoreSettings(ctx)
}

// UpdateSettings replaces the stored profile wholesale; there is no
// field-level merge.
func (s *Service) UpdateSettings(ctx context.Context, req domain.SettingsUpdateRequest) (domain.StoreSettings, error) {
	settings := domain.StoreSettings{
		StoreName: strings.TrimSpace(req.StoreName),
		Address:   strings.TrimSpace(req.Address),
		Phone:     strings.TrimSpace(req.Phone),
		Email:     strings.TrimSpace(req.Email),
		LogoURL:   strings.TrimSpace(req.LogoURL),
	}
	if err := s.repo.SetStoreSettings(ctx, settings); err != nil {
		return domain.StoreSettings{}, err
	}
	return settings, nil
}

func (s *Service) BuildReport(ctx context.Context, period string, selectedDate string, selectedMonth string) (domain.Report, error) {
	invoices, err := s.repo.ListInvoices(ctx)
	if err != nil {
		return domain.Report{}, err
	}
	expenses, err := s.repo.ListExpenses(ctx)
	if err != nil {
		return domain.Report{}, err
	}
	return s.reports.Build(ctx, invoices, expenses, period, selectedDate, selectedMonth), nil
}

// ExportReportCSV builds the report and renders it as CSV, returning
// the payload together with the suggested download filename.
func (s *Service) ExportReportCSV(ctx context.Context, period string, selectedDate string, selectedMonth string) ([]byte, string, error) {
	built, err := s.BuildReport(ctx, period, selectedDate, selectedMonth)
	if err != nil {
		return nil, "", err
	}
	return report.ToCSV(built), report.Filename(built), nil
}

func (s *Service) invalidateReports(ctx context.Context) {
	if err := s.reports.Invalidate(ctx); err != nil {
		log.Printf("[service] WARN: failed to invalidate report cache: %v", err)
	}
}

// coerceAmount parses a submitted numeric field, substituting 0.0 for
// anything empty or unparsable.
func coerceAmount(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return value
}
