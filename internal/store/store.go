package store

import (
	"context"
	"errors"

	"sanjustore/backend/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrNotCredit    = errors.New("invoice is not in CREDIT payment mode")
	ErrInvalidInput = errors.New("invalid input")
)

// Repository owns the shared document. Every mutating call persists the
// full document synchronously before returning; a persistence failure
// surfaces as the call's error.
type Repository interface {
	ListInvoices(ctx context.Context) ([]domain.Invoice, error)
	AppendInvoice(ctx context.Context, invoice domain.Invoice) (*domain.Invoice, error)
	GetInvoice(ctx context.Context, id string) (*domain.Invoice, error)
	DeleteInvoice(ctx context.Context, id string) error
	// ConvertInvoiceCreditToCash flips payment_mode to CASH and appends a
	// timestamped conversion marker to the notes, atomically. Returns
	// ErrNotFound for an unknown id and ErrNotCredit when the invoice is
	// not in CREDIT mode.
	ConvertInvoiceCreditToCash(ctx context.Context, id string, timestamp string) (*domain.Invoice, error)
	// NextInvoiceNumber increments and persists the invoice counter, then
	// formats the number with the current wall-clock year.
	NextInvoiceNumber(ctx context.Context) (string, error)

	ListExpenses(ctx context.Context) ([]domain.Expense, error)
	AppendExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)

	GetStoreSettings(ctx context.Context) (domain.StoreSettings, error)
	SetStoreSettings(ctx context.Context, settings domain.StoreSettings) error
}
