// Package jsonfile persists the whole document as one flat JSON file.
// The file is read wholesale at startup and rewritten wholesale after
// every mutation; a missing or corrupt file is treated as "no prior
// data" rather than an error.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"sanjustore/backend/internal/domain"
	"sanjustore/backend/internal/store"
)

type Store struct {
	mu   sync.Mutex
	path string
	doc  *domain.Document

	now func() time.Time
}

// Open loads the document from path. Read and parse failures are
// swallowed: the store starts from the empty default document and the
// first successful save overwrites whatever was there.
func Open(path string) *Store {
	s := &Store{
		path: path,
		doc:  domain.NewDocument(),
		now:  time.Now,
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[jsonfile] WARN: cannot read %s (%v), starting from empty document", path, err)
		}
		return s
	}

	doc := domain.NewDocument()
	if err := json.Unmarshal(raw, doc); err != nil {
		log.Printf("[jsonfile] WARN: cannot parse %s (%v), starting from empty document", path, err)
		return s
	}

	// Older data files predate the expenses collection.
	if doc.Invoices == nil {
		doc.Invoices = []domain.Invoice{}
	}
	if doc.Expenses == nil {
		doc.Expenses = []domain.Expense{}
	}

	s.doc = doc
	return s
}

// save rewrites the whole document. Callers hold s.mu. The write goes
// through a temp file and rename so a crash mid-write never leaves a
// truncated document behind.
func (s *Store) save() error {
	payload, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

func (s *Store) ListInvoices(_ context.Context) ([]domain.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	invoices := make([]domain.Invoice, len(s.doc.Invoices))
	copy(invoices, s.doc.Invoices)
	return invoices, nil
}

func (s *Store) AppendInvoice(_ context.Context, invoice domain.Invoice) (*domain.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.Invoices = append(s.doc.Invoices, invoice)
	if err := s.save(); err != nil {
		s.doc.Invoices = s.doc.Invoices[:len(s.doc.Invoices)-1]
		return nil, err
	}
	return cloneInvoice(&invoice), nil
}

func (s *Store) GetInvoice(_ context.Context, id string) (*domain.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.doc.Invoices {
		if s.doc.Invoices[i].ID == id {
			return cloneInvoice(&s.doc.Invoices[i]), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) DeleteInvoice(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.doc.Invoices {
		if s.doc.Invoices[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return store.ErrNotFound
	}

	prev := s.doc.Invoices
	next := make([]domain.Invoice, 0, len(prev)-1)
	next = append(next, prev[:idx]...)
	next = append(next, prev[idx+1:]...)
	s.doc.Invoices = next
	if err := s.save(); err != nil {
		s.doc.Invoices = prev
		return err
	}
	return nil
}

func (s *Store) ConvertInvoiceCreditToCash(_ context.Context, id string, timestamp string) (*domain.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var inv *domain.Invoice
	for i := range s.doc.Invoices {
		if s.doc.Invoices[i].ID == id {
			inv = &s.doc.Invoices[i]
			break
		}
	}
	if inv == nil {
		return nil, store.ErrNotFound
	}
	if !inv.IsCredit() {
		return nil, store.ErrNotCredit
	}

	prevMode, prevNotes := inv.PaymentMode, inv.Notes

	inv.PaymentMode = domain.PaymentModeCash
	marker := fmt.Sprintf("[Converted from CREDIT to CASH on %s]", timestamp)
	if existing := strings.TrimSpace(inv.Notes); existing != "" {
		inv.Notes = existing + "\n" + marker
	} else {
		inv.Notes = marker
	}

	if err := s.save(); err != nil {
		inv.PaymentMode, inv.Notes = prevMode, prevNotes
		return nil, err
	}
	return cloneInvoice(inv), nil
}

func (s *Store) NextInvoiceNumber(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.InvoiceCounter++
	if err := s.save(); err != nil {
		s.doc.InvoiceCounter--
		return "", err
	}
	return fmt.Sprintf("RS-%d-%04d", s.now().Year(), s.doc.InvoiceCounter), nil
}

func (s *Store) ListExpenses(_ context.Context) ([]domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expenses := make([]domain.Expense, len(s.doc.Expenses))
	copy(expenses, s.doc.Expenses)
	return expenses, nil
}

func (s *Store) AppendExpense(_ context.Context, expense domain.Expense) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.Expenses = append(s.doc.Expenses, expense)
	if err := s.save(); err != nil {
		s.doc.Expenses = s.doc.Expenses[:len(s.doc.Expenses)-1]
		return nil, err
	}
	clone := expense
	return &clone, nil
}

func (s *Store) GetStoreSettings(_ context.Context) (domain.StoreSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc.StoreSettings == nil {
		return domain.DefaultStoreSettings(), nil
	}
	return *s.doc.StoreSettings, nil
}

func (s *Store) SetStoreSettings(_ context.Context, settings domain.StoreSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.doc.StoreSettings
	s.doc.StoreSettings = &settings
	if err := s.save(); err != nil {
		s.doc.StoreSettings = prev
		return err
	}
	return nil
}

// Path returns the backing file location, mainly for startup logging.
func (s *Store) Path() string {
	return filepath.Clean(s.path)
}

func cloneInvoice(inv *domain.Invoice) *domain.Invoice {
	clone := *inv
	clone.Items = make([]domain.LineItem, len(inv.Items))
	copy(clone.Items, inv.Items)
	return &clone
}
