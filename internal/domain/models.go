package domain

import "strings"

// Timestamp and date layouts used everywhere: the persisted document, the
// HTTP API, and report filtering all exchange dates as plain strings.
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
)

const (
	PaymentModeCash   = "CASH"
	PaymentModeCredit = "CREDIT"
)

const (
	PeriodDaily   = "daily"
	PeriodMonthly = "monthly"
)

// StoreSettings is the single store-profile record shown on invoices.
type StoreSettings struct {
	StoreName string `json:"store_name"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	LogoURL   string `json:"logo_url"`
}

// DefaultStoreSettings returns the hardcoded profile used when nothing
// has been saved yet.
func DefaultStoreSettings() StoreSettings {
	return StoreSettings{StoreName: "R Sanju Store"}
}

type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	LineTotal   float64 `json:"line_total"`
}

type Invoice struct {
	ID               string     `json:"id"`
	InvoiceNumber    string     `json:"invoice_number"`
	CreatedAt        string     `json:"created_at"`
	InvoiceDate      string     `json:"invoice_date"`
	CustomerName     string     `json:"customer_name"`
	CustomerPhone    string     `json:"customer_phone"`
	CustomerAddress  string     `json:"customer_address"`
	CustomerGSTIN    string     `json:"customer_gstin"`
	Items            []LineItem `json:"items"`
	Subtotal         float64    `json:"subtotal"`
	Discount         float64    `json:"discount"`
	Tax              float64    `json:"tax"`
	Total            float64    `json:"total"`
	PaymentMode      string     `json:"payment_mode"`
	PaymentReference string     `json:"payment_reference"`
	Notes            string     `json:"notes"`
}

// EffectiveDate returns the invoice's date for filtering and display:
// the explicit invoice_date when set, otherwise the date portion of
// created_at.
func (inv Invoice) EffectiveDate() string {
	if inv.InvoiceDate != "" {
		return inv.InvoiceDate
	}
	date, _, _ := strings.Cut(inv.CreatedAt, " ")
	return date
}

// IsCredit reports whether the invoice is in CREDIT payment mode.
// Comparison is case-insensitive; storage is case-preserving.
func (inv Invoice) IsCredit() bool {
	return strings.EqualFold(strings.TrimSpace(inv.PaymentMode), PaymentModeCredit)
}

type Expense struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
}

// Document is the whole persisted state: one JSON object holding the
// store profile, every invoice and expense, and the invoice counter.
type Document struct {
	StoreSettings  *StoreSettings `json:"store_settings"`
	Invoices       []Invoice      `json:"invoices"`
	InvoiceCounter int64          `json:"invoice_counter"`
	Expenses       []Expense      `json:"expenses"`
}

// NewDocument returns the empty default document used when no prior
// data exists or the backing file cannot be parsed.
func NewDocument() *Document {
	return &Document{
		Invoices: []Invoice{},
		Expenses: []Expense{},
	}
}

// LineItemInput carries one submitted invoice row. Quantity and unit
// price arrive as raw form strings; unparsable values coerce to 0.0
// instead of rejecting the row.
type LineItemInput struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

type InvoiceCreateRequest struct {
	InvoiceDate      string          `json:"invoice_date"`
	CustomerName     string          `json:"customer_name"`
	CustomerPhone    string          `json:"customer_phone"`
	CustomerAddress  string          `json:"customer_address"`
	CustomerGSTIN    string          `json:"customer_gstin"`
	Items            []LineItemInput `json:"items"`
	Discount         string          `json:"discount"`
	Tax              string          `json:"tax"`
	PaymentMode      string          `json:"payment_mode"`
	PaymentReference string          `json:"payment_reference"`
	Notes            string          `json:"notes"`
}

type ExpenseCreateRequest struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
}

type SettingsUpdateRequest struct {
	StoreName string `json:"store_name"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	LogoURL   string `json:"logo_url"`
}

// Report is the aggregated day/month view over invoices and expenses.
// SelectedDate and SelectedMonth echo the values actually used, so a
// caller that submitted an unparsable date sees the substituted one.
type Report struct {
	Label         string    `json:"label"`
	Period        string    `json:"period"`
	SelectedDate  string    `json:"selected_date,omitempty"`
	SelectedMonth string    `json:"selected_month,omitempty"`
	SalesTotal    float64   `json:"sales_total"`
	ExpensesTotal float64   `json:"expenses_total"`
	NetTotal      float64   `json:"net_total"`
	InvoiceCount  int       `json:"invoice_count"`
	ExpenseCount  int       `json:"expense_count"`
	Invoices      []Invoice `json:"invoices"`
	Expenses      []Expense `json:"expenses"`
	Narrative     string    `json:"narrative"`
}
