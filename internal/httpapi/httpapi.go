package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strings"
	"time"

	"sanjustore/backend/internal/domain"
	"sanjustore/backend/internal/service"
	"sanjustore/backend/internal/store"
)

type API struct {
	service       *service.Service
	allowedOrigin string
}

func New(svc *service.Service, allowedOrigin string) *API {
	return &API{
		service:       svc,
		allowedOrigin: allowedOrigin,
	}
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)

	mux.HandleFunc("/api/v1/invoices", a.handleInvoices)
	mux.HandleFunc("/api/v1/invoices/", a.handleInvoiceActions)
	mux.HandleFunc("/api/v1/expenses", a.handleExpenses)
	mux.HandleFunc("/api/v1/settings", a.handleSettings)
	mux.HandleFunc("/api/v1/reports", a.handleReports)
	mux.HandleFunc("/api/v1/reports/export", a.handleReportExport)

	return a.withMiddleware(mux)
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if (r.Method == http.MethodPost || r.Method == http.MethodPut) && strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		startedAt := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(startedAt))
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"service": "sanjustore-backend",
	})
}

func (a *API) handleInvoices(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		customer := r.URL.Query().Get("customer")
		date := r.URL.Query().Get("date")

		invoices, err := a.service.ListInvoices(r.Context(), customer, date)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"invoices": invoices})
	case http.MethodPost:
		var req domain.InvoiceCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		invoice, err := a.service.CreateInvoice(r.Context(), req)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"invoice": invoice})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleInvoiceActions(w http.ResponseWriter, r *http.Request) {
	prefix := "/api/v1/invoices/"
	tail := strings.TrimSpace(strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/"))
	if tail == "" {
		writeError(w, http.StatusBadRequest, errors.New("invoice id required"))
		return
	}

	if id, ok := strings.CutSuffix(tail, "/convert-credit-to-cash"); ok {
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		a.handleConvertCreditToCash(w, r, strings.Trim(id, "/"))
		return
	}

	if id, ok := strings.CutSuffix(tail, "/download"); ok {
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		a.handleInvoiceDownload(w, r, strings.Trim(id, "/"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		invoice, err := a.service.GetInvoice(r.Context(), tail)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"invoice": invoice})
	case http.MethodDelete:
		if err := a.service.DeleteInvoice(r.Context(), tail); err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleConvertCreditToCash(w http.ResponseWriter, r *http.Request, id string) {
	invoice, err := a.service.ConvertCreditToCash(r.Context(), id)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoice": invoice})
}

func (a *API) handleInvoiceDownload(w http.ResponseWriter, r *http.Request, id string) {
	invoice, err := a.service.GetInvoice(r.Context(), id)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	settings, err := a.service.GetSettings(r.Context())
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"invoice-%s.html\"", invoice.InvoiceNumber))
	_, _ = w.Write([]byte(invoiceToPrintableHTML(settings, invoice)))
}

func (a *API) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		expenses, err := a.service.ListExpenses(r.Context())
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"expenses": expenses})
	case http.MethodPost:
		var req domain.ExpenseCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		expense, err := a.service.CreateExpense(r.Context(), req)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"expense": expense})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		settings, err := a.service.GetSettings(r.Context())
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"settings": settings})
	case http.MethodPut:
		var req domain.SettingsUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		settings, err := a.service.UpdateSettings(r.Context(), req)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"settings": settings})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	report, err := a.service.BuildReport(
		r.Context(),
		r.URL.Query().Get("period"),
		r.URL.Query().Get("date"),
		r.URL.Query().Get("month"),
	)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleReportExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	payload, filename, err := a.service.ExportReportCSV(
		r.Context(),
		r.URL.Query().Get("period"),
		r.URL.Query().Get("date"),
		r.URL.Query().Get("month"),
	)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	_, _ = w.Write(payload)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrNotCredit):
		return http.StatusConflict
	case errors.Is(err, store.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx responses get a generic message so persistence errors never
	// leak file paths; 4xx messages are user-facing.
	msg := err.Error()
	if status >= 500 {
		log.Printf("internal error (status %d): %v", status, err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// invoiceHTMLTmpl renders the printable invoice download.
var invoiceHTMLTmpl = template.Must(template.New("invoice").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Invoice {{.Invoice.InvoiceNumber}}</title>
  <style>
    body { font-family: sans-serif; margin: 24px; }
    table { width: 100%; border-collapse: collapse; margin-top: 8px; }
    th, td { border: 1px solid #ddd; padding: 6px; font-size: 13px; }
    h2, h3 { margin-bottom: 4px; }
    .totals td { text-align: right; }
  </style>
</head>
<body>
  <h2>{{.Settings.StoreName}}</h2>
  {{if .Settings.Address}}<p>{{.Settings.Address}}</p>{{end}}
  {{if .Settings.Phone}}<p>Phone: {{.Settings.Phone}}</p>{{end}}
  {{if .Settings.Email}}<p>Email: {{.Settings.Email}}</p>{{end}}

  <h3>Invoice {{.Invoice.InvoiceNumber}}</h3>
  <p>Date: {{.Invoice.EffectiveDate}}</p>
  {{if .Invoice.CustomerName}}<p>Customer: {{.Invoice.CustomerName}}{{if .Invoice.CustomerPhone}} ({{.Invoice.CustomerPhone}}){{end}}</p>{{end}}
  {{if .Invoice.CustomerAddress}}<p>{{.Invoice.CustomerAddress}}</p>{{end}}
  {{if .Invoice.CustomerGSTIN}}<p>GSTIN: {{.Invoice.CustomerGSTIN}}</p>{{end}}

  <table>
    <thead><tr><th>Description</th><th>Qty</th><th>Unit price</th><th>Line total</th></tr></thead>
    <tbody>{{range .Invoice.Items}}<tr><td>{{.Description}}</td><td style="text-align:right;">{{.Quantity}}</td><td style="text-align:right;">{{printf "%.2f" .UnitPrice}}</td><td style="text-align:right;">{{printf "%.2f" .LineTotal}}</td></tr>{{end}}</tbody>
  </table>

  <table class="totals">
    <tr><td>Subtotal</td><td>{{printf "%.2f" .Invoice.Subtotal}}</td></tr>
    <tr><td>Discount</td><td>{{printf "%.2f" .Invoice.Discount}}</td></tr>
    <tr><td>Tax</td><td>{{printf "%.2f" .Invoice.Tax}}</td></tr>
    <tr><td><strong>Total</strong></td><td><strong>{{printf "%.2f" .Invoice.Total}}</strong></td></tr>
  </table>

  <p>Payment mode: {{if .Invoice.PaymentMode}}{{.Invoice.PaymentMode}}{{else}}-{{end}}{{if .Invoice.PaymentReference}} (ref: {{.Invoice.PaymentReference}}){{end}}</p>
  {{if .Invoice.Notes}}<p>Notes:<br/>{{.Invoice.Notes}}</p>{{end}}
</body>
</html>
`))

func invoiceToPrintableHTML(settings domain.StoreSettings, invoice domain.Invoice) string {
	var buf bytes.Buffer
	err := invoiceHTMLTmpl.Execute(&buf, struct {
		Settings domain.StoreSettings
		Invoice  domain.Invoice
	}{Settings: settings, Invoice: invoice})
	if err != nil {
		return "<!doctype html><html><body><p>Invoice rendering error.</p></body></html>"
	}
	return buf.String()
}
