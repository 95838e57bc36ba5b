package dto

import "github.com/shopspring/decimal"

// SignInvoiceRequest entrada del endpoint de firma.
// IssuedAt admite RFC3339 (con zona) o timestamps naive; la política para
// naive la fija el deployment (CLEARANCE_NAIVE_TZ_POLICY).
type SignInvoiceRequest struct {
	Number     string             `json:"number" validate:"required"`
	TypeCode   string             `json:"type_code"`
	Currency   string             `json:"currency" validate:"required,len=3"`
	IssuedAt   string             `json:"issued_at" validate:"required"`
	BuyerName  string             `json:"buyer_name" validate:"required"`
	BuyerTaxID string             `json:"buyer_tax_id"`
	Lines      []InvoiceLineInput `json:"lines" validate:"required,min=1"`
}

// InvoiceLineInput línea de detalle del request.
type InvoiceLineInput struct {
	Description string          `json:"description"`
	ItemCode    string          `json:"item_code"`
	UnitCode    string          `json:"unit_code"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// SignInvoiceResponse resultado de la firma: hash encadenado + sobre listo
// para el servicio remoto.
type SignInvoiceResponse struct {
	ID           string `json:"id"`
	Number       string `json:"number"`
	UUID         string `json:"uuid"`
	Hash         string `json:"hash"`
	PreviousHash string `json:"previous_hash,omitempty"`
	Status       string `json:"status"`
	Envelope     struct {
		Invoice string `json:"invoice"`
		UUID    string `json:"uuid"`
	} `json:"envelope"`
}

// InvoiceResponse detalle de una factura finalizada.
type InvoiceResponse struct {
	ID           string `json:"id"`
	Number       string `json:"number"`
	UUID         string `json:"uuid"`
	Environment  string `json:"environment"`
	IssueDate    string `json:"issue_date"`
	IssueTime    string `json:"issue_time"`
	Currency     string `json:"currency"`
	Hash         string `json:"hash"`
	PreviousHash string `json:"previous_hash,omitempty"`
	Status       string `json:"status"`
	TrackID      string `json:"track_id,omitempty"`
	Errors       string `json:"errors,omitempty"`
}
