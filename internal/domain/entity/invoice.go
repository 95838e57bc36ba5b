package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de clearance de una factura.
const (
	StatusSigned   = "SIGNED"   // XML firmado y encadenado, pendiente de envío
	StatusCleared  = "CLEARED"  // Aceptada por la autoridad de clearance
	StatusRejected = "REJECTED" // Rechazada por la autoridad con errores
	StatusFailed   = "FAILED"   // Falló la generación o la firma (sin entrada en la cadena)
)

// Invoice representa una entrada finalizada de la cadena de un tenant.
// Es append-only: una vez persistida, Hash y PreviousHash jamás se recalculan.
type Invoice struct {
	ID           string
	TenantID     string
	Number       string // Número de factura, único por tenant
	UUID         string
	Environment  string // sandbox | production
	IssueDate    string // YYYY-MM-DD (UTC normalizado)
	IssueTime    string // HH:MM:SS (UTC normalizado)
	TypeCode     string // Código de tipo de documento (388 = factura comercial)
	Currency     string
	NetTotal     decimal.Decimal
	TaxTotal     decimal.Decimal
	GrandTotal   decimal.Decimal
	Hash         string // SHA-256 hex minúscula del XML canónico (sin firma)
	PreviousHash string // Hash de la factura anterior del tenant; vacío solo en la primera
	SignedXML    string // Documento firmado completo
	Status       string
	TrackID      string // Identificador devuelto por la autoridad tras el envío
	ClearErrors  string // Mensajes de rechazo de la autoridad
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// InvoiceLine línea de detalle usada para construir el XML UBL.
type InvoiceLine struct {
	Description string
	ItemCode    string
	UnitCode    string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxRate     decimal.Decimal
	Subtotal    decimal.Decimal
}
