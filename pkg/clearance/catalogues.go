// Package clearance contiene catálogos y contratos compartidos del gateway de
// factura electrónica (UBL 2.1 + firma XMLDSig).
package clearance

// =============================================================================
// Tipos de documento UBL (cbc:InvoiceTypeCode, UNCL1001)
// =============================================================================

const (
	TypeCodeInvoice     = "388" // Factura comercial
	TypeCodeCreditNote  = "381" // Nota crédito
	TypeCodeDebitNote   = "383" // Nota débito
	TypeCodeSimplified  = "380" // Factura simplificada
)

// ValidInvoiceTypeCodes códigos de tipo de documento aceptados por el gateway.
var ValidInvoiceTypeCodes = map[string]bool{
	TypeCodeInvoice: true, TypeCodeCreditNote: true,
	TypeCodeDebitNote: true, TypeCodeSimplified: true,
}

// =============================================================================
// Unidades de medida (UNECE Rec 20, @unitCode en líneas de factura)
// =============================================================================

const (
	UnitPiece      = "PCE" // Pieza
	UnitUnit       = "C62" // Unidad genérica
	UnitKilogram   = "KGM" // Kilogramo
	UnitLitre      = "LTR" // Litro
	UnitMetre      = "MTR" // Metro
	UnitHour       = "HUR" // Hora
	UnitDay        = "DAY" // Día
)

// ValidMeasurementUnitCodes códigos de unidad de medida de uso común.
var ValidMeasurementUnitCodes = map[string]bool{
	UnitPiece: true, UnitUnit: true, UnitKilogram: true,
	UnitLitre: true, UnitMetre: true, UnitHour: true, UnitDay: true,
}

// =============================================================================
// Monedas soportadas (ISO 4217, cbc:DocumentCurrencyCode)
// =============================================================================

var ValidCurrencyCodes = map[string]bool{
	"USD": true, "EUR": true, "COP": true, "PEN": true,
	"MXN": true, "SAR": true, "AED": true,
}
