// Package ubl implementa la generación, canonicalización y empaquetado del
// XML UBL 2.1 de factura electrónica para el gateway de clearance.
package ubl

import (
	"github.com/jhoicas/clearance-gateway/internal/domain/entity"
)

// InvoiceBuildContext contexto con todos los datos necesarios para construir
// el XML de la factura sin firmar.
type InvoiceBuildContext struct {
	Tenant  *entity.Tenant // Emisor (AccountingSupplierParty)
	Invoice *entity.Invoice
	Lines   []entity.InvoiceLine

	// Receptor (AccountingCustomerParty). Viene del request, no de la DB.
	BuyerName  string
	BuyerTaxID string

	// PreviousHash es el hash 64-hex de la factura anterior del tenant.
	// Vacío solo para la primera factura de la cadena: en ese caso no se
	// emite ningún nodo PIH (la ausencia es un estado válido, no un error).
	PreviousHash string
	// PIHEncoding: "hex" | "base64" (invoicing.PIHEncoding*).
	PIHEncoding string
}
