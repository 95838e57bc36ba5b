package ubl

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/clearance-gateway/internal/domain"
	"github.com/jhoicas/clearance-gateway/internal/domain/entity"
	"github.com/jhoicas/clearance-gateway/internal/domain/invoicing"
)

// Namespaces oficiales UBL 2.1.
const (
	// Namespace por defecto (UBL Invoice)
	NsInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	// Common Aggregate Components
	NsCac = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	// Common Basic Components
	NsCbc = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
	// Extension Components
	NsExt = "urn:oasis:names:specification:ubl:schema:xsd:CommonExtensionComponents-2"
	// XML Digital Signature
	NsDs = "http://www.w3.org/2000/09/xmldsig#"
)

// PIHDocumentID es el cbc:ID del AdditionalDocumentReference que transporta
// el hash de la factura anterior (Previous Invoice Hash).
const PIHDocumentID = "PIH"

// XMLBuilderService construye el XML UBL 2.1 de la factura (sin firma).
type XMLBuilderService struct{}

// NewXMLBuilderService crea el servicio.
func NewXMLBuilderService() *XMLBuilderService {
	return &XMLBuilderService{}
}

// Build genera el []byte del documento Invoice sin firmar, en el orden que
// manda el schema: extensiones (placeholder de firma), cabecera, referencia
// PIH condicional, partes, totales y líneas.
//
// Si ctx.PreviousHash no es un 64-hex minúscula válido retorna
// domain.ErrInvalidPreviousHash antes de emitir un solo byte.
func (s *XMLBuilderService) Build(ctx *InvoiceBuildContext) ([]byte, error) {
	if ctx == nil || ctx.Invoice == nil || ctx.Tenant == nil {
		return nil, fmt.Errorf("%w: faltan invoice o tenant en el contexto", domain.ErrInvalidInput)
	}

	// Validar y codificar el PIH antes de tocar el encoder: una factura con
	// hash anterior malformado no debe llegar nunca a canonicalización.
	pihValue := ""
	if ctx.PreviousHash != "" {
		v, err := invoicing.EncodePIH(ctx.PreviousHash, ctx.PIHEncoding)
		if err != nil {
			return nil, err
		}
		pihValue = v
	}

	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)

	// Root <Invoice> con declaraciones de namespace. Sin Indent: los bytes
	// sin firmar son la entrada del C14N y no deben cargar whitespace extra.
	root := xml.StartElement{
		Name: xml.Name{Space: NsInvoice, Local: "Invoice"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns"}, Value: NsInvoice},
			{Name: xml.Name{Local: "xmlns:cac"}, Value: NsCac},
			{Name: xml.Name{Local: "xmlns:cbc"}, Value: NsCbc},
			{Name: xml.Name{Local: "xmlns:ds"}, Value: NsDs},
			{Name: xml.Name{Local: "xmlns:ext"}, Value: NsExt},
		},
	}
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}

	// ext:UBLExtensions siempre como primer hijo: un UBLExtension con
	// ExtensionContent vacío donde el firmador inyectará ds:Signature.
	s.writeSignatureExtension(enc)

	// ---- Cabecera cbc en el orden del schema
	writeCbc(enc, "UBLVersionID", "2.1")
	writeCbc(enc, "ID", ctx.Invoice.Number)
	writeCbc(enc, "UUID", ctx.Invoice.UUID)
	writeCbc(enc, "IssueDate", ctx.Invoice.IssueDate)
	writeCbc(enc, "IssueTime", ctx.Invoice.IssueTime)
	writeCbc(enc, "InvoiceTypeCode", ctx.Invoice.TypeCode)
	writeCbc(enc, "DocumentCurrencyCode", ctx.Invoice.Currency)
	writeCbc(enc, "LineCountNumeric", strconv.Itoa(len(ctx.Lines)))

	// ---- Referencia al hash de la factura anterior: exactamente un nodo,
	// inmediatamente después de la cabecera y antes del primer party block.
	// Primera factura de la cadena: el nodo no se emite.
	if pihValue != "" {
		s.writePreviousHashReference(enc, pihValue)
	}

	// ---- cac:AccountingSupplierParty / cac:AccountingCustomerParty
	s.writeParty(enc, "AccountingSupplierParty", ctx.Tenant.Name, ctx.Tenant.TaxID)
	s.writeParty(enc, "AccountingCustomerParty", ctx.BuyerName, ctx.BuyerTaxID)

	// ---- cac:TaxTotal y cac:LegalMonetaryTotal
	s.writeTaxTotal(enc, ctx)
	s.writeLegalMonetaryTotal(enc, ctx)

	// ---- cac:InvoiceLine (cada detalle)
	for i, line := range ctx.Lines {
		s.writeInvoiceLine(enc, i+1, ctx.Invoice.Currency, line)
	}

	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeSignatureExtension emite ext:UBLExtensions con un ExtensionContent
// vacío. El firmador inyecta ahí el ds:Signature sobre una copia del árbol.
func (s *XMLBuilderService) writeSignatureExtension(enc *xml.Encoder) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsExt, Local: "UBLExtensions"}})
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsExt, Local: "UBLExtension"}})
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsExt, Local: "ExtensionContent"}})
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsExt, Local: "ExtensionContent"}})
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsExt, Local: "UBLExtension"}})
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsExt, Local: "UBLExtensions"}})
}

// writePreviousHashReference emite el cac:AdditionalDocumentReference con
// cbc:ID=PIH y el digest embebido como binary object.
func (s *XMLBuilderService) writePreviousHashReference(enc *xml.Encoder, pihValue string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "AdditionalDocumentReference"}})
	writeCbc(enc, "ID", PIHDocumentID)
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "Attachment"}})
	_ = enc.EncodeToken(xml.StartElement{
		Name: xml.Name{Space: NsCbc, Local: "EmbeddedDocumentBinaryObject"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "mimeCode"}, Value: "text/plain"}},
	})
	_ = enc.EncodeToken(xml.CharData(pihValue))
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCbc, Local: "EmbeddedDocumentBinaryObject"}})
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "Attachment"}})
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "AdditionalDocumentReference"}})
}

func (s *XMLBuilderService) writeParty(enc *xml.Encoder, local, name, taxID string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: local}})
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "Party"}})

	if taxID != "" {
		_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "PartyIdentification"}})
		writeCbc(enc, "ID", taxID)
		_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "PartyIdentification"}})
	}

	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "PartyLegalEntity"}})
	writeCbc(enc, "RegistrationName", name)
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "PartyLegalEntity"}})

	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "Party"}})
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: local}})
}

func (s *XMLBuilderService) writeTaxTotal(enc *xml.Encoder, ctx *InvoiceBuildContext) {
	cur := ctx.Invoice.Currency
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "TaxTotal"}})
	writeCbcAmount(enc, "TaxAmount", formatDecimal(ctx.Invoice.TaxTotal), cur)
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "TaxSubtotal"}})
	writeCbcAmount(enc, "TaxableAmount", formatDecimal(ctx.Invoice.NetTotal), cur)
	writeCbcAmount(enc, "TaxAmount", formatDecimal(ctx.Invoice.TaxTotal), cur)
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "TaxSubtotal"}})
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "TaxTotal"}})
}

func (s *XMLBuilderService) writeLegalMonetaryTotal(enc *xml.Encoder, ctx *InvoiceBuildContext) {
	cur := ctx.Invoice.Currency
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "LegalMonetaryTotal"}})
	writeCbcAmount(enc, "LineExtensionAmount", formatDecimal(ctx.Invoice.NetTotal), cur)
	writeCbcAmount(enc, "TaxExclusiveAmount", formatDecimal(ctx.Invoice.NetTotal), cur)
	writeCbcAmount(enc, "TaxInclusiveAmount", formatDecimal(ctx.Invoice.GrandTotal), cur)
	writeCbcAmount(enc, "PayableAmount", formatDecimal(ctx.Invoice.GrandTotal), cur)
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "LegalMonetaryTotal"}})
}

func (s *XMLBuilderService) writeInvoiceLine(enc *xml.Encoder, lineNum int, cur string, line entity.InvoiceLine) {
	unitCode := line.UnitCode
	if unitCode == "" {
		unitCode = "PCE"
	}
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "InvoiceLine"}})
	writeCbc(enc, "ID", strconv.Itoa(lineNum))
	writeCbcWithAttr(enc, "InvoicedQuantity", formatDecimal(line.Quantity), "unitCode", unitCode)
	writeCbcAmount(enc, "LineExtensionAmount", formatDecimal(line.Subtotal), cur)

	// cac:Item
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "Item"}})
	desc := line.Description
	if desc == "" {
		desc = "Item " + strconv.Itoa(lineNum)
	}
	writeCbc(enc, "Description", desc)
	if line.ItemCode != "" {
		_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "SellersItemIdentification"}})
		writeCbc(enc, "ID", line.ItemCode)
		_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "SellersItemIdentification"}})
	}
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "Item"}})

	// cac:Price
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "Price"}})
	writeCbcAmount(enc, "PriceAmount", formatDecimal(line.UnitPrice), cur)
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "Price"}})

	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "InvoiceLine"}})
}

func writeCbc(enc *xml.Encoder, local, value string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCbc, Local: local}})
	_ = enc.EncodeToken(xml.CharData(value))
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCbc, Local: local}})
}

func writeCbcAmount(enc *xml.Encoder, local, value, currency string) {
	attr := []xml.Attr{}
	if currency != "" {
		attr = append(attr, xml.Attr{Name: xml.Name{Local: "currencyID"}, Value: currency})
	}
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCbc, Local: local}, Attr: attr})
	_ = enc.EncodeToken(xml.CharData(value))
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCbc, Local: local}})
}

func writeCbcWithAttr(enc *xml.Encoder, local, value, attrLocal, attrValue string) {
	_ = enc.EncodeToken(xml.StartElement{
		Name: xml.Name{Space: NsCbc, Local: local},
		Attr: []xml.Attr{{Name: xml.Name{Local: attrLocal}, Value: attrValue}},
	})
	_ = enc.EncodeToken(xml.CharData(value))
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCbc, Local: local}})
}

func formatDecimal(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}
