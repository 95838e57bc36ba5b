package invoicing

import (
	"context"
	"fmt"

	"github.com/jhoicas/clearance-gateway/internal/domain"
	"github.com/jhoicas/clearance-gateway/internal/domain/repository"
)

// PDFUseCase genera la representación gráfica (PDF) de una factura firmada.
type PDFUseCase struct {
	invoiceRepo repository.InvoiceRepository
	tenantRepo  repository.TenantRepository
	generator   InvoicePDFGenerator
}

// NewPDFUseCase construye el caso de uso.
func NewPDFUseCase(invoiceRepo repository.InvoiceRepository, tenantRepo repository.TenantRepository, generator InvoicePDFGenerator) *PDFUseCase {
	return &PDFUseCase{invoiceRepo: invoiceRepo, tenantRepo: tenantRepo, generator: generator}
}

// DownloadInvoicePDF genera el PDF de la factura del tenant.
//
// Retorna:
//   - (pdfBytes, filename, nil)  si todo sale bien.
//   - domain.ErrNotFound         si la factura no existe o es de otro tenant.
func (uc *PDFUseCase) DownloadInvoicePDF(ctx context.Context, tenantID, number string) (pdfBytes []byte, filename string, err error) {
	inv, err := uc.invoiceRepo.GetByNumber(ctx, tenantID, number)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener factura: %w", err)
	}
	if inv == nil {
		return nil, "", domain.ErrNotFound
	}

	tenant, err := uc.tenantRepo.GetByID(ctx, tenantID)
	if err != nil || tenant == nil {
		return nil, "", fmt.Errorf("pdf: obtener tenant: %w", err)
	}

	pdfBytes, err = uc.generator.GenerateInvoicePDF(ctx, inv, tenant)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}

	filename = fmt.Sprintf("factura_%s.pdf", inv.Number)
	return pdfBytes, filename, nil
}
