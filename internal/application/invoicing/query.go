package invoicing

import (
	"context"
	"fmt"

	"github.com/jhoicas/clearance-gateway/internal/application/dto"
	"github.com/jhoicas/clearance-gateway/internal/domain"
	"github.com/jhoicas/clearance-gateway/internal/domain/entity"
	"github.com/jhoicas/clearance-gateway/internal/domain/repository"
)

// InvoiceQueryUseCase consultas de solo lectura sobre la cadena del tenant.
type InvoiceQueryUseCase struct {
	invoiceRepo repository.InvoiceRepository
}

// NewInvoiceQueryUseCase construye el caso de uso de consulta.
func NewInvoiceQueryUseCase(invoiceRepo repository.InvoiceRepository) *InvoiceQueryUseCase {
	return &InvoiceQueryUseCase{invoiceRepo: invoiceRepo}
}

// GetByNumber devuelve una factura del tenant por su número.
func (uc *InvoiceQueryUseCase) GetByNumber(ctx context.Context, tenantID, number string) (*dto.InvoiceResponse, error) {
	inv, err := uc.invoiceRepo.GetByNumber(ctx, tenantID, number)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, fmt.Errorf("%w: factura %s", domain.ErrNotFound, number)
	}
	return toInvoiceResponse(inv), nil
}

// GetSignedXML devuelve el documento firmado completo para descarga.
// El acceso está scoped al tenant: pedir la factura de otro tenant es NotFound.
func (uc *InvoiceQueryUseCase) GetSignedXML(ctx context.Context, tenantID, number string) ([]byte, error) {
	inv, err := uc.invoiceRepo.GetByNumber(ctx, tenantID, number)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, fmt.Errorf("%w: factura %s", domain.ErrNotFound, number)
	}
	return []byte(inv.SignedXML), nil
}

// List devuelve las facturas del tenant en orden de cadena.
func (uc *InvoiceQueryUseCase) List(ctx context.Context, tenantID string, limit int) ([]*dto.InvoiceResponse, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	invoices, err := uc.invoiceRepo.ListByTenant(ctx, tenantID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, toInvoiceResponse(inv))
	}
	return out, nil
}

// VerifyChain recorre la cadena completa del tenant y valida el invariante
// de encadenamiento: PIH(n) == hash(n-1) y la primera sin PIH. Devuelve el
// número de la primera factura que rompe la cadena, o "" si está íntegra.
func (uc *InvoiceQueryUseCase) VerifyChain(ctx context.Context, tenantID string) (string, error) {
	invoices, err := uc.invoiceRepo.ListByTenant(ctx, tenantID, 0)
	if err != nil {
		return "", err
	}
	prev := ""
	for _, inv := range invoices {
		if inv.PreviousHash != prev {
			return inv.Number, nil
		}
		prev = inv.Hash
	}
	return "", nil
}

func toInvoiceResponse(inv *entity.Invoice) *dto.InvoiceResponse {
	return &dto.InvoiceResponse{
		ID:           inv.ID,
		Number:       inv.Number,
		UUID:         inv.UUID,
		Environment:  inv.Environment,
		IssueDate:    inv.IssueDate,
		IssueTime:    inv.IssueTime,
		Currency:     inv.Currency,
		Hash:         inv.Hash,
		PreviousHash: inv.PreviousHash,
		Status:       inv.Status,
		TrackID:      inv.TrackID,
		Errors:       inv.ClearErrors,
	}
}
