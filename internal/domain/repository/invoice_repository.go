package repository

import (
	"context"

	"github.com/jhoicas/clearance-gateway/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia para la cadena de facturas.
// La implementación debe imponer unicidad sobre (tenant_id, number): la firma
// repetida de un mismo número se rechaza con domain.ErrDuplicateInvoice en vez
// de bifurcar la cadena.
type InvoiceRepository interface {
	// AppendFinalized inserta la entrada finalizada de la cadena en una sola
	// operación atómica. No existe Update del hash: la cadena es append-only.
	AppendFinalized(ctx context.Context, invoice *entity.Invoice) error
	// GetLastChainHash devuelve el hash de la última factura finalizada del
	// tenant, o "" si el tenant aún no tiene facturas (primera de la cadena).
	GetLastChainHash(ctx context.Context, tenantID string) (string, error)
	// ExistsNumber indica si el tenant ya finalizó una factura con ese número.
	ExistsNumber(ctx context.Context, tenantID, number string) (bool, error)
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	GetByNumber(ctx context.Context, tenantID, number string) (*entity.Invoice, error)
	// ListByTenant devuelve las facturas del tenant en orden de cadena (ascendente).
	ListByTenant(ctx context.Context, tenantID string, limit int) ([]*entity.Invoice, error)
	// UpdateClearanceResult persiste el resultado del envío a la autoridad
	// (status, track_id, errores). Nunca toca hash ni previous_hash.
	UpdateClearanceResult(ctx context.Context, id, status, trackID, clearErrors string) error
}
