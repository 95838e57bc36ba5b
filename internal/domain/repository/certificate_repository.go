package repository

import (
	"context"

	"github.com/jhoicas/clearance-gateway/internal/domain/entity"
)

// CertificateRepository puerto de persistencia de certificados por tenant.
type CertificateRepository interface {
	// Create persiste el certificado. Si active es true, la implementación
	// debe desactivar el par activo anterior del mismo (tenant, ambiente)
	// dentro de la misma transacción.
	Create(ctx context.Context, cert *entity.Certificate) error
	GetByID(ctx context.Context, id string) (*entity.Certificate, error)
	// GetActive devuelve el par activo del (tenant, ambiente) o nil si no hay.
	GetActive(ctx context.Context, tenantID, environment string) (*entity.Certificate, error)
	// Deactivate marca el certificado como inactivo (los archivos se borran juntos aparte).
	Deactivate(ctx context.Context, id string) error
}
