package invoicing

import (
	"context"
	"crypto/tls"

	"github.com/jhoicas/clearance-gateway/internal/domain/entity"
	"github.com/jhoicas/clearance-gateway/internal/infrastructure/ubl"
)

// CertificateSource entrega el par activo (tenant, ambiente) ya cargado en
// memoria. La implementación de producción es la caché por tenant con
// invalidación explícita; en tests se inyecta un fake.
type CertificateSource interface {
	// Active devuelve el par activo o domain.ErrNotFound si el tenant no
	// tiene certificado para ese ambiente.
	Active(ctx context.Context, tenantID, environment string) (tls.Certificate, *entity.Certificate, error)
	// Invalidate descarta la entrada cacheada del (tenant, ambiente); se
	// llama al subir o desactivar un certificado.
	Invalidate(tenantID, environment string)
}

// SubmitResult resultado de la entrega al servicio remoto de clearance.
type SubmitResult struct {
	TrackID  string // identificador de seguimiento devuelto por la autoridad
	Accepted bool   // true si la autoridad aceptó el documento
	Errors   string // mensajes de rechazo (puede ser vacío)
}

// ClearanceSubmitter puerto de salida hacia el servicio remoto de clearance.
// La implementación concreta usa HTTP/JSON; para tests se inyecta un mock.
type ClearanceSubmitter interface {
	// Submit envía el sobre {invoice: base64, uuid} al ambiente indicado.
	Submit(ctx context.Context, envelope *ubl.Envelope, environment string) (*SubmitResult, error)
}

// InvoicePDFGenerator puerto para la representación gráfica de una factura firmada.
type InvoicePDFGenerator interface {
	GenerateInvoicePDF(ctx context.Context, invoice *entity.Invoice, tenant *entity.Tenant) ([]byte, error)
}
