package invoicing

import (
	"context"
	"time"

	"github.com/jhoicas/clearance-gateway/internal/domain/entity"
	"github.com/jhoicas/clearance-gateway/internal/domain/repository"
	"github.com/jhoicas/clearance-gateway/internal/infrastructure/ubl"
	"github.com/jhoicas/clearance-gateway/pkg/logger"
)

// SubmitInvoiceUseCase entrega facturas ya firmadas a la autoridad de
// clearance y persiste el veredicto (CLEARED / REJECTED). La firma y el
// encadenamiento ya ocurrieron: este paso jamás toca hash ni previous_hash.
//
// Modos (config CLEARANCE_SUBMIT):
//   - false → no envía; marca CLEARED con track id simulado (desarrollo).
//   - true  → envío real al ambiente sandbox/production del tenant.
type SubmitInvoiceUseCase struct {
	invoiceRepo repository.InvoiceRepository
	submitter   ClearanceSubmitter
	realSubmit  bool
	log         *logger.Logger
}

// NewSubmitInvoiceUseCase construye el caso de uso. submitter puede ser nil
// solo si realSubmit es false.
func NewSubmitInvoiceUseCase(invoiceRepo repository.InvoiceRepository, submitter ClearanceSubmitter, realSubmit bool, log *logger.Logger) *SubmitInvoiceUseCase {
	return &SubmitInvoiceUseCase{
		invoiceRepo: invoiceRepo,
		submitter:   submitter,
		realSubmit:  realSubmit,
		log:         log,
	}
}

// ProcessAsync dispara el envío en una goroutine independiente, desacoplada
// del ciclo HTTP, con su propio timeout.
func (uc *SubmitInvoiceUseCase) ProcessAsync(invoiceID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		uc.process(ctx, invoiceID)
	}()
}

// Process envía de forma síncrona (reintento manual vía endpoint).
func (uc *SubmitInvoiceUseCase) Process(ctx context.Context, invoiceID string) {
	uc.process(ctx, invoiceID)
}

func (uc *SubmitInvoiceUseCase) process(ctx context.Context, invoiceID string) {
	inv, err := uc.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil || inv == nil {
		uc.log.Error().Str("invoice_id", invoiceID).Err(err).Msg("Factura no encontrada para envío")
		return
	}
	log := uc.log.Tenant(inv.TenantID)

	// Solo se envían facturas en SIGNED; las demás ya tienen veredicto.
	if inv.Status != entity.StatusSigned {
		log.Warn().Str("invoice_id", invoiceID).Str("status", inv.Status).
			Msg("Estado inesperado, se omite el envío")
		return
	}

	if !uc.realSubmit || uc.submitter == nil {
		log.Info().Str("invoice_id", invoiceID).Msg("Envío simulado (CLEARANCE_SUBMIT=false)")
		uc.persistResult(ctx, log, invoiceID, entity.StatusCleared, "MOCK-TRACK-"+inv.UUID[:8], "")
		return
	}

	envelope, err := ubl.ToEnvelope([]byte(inv.SignedXML), inv.UUID)
	if err != nil {
		log.Error().Str("invoice_id", invoiceID).Err(err).Msg("No se pudo empaquetar el sobre")
		return
	}

	result, err := uc.submitter.Submit(ctx, envelope, inv.Environment)
	if err != nil {
		// Fallo de transporte: la factura queda en SIGNED para reintentar.
		log.Error().Str("invoice_id", invoiceID).Err(err).Msg("Fallo de transporte al enviar")
		return
	}

	status := entity.StatusCleared
	if !result.Accepted {
		status = entity.StatusRejected
		log.Warn().Str("invoice_id", invoiceID).Str("errors", result.Errors).
			Msg("Rechazada por la autoridad")
	}
	uc.persistResult(ctx, log, invoiceID, status, result.TrackID, result.Errors)
}

func (uc *SubmitInvoiceUseCase) persistResult(ctx context.Context, log *logger.Logger, invoiceID, status, trackID, clearErrors string) {
	if err := uc.invoiceRepo.UpdateClearanceResult(ctx, invoiceID, status, trackID, clearErrors); err != nil {
		uc.log.Error().Str("invoice_id", invoiceID).Str("status", status).Err(err).
			Msg("No se pudo persistir el resultado del envío")
		return
	}
	log.Info().Str("invoice_id", invoiceID).Str("status", status).Str("track_id", trackID).
		Msg("Resultado de clearance persistido")
}
