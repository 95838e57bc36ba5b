package invoicing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/clearance-gateway/internal/application/dto"
	"github.com/jhoicas/clearance-gateway/internal/domain"
	"github.com/jhoicas/clearance-gateway/internal/domain/entity"
	domInvoicing "github.com/jhoicas/clearance-gateway/internal/domain/invoicing"
	"github.com/jhoicas/clearance-gateway/internal/domain/repository"
	"github.com/jhoicas/clearance-gateway/internal/infrastructure/ubl"
	"github.com/jhoicas/clearance-gateway/internal/infrastructure/ubl/signer"
	"github.com/jhoicas/clearance-gateway/pkg/clearance"
	"github.com/jhoicas/clearance-gateway/pkg/logger"
)

// XMLBuilder contrato del constructor de XML UBL sin firmar.
type XMLBuilder interface {
	Build(ctx *ubl.InvoiceBuildContext) ([]byte, error)
}

// Canonicalizer produce la forma canónica C14N del documento sin firma.
type Canonicalizer interface {
	Canonicalize(xmlBytes []byte) ([]byte, error)
}

// SignInvoiceUseCase orquesta el pipeline completo de firma:
// normalizar → construir XML → canonicalizar → hash encadenado → firmar →
// empaquetar → persistir. Todo el pipeline de un tenant corre serializado
// bajo su mutex: dos firmas concurrentes del mismo tenant jamás leen el
// mismo "último hash" (eso bifurcaría la cadena).
type SignInvoiceUseCase struct {
	invoiceRepo repository.InvoiceRepository
	tenantRepo  repository.TenantRepository
	certs       CertificateSource
	builder     XMLBuilder
	canon       Canonicalizer
	signer      clearance.Signer
	normalizer  *domInvoicing.TimeNormalizer
	pihEncoding string
	log         *logger.Logger

	// Un mutex por tenant. El mapa crece con los tenants activos del
	// proceso; nunca se expulsa (un mutex pesa nada comparado con un cert).
	mu          sync.Mutex
	tenantLocks map[string]*sync.Mutex

	// Inyectable en tests para controlar el reloj del chequeo de vigencia.
	now func() time.Time
}

// NewSignInvoiceUseCase construye el caso de uso.
func NewSignInvoiceUseCase(
	invoiceRepo repository.InvoiceRepository,
	tenantRepo repository.TenantRepository,
	certs CertificateSource,
	builder XMLBuilder,
	canon Canonicalizer,
	sig clearance.Signer,
	normalizer *domInvoicing.TimeNormalizer,
	pihEncoding string,
	log *logger.Logger,
) *SignInvoiceUseCase {
	return &SignInvoiceUseCase{
		invoiceRepo: invoiceRepo,
		tenantRepo:  tenantRepo,
		certs:       certs,
		builder:     builder,
		canon:       canon,
		signer:      sig,
		normalizer:  normalizer,
		pihEncoding: pihEncoding,
		log:         log,
		tenantLocks: make(map[string]*sync.Mutex),
		now:         time.Now,
	}
}

func (uc *SignInvoiceUseCase) lockFor(tenantID string) *sync.Mutex {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	l, ok := uc.tenantLocks[tenantID]
	if !ok {
		l = &sync.Mutex{}
		uc.tenantLocks[tenantID] = l
	}
	return l
}

// Execute firma y encadena una factura del tenant en el ambiente dado.
//
// Orden del pipeline (cada paso solo corre si el anterior no falló):
//  1. validar entrada y normalizar el timestamp
//  2. serializar por tenant (mutex) y rechazar números duplicados
//  3. obtener el certificado activo y verificar vigencia + binding
//  4. último hash de la cadena → construir XML con PIH
//  5. canonicalizar (sin firma) y calcular el hash de ESTA factura
//  6. firmar (enveloped) y empaquetar el sobre
//  7. persistir la entrada finalizada en una sola operación atómica
//
// Cualquier fallo antes del paso 7 deja la cadena intacta: no existe la
// entrada "a medio firmar".
func (uc *SignInvoiceUseCase) Execute(ctx context.Context, tenantID, environment string, req *dto.SignInvoiceRequest) (*dto.SignInvoiceResponse, error) {
	if err := uc.validate(req, environment); err != nil {
		return nil, err
	}

	tenant, err := uc.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("consultar tenant: %w", err)
	}
	if tenant == nil {
		return nil, fmt.Errorf("%w: tenant %s", domain.ErrNotFound, tenantID)
	}

	norm, err := uc.normalizer.Normalize(req.IssuedAt)
	if err != nil {
		return nil, err
	}

	log := uc.log.Tenant(tenantID)

	// Serialización por tenant: de aquí en adelante nadie más del mismo
	// tenant puede leer el último hash ni hacer append.
	lock := uc.lockFor(tenantID)
	lock.Lock()
	defer lock.Unlock()

	exists, err := uc.invoiceRepo.ExistsNumber(ctx, tenantID, req.Number)
	if err != nil {
		return nil, fmt.Errorf("verificar número: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: número %s", domain.ErrDuplicateInvoice, req.Number)
	}

	// Certificado: vigencia y binding llave/cert ANTES de construir nada.
	// Un cert vencido jamás llega al firmador.
	pair, certMeta, err := uc.certs.Active(ctx, tenantID, environment)
	if err != nil {
		return nil, err
	}
	if err := signer.VerifyBinding(pair, uc.now()); err != nil {
		return nil, err
	}

	previousHash, err := uc.invoiceRepo.GetLastChainHash(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("leer último hash de la cadena: %w", err)
	}

	inv := uc.buildEntity(tenant, environment, norm, req)
	lines := toEntityLines(req.Lines)

	unsignedXML, err := uc.builder.Build(&ubl.InvoiceBuildContext{
		Tenant:       tenant,
		Invoice:      inv,
		Lines:        lines,
		BuyerName:    req.BuyerName,
		BuyerTaxID:   req.BuyerTaxID,
		PreviousHash: previousHash,
		PIHEncoding:  uc.pihEncoding,
	})
	if err != nil {
		return nil, err
	}

	canonical, err := uc.canon.Canonicalize(unsignedXML)
	if err != nil {
		return nil, err
	}
	inv.Hash = domInvoicing.ComputeHash(canonical)
	inv.PreviousHash = previousHash

	signedXML, err := uc.signer.Sign(unsignedXML, pair)
	if err != nil {
		return nil, err
	}
	inv.SignedXML = string(signedXML)

	envelope, err := ubl.ToEnvelope(signedXML, inv.UUID)
	if err != nil {
		return nil, err
	}

	// Única escritura del pipeline. El índice único (tenant_id, number)
	// respalda el chequeo de arriba ante procesos concurrentes.
	if err := uc.invoiceRepo.AppendFinalized(ctx, inv); err != nil {
		if errors.Is(err, domain.ErrDuplicateInvoice) {
			return nil, err
		}
		return nil, fmt.Errorf("persistir factura: %w", err)
	}

	log.Info().
		Str("invoice_id", inv.ID).
		Str("number", inv.Number).
		Str("hash", inv.Hash).
		Str("certificate_id", certMeta.ID).
		Str("environment", environment).
		Msg("Factura firmada y encadenada")

	resp := &dto.SignInvoiceResponse{
		ID:           inv.ID,
		Number:       inv.Number,
		UUID:         inv.UUID,
		Hash:         inv.Hash,
		PreviousHash: inv.PreviousHash,
		Status:       inv.Status,
	}
	resp.Envelope.Invoice = envelope.Invoice
	resp.Envelope.UUID = envelope.UUID
	return resp, nil
}

func (uc *SignInvoiceUseCase) validate(req *dto.SignInvoiceRequest, environment string) error {
	if req == nil {
		return fmt.Errorf("%w: request vacío", domain.ErrInvalidInput)
	}
	if environment != entity.EnvSandbox && environment != entity.EnvProduction {
		return fmt.Errorf("%w: ambiente inválido %q", domain.ErrInvalidInput, environment)
	}
	if req.Number == "" {
		return fmt.Errorf("%w: número requerido", domain.ErrInvalidInput)
	}
	if !clearance.ValidCurrencyCodes[req.Currency] {
		return fmt.Errorf("%w: moneda no soportada %q", domain.ErrInvalidInput, req.Currency)
	}
	if req.TypeCode != "" && !clearance.ValidInvoiceTypeCodes[req.TypeCode] {
		return fmt.Errorf("%w: tipo de documento inválido %q", domain.ErrInvalidInput, req.TypeCode)
	}
	if len(req.Lines) == 0 {
		return fmt.Errorf("%w: la factura requiere al menos una línea", domain.ErrInvalidInput)
	}
	for i, line := range req.Lines {
		if line.Quantity.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("%w: línea %d con cantidad no positiva", domain.ErrInvalidInput, i+1)
		}
		if line.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: línea %d con precio negativo", domain.ErrInvalidInput, i+1)
		}
	}
	return nil
}

func (uc *SignInvoiceUseCase) buildEntity(tenant *entity.Tenant, environment string, norm *domInvoicing.NormalizedTime, req *dto.SignInvoiceRequest) *entity.Invoice {
	typeCode := req.TypeCode
	if typeCode == "" {
		typeCode = clearance.TypeCodeInvoice
	}

	net := decimal.Zero
	tax := decimal.Zero
	for _, line := range req.Lines {
		subtotal := line.Quantity.Mul(line.UnitPrice)
		net = net.Add(subtotal)
		tax = tax.Add(subtotal.Mul(line.TaxRate).Div(decimal.NewFromInt(100)))
	}
	net = net.Round(2)
	tax = tax.Round(2)

	now := uc.now().UTC()
	return &entity.Invoice{
		ID:          uuid.New().String(),
		TenantID:    tenant.ID,
		Number:      req.Number,
		UUID:        uuid.New().String(),
		Environment: environment,
		IssueDate:   norm.Date,
		IssueTime:   norm.Time,
		TypeCode:    typeCode,
		Currency:    req.Currency,
		NetTotal:    net,
		TaxTotal:    tax,
		GrandTotal:  net.Add(tax),
		Status:      entity.StatusSigned,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func toEntityLines(inputs []dto.InvoiceLineInput) []entity.InvoiceLine {
	lines := make([]entity.InvoiceLine, 0, len(inputs))
	for _, in := range inputs {
		unitCode := in.UnitCode
		if unitCode == "" {
			unitCode = clearance.UnitUnit
		}
		lines = append(lines, entity.InvoiceLine{
			Description: in.Description,
			ItemCode:    in.ItemCode,
			UnitCode:    unitCode,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			TaxRate:     in.TaxRate,
			Subtotal:    in.Quantity.Mul(in.UnitPrice).Round(2),
		})
	}
	return lines
}
