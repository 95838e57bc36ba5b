package invoicing_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clearance-gateway/internal/application/dto"
	appinvoicing "github.com/jhoicas/clearance-gateway/internal/application/invoicing"
	"github.com/jhoicas/clearance-gateway/internal/domain"
	"github.com/jhoicas/clearance-gateway/internal/domain/entity"
	domInvoicing "github.com/jhoicas/clearance-gateway/internal/domain/invoicing"
	"github.com/jhoicas/clearance-gateway/internal/infrastructure/ubl"
	"github.com/jhoicas/clearance-gateway/internal/infrastructure/ubl/signer"
	"github.com/jhoicas/clearance-gateway/pkg/logger"
)

// ============================================================================
// Fakes en memoria
// ============================================================================

type fakeInvoiceRepo struct {
	chain      []*entity.Invoice // orden de inserción = orden de cadena
	appendErr  error
	appendDups bool
}

func (r *fakeInvoiceRepo) AppendFinalized(_ context.Context, inv *entity.Invoice) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	if r.appendDups {
		for _, existing := range r.chain {
			if existing.TenantID == inv.TenantID && existing.Number == inv.Number {
				return domain.ErrDuplicateInvoice
			}
		}
	}
	cp := *inv
	r.chain = append(r.chain, &cp)
	return nil
}

func (r *fakeInvoiceRepo) GetLastChainHash(_ context.Context, tenantID string) (string, error) {
	for i := len(r.chain) - 1; i >= 0; i-- {
		if r.chain[i].TenantID == tenantID {
			return r.chain[i].Hash, nil
		}
	}
	return "", nil
}

func (r *fakeInvoiceRepo) ExistsNumber(_ context.Context, tenantID, number string) (bool, error) {
	for _, inv := range r.chain {
		if inv.TenantID == tenantID && inv.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeInvoiceRepo) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	for _, inv := range r.chain {
		if inv.ID == id {
			return inv, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeInvoiceRepo) GetByNumber(_ context.Context, tenantID, number string) (*entity.Invoice, error) {
	for _, inv := range r.chain {
		if inv.TenantID == tenantID && inv.Number == number {
			return inv, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeInvoiceRepo) ListByTenant(_ context.Context, tenantID string, _ int) ([]*entity.Invoice, error) {
	var out []*entity.Invoice
	for _, inv := range r.chain {
		if inv.TenantID == tenantID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *fakeInvoiceRepo) UpdateClearanceResult(_ context.Context, id, status, trackID, clearErrors string) error {
	for _, inv := range r.chain {
		if inv.ID == id {
			inv.Status, inv.TrackID, inv.ClearErrors = status, trackID, clearErrors
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakeTenantRepo struct {
	tenants map[string]*entity.Tenant
}

func (r *fakeTenantRepo) Create(_ context.Context, t *entity.Tenant) error {
	r.tenants[t.ID] = t
	return nil
}

func (r *fakeTenantRepo) GetByID(_ context.Context, id string) (*entity.Tenant, error) {
	return r.tenants[id], nil
}

func (r *fakeTenantRepo) GetByClientID(_ context.Context, clientID string) (*entity.Tenant, error) {
	for _, t := range r.tenants {
		if t.ClientID == clientID {
			return t, nil
		}
	}
	return nil, nil
}

type fakeCertSource struct {
	pair  tls.Certificate
	meta  *entity.Certificate
	err   error
	calls int
}

func (s *fakeCertSource) Active(_ context.Context, _, _ string) (tls.Certificate, *entity.Certificate, error) {
	s.calls++
	if s.err != nil {
		return tls.Certificate{}, nil, s.err
	}
	return s.pair, s.meta, nil
}

func (s *fakeCertSource) Invalidate(_, _ string) {}

// spySigner cuenta invocaciones delegando en el firmador real.
type spySigner struct {
	real  *signer.DigitalSignatureService
	calls int
}

func (s *spySigner) Sign(xmlBytes []byte, cert tls.Certificate) ([]byte, error) {
	s.calls++
	return s.real.Sign(xmlBytes, cert)
}

// ============================================================================
// Armado del caso de uso con servicios reales (builder, C14N, firma)
// ============================================================================

func newSelfSignedPair(t *testing.T, notBefore, notAfter time.Time) tls.Certificate {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	template := x509.Certificate{
		SerialNumber: big.NewInt(77),
		Subject:      pkix.Name{CommonName: "Comercial Andina SAS"},
		NotBefore:    notBefore,
		NotAfter:     notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	require.NoError(t, err)
	leaf, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: priv, Leaf: leaf}
}

type ucFixture struct {
	uc     *appinvoicing.SignInvoiceUseCase
	repo   *fakeInvoiceRepo
	certs  *fakeCertSource
	spy    *spySigner
	tenant *entity.Tenant
}

func newFixture(t *testing.T) *ucFixture {
	t.Helper()
	now := time.Now()
	pair := newSelfSignedPair(t, now.Add(-time.Hour), now.Add(24*time.Hour))

	tenant := &entity.Tenant{
		ID:       "tenant-1",
		Name:     "Comercial Andina SAS",
		TaxID:    "900123456",
		ClientID: "andina",
	}
	repo := &fakeInvoiceRepo{appendDups: true}
	certs := &fakeCertSource{
		pair: pair,
		meta: &entity.Certificate{ID: "cert-1", TenantID: tenant.ID, Environment: entity.EnvSandbox},
	}
	canon := ubl.NewCanonicalizerService()
	spy := &spySigner{real: signer.NewDigitalSignatureService(canon)}

	uc := appinvoicing.NewSignInvoiceUseCase(
		repo,
		&fakeTenantRepo{tenants: map[string]*entity.Tenant{tenant.ID: tenant}},
		certs,
		ubl.NewXMLBuilderService(),
		canon,
		spy,
		domInvoicing.NewTimeNormalizer(domInvoicing.NaivePolicyUTC),
		domInvoicing.PIHEncodingHex,
		logger.New(logger.Config{Env: "production", Level: "error"}),
	)
	return &ucFixture{uc: uc, repo: repo, certs: certs, spy: spy, tenant: tenant}
}

func signRequest(number string) *dto.SignInvoiceRequest {
	return &dto.SignInvoiceRequest{
		Number:    number,
		Currency:  "USD",
		IssuedAt:  "2026-03-15T10:30:00Z",
		BuyerName: "Cliente Final",
		Lines: []dto.InvoiceLineInput{
			{
				Description: "Servicio de consultoría",
				UnitCode:    "HUR",
				Quantity:    decimal.NewFromInt(2),
				UnitPrice:   decimal.NewFromFloat(150.00),
				TaxRate:     decimal.NewFromInt(19),
			},
		},
	}
}

// ============================================================================
// Escenarios
// ============================================================================

func TestSignInvoice_PrimeraFacturaSinPIH(t *testing.T) {
	f := newFixture(t)

	resp, err := f.uc.Execute(context.Background(), f.tenant.ID, entity.EnvSandbox, signRequest("F001-1"))
	require.NoError(t, err)

	assert.Empty(t, resp.PreviousHash, "la primera factura de la cadena no lleva PIH")
	assert.Len(t, resp.Hash, 64)
	assert.Equal(t, strings.ToLower(resp.Hash), resp.Hash)
	assert.Equal(t, entity.StatusSigned, resp.Status)
	assert.NotEmpty(t, resp.Envelope.Invoice)
	assert.Equal(t, resp.UUID, resp.Envelope.UUID)

	require.Len(t, f.repo.chain, 1)
	stored := f.repo.chain[0]
	assert.NotContains(t, stored.SignedXML, "PIH")
	assert.Contains(t, stored.SignedXML, "ds:Signature")
}

func TestSignInvoice_SegundaFacturaEncadenaConElHashAnterior(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.uc.Execute(ctx, f.tenant.ID, entity.EnvSandbox, signRequest("F001-1"))
	require.NoError(t, err)
	second, err := f.uc.Execute(ctx, f.tenant.ID, entity.EnvSandbox, signRequest("F001-2"))
	require.NoError(t, err)

	assert.Equal(t, first.Hash, second.PreviousHash, "PIH(n) debe ser hash(n-1)")
	assert.NotEqual(t, first.Hash, second.Hash)

	// El XML de la segunda transporta el hash de la primera.
	assert.Contains(t, f.repo.chain[1].SignedXML, first.Hash)
}

func TestSignInvoice_HashEsElDelCanonicoSinFirma(t *testing.T) {
	f := newFixture(t)

	resp, err := f.uc.Execute(context.Background(), f.tenant.ID, entity.EnvSandbox, signRequest("F001-1"))
	require.NoError(t, err)

	// Recalcular desde el documento firmado persistido: canonicalizar
	// (excluye la firma) y digerir debe reproducir el hash almacenado.
	canon := ubl.NewCanonicalizerService()
	canonical, err := canon.Canonicalize([]byte(f.repo.chain[0].SignedXML))
	require.NoError(t, err)
	sum := sha256.Sum256(canonical)
	assert.Equal(t, hex.EncodeToString(sum[:]), resp.Hash)
}

func TestSignInvoice_NumeroDuplicadoRechazado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Execute(ctx, f.tenant.ID, entity.EnvSandbox, signRequest("F001-1"))
	require.NoError(t, err)

	_, err = f.uc.Execute(ctx, f.tenant.ID, entity.EnvSandbox, signRequest("F001-1"))
	assert.ErrorIs(t, err, domain.ErrDuplicateInvoice)
	assert.Len(t, f.repo.chain, 1, "el duplicado no debe tocar la cadena")
}

func TestSignInvoice_CertificadoVencidoNuncaLlegaAlFirmador(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	f.certs.pair = newSelfSignedPair(t, now.Add(-48*time.Hour), now.Add(-24*time.Hour))

	_, err := f.uc.Execute(context.Background(), f.tenant.ID, entity.EnvSandbox, signRequest("F001-1"))
	assert.ErrorIs(t, err, domain.ErrCertificateExpired)
	assert.Zero(t, f.spy.calls, "un cert vencido no debe invocar la firma")
	assert.Empty(t, f.repo.chain)
}

func TestSignInvoice_SinCertificadoActivo(t *testing.T) {
	f := newFixture(t)
	f.certs.err = domain.ErrNotFound

	_, err := f.uc.Execute(context.Background(), f.tenant.ID, entity.EnvSandbox, signRequest("F001-1"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.repo.chain)
}

func TestSignInvoice_FalloDePersistenciaDejaLaCadenaIntacta(t *testing.T) {
	f := newFixture(t)
	f.repo.appendErr = errors.New("conexión perdida")

	_, err := f.uc.Execute(context.Background(), f.tenant.ID, entity.EnvSandbox, signRequest("F001-1"))
	require.Error(t, err)
	assert.Empty(t, f.repo.chain)

	// El mismo número debe poder firmarse tras recuperar la DB.
	f.repo.appendErr = nil
	_, err = f.uc.Execute(context.Background(), f.tenant.ID, entity.EnvSandbox, signRequest("F001-1"))
	assert.NoError(t, err)
}

func TestSignInvoice_TimestampInvalido(t *testing.T) {
	f := newFixture(t)
	req := signRequest("F001-1")
	req.IssuedAt = "15/03/2026"

	_, err := f.uc.Execute(context.Background(), f.tenant.ID, entity.EnvSandbox, req)
	assert.ErrorIs(t, err, domain.ErrInvalidTimestamp)
	assert.Zero(t, f.certs.calls, "no se debe consultar el certificado con entrada inválida")
}

func TestSignInvoice_ValidacionDeEntrada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	casos := []struct {
		nombre string
		mut    func(*dto.SignInvoiceRequest)
	}{
		{"sin número", func(r *dto.SignInvoiceRequest) { r.Number = "" }},
		{"moneda inválida", func(r *dto.SignInvoiceRequest) { r.Currency = "XXX" }},
		{"tipo de documento inválido", func(r *dto.SignInvoiceRequest) { r.TypeCode = "999" }},
		{"sin líneas", func(r *dto.SignInvoiceRequest) { r.Lines = nil }},
		{"cantidad cero", func(r *dto.SignInvoiceRequest) { r.Lines[0].Quantity = decimal.Zero }},
		{"precio negativo", func(r *dto.SignInvoiceRequest) { r.Lines[0].UnitPrice = decimal.NewFromInt(-1) }},
	}
	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			req := signRequest("F001-9")
			c.mut(req)
			_, err := f.uc.Execute(ctx, f.tenant.ID, entity.EnvSandbox, req)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	assert.Empty(t, f.repo.chain)
}

func TestSignInvoice_CadenasPorTenantSonIndependientes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	otro := &entity.Tenant{ID: "tenant-2", Name: "Distribuidora Sur SA", TaxID: "900999888"}
	tenantRepo := &fakeTenantRepo{tenants: map[string]*entity.Tenant{
		f.tenant.ID: f.tenant,
		otro.ID:     otro,
	}}
	canon := ubl.NewCanonicalizerService()
	uc := appinvoicing.NewSignInvoiceUseCase(
		f.repo, tenantRepo, f.certs,
		ubl.NewXMLBuilderService(), canon,
		signer.NewDigitalSignatureService(canon),
		domInvoicing.NewTimeNormalizer(domInvoicing.NaivePolicyUTC),
		domInvoicing.PIHEncodingHex,
		logger.New(logger.Config{Env: "production", Level: "error"}),
	)

	r1, err := uc.Execute(ctx, f.tenant.ID, entity.EnvSandbox, signRequest("F001-1"))
	require.NoError(t, err)
	r2, err := uc.Execute(ctx, otro.ID, entity.EnvSandbox, signRequest("F001-1"))
	require.NoError(t, err)

	// Mismo número en tenants distintos es válido, y la primera factura de
	// cada cadena no lleva PIH.
	assert.Empty(t, r1.PreviousHash)
	assert.Empty(t, r2.PreviousHash)
	assert.NotEqual(t, r1.Hash, r2.Hash)
}
