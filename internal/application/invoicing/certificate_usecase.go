package invoicing

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/clearance-gateway/internal/application/dto"
	"github.com/jhoicas/clearance-gateway/internal/domain"
	"github.com/jhoicas/clearance-gateway/internal/domain/entity"
	"github.com/jhoicas/clearance-gateway/internal/domain/repository"
	"github.com/jhoicas/clearance-gateway/internal/infrastructure/ubl/signer"
	"github.com/jhoicas/clearance-gateway/pkg/logger"
)

// CertificateUseCase administra el ciclo de vida de los pares cert/llave de
// un tenant: subida, activación y baja. Los archivos se escriben con permisos
// solo-owner; la DB guarda rutas y metadatos, nunca el material de la llave.
type CertificateUseCase struct {
	repo    repository.CertificateRepository
	cache   CertificateSource
	loader  CertLoader
	certDir string
	log     *logger.Logger
	now     func() time.Time
}

// NewCertificateUseCase construye el caso de uso. loader nil usa DefaultCertLoader.
func NewCertificateUseCase(repo repository.CertificateRepository, cache CertificateSource, loader CertLoader, certDir string, log *logger.Logger) *CertificateUseCase {
	if loader == nil {
		loader = DefaultCertLoader
	}
	return &CertificateUseCase{
		repo:    repo,
		cache:   cache,
		loader:  loader,
		certDir: certDir,
		log:     log,
		now:     time.Now,
	}
}

// Upload registra un par nuevo y lo activa. El par se valida ANTES de tocar
// la DB: debe cargar, la llave debe corresponder al certificado y no puede
// estar vencido. Activar uno nuevo desactiva el anterior del mismo
// (tenant, ambiente); la caché se invalida al final.
func (uc *CertificateUseCase) Upload(ctx context.Context, tenantID string, req *dto.UploadCertificateRequest) (*dto.CertificateResponse, error) {
	if req == nil || req.CertData == "" {
		return nil, fmt.Errorf("%w: cert_data requerido", domain.ErrInvalidInput)
	}
	if req.Environment != entity.EnvSandbox && req.Environment != entity.EnvProduction {
		return nil, fmt.Errorf("%w: ambiente inválido %q", domain.ErrInvalidInput, req.Environment)
	}

	certBytes, err := base64.StdEncoding.DecodeString(req.CertData)
	if err != nil {
		return nil, fmt.Errorf("%w: cert_data no es Base64 válido", domain.ErrInvalidInput)
	}

	id := uuid.New().String()
	dir := filepath.Join(uc.certDir, tenantID)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("crear directorio de certificados: %w", err)
	}

	cert := &entity.Certificate{
		ID:          id,
		TenantID:    tenantID,
		Environment: req.Environment,
		Password:    req.Password,
		Active:      true,
	}

	// Escribir los archivos primero: si la validación falla se borran juntos
	// y la DB nunca se entera.
	if req.Format == "p12" {
		cert.CertPath = filepath.Join(dir, id+".p12")
		if err := os.WriteFile(cert.CertPath, certBytes, 0o600); err != nil {
			return nil, fmt.Errorf("escribir p12: %w", err)
		}
	} else {
		cert.CertPath = filepath.Join(dir, id+".crt.pem")
		if err := os.WriteFile(cert.CertPath, certBytes, 0o600); err != nil {
			return nil, fmt.Errorf("escribir certificado: %w", err)
		}
		if req.KeyData != "" {
			keyBytes, kerr := base64.StdEncoding.DecodeString(req.KeyData)
			if kerr != nil {
				removeCertFiles(cert)
				return nil, fmt.Errorf("%w: key_data no es Base64 válido", domain.ErrInvalidInput)
			}
			cert.KeyPath = filepath.Join(dir, id+".key.pem")
			if err := os.WriteFile(cert.KeyPath, keyBytes, 0o600); err != nil {
				removeCertFiles(cert)
				return nil, fmt.Errorf("escribir llave: %w", err)
			}
		}
	}

	pair, err := uc.loader(cert)
	if err != nil {
		removeCertFiles(cert)
		return nil, fmt.Errorf("%w: el par no carga: %v", domain.ErrInvalidInput, err)
	}
	if err := signer.VerifyBinding(pair, uc.now()); err != nil {
		removeCertFiles(cert)
		return nil, err
	}

	leaf, err := leafOf(pair)
	if err != nil {
		removeCertFiles(cert)
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	now := uc.now().UTC()
	cert.SerialNumber = leaf.SerialNumber.String()
	cert.Issuer = leaf.Issuer.String()
	cert.Subject = leaf.Subject.String()
	cert.NotBefore = leaf.NotBefore
	cert.NotAfter = leaf.NotAfter
	cert.CreatedAt = now
	cert.UpdatedAt = now

	if err := uc.repo.Create(ctx, cert); err != nil {
		removeCertFiles(cert)
		return nil, fmt.Errorf("persistir certificado: %w", err)
	}
	uc.cache.Invalidate(tenantID, req.Environment)

	uc.log.Tenant(tenantID).Info().
		Str("certificate_id", id).
		Str("environment", req.Environment).
		Str("not_after", cert.NotAfter.UTC().Format("2006-01-02")).
		Msg("Certificado registrado y activado")

	return toCertificateResponse(cert), nil
}

// GetActive devuelve los metadatos del par activo del (tenant, ambiente).
func (uc *CertificateUseCase) GetActive(ctx context.Context, tenantID, environment string) (*dto.CertificateResponse, error) {
	meta, err := uc.repo.GetActive(ctx, tenantID, environment)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, fmt.Errorf("%w: sin certificado activo para %s", domain.ErrNotFound, environment)
	}
	return toCertificateResponse(meta), nil
}

// Delete desactiva el certificado y elimina cert y llave JUNTOS del
// filesystem: nunca queda una llave huérfana de su certificado.
func (uc *CertificateUseCase) Delete(ctx context.Context, tenantID, certID string) error {
	meta, err := uc.repo.GetByID(ctx, certID)
	if err != nil {
		return err
	}
	if meta == nil || meta.TenantID != tenantID {
		return fmt.Errorf("%w: certificado %s", domain.ErrNotFound, certID)
	}

	if err := uc.repo.Deactivate(ctx, certID); err != nil {
		return fmt.Errorf("desactivar certificado: %w", err)
	}
	uc.cache.Invalidate(tenantID, meta.Environment)
	removeCertFiles(meta)

	uc.log.Tenant(tenantID).Info().
		Str("certificate_id", certID).
		Str("environment", meta.Environment).
		Msg("Certificado desactivado y archivos eliminados")
	return nil
}

// removeCertFiles borra cert y llave como unidad; ignora archivos ya ausentes.
func removeCertFiles(cert *entity.Certificate) {
	if cert.CertPath != "" {
		_ = os.Remove(cert.CertPath)
	}
	if cert.KeyPath != "" {
		_ = os.Remove(cert.KeyPath)
	}
}

func leafOf(pair tls.Certificate) (*x509.Certificate, error) {
	if pair.Leaf != nil {
		return pair.Leaf, nil
	}
	if len(pair.Certificate) == 0 {
		return nil, fmt.Errorf("par sin certificado")
	}
	return x509.ParseCertificate(pair.Certificate[0])
}

func toCertificateResponse(c *entity.Certificate) *dto.CertificateResponse {
	return &dto.CertificateResponse{
		ID:           c.ID,
		Environment:  c.Environment,
		SerialNumber: c.SerialNumber,
		Issuer:       c.Issuer,
		Subject:      c.Subject,
		NotBefore:    c.NotBefore.UTC().Format(time.RFC3339),
		NotAfter:     c.NotAfter.UTC().Format(time.RFC3339),
		Active:       c.Active,
	}
}
