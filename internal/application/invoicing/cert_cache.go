package invoicing

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"sync"

	"github.com/jhoicas/clearance-gateway/internal/domain"
	"github.com/jhoicas/clearance-gateway/internal/domain/entity"
	"github.com/jhoicas/clearance-gateway/internal/domain/repository"
	"github.com/jhoicas/clearance-gateway/internal/infrastructure/ubl/signer"
)

// CertLoader carga un par a memoria desde sus archivos. Inyectable para tests.
type CertLoader func(cert *entity.Certificate) (tls.Certificate, error)

// DefaultCertLoader decide entre .p12 y PEM por la extensión del archivo.
func DefaultCertLoader(cert *entity.Certificate) (tls.Certificate, error) {
	lower := strings.ToLower(cert.CertPath)
	if strings.HasSuffix(lower, ".p12") || strings.HasSuffix(lower, ".pfx") {
		return signer.LoadFromP12(cert.CertPath, cert.Password)
	}
	return signer.LoadFromPEM(cert.CertPath, cert.KeyPath)
}

type cachedPair struct {
	certID string
	pair   tls.Certificate
	meta   *entity.Certificate
}

// CertificateCache caché explícita por (tenant, ambiente), keyed por el id
// del certificado: si el par activo en DB cambia, la entrada vieja se descarta
// sola aunque nadie llame Invalidate. Nunca es un singleton implícito: se
// construye en el wiring y se inyecta donde haga falta.
type CertificateCache struct {
	mu      sync.RWMutex
	entries map[string]cachedPair
	repo    repository.CertificateRepository
	loader  CertLoader
}

// NewCertificateCache construye la caché. loader nil usa DefaultCertLoader.
func NewCertificateCache(repo repository.CertificateRepository, loader CertLoader) *CertificateCache {
	if loader == nil {
		loader = DefaultCertLoader
	}
	return &CertificateCache{
		entries: make(map[string]cachedPair),
		repo:    repo,
		loader:  loader,
	}
}

func cacheKey(tenantID, environment string) string {
	return tenantID + "|" + environment
}

// Active implementa CertificateSource: consulta el par activo en DB y reusa
// el material cargado solo si el certificate id coincide con el cacheado.
func (c *CertificateCache) Active(ctx context.Context, tenantID, environment string) (tls.Certificate, *entity.Certificate, error) {
	meta, err := c.repo.GetActive(ctx, tenantID, environment)
	if err != nil {
		return tls.Certificate{}, nil, fmt.Errorf("consultar certificado activo: %w", err)
	}
	if meta == nil {
		return tls.Certificate{}, nil, fmt.Errorf("%w: sin certificado activo para %s/%s",
			domain.ErrNotFound, tenantID, environment)
	}

	key := cacheKey(tenantID, environment)
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && entry.certID == meta.ID {
		return entry.pair, entry.meta, nil
	}

	pair, err := c.loader(meta)
	if err != nil {
		return tls.Certificate{}, nil, fmt.Errorf("cargar certificado %s: %w", meta.ID, err)
	}

	c.mu.Lock()
	c.entries[key] = cachedPair{certID: meta.ID, pair: pair, meta: meta}
	c.mu.Unlock()
	return pair, meta, nil
}

// Invalidate descarta la entrada del (tenant, ambiente).
func (c *CertificateCache) Invalidate(tenantID, environment string) {
	c.mu.Lock()
	delete(c.entries, cacheKey(tenantID, environment))
	c.mu.Unlock()
}

var _ CertificateSource = (*CertificateCache)(nil)
