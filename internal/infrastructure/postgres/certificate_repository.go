package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/clearance-gateway/internal/domain"
	"github.com/jhoicas/clearance-gateway/internal/domain/entity"
	"github.com/jhoicas/clearance-gateway/internal/domain/repository"
)

var _ repository.CertificateRepository = (*CertificateRepo)(nil)

// CertificateRepo implementación de CertificateRepository. A diferencia de
// los demás repos recibe el TxRunner: activar un certificado desactiva el
// anterior del mismo (tenant, ambiente) y ambas escrituras van en una sola
// transacción.
type CertificateRepo struct {
	q  Querier
	tx *TxRunner
}

// NewCertificateRepository construye el adaptador.
func NewCertificateRepository(q Querier, tx *TxRunner) *CertificateRepo {
	return &CertificateRepo{q: q, tx: tx}
}

const certificateColumns = `id, tenant_id, environment, serial_number, issuer, subject,
	not_before, not_after, cert_path, key_path, password, active, created_at, updated_at`

// Create persiste el certificado. Si viene activo, desactiva el par activo
// anterior del mismo (tenant, ambiente) dentro de la misma transacción.
func (r *CertificateRepo) Create(ctx context.Context, cert *entity.Certificate) error {
	insert := func(q Querier) error {
		query := `
			INSERT INTO certificates (` + certificateColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
		_, err := q.Exec(ctx, query,
			cert.ID, cert.TenantID, cert.Environment, cert.SerialNumber,
			cert.Issuer, cert.Subject, cert.NotBefore, cert.NotAfter,
			cert.CertPath, nullIfEmpty(cert.KeyPath), nullIfEmpty(cert.Password),
			cert.Active, cert.CreatedAt, cert.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert certificate: %w", err)
		}
		return nil
	}

	if !cert.Active || r.tx == nil {
		return insert(r.q)
	}
	return r.tx.Run(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			UPDATE certificates SET active = false, updated_at = NOW()
			WHERE tenant_id = $1 AND environment = $2 AND active = true`,
			cert.TenantID, cert.Environment)
		if err != nil {
			return fmt.Errorf("deactivate previous certificate: %w", err)
		}
		return insert(tx)
	})
}

// GetByID obtiene un certificado por ID; nil si no existe.
func (r *CertificateRepo) GetByID(ctx context.Context, id string) (*entity.Certificate, error) {
	row := r.q.QueryRow(ctx, `SELECT `+certificateColumns+` FROM certificates WHERE id = $1`, id)
	return scanCertificate(row)
}

// GetActive devuelve el par activo del (tenant, ambiente) o nil si no hay.
func (r *CertificateRepo) GetActive(ctx context.Context, tenantID, environment string) (*entity.Certificate, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+certificateColumns+` FROM certificates
		WHERE tenant_id = $1 AND environment = $2 AND active = true
		ORDER BY created_at DESC LIMIT 1`, tenantID, environment)
	return scanCertificate(row)
}

// Deactivate marca el certificado como inactivo.
func (r *CertificateRepo) Deactivate(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE certificates SET active = false, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate certificate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: certificado %s", domain.ErrNotFound, id)
	}
	return nil
}

func scanCertificate(row pgx.Row) (*entity.Certificate, error) {
	var c entity.Certificate
	var keyPath, password *string
	err := row.Scan(&c.ID, &c.TenantID, &c.Environment, &c.SerialNumber,
		&c.Issuer, &c.Subject, &c.NotBefore, &c.NotAfter,
		&c.CertPath, &keyPath, &password, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan certificate: %w", err)
	}
	if keyPath != nil {
		c.KeyPath = *keyPath
	}
	if password != nil {
		c.Password = *password
	}
	return &c, nil
}
