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

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
// La tabla invoices lleva UNIQUE (tenant_id, number): el índice es la última
// línea de defensa contra duplicados entre procesos.
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const invoiceColumns = `id, tenant_id, number, uuid, environment, issue_date, issue_time,
	type_code, currency, net_total, tax_total, grand_total,
	hash, previous_hash, signed_xml, status, track_id, clear_errors, created_at, updated_at`

// AppendFinalized inserta la entrada finalizada de la cadena. Una violación
// del índice único (tenant_id, number) se traduce a ErrDuplicateInvoice.
func (r *InvoiceRepo) AppendFinalized(ctx context.Context, invoice *entity.Invoice) error {
	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`
	_, err := r.q.Exec(ctx, query,
		invoice.ID, invoice.TenantID, invoice.Number, invoice.UUID, invoice.Environment,
		invoice.IssueDate, invoice.IssueTime, invoice.TypeCode, invoice.Currency,
		invoice.NetTotal, invoice.TaxTotal, invoice.GrandTotal,
		invoice.Hash, nullIfEmpty(invoice.PreviousHash), invoice.SignedXML,
		invoice.Status, nullIfEmpty(invoice.TrackID), nullIfEmpty(invoice.ClearErrors),
		invoice.CreatedAt, invoice.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: número %s", domain.ErrDuplicateInvoice, invoice.Number)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// GetLastChainHash devuelve el hash de la última factura del tenant, o ""
// si la cadena está vacía.
func (r *InvoiceRepo) GetLastChainHash(ctx context.Context, tenantID string) (string, error) {
	query := `
		SELECT hash FROM invoices
		WHERE tenant_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`
	var hash string
	err := r.q.QueryRow(ctx, query, tenantID).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("select last hash: %w", err)
	}
	return hash, nil
}

// ExistsNumber indica si el tenant ya finalizó una factura con ese número.
func (r *InvoiceRepo) ExistsNumber(ctx context.Context, tenantID, number string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM invoices WHERE tenant_id = $1 AND number = $2)`,
		tenantID, number).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists invoice: %w", err)
	}
	return exists, nil
}

// GetByID obtiene una factura por ID.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	row := r.q.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	return scanInvoice(row)
}

// GetByNumber obtiene una factura del tenant por su número.
func (r *InvoiceRepo) GetByNumber(ctx context.Context, tenantID, number string) (*entity.Invoice, error) {
	row := r.q.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE tenant_id = $1 AND number = $2`,
		tenantID, number)
	return scanInvoice(row)
}

// ListByTenant devuelve las facturas del tenant en orden de cadena
// (ascendente). limit <= 0 devuelve la cadena completa.
func (r *InvoiceRepo) ListByTenant(ctx context.Context, tenantID string, limit int) ([]*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE tenant_id = $1 ORDER BY created_at ASC, id ASC`
	args := []any{tenantID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var list []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

// UpdateClearanceResult persiste el veredicto del envío. Nunca toca hash,
// previous_hash ni signed_xml: esos campos son inmutables tras el append.
func (r *InvoiceRepo) UpdateClearanceResult(ctx context.Context, id, status, trackID, clearErrors string) error {
	query := `
		UPDATE invoices
		SET status       = $2,
		    track_id     = COALESCE($3, track_id),
		    clear_errors = COALESCE($4, clear_errors),
		    updated_at   = NOW()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, id, status, nullIfEmpty(trackID), nullIfEmpty(clearErrors))
	if err != nil {
		return fmt.Errorf("update clearance result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: factura %s", domain.ErrNotFound, id)
	}
	return nil
}

// scanInvoice mapea una fila a la entidad. Los campos opcionales van como
// punteros NULL-ables.
func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	var previousHash, trackID, clearErrors *string
	err := row.Scan(
		&inv.ID, &inv.TenantID, &inv.Number, &inv.UUID, &inv.Environment,
		&inv.IssueDate, &inv.IssueTime, &inv.TypeCode, &inv.Currency,
		&inv.NetTotal, &inv.TaxTotal, &inv.GrandTotal,
		&inv.Hash, &previousHash, &inv.SignedXML,
		&inv.Status, &trackID, &clearErrors, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan invoice: %w", err)
	}
	if previousHash != nil {
		inv.PreviousHash = *previousHash
	}
	if trackID != nil {
		inv.TrackID = *trackID
	}
	if clearErrors != nil {
		inv.ClearErrors = *clearErrors
	}
	return &inv, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
