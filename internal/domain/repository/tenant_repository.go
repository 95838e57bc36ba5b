package repository

import (
	"context"

	"github.com/jhoicas/clearance-gateway/internal/domain/entity"
)

// TenantRepository puerto de persistencia de tenants.
type TenantRepository interface {
	Create(ctx context.Context, tenant *entity.Tenant) error
	GetByID(ctx context.Context, id string) (*entity.Tenant, error)
	GetByClientID(ctx context.Context, clientID string) (*entity.Tenant, error)
}
