package auth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/clearance-gateway/internal/application/dto"
	"github.com/jhoicas/clearance-gateway/internal/domain"
	"github.com/jhoicas/clearance-gateway/internal/domain/entity"
	"github.com/jhoicas/clearance-gateway/internal/domain/repository"
	"github.com/jhoicas/clearance-gateway/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase autenticación de tenants: client_id/client_secret → JWT.
// El token lleva tenant_id y el ambiente solicitado; todo endpoint del
// gateway opera bajo ese scope.
type AuthUseCase struct {
	tenantRepo repository.TenantRepository
	jwtCfg     JWTConfig
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(tenantRepo repository.TenantRepository, jwtCfg JWTConfig) *AuthUseCase {
	return &AuthUseCase{tenantRepo: tenantRepo, jwtCfg: jwtCfg}
}

// Login verifica las credenciales del tenant y emite un JWT con scope
// (tenant, ambiente). Credenciales inválidas y tenant inexistente devuelven
// el mismo error: no se filtra cuál de los dos falló.
func (uc *AuthUseCase) Login(ctx context.Context, in *dto.LoginRequest) (*dto.LoginResponse, error) {
	if in == nil || in.ClientID == "" || in.ClientSecret == "" {
		return nil, fmt.Errorf("%w: credenciales requeridas", domain.ErrInvalidInput)
	}
	environment := in.Environment
	if environment == "" {
		environment = entity.EnvSandbox
	}
	if environment != entity.EnvSandbox && environment != entity.EnvProduction {
		return nil, fmt.Errorf("%w: ambiente inválido %q", domain.ErrInvalidInput, environment)
	}

	tenant, err := uc.tenantRepo.GetByClientID(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(tenant.SecretHash), []byte(in.ClientSecret)); err != nil {
		return nil, domain.ErrUnauthorized
	}

	token, err := jwt.Generate(uc.jwtCfg.Secret, tenant.ID, environment, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, fmt.Errorf("generar token: %w", err)
	}
	return &dto.LoginResponse{
		Token:     token,
		ExpiresIn: uc.jwtCfg.ExpMinutes * 60,
	}, nil
}
