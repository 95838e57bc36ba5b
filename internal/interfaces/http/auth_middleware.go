package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/clearance-gateway/internal/application/dto"
	"github.com/jhoicas/clearance-gateway/pkg/jwt"
)

// Locals keys para TenantID y Environment en Fiber.
const (
	LocalTenantID    = "tenant_id"
	LocalEnvironment = "environment"
)

// AuthMiddleware valida el Bearer Token JWT y extrae TenantID y Environment
// a c.Locals. Todo endpoint protegido opera bajo ese scope: un tenant jamás
// ve facturas ni certificados de otro.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		tenantID, environment, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalTenantID, tenantID)
		c.Locals(LocalEnvironment, environment)
		return c.Next()
	}
}

// GetTenantID devuelve el TenantID del contexto (después del middleware de auth).
func GetTenantID(c *fiber.Ctx) string {
	v := c.Locals(LocalTenantID)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetEnvironment devuelve el ambiente del contexto (después del middleware de auth).
func GetEnvironment(c *fiber.Ctx) string {
	v := c.Locals(LocalEnvironment)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
