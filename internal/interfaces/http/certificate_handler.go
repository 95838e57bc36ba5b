package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/clearance-gateway/internal/application/dto"
	appinvoicing "github.com/jhoicas/clearance-gateway/internal/application/invoicing"
	"github.com/jhoicas/clearance-gateway/internal/domain"
)

// CertificateHandler administra los pares cert/llave del tenant (protegido).
type CertificateHandler struct {
	uc *appinvoicing.CertificateUseCase
}

// NewCertificateHandler construye el handler.
func NewCertificateHandler(uc *appinvoicing.CertificateUseCase) *CertificateHandler {
	return &CertificateHandler{uc: uc}
}

// Upload godoc
// @Summary      Subir y activar un certificado
// @Tags         certificates
// @Accept       json
// @Produce      json
// @Param        body  body  dto.UploadCertificateRequest  true  "certificado en Base64"
// @Success      201   {object}  dto.CertificateResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/certificates [post]
func (h *CertificateHandler) Upload(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.UploadCertificateRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	resp, err := h.uc.Upload(c.Context(), tenantID, &in)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCertificateExpired):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "CERTIFICATE_EXPIRED", Message: "el certificado está vencido"})
		case errors.Is(err, domain.ErrCertificateMismatch):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "CERTIFICATE_MISMATCH", Message: "la llave privada no corresponde al certificado"})
		case errors.Is(err, domain.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
		}
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// GetActive devuelve el certificado activo del (tenant, ambiente).
// GET /api/certificates/active?environment=sandbox
func (h *CertificateHandler) GetActive(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	environment := c.Query("environment", GetEnvironment(c))
	resp, err := h.uc.GetActive(c.Context(), tenantID, environment)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "sin certificado activo"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(resp)
}

// Delete desactiva un certificado y elimina sus archivos.
// DELETE /api/certificates/:id
func (h *CertificateHandler) Delete(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	id := c.Params("id")
	if err := h.uc.Delete(c.Context(), tenantID, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "certificado no encontrado"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
