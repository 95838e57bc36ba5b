package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/clearance-gateway/internal/application/dto"
	appinvoicing "github.com/jhoicas/clearance-gateway/internal/application/invoicing"
	"github.com/jhoicas/clearance-gateway/internal/domain"
)

// InvoiceHandler maneja las peticiones HTTP de firma y consulta de facturas (protegido).
type InvoiceHandler struct {
	signUC   *appinvoicing.SignInvoiceUseCase
	queryUC  *appinvoicing.InvoiceQueryUseCase
	submitUC *appinvoicing.SubmitInvoiceUseCase
	pdfUC    *appinvoicing.PDFUseCase
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(signUC *appinvoicing.SignInvoiceUseCase, queryUC *appinvoicing.InvoiceQueryUseCase, submitUC *appinvoicing.SubmitInvoiceUseCase, pdfUC *appinvoicing.PDFUseCase) *InvoiceHandler {
	return &InvoiceHandler{signUC: signUC, queryUC: queryUC, submitUC: submitUC, pdfUC: pdfUC}
}

// Sign godoc
// @Summary      Firmar y encadenar una factura
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SignInvoiceRequest  true  "datos de la factura"
// @Success      201   {object}  dto.SignInvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/invoices/sign [post]
func (h *InvoiceHandler) Sign(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	environment := GetEnvironment(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.SignInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}

	resp, err := h.signUC.Execute(c.Context(), tenantID, environment, &in)
	if err != nil {
		return signError(c, err)
	}

	// El envío a la autoridad corre desacoplado del ciclo HTTP: la respuesta
	// devuelve la factura ya firmada y encadenada sin esperar el veredicto.
	h.submitUC.ProcessAsync(resp.ID)

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// signError traduce los errores del pipeline de firma a códigos HTTP.
func signError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrDuplicateInvoice):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE_INVOICE", Message: "el número de factura ya fue firmado"})
	case errors.Is(err, domain.ErrInvalidTimestamp):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_TIMESTAMP", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrCertificateExpired):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "CERTIFICATE_EXPIRED", Message: "el certificado activo está vencido"})
	case errors.Is(err, domain.ErrCertificateMismatch):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "CERTIFICATE_MISMATCH", Message: "la llave privada no corresponde al certificado"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

// GetByNumber obtiene una factura del tenant por su número.
// GET /api/invoices/:number
func (h *InvoiceHandler) GetByNumber(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	number := c.Params("number")
	if number == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "número requerido"})
	}
	invoice, err := h.queryUC.GetByNumber(c.Context(), tenantID, number)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "factura no encontrada"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(invoice)
}

// List devuelve las facturas del tenant en orden de cadena.
// GET /api/invoices?limit=100
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	limit, _ := strconv.Atoi(c.Query("limit", "100"))
	invoices, err := h.queryUC.List(c.Context(), tenantID, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(invoices)
}

// DownloadXML descarga el documento firmado completo.
// GET /api/invoices/:number/xml
func (h *InvoiceHandler) DownloadXML(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	number := c.Params("number")
	signedXML, err := h.queryUC.GetSignedXML(c.Context(), tenantID, number)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "factura no encontrada"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	c.Set("Content-Type", "application/xml; charset=utf-8")
	c.Set("Content-Disposition", `attachment; filename="factura_`+number+`.xml"`)
	return c.Send(signedXML)
}

// DownloadPDF descarga la representación gráfica de la factura.
// GET /api/invoices/:number/pdf
func (h *InvoiceHandler) DownloadPDF(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	number := c.Params("number")
	pdfBytes, filename, err := h.pdfUC.DownloadInvoicePDF(c.Context(), tenantID, number)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "factura no encontrada"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	c.Set("Content-Type", "application/pdf")
	c.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	return c.Send(pdfBytes)
}

// Resubmit reintenta el envío de una factura en SIGNED a la autoridad.
// POST /api/invoices/:number/submit
func (h *InvoiceHandler) Resubmit(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	number := c.Params("number")
	invoice, err := h.queryUC.GetByNumber(c.Context(), tenantID, number)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "factura no encontrada"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	h.submitUC.ProcessAsync(invoice.ID)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "submitting", "number": number})
}

// VerifyChain valida el invariante de encadenamiento de toda la cadena del tenant.
// GET /api/invoices/chain/verify
func (h *InvoiceHandler) VerifyChain(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	broken, err := h.queryUC.VerifyChain(c.Context(), tenantID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	if broken != "" {
		return c.JSON(fiber.Map{"valid": false, "broken_at": broken})
	}
	return c.JSON(fiber.Map{"valid": true})
}
