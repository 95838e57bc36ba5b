package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/clearance-gateway/internal/application/auth"
	appinvoicing "github.com/jhoicas/clearance-gateway/internal/application/invoicing"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC        *auth.AuthUseCase
	SignInvoice   *appinvoicing.SignInvoiceUseCase
	InvoiceQuery  *appinvoicing.InvoiceQueryUseCase
	SubmitInvoice *appinvoicing.SubmitInvoiceUseCase
	PDF           *appinvoicing.PDFUseCase
	CertificateUC *appinvoicing.CertificateUseCase
	JWTSecret     string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/token", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token con scope de tenant)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Invoices (protegido)
	invoices := protected.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.SignInvoice, deps.InvoiceQuery, deps.SubmitInvoice, deps.PDF)
	invoices.Post("/sign", invoiceHandler.Sign)
	invoices.Get("/", invoiceHandler.List)
	invoices.Get("/chain/verify", invoiceHandler.VerifyChain)
	invoices.Get("/:number", invoiceHandler.GetByNumber)
	invoices.Get("/:number/xml", invoiceHandler.DownloadXML)
	invoices.Get("/:number/pdf", invoiceHandler.DownloadPDF)
	invoices.Post("/:number/submit", invoiceHandler.Resubmit)

	// Certificates (protegido)
	certificates := protected.Group("/certificates")
	certificateHandler := NewCertificateHandler(deps.CertificateUC)
	certificates.Post("/", certificateHandler.Upload)
	certificates.Get("/active", certificateHandler.GetActive)
	certificates.Delete("/:id", certificateHandler.Delete)
}
