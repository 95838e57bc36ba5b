package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/clearance-gateway/internal/application/auth"
	appinvoicing "github.com/jhoicas/clearance-gateway/internal/application/invoicing"
	domInvoicing "github.com/jhoicas/clearance-gateway/internal/domain/invoicing"
	infraclearance "github.com/jhoicas/clearance-gateway/internal/infrastructure/clearance"
	infrapdf "github.com/jhoicas/clearance-gateway/internal/infrastructure/pdf"
	"github.com/jhoicas/clearance-gateway/internal/infrastructure/postgres"
	"github.com/jhoicas/clearance-gateway/internal/infrastructure/ubl"
	"github.com/jhoicas/clearance-gateway/internal/infrastructure/ubl/signer"
	httpRouter "github.com/jhoicas/clearance-gateway/internal/interfaces/http"
	"github.com/jhoicas/clearance-gateway/pkg/config"
	"github.com/jhoicas/clearance-gateway/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("clearance_env", cfg.Clearance.Environment).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	txRunner := postgres.NewTxRunner(pool)
	tenantRepo := postgres.NewTenantRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	certificateRepo := postgres.NewCertificateRepository(pool, txRunner)

	// Pipeline de firma: builder → C14N → hash encadenado → XMLDSig
	xmlBuilder := ubl.NewXMLBuilderService()
	canonicalizer := ubl.NewCanonicalizerService()
	signerSvc := signer.NewDigitalSignatureService(canonicalizer)
	normalizer := domInvoicing.NewTimeNormalizer(cfg.Clearance.NaiveTZPolicy)

	certCache := appinvoicing.NewCertificateCache(certificateRepo, nil)

	// Cliente de clearance — solo se usa si CLEARANCE_SUBMIT=true.
	// Con Submit=false las facturas se marcan CLEARED con track simulado.
	var submitter appinvoicing.ClearanceSubmitter
	if cfg.Clearance.Submit {
		submitter = infraclearance.NewAPIClient(cfg.Clearance)
	}

	signInvoiceUC := appinvoicing.NewSignInvoiceUseCase(
		invoiceRepo, tenantRepo, certCache,
		xmlBuilder, canonicalizer, signerSvc,
		normalizer, cfg.Clearance.PIHEncoding, log,
	)
	submitInvoiceUC := appinvoicing.NewSubmitInvoiceUseCase(invoiceRepo, submitter, cfg.Clearance.Submit, log)
	invoiceQueryUC := appinvoicing.NewInvoiceQueryUseCase(invoiceRepo)
	certificateUC := appinvoicing.NewCertificateUseCase(certificateRepo, certCache, nil, cfg.Clearance.CertDir, log)

	pdfGenerator := infrapdf.NewMarotoPDFGenerator()
	pdfUC := appinvoicing.NewPDFUseCase(invoiceRepo, tenantRepo, pdfGenerator)

	authUC := auth.NewAuthUseCase(tenantRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    10 * 1024 * 1024, // certificados p12 en Base64
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Clearance Gateway API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:        authUC,
		SignInvoice:   signInvoiceUC,
		InvoiceQuery:  invoiceQueryUC,
		SubmitInvoice: submitInvoiceUC,
		PDF:           pdfUC,
		CertificateUC: certificateUC,
		JWTSecret:     cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
