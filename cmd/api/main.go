package main

import (
	"context"
	"crypto/tls"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	appverification "github.com/jhoicas/ksef-qr/internal/application/verification"
	"github.com/jhoicas/ksef-qr/internal/infrastructure/certs"
	"github.com/jhoicas/ksef-qr/internal/infrastructure/invoicexml"
	infrapdf "github.com/jhoicas/ksef-qr/internal/infrastructure/pdf"
	"github.com/jhoicas/ksef-qr/internal/infrastructure/qrcode"
	httpRouter "github.com/jhoicas/ksef-qr/internal/interfaces/http"
	"github.com/jhoicas/ksef-qr/pkg/config"
	"github.com/jhoicas/ksef-qr/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})

	baseURL, err := cfg.KSeF.VerificationBaseURL()
	if err != nil {
		log.Fatal().Err(err).Msg("url base KSeF")
	}
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("base_url", baseURL).
		Msg("iniciando aplicación")

	// Certificado KSeF opcional: sin él solo se generan enlaces KOD I.
	var signingCert *tls.Certificate
	if cfg.KSeF.CertPath != "" {
		cert, err := certs.Load(cfg.KSeF.CertPath, cfg.KSeF.CertKeyPath, cfg.KSeF.CertPassword)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.KSeF.CertPath).Msg("cargar certificado KSeF")
		}
		signingCert = &cert
		log.Info().
			Str("serial", certs.SerialNumber(cert.Leaf)).
			Str("fingerprint", certs.Fingerprint(cert.Leaf)).
			Bool("private_key", cert.PrivateKey != nil).
			Msg("certificado KSeF cargado")
	}
	privateKeyPEM, err := certs.ReadPrivateKeyPEM(cfg.KSeF.PrivateKeyPath)
	if err != nil {
		log.Fatal().Err(err).Msg("leer llave privada")
	}

	linksUC, err := appverification.NewLinksUseCase(
		appverification.Config{
			BaseURL:       baseURL,
			StrictNIP:     cfg.KSeF.StrictNIP,
			Certificate:   signingCert,
			PrivateKeyPEM: privateKeyPEM,
		},
		invoicexml.NewReader(),
		qrcode.NewGenerator(),
		infrapdf.NewMarotoSheetGenerator(),
		log.Child("verification"),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("caso de uso de verificación")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    10 * 1024 * 1024, // facturas XML grandes
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "KSeF QR API",
	}))

	if cfg.JWT.Secret == "" {
		log.Warn().Msg("JWT_SECRET vacío: rutas de verificación sin autenticación")
	}
	httpRouter.Router(app, httpRouter.RouterDeps{
		LinksUC:   linksUC,
		JWTSecret: cfg.JWT.Secret,
		JWTIssuer: cfg.JWT.Issuer,
		Log:       log,
		AppName:   cfg.App.Name,
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
