package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	appverification "github.com/jhoicas/ksef-qr/internal/application/verification"
	"github.com/jhoicas/ksef-qr/pkg/jwt"
	"github.com/jhoicas/ksef-qr/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	LinksUC   *appverification.LinksUseCase
	JWTSecret string // vacío = rutas públicas
	JWTIssuer string // claim iss exigido; vacío = sin validar
	Log       *logger.Logger
	AppName   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(RequestLog(log.Child("http")))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":      "ok",
			"service":     deps.AppName,
			"base_url":    deps.LinksUC.BaseURL(),
			"certificate": deps.LinksUC.HasCertificate(),
		})
	})

	api := app.Group("/api/verification")

	// Con JWT_SECRET: lectura con cualquier scope, firma solo con verification:sign.
	var read, sign []fiber.Handler
	if deps.JWTSecret != "" {
		api.Use(AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))
		read = []fiber.Handler{RequireScope(jwt.ScopeVerify, jwt.ScopeSign)}
		sign = []fiber.Handler{RequireScope(jwt.ScopeSign)}
	}

	h := NewVerificationHandler(deps.LinksUC)
	api.Post("/invoice", append(read, h.InvoiceLink)...)
	api.Post("/qr", append(read, h.QRCode)...)
	api.Post("/verify", append(read, h.Verify)...)
	api.Post("/certificate", append(sign, h.CertificateLink)...)
	api.Post("/invoice-xml", append(sign, h.InvoiceXML)...)
	api.Post("/sheet", append(sign, h.Sheet)...)
}
