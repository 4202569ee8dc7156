package http

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ksef-qr/internal/application/dto"
	appverification "github.com/jhoicas/ksef-qr/internal/application/verification"
	"github.com/jhoicas/ksef-qr/internal/domain"
	"github.com/jhoicas/ksef-qr/pkg/ksef"
)

// VerificationHandler maneja las peticiones HTTP de enlaces de verificación KSeF.
type VerificationHandler struct {
	uc *appverification.LinksUseCase
}

// NewVerificationHandler construye el handler.
func NewVerificationHandler(uc *appverification.LinksUseCase) *VerificationHandler {
	return &VerificationHandler{uc: uc}
}

// InvoiceLink genera el enlace KOD I.
// POST /api/verification/invoice
func (h *VerificationHandler) InvoiceLink(c *fiber.Ctx) error {
	var in dto.InvoiceLinkRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	issueDate, err := time.Parse("2006-01-02", strings.TrimSpace(in.IssueDate))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "issue_date debe ser yyyy-MM-dd"})
	}
	link, err := h.uc.InvoiceLink(c.Context(), appverification.NewInvoiceLinkRequest(in.TaxID, issueDate, in.InvoiceHash))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.LinkResponse{URL: link})
}

// CertificateLink genera el enlace firmado KOD II.
// POST /api/verification/certificate
func (h *VerificationHandler) CertificateLink(c *fiber.Ctx) error {
	var in dto.CertificateLinkRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	ctxType, err := ksef.ParseContextIdentifierType(in.ContextType)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	req := appverification.NewCertificateLinkRequest(in.TaxID, ctxType, in.ContextValue, in.CertificateSerial, in.InvoiceHash).
		WithCertificatePEM(in.CertificatePEM, in.PrivateKeyPEM)
	link, err := h.uc.CertificateLink(c.Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.LinkResponse{URL: link})
}

// InvoiceXML genera KOD I (y KOD II si hay certificado configurado) a partir del XML.
// POST /api/verification/invoice-xml
func (h *VerificationHandler) InvoiceXML(c *fiber.Ctx) error {
	in, err := readInvoiceXML(c)
	if err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.LinksForInvoiceXML(c.Context(), []byte(in.InvoiceXML), in.KSeFNumber, in.Canonical)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// QRCode devuelve el enlace como imagen PNG.
// POST /api/verification/qr
func (h *VerificationHandler) QRCode(c *fiber.Ctx) error {
	var in dto.QRRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	png, err := h.uc.QRCode(c.Context(), in.URL, in.Label, in.PixelsPerModule)
	if err != nil {
		return writeError(c, err)
	}
	c.Type("png")
	return c.Send(png)
}

// Sheet devuelve la hoja de verificación en PDF.
// POST /api/verification/sheet
func (h *VerificationHandler) Sheet(c *fiber.Ctx) error {
	in, err := readInvoiceXML(c)
	if err != nil {
		return invalidBody(c)
	}
	pdf, filename, err := h.uc.VerificationSheet(c.Context(), []byte(in.InvoiceXML), in.KSeFNumber, in.Canonical)
	if err != nil {
		return writeError(c, err)
	}
	c.Type("pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(pdf)
}

// Verify analiza un enlace y, si es de certificado, comprueba su firma.
// POST /api/verification/verify
func (h *VerificationHandler) Verify(c *fiber.Ctx) error {
	var in dto.VerifyRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Verify(c.Context(), in.URL, in.CertificatePEM)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// readInvoiceXML acepta JSON (dto.InvoiceXMLRequest) o el XML crudo con
// ?ksef_number=...&canonical=true en la query.
func readInvoiceXML(c *fiber.Ctx) (dto.InvoiceXMLRequest, error) {
	if c.Is("xml") {
		return dto.InvoiceXMLRequest{
			InvoiceXML: string(c.Body()),
			KSeFNumber: c.Query("ksef_number"),
			Canonical:  c.QueryBool("canonical"),
		}, nil
	}
	var in dto.InvoiceXMLRequest
	err := c.BodyParser(&in)
	return in, err
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

// writeError traduce los errores de dominio a HTTP.
func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrSigningUnavailable):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "SIGNING_UNAVAILABLE", Message: err.Error()})
	case errors.Is(err, domain.ErrSignatureInvalid):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "SIGNATURE_INVALID", Message: err.Error()})
	case errors.Is(err, domain.ErrEncoding):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "ENCODING", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
