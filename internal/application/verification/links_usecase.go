// Package verification orquesta la generación de los códigos de verificación
// KSeF: enlaces KOD I / KOD II, su imagen QR y la hoja PDF para imprimir.
package verification

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/ksef-qr/internal/application/dto"
	"github.com/jhoicas/ksef-qr/internal/domain"
	domverification "github.com/jhoicas/ksef-qr/internal/domain/verification"
	"github.com/jhoicas/ksef-qr/internal/infrastructure/certs"
	"github.com/jhoicas/ksef-qr/internal/infrastructure/invoicexml"
	"github.com/jhoicas/ksef-qr/internal/infrastructure/qrcode"
	"github.com/jhoicas/ksef-qr/pkg/ksef"
	"github.com/jhoicas/ksef-qr/pkg/logger"
)

// Config parámetros del caso de uso.
type Config struct {
	BaseURL   string // {entorno}/client-app
	StrictNIP bool   // exigir dígito de control del NIP
	// Certificate certificado KSeF del emisor para el KOD II; nil = solo KOD I.
	Certificate *tls.Certificate
	// PrivateKeyPEM llave entregada aparte del certificado (opcional).
	PrivateKeyPEM string
}

// LinksUseCase genera y verifica enlaces de verificación.
type LinksUseCase struct {
	cfg     Config
	builder *domverification.LinkBuilder
	reader  *invoicexml.Reader
	qr      QRGenerator
	sheets  SheetGenerator
	log     *logger.Logger
}

// NewLinksUseCase construye el caso de uso. log nil = sin logs.
func NewLinksUseCase(
	cfg Config,
	reader *invoicexml.Reader,
	qr QRGenerator,
	sheets SheetGenerator,
	log *logger.Logger,
) (*LinksUseCase, error) {
	builder, err := domverification.NewLinkBuilder(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("verificación: url base: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &LinksUseCase{
		cfg:     cfg,
		builder: builder,
		reader:  reader,
		qr:      qr,
		sheets:  sheets,
		log:     log,
	}, nil
}

// BaseURL URL base con la que se construyen los enlaces.
func (uc *LinksUseCase) BaseURL() string { return uc.builder.BaseURL() }

// HasCertificate indica si hay certificado configurado para el KOD II.
func (uc *LinksUseCase) HasCertificate() bool { return uc.cfg.Certificate != nil }

// ── Peticiones ────────────────────────────────────────────────────────────────

// InvoiceLinkRequest datos del KOD I.
type InvoiceLinkRequest struct {
	TaxID        string
	IssueDate    time.Time
	DigestBase64 string
}

// NewInvoiceLinkRequest construye la petición con todos sus campos obligatorios.
func NewInvoiceLinkRequest(taxID string, issueDate time.Time, digestBase64 string) InvoiceLinkRequest {
	return InvoiceLinkRequest{TaxID: taxID, IssueDate: issueDate, DigestBase64: digestBase64}
}

// CertificateLinkRequest datos del KOD II.
type CertificateLinkRequest struct {
	TaxID             string
	ContextType       ksef.ContextIdentifierType
	ContextValue      string
	CertificateSerial string // vacío = número de serie del certificado usado
	DigestBase64      string
	CertificatePEM    string // vacío = certificado configurado
	PrivateKeyPEM     string // vacío = llave del certificado o la configurada
}

// NewCertificateLinkRequest construye la petición con todos sus campos obligatorios.
func NewCertificateLinkRequest(
	taxID string,
	contextType ksef.ContextIdentifierType,
	contextValue, certificateSerial, digestBase64 string,
) CertificateLinkRequest {
	return CertificateLinkRequest{
		TaxID:             taxID,
		ContextType:       contextType,
		ContextValue:      contextValue,
		CertificateSerial: certificateSerial,
		DigestBase64:      digestBase64,
	}
}

// WithCertificatePEM usa un certificado (y llave opcional) distinto al configurado.
func (r CertificateLinkRequest) WithCertificatePEM(certificatePEM, privateKeyPEM string) CertificateLinkRequest {
	r.CertificatePEM = certificatePEM
	r.PrivateKeyPEM = privateKeyPEM
	return r
}

// ── Enlaces ───────────────────────────────────────────────────────────────────

// InvoiceLink genera el enlace del KOD I.
func (uc *LinksUseCase) InvoiceLink(_ context.Context, req InvoiceLinkRequest) (string, error) {
	if err := uc.checkNIP(req.TaxID); err != nil {
		return "", err
	}
	link, err := uc.builder.BuildInvoiceVerificationURL(req.TaxID, req.IssueDate, req.DigestBase64)
	if err != nil {
		uc.log.Warn().Err(err).Str("tax_id", req.TaxID).Msg("enlace de factura rechazado")
		return "", err
	}
	uc.log.Debug().Str("tax_id", req.TaxID).Str("kind", domverification.SegmentInvoice).Msg("enlace generado")
	return link, nil
}

// CertificateLink genera el enlace firmado del KOD II.
//
// Retorna:
//   - domain.ErrInvalidInput       si faltan datos o no hay certificado.
//   - domain.ErrEncoding           si el hash, el certificado o la llave no se pueden decodificar.
//   - domain.ErrSigningUnavailable si no hay llave privada utilizable.
func (uc *LinksUseCase) CertificateLink(_ context.Context, req CertificateLinkRequest) (string, error) {
	if err := uc.checkNIP(req.TaxID); err != nil {
		return "", err
	}
	cert, keyPEM, err := uc.signingCertificate(req.CertificatePEM, req.PrivateKeyPEM)
	if err != nil {
		return "", err
	}
	serial := strings.TrimSpace(req.CertificateSerial)
	if serial == "" && cert.Leaf != nil {
		serial = certs.SerialNumber(cert.Leaf)
	}

	link, err := uc.builder.BuildCertificateVerificationURL(
		req.TaxID, req.ContextType, req.ContextValue, serial, req.DigestBase64, cert, keyPEM,
	)
	if err != nil {
		uc.log.Warn().Err(err).
			Str("tax_id", req.TaxID).
			Str("context_type", req.ContextType.String()).
			Msg("enlace de certificado rechazado")
		return "", err
	}
	uc.log.Info().
		Str("tax_id", req.TaxID).
		Str("context_type", req.ContextType.String()).
		Str("certificate_serial", serial).
		Msg("enlace de certificado firmado")
	return link, nil
}

// LinksForInvoiceXML lee la factura y genera su KOD I y, si hay certificado configurado, el KOD II
// (contexto Nip del vendedor). ksefNumber vacío marca la factura como offline.
func (uc *LinksUseCase) LinksForInvoiceXML(
	ctx context.Context,
	xmlBytes []byte,
	ksefNumber string,
	canonical bool,
) (*dto.InvoiceLinksResponse, error) {
	out, _, err := uc.invoiceLinks(ctx, xmlBytes, ksefNumber, canonical)
	return out, err
}

func (uc *LinksUseCase) invoiceLinks(
	ctx context.Context,
	xmlBytes []byte,
	ksefNumber string,
	canonical bool,
) (*dto.InvoiceLinksResponse, *invoicexml.InvoiceHeader, error) {
	header, err := uc.reader.ReadHeader(xmlBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	digest := uc.reader.Digest(xmlBytes)
	if canonical {
		if digest, err = uc.reader.CanonicalDigest(xmlBytes); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", domain.ErrEncoding, err)
		}
	}

	invoiceURL, err := uc.InvoiceLink(ctx, NewInvoiceLinkRequest(header.SellerNIP, header.IssueDate, digest))
	if err != nil {
		return nil, nil, err
	}
	out := &dto.InvoiceLinksResponse{
		SellerNIP:     header.SellerNIP,
		SellerName:    header.SellerName,
		InvoiceNumber: header.InvoiceNumber,
		IssueDate:     header.IssueDate.Format("2006-01-02"),
		InvoiceHash:   digest,
		InvoiceURL:    invoiceURL,
		InvoiceLabel:  invoiceLabel(ksefNumber),
	}

	// Las facturas offline necesitan el KOD II; con número KSeF es opcional.
	if uc.cfg.Certificate != nil {
		req := NewCertificateLinkRequest(header.SellerNIP, ksef.ContextNip, header.SellerNIP, "", digest)
		if out.CertificateURL, err = uc.CertificateLink(ctx, req); err != nil {
			return nil, nil, err
		}
	}
	return out, header, nil
}

// ── Representaciones ──────────────────────────────────────────────────────────

// QRCode dibuja el enlace como PNG; label vacío = sin etiqueta.
// pixelsPerModule 0 usa el tamaño por defecto; el máximo es qrcode.MaxPixelsPerModule.
func (uc *LinksUseCase) QRCode(_ context.Context, link, label string, pixelsPerModule int) ([]byte, error) {
	if strings.TrimSpace(link) == "" {
		return nil, fmt.Errorf("%w: el enlace es obligatorio", domain.ErrInvalidInput)
	}
	if pixelsPerModule < 0 || pixelsPerModule > qrcode.MaxPixelsPerModule {
		return nil, fmt.Errorf("%w: pixels_per_module debe estar entre 0 y %d", domain.ErrInvalidInput, qrcode.MaxPixelsPerModule)
	}
	png, err := uc.qr.Generate(link, pixelsPerModule)
	if err != nil {
		return nil, fmt.Errorf("verificación: generar QR: %w", err)
	}
	if label == "" {
		return png, nil
	}
	if png, err = uc.qr.AddLabel(png, label); err != nil {
		return nil, fmt.Errorf("verificación: etiqueta QR: %w", err)
	}
	return png, nil
}

// VerificationSheet genera la hoja PDF de la factura y su nombre de archivo.
func (uc *LinksUseCase) VerificationSheet(
	ctx context.Context,
	xmlBytes []byte,
	ksefNumber string,
	canonical bool,
) (pdfBytes []byte, filename string, err error) {
	links, header, err := uc.invoiceLinks(ctx, xmlBytes, ksefNumber, canonical)
	if err != nil {
		return nil, "", err
	}
	pdfBytes, err = uc.sheets.GenerateSheet(ctx, Sheet{
		InvoiceNumber:   links.InvoiceNumber,
		SellerNIP:       links.SellerNIP,
		IssueDate:       header.IssueDate,
		InvoiceLink:     links.InvoiceURL,
		InvoiceLabel:    links.InvoiceLabel,
		CertificateLink: links.CertificateURL,
	})
	if err != nil {
		return nil, "", fmt.Errorf("verificación: hoja PDF: %w", err)
	}
	uc.log.Info().Str("tax_id", links.SellerNIP).Str("invoice_number", links.InvoiceNumber).Msg("hoja de verificación generada")
	return pdfBytes, sheetFilename(links), nil
}

// ── Verificación ──────────────────────────────────────────────────────────────

// Verify analiza un enlace. En los enlaces de certificado comprueba la firma con
// certificatePEM o, si va vacío, con el certificado configurado.
func (uc *LinksUseCase) Verify(_ context.Context, link, certificatePEM string) (*dto.VerifyResponse, error) {
	link = strings.TrimSpace(link)
	base := uc.builder.BaseURL() + "/"
	switch {
	case strings.HasPrefix(link, base+domverification.SegmentInvoice+"/"):
		parsed, err := uc.builder.ParseInvoiceLink(link)
		if err != nil {
			return nil, err
		}
		return &dto.VerifyResponse{
			Kind:        domverification.SegmentInvoice,
			TaxID:       parsed.TaxID,
			IssueDate:   parsed.IssueDate.Format("2006-01-02"),
			InvoiceHash: base64.StdEncoding.EncodeToString(parsed.Digest),
			Valid:       true,
		}, nil

	case strings.HasPrefix(link, base+domverification.SegmentCertificate+"/"):
		parsed, err := uc.builder.ParseCertificateLink(link)
		if err != nil {
			return nil, err
		}
		out := &dto.VerifyResponse{
			Kind:              domverification.SegmentCertificate,
			TaxID:             parsed.TaxID,
			InvoiceHash:       base64.StdEncoding.EncodeToString(parsed.Digest),
			ContextType:       parsed.ContextType.String(),
			ContextValue:      parsed.ContextValue,
			CertificateSerial: parsed.CertificateSerial,
		}
		leaf, err := uc.verificationCertificate(certificatePEM)
		if err != nil {
			return nil, err
		}
		if leaf == nil {
			// Sin certificado solo se puede validar la estructura.
			out.Valid = true
			return out, nil
		}
		if err := domverification.VerifyCertificateLink(parsed, leaf); err != nil {
			uc.log.Warn().Str("certificate_serial", parsed.CertificateSerial).Msg("firma de enlace inválida")
			return nil, err
		}
		out.SignatureChecked = true
		out.Valid = true
		return out, nil
	}
	return nil, fmt.Errorf("%w: el enlace no pertenece a %s", domain.ErrInvalidInput, uc.builder.BaseURL())
}

// ── helpers ───────────────────────────────────────────────────────────────────

func (uc *LinksUseCase) checkNIP(taxID string) error {
	if !uc.cfg.StrictNIP {
		return nil
	}
	if err := ksef.ValidateNIP(taxID); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// signingCertificate elige el certificado de la petición o el configurado.
func (uc *LinksUseCase) signingCertificate(certificatePEM, privateKeyPEM string) (tls.Certificate, string, error) {
	if strings.TrimSpace(certificatePEM) != "" {
		cert, err := certs.ParsePEM([]byte(certificatePEM), nil)
		if err != nil {
			return tls.Certificate{}, "", fmt.Errorf("%w: %v", domain.ErrEncoding, err)
		}
		return cert, privateKeyPEM, nil
	}
	if uc.cfg.Certificate == nil {
		return tls.Certificate{}, "", fmt.Errorf("%w: no hay certificado configurado ni certificate_pem", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(privateKeyPEM) == "" {
		privateKeyPEM = uc.cfg.PrivateKeyPEM
	}
	return *uc.cfg.Certificate, privateKeyPEM, nil
}

func (uc *LinksUseCase) verificationCertificate(certificatePEM string) (*x509.Certificate, error) {
	if strings.TrimSpace(certificatePEM) != "" {
		cert, err := certs.ParsePEM([]byte(certificatePEM), nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrEncoding, err)
		}
		return cert.Leaf, nil
	}
	if uc.cfg.Certificate == nil {
		return nil, nil
	}
	return domverification.Leaf(*uc.cfg.Certificate)
}

func invoiceLabel(ksefNumber string) string {
	if n := strings.TrimSpace(ksefNumber); n != "" {
		return n
	}
	return qrcode.LabelOffline
}

func sheetFilename(links *dto.InvoiceLinksResponse) string {
	name := links.InvoiceNumber
	if name == "" {
		name = links.SellerNIP + "_" + links.IssueDate
	}
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ' ', ':':
			return '_'
		}
		return r
	}, name)
	return fmt.Sprintf("weryfikacja_%s.pdf", name)
}
