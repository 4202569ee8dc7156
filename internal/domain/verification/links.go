package verification

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/ksef-qr/internal/domain"
	"github.com/jhoicas/ksef-qr/pkg/ksef"
)

// Segmentos literales de la ruta.
const (
	SegmentInvoice     = "invoice"
	SegmentCertificate = "certificate"
)

// IssueDateLayout formato dd-MM-yyyy de la fecha de emisión en el enlace de factura.
const IssueDateLayout = "02-01-2006"

// LinkBuilder construye los enlaces de verificación. Solo guarda la URL base,
// así que puede usarse desde varias goroutines sin coordinación.
type LinkBuilder struct {
	baseURL string
}

// NewLinkBuilder fija la URL base (esquema + host + prefijo, p. ej. https://ksef-test.mf.gov.pl/client-app).
func NewLinkBuilder(baseURL string) (*LinkBuilder, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("%w: URL base vacía", domain.ErrInvalidInput)
	}
	return &LinkBuilder{baseURL: base}, nil
}

// BaseURL devuelve la URL base sin '/' final.
func (b *LinkBuilder) BaseURL() string { return b.baseURL }

// BuildInvoiceVerificationURL arma el código QR I: {base}/invoice/{nip}/{dd-MM-yyyy}/{hash URL-safe}.
func (b *LinkBuilder) BuildInvoiceVerificationURL(taxID string, issueDate time.Time, invoiceDigestBase64 string) (string, error) {
	if err := requireSegments(param{"taxID", taxID}); err != nil {
		return "", err
	}
	if err := requireText(param{"invoiceDigestBase64", invoiceDigestBase64}); err != nil {
		return "", err
	}
	if issueDate.IsZero() {
		return "", fmt.Errorf("%w: issueDate es obligatoria", domain.ErrInvalidInput)
	}
	digest, err := EncodeURLSafe(invoiceDigestBase64)
	if err != nil {
		return "", err
	}
	return b.join(SegmentInvoice, taxID, issueDate.Format(IssueDateLayout), digest), nil
}

// BuildCertificateVerificationURL arma el código QR II:
// {base}/certificate/{tipo}/{valor}/{nip}/{serie}/{hash URL-safe}/{firma URL-safe}.
//
// La firma se calcula sobre los bytes crudos del hash con la llave resuelta por
// ResolveSigningKey. privateKeyPEM en blanco equivale a no recibir llave externa.
func (b *LinkBuilder) BuildCertificateVerificationURL(
	taxID string,
	contextType ksef.ContextIdentifierType,
	contextValue, certificateSerial, invoiceDigestBase64 string,
	cert tls.Certificate,
	privateKeyPEM string,
) (string, error) {
	if err := requireSegments(
		param{"taxID", taxID},
		param{"contextValue", contextValue},
		param{"certificateSerial", certificateSerial},
	); err != nil {
		return "", err
	}
	if err := requireText(param{"invoiceDigestBase64", invoiceDigestBase64}); err != nil {
		return "", err
	}
	if !contextType.Valid() {
		return "", fmt.Errorf("%w: tipo de identificador de contexto %s", domain.ErrInvalidInput, contextType)
	}
	leaf, err := Leaf(cert)
	if err != nil {
		return "", err
	}

	digest, err := DecodeDigest(invoiceDigestBase64)
	if err != nil {
		return "", err
	}
	key, err := ResolveSigningKey(leaf, cert.PrivateKey, privateKeyPEM)
	if err != nil {
		return "", err
	}
	sig, err := key.Sign(digest)
	if err != nil {
		return "", err
	}

	return b.join(
		SegmentCertificate,
		contextType.String(),
		contextValue,
		taxID,
		certificateSerial,
		EncodeBytesURLSafe(digest),
		EncodeBytesURLSafe(sig),
	), nil
}

// Leaf devuelve el certificado X.509 del manejador (Leaf o el primer DER de la cadena).
func Leaf(cert tls.Certificate) (*x509.Certificate, error) {
	if cert.Leaf != nil {
		return cert.Leaf, nil
	}
	if len(cert.Certificate) == 0 {
		return nil, fmt.Errorf("%w: certificado requerido", domain.ErrInvalidInput)
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("%w: certificado X.509: %v", domain.ErrEncoding, err)
	}
	return leaf, nil
}

func (b *LinkBuilder) join(segments ...string) string {
	return b.baseURL + "/" + strings.Join(segments, "/")
}

type param struct {
	name, value string
}

func requireText(params ...param) error {
	for _, p := range params {
		if strings.TrimSpace(p.value) == "" {
			return fmt.Errorf("%w: %s es obligatorio", domain.ErrInvalidInput, p.name)
		}
	}
	return nil
}

// requireSegments: además de no estar vacíos, los identificadores no pueden partir la ruta.
func requireSegments(params ...param) error {
	if err := requireText(params...); err != nil {
		return err
	}
	for _, p := range params {
		if strings.Contains(p.value, "/") {
			return fmt.Errorf("%w: %s no puede contener '/'", domain.ErrInvalidInput, p.name)
		}
	}
	return nil
}

var _ ksef.LinkBuilder = (*LinkBuilder)(nil)
