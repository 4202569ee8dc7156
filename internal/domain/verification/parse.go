package verification

import (
	"crypto/x509"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/ksef-qr/internal/domain"
	"github.com/jhoicas/ksef-qr/pkg/ksef"
)

// InvoiceLink segmentos de un código QR I.
type InvoiceLink struct {
	TaxID     string
	IssueDate time.Time
	Digest    []byte
}

// CertificateLink segmentos de un código QR II.
type CertificateLink struct {
	ContextType       ksef.ContextIdentifierType
	ContextValue      string
	TaxID             string
	CertificateSerial string
	Digest            []byte
	Signature         []byte
}

// ParseInvoiceLink separa un enlace de factura construido con esta URL base.
func (b *LinkBuilder) ParseInvoiceLink(link string) (*InvoiceLink, error) {
	parts, err := b.segments(link, SegmentInvoice, 4)
	if err != nil {
		return nil, err
	}
	date, err := time.Parse(IssueDateLayout, parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: fecha %q no es dd-MM-yyyy", domain.ErrInvalidInput, parts[2])
	}
	digest, err := DecodeURLSafe(parts[3])
	if err != nil {
		return nil, err
	}
	return &InvoiceLink{TaxID: parts[1], IssueDate: date, Digest: digest}, nil
}

// ParseCertificateLink separa un enlace de certificado construido con esta URL base.
func (b *LinkBuilder) ParseCertificateLink(link string) (*CertificateLink, error) {
	parts, err := b.segments(link, SegmentCertificate, 7)
	if err != nil {
		return nil, err
	}
	ctxType, err := ksef.ParseContextIdentifierType(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	digest, err := DecodeURLSafe(parts[5])
	if err != nil {
		return nil, err
	}
	sig, err := DecodeURLSafe(parts[6])
	if err != nil {
		return nil, err
	}
	return &CertificateLink{
		ContextType:       ctxType,
		ContextValue:      parts[2],
		TaxID:             parts[3],
		CertificateSerial: parts[4],
		Digest:            digest,
		Signature:         sig,
	}, nil
}

// VerifyCertificateLink comprueba la firma del enlace con la llave pública del certificado.
func VerifyCertificateLink(link *CertificateLink, cert *x509.Certificate) error {
	if link == nil || cert == nil {
		return fmt.Errorf("%w: enlace y certificado son obligatorios", domain.ErrInvalidInput)
	}
	return VerifySignature(cert.PublicKey, link.Digest, link.Signature)
}

func (b *LinkBuilder) segments(link, kind string, n int) ([]string, error) {
	prefix := b.baseURL + "/"
	if !strings.HasPrefix(link, prefix) {
		return nil, fmt.Errorf("%w: el enlace no empieza por %s", domain.ErrInvalidInput, prefix)
	}
	parts := strings.Split(strings.TrimPrefix(link, prefix), "/")
	if len(parts) != n || parts[0] != kind {
		return nil, fmt.Errorf("%w: se esperaba un enlace %s de %d segmentos", domain.ErrInvalidInput, kind, n)
	}
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: segmento vacío en el enlace", domain.ErrInvalidInput)
		}
	}
	return parts, nil
}
