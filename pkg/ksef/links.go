package ksef

import (
	"crypto/tls"
	"time"
)

// LinkBuilder construye los enlaces de verificación (código QR I y II) de KSeF.
type LinkBuilder interface {
	// BuildInvoiceVerificationURL arma {base}/invoice/{nip}/{dd-MM-yyyy}/{hash}.
	BuildInvoiceVerificationURL(taxID string, issueDate time.Time, invoiceDigestBase64 string) (string, error)
	// BuildCertificateVerificationURL arma el enlace firmado con la llave del certificado.
	// privateKeyPEM vacío significa "usar la llave embebida en cert".
	BuildCertificateVerificationURL(
		taxID string,
		contextType ContextIdentifierType,
		contextValue, certificateSerial, invoiceDigestBase64 string,
		cert tls.Certificate,
		privateKeyPEM string,
	) (string, error)
}
