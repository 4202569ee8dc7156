package dto

// InvoiceLinkRequest body para POST /api/verification/invoice.
// InvoiceHash: SHA-256 del XML de la factura en Base64 estándar.
type InvoiceLinkRequest struct {
	TaxID       string `json:"tax_id"`
	IssueDate   string `json:"issue_date"` // yyyy-MM-dd
	InvoiceHash string `json:"invoice_hash"`
}

// CertificateLinkRequest body para POST /api/verification/certificate.
// Sin certificate_pem se usa el certificado configurado en el servidor.
type CertificateLinkRequest struct {
	TaxID             string `json:"tax_id"`
	ContextType       string `json:"context_type"` // Nip | InternalId | NipVatUe | PeppolId
	ContextValue      string `json:"context_value"`
	CertificateSerial string `json:"certificate_serial,omitempty"`
	InvoiceHash       string `json:"invoice_hash"`
	CertificatePEM    string `json:"certificate_pem,omitempty"`
	PrivateKeyPEM     string `json:"private_key_pem,omitempty"`
}

// InvoiceXMLRequest body para POST /api/verification/invoice-xml y /sheet.
type InvoiceXMLRequest struct {
	InvoiceXML string `json:"invoice_xml"`
	KSeFNumber string `json:"ksef_number,omitempty"` // vacío = factura offline
	Canonical  bool   `json:"canonical,omitempty"`   // hash sobre la forma C14N
}

// QRRequest body para POST /api/verification/qr.
type QRRequest struct {
	URL             string `json:"url"`
	Label           string `json:"label,omitempty"`
	PixelsPerModule int    `json:"pixels_per_module,omitempty"`
}

// VerifyRequest body para POST /api/verification/verify.
type VerifyRequest struct {
	URL            string `json:"url"`
	CertificatePEM string `json:"certificate_pem,omitempty"`
}

// LinkResponse enlace generado.
type LinkResponse struct {
	URL string `json:"url"`
}

// InvoiceLinksResponse enlaces KOD I / KOD II de una factura XML.
type InvoiceLinksResponse struct {
	SellerNIP      string `json:"seller_nip"`
	SellerName     string `json:"seller_name,omitempty"`
	InvoiceNumber  string `json:"invoice_number,omitempty"`
	IssueDate      string `json:"issue_date"`
	InvoiceHash    string `json:"invoice_hash"`
	InvoiceURL     string `json:"invoice_url"`
	InvoiceLabel   string `json:"invoice_label"`
	CertificateURL string `json:"certificate_url,omitempty"`
}

// VerifyResponse resultado de analizar un enlace de verificación.
type VerifyResponse struct {
	Kind              string `json:"kind"` // invoice | certificate
	TaxID             string `json:"tax_id"`
	IssueDate         string `json:"issue_date,omitempty"`
	InvoiceHash       string `json:"invoice_hash"`
	ContextType       string `json:"context_type,omitempty"`
	ContextValue      string `json:"context_value,omitempty"`
	CertificateSerial string `json:"certificate_serial,omitempty"`
	SignatureChecked  bool   `json:"signature_checked"`
	Valid             bool   `json:"valid"`
}
