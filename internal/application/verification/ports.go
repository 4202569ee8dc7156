package verification

import (
	"context"
	"time"
)

// QRGenerator dibuja un enlace como código QR en PNG.
type QRGenerator interface {
	Generate(payload string, pixelsPerModule int) ([]byte, error)
	AddLabel(pngBytes []byte, label string) ([]byte, error)
}

// SheetGenerator genera la hoja de verificación (PDF) con los códigos de la factura.
type SheetGenerator interface {
	GenerateSheet(ctx context.Context, sheet Sheet) ([]byte, error)
}

// Sheet datos que imprime la hoja de verificación.
type Sheet struct {
	InvoiceNumber   string
	SellerNIP       string
	IssueDate       time.Time
	InvoiceLink     string
	InvoiceLabel    string // número KSeF u OFFLINE
	CertificateLink string // vacío = solo KOD I
}
