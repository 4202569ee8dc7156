// Package pdf genera la hoja de verificación de una factura KSeF: los códigos
// QR I (factura) y, si existe, QR II (certificado) con su enlace y etiqueta.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: N° Factura + NIP vendedor  │  Fecha de emisión      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  KOD I:  QR  │  Enlace de verificación de la factura        │
//	│              │  Etiqueta (número KSeF u OFFLINE)             │
//	│  ─────────────────────────────────────────────────────────  │
//	│  KOD II: QR  │  Enlace de verificación del certificado      │
//	│              │  CERTYFIKAT                                   │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	appverification "github.com/jhoicas/ksef-qr/internal/application/verification"
	"github.com/jhoicas/ksef-qr/internal/infrastructure/qrcode"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 200, Green: 16, Blue: 46}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoSheetGenerator implementa verification.SheetGenerator usando Maroto v2.
type MarotoSheetGenerator struct{}

// NewMarotoSheetGenerator construye el generador.
func NewMarotoSheetGenerator() *MarotoSheetGenerator { return &MarotoSheetGenerator{} }

// GenerateSheet genera el PDF y devuelve sus bytes.
func (g *MarotoSheetGenerator) GenerateSheet(_ context.Context, sheet appverification.Sheet) ([]byte, error) {
	if sheet.InvoiceLink == "" {
		return nil, fmt.Errorf("pdf: el enlace de la factura es obligatorio")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Weryfikacja faktury KSeF", true).
		WithAuthor(sheet.SellerNIP, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(sheet))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	label := sheet.InvoiceLabel
	if label == "" {
		label = qrcode.LabelOffline
	}
	m.AddRows(codeRows("KOD I · Weryfikacja faktury", sheet.InvoiceLink, label)...)

	if sheet.CertificateLink != "" {
		m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
		m.AddRows(codeRows("KOD II · Weryfikacja wystawcy", sheet.CertificateLink, qrcode.LabelCertificate)...)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: número de factura + NIP (izq) y fecha (der).
func headerRow(sheet appverification.Sheet) core.Row {
	fecha := ""
	if !sheet.IssueDate.IsZero() {
		fecha = sheet.IssueDate.Format("02-01-2006")
	}
	return row.New(16).Add(
		col.New(7).Add(
			text.New(nonEmpty(sheet.InvoiceNumber, "Faktura"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("NIP: "+sheet.SellerNIP, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("Data wystawienia: "+fecha, props.Text{
				Size: 9, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

// codeRows: título, QR con el enlace a la derecha y etiqueta bajo el código.
func codeRows(title, link, label string) []core.Row {
	rows := []core.Row{
		row.New(8).Add(col.New(12).Add(
			text.New(title, props.Text{
				Style: fontstyle.Bold, Size: 9, Color: colorPrimary, Top: 2,
			}),
		)),
		row.New(50).Add(
			col.New(4).Add(code.NewQr(link, props.Rect{
				Percent: 95,
				Center:  true,
			})),
			col.New(8).Add(
				text.New("Zeskanuj kod QR lub otwórz odnośnik:", props.Text{
					Size: 8, Top: 4, Left: 3, Color: colorGray,
				}),
			),
		),
		row.New(6).Add(col.New(4).Add(
			text.New(label, props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Center}),
		)),
	}
	for _, chunk := range splitEvery(link, 90) {
		rows = append(rows, row.New(4).Add(col.New(12).Add(
			text.New(chunk, props.Text{Size: 6.5, Color: colorGray, Top: 0.5, Left: 2}),
		)))
	}
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// splitEvery divide s en trozos de max n caracteres.
func splitEvery(s string, n int) []string {
	var parts []string
	for len(s) > n {
		parts = append(parts, s[:n])
		s = s[n:]
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}

var _ appverification.SheetGenerator = (*MarotoSheetGenerator)(nil)
