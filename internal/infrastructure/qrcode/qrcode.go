// Package qrcode genera los códigos QR (PNG) de los enlaces de verificación y
// les añade la etiqueta que exige KSeF bajo el código (número KSeF, OFFLINE o CERTYFIKAT).
package qrcode

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Etiquetas estándar bajo los códigos.
const (
	LabelOffline     = "OFFLINE"
	LabelCertificate = "CERTYFIKAT"
)

const (
	// DefaultPixelsPerModule tamaño de cada módulo si el llamador no indica otro.
	DefaultPixelsPerModule = 5
	// MaxPixelsPerModule limita el tamaño del lienzo (un QR versión 40 queda en ~7 000 px de lado).
	MaxPixelsPerModule = 40
	quietZoneModules   = 4
	labelPadding       = 6
)

// Generator genera PNG de códigos QR.
type Generator struct{}

// NewGenerator crea el generador.
func NewGenerator() *Generator { return &Generator{} }

// Generate codifica payload en un QR (corrección M) con zona de silencio de 4 módulos.
func (g *Generator) Generate(payload string, pixelsPerModule int) ([]byte, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, fmt.Errorf("qrcode: contenido vacío")
	}
	if pixelsPerModule <= 0 {
		pixelsPerModule = DefaultPixelsPerModule
	}
	if pixelsPerModule > MaxPixelsPerModule {
		return nil, fmt.Errorf("qrcode: tamaño de módulo %d excede el máximo %d", pixelsPerModule, MaxPixelsPerModule)
	}
	code, err := qr.Encode(payload, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("qrcode: codificar: %w", err)
	}
	modules := code.Bounds().Dx()
	scaled, err := barcode.Scale(code, modules*pixelsPerModule, modules*pixelsPerModule)
	if err != nil {
		return nil, fmt.Errorf("qrcode: escalar: %w", err)
	}

	border := quietZoneModules * pixelsPerModule
	side := modules*pixelsPerModule + 2*border
	canvas := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(canvas, scaled.Bounds().Add(image.Pt(border, border)), scaled, scaled.Bounds().Min, draw.Over)
	return encodePNG(canvas)
}

// AddLabel dibuja label centrado bajo la imagen PNG. Si el texto es más ancho, el lienzo se ensancha.
func (g *Generator) AddLabel(pngBytes []byte, label string) ([]byte, error) {
	src, err := png.Decode(bytes.NewReader(pngBytes))
	if err != nil {
		return nil, fmt.Errorf("qrcode: leer PNG: %w", err)
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return pngBytes, nil
	}

	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, label).Ceil()
	b := src.Bounds()
	width := max(b.Dx(), textWidth+2*labelPadding)
	lineHeight := face.Metrics().Height.Ceil()
	height := b.Dy() + lineHeight + 2*labelPadding

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(canvas, b.Sub(b.Min).Add(image.Pt((width-b.Dx())/2, 0)), src, b.Min, draw.Over)

	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot: fixed.P(
			(width-textWidth)/2,
			b.Dy()+labelPadding+face.Metrics().Ascent.Ceil(),
		),
	}
	d.DrawString(label)
	return encodePNG(canvas)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("qrcode: codificar PNG: %w", err)
	}
	return buf.Bytes(), nil
}
