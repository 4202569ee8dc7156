// Package invoicexml lee la factura estructurada FA(2)/FA(3) de KSeF: datos de
// cabecera para el código QR I y el hash SHA-256 del archivo.
package invoicexml

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Rutas de los campos usados en el enlace (independientes del prefijo de namespace).
const (
	pathSellerNIP     = "//Podmiot1/DaneIdentyfikacyjne/NIP"
	pathIssueDate     = "//Fa/P_1"
	pathInvoiceNumber = "//Fa/P_2"
	pathSellerName    = "//Podmiot1/DaneIdentyfikacyjne/Nazwa"

	issueDateLayout = "2006-01-02"
)

// InvoiceHeader datos de la factura necesarios para el enlace de verificación.
type InvoiceHeader struct {
	SellerNIP     string
	SellerName    string
	InvoiceNumber string
	IssueDate     time.Time
}

// Reader implementa la lectura de facturas XML.
type Reader struct{}

// NewReader crea el lector.
func NewReader() *Reader { return &Reader{} }

// ReadHeader extrae NIP del vendedor, número y fecha de emisión.
func (r *Reader) ReadHeader(xmlBytes []byte) (*InvoiceHeader, error) {
	if len(xmlBytes) == 0 {
		return nil, fmt.Errorf("invoicexml: XML vacío")
	}
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, fmt.Errorf("invoicexml: parsear XML: %w", err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("invoicexml: documento sin raíz")
	}

	nip := text(doc, pathSellerNIP)
	if nip == "" {
		return nil, fmt.Errorf("invoicexml: falta Podmiot1/DaneIdentyfikacyjne/NIP")
	}
	rawDate := text(doc, pathIssueDate)
	if rawDate == "" {
		return nil, fmt.Errorf("invoicexml: falta Fa/P_1 (fecha de emisión)")
	}
	date, err := time.Parse(issueDateLayout, rawDate)
	if err != nil {
		return nil, fmt.Errorf("invoicexml: Fa/P_1 %q no es yyyy-MM-dd: %w", rawDate, err)
	}
	return &InvoiceHeader{
		SellerNIP:     nip,
		SellerName:    text(doc, pathSellerName),
		InvoiceNumber: text(doc, pathInvoiceNumber),
		IssueDate:     date,
	}, nil
}

// Digest hash SHA-256 del archivo tal cual, en Base64 estándar (el hash que registra KSeF).
func (r *Reader) Digest(xmlBytes []byte) string {
	h := sha256.Sum256(xmlBytes)
	return base64.StdEncoding.EncodeToString(h[:])
}

// CanonicalDigest hash SHA-256 de la forma C14N del documento, en Base64 estándar.
func (r *Reader) CanonicalDigest(xmlBytes []byte) (string, error) {
	canonical, err := canonicalizeXML(xmlBytes)
	if err != nil {
		return "", fmt.Errorf("invoicexml: canonicalizar: %w", err)
	}
	return r.Digest(canonical), nil
}

func canonicalizeXML(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	dec.CharsetReader = charsetReader
	return c14n.Canonicalize(dec)
}

func text(doc *etree.Document, path string) string {
	el := doc.FindElement(path)
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Text())
}

// charsetReader decodifica las codificaciones heredadas que aún aparecen en facturas polacas.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "", "utf-8", "utf8":
		return input, nil
	case "iso-8859-2", "iso8859-2", "latin2":
		return transform.NewReader(input, charmap.ISO8859_2.NewDecoder()), nil
	case "windows-1250", "cp1250":
		return transform.NewReader(input, charmap.Windows1250.NewDecoder()), nil
	case "iso-8859-1", "iso8859-1":
		return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
	}
	return nil, fmt.Errorf("invoicexml: codificación %q no soportada", charset)
}
