// Package verification: enlaces de verificación KSeF (código QR I de factura y
// código QR II de certificado). Construcción de la ruta, codificación URL-safe
// del hash y firma con la llave del certificado.

package verification

import (
	"encoding/base64"
	"fmt"

	"github.com/jhoicas/ksef-qr/internal/domain"
)

// EncodeURLSafe convierte un hash en Base64 estándar a Base64 URL-safe sin relleno
// ('+'→'-', '/'→'_', sin '=').
func EncodeURLSafe(standardBase64 string) (string, error) {
	raw, err := DecodeDigest(standardBase64)
	if err != nil {
		return "", err
	}
	return EncodeBytesURLSafe(raw), nil
}

// EncodeBytesURLSafe codifica bytes crudos en Base64 URL-safe sin relleno.
func EncodeBytesURLSafe(raw []byte) string {
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeDigest decodifica el hash en Base64 estándar a sus bytes crudos.
func DecodeDigest(standardBase64 string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(standardBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: hash Base64 mal formado: %v", domain.ErrEncoding, err)
	}
	return raw, nil
}

// DecodeURLSafe es la inversa de EncodeBytesURLSafe.
func DecodeURLSafe(token string) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: segmento Base64 URL-safe mal formado: %v", domain.ErrEncoding, err)
	}
	return raw, nil
}
