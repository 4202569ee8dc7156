// Carga de manejadores de certificado desde .p12 (PKCS#12) o PEM.
// Un manejador sin llave privada (solo certificado) es válido: la llave puede llegar aparte.

package certs

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/pkcs12"

	"github.com/jhoicas/ksef-qr/internal/domain/verification"
)

// Load elige el cargador por extensión: .p12/.pfx con password, cualquier otro como PEM.
func Load(certPath, keyPath, password string) (tls.Certificate, error) {
	if certPath == "" {
		return tls.Certificate{}, fmt.Errorf("certs: ruta de certificado vacía")
	}
	lower := strings.ToLower(certPath)
	if strings.HasSuffix(lower, ".p12") || strings.HasSuffix(lower, ".pfx") {
		return LoadFromP12(certPath, password)
	}
	return LoadFromPEM(certPath, keyPath)
}

// LoadFromP12 carga certificado y llave privada desde un archivo .p12/.pfx.
// El password puede ser vacío si el archivo no está protegido.
func LoadFromP12(path, password string) (tls.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("certs: leer p12: %w", err)
	}
	return ParseP12(data, password)
}

// ParseP12 decodifica un PKCS#12 en memoria. pkcs12.Decode devuelve solo el certificado hoja.
func ParseP12(data []byte, password string) (tls.Certificate, error) {
	priv, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("certs: decodificar p12: %w", err)
	}
	return tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  priv,
		Leaf:        cert,
	}, nil
}

// LoadFromPEM carga el certificado y, si existe, la llave.
// keyPath vacío: la llave se busca en el mismo archivo; si no hay, el manejador queda solo con la llave pública.
func LoadFromPEM(certPath, keyPath string) (tls.Certificate, error) {
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("certs: leer certificado: %w", err)
	}
	var keyPEM []byte
	if keyPath != "" {
		if keyPEM, err = os.ReadFile(keyPath); err != nil {
			return tls.Certificate{}, fmt.Errorf("certs: leer llave: %w", err)
		}
	}
	return ParsePEM(certPEM, keyPEM)
}

// ParsePEM arma el manejador desde texto PEM. Los bloques que no son CERTIFICATE
// de certPEM se tratan como llave cuando keyPEM está vacío.
func ParsePEM(certPEM, keyPEM []byte) (tls.Certificate, error) {
	var (
		out      tls.Certificate
		embedded []byte
	)
	rest := certPEM
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type == "CERTIFICATE" {
			out.Certificate = append(out.Certificate, block.Bytes)
			continue
		}
		embedded = append(embedded, pem.EncodeToMemory(block)...)
	}
	if len(out.Certificate) == 0 {
		return tls.Certificate{}, fmt.Errorf("certs: no se encontró ningún bloque CERTIFICATE")
	}
	leaf, err := x509.ParseCertificate(out.Certificate[0])
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("certs: parsear certificado: %w", err)
	}
	out.Leaf = leaf

	if len(keyPEM) == 0 {
		keyPEM = embedded
	}
	if strings.TrimSpace(string(keyPEM)) != "" {
		priv, err := verification.ParsePrivateKeyPEM(string(keyPEM))
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("certs: llave privada: %w", err)
		}
		out.PrivateKey = priv
	}
	return out, nil
}

// ReadPrivateKeyPEM lee una llave privada PEM que se entrega por separado del certificado.
func ReadPrivateKeyPEM(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("certs: leer llave privada: %w", err)
	}
	return string(data), nil
}

// SerialNumber número de serie en hexadecimal (mayúsculas), como lo muestra KSeF.
func SerialNumber(cert *x509.Certificate) string {
	return strings.ToUpper(cert.SerialNumber.Text(16))
}

// Fingerprint SHA-256 del DER del certificado en Base64.
func Fingerprint(cert *x509.Certificate) string {
	h := sha256.Sum256(cert.Raw)
	return base64.StdEncoding.EncodeToString(h[:])
}
