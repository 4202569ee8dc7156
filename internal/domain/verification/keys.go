package verification

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"strings"

	"github.com/jhoicas/ksef-qr/internal/domain"
)

// KeyKind familia de la llave con la que se firma el enlace.
type KeyKind int

const (
	KeyUnavailable KeyKind = iota
	KeyRSA
	KeyEC
)

func (k KeyKind) String() string {
	switch k {
	case KeyRSA:
		return "RSA"
	case KeyEC:
		return "ECDSA"
	default:
		return "no disponible"
	}
}

// SigningKey variante etiquetada: exactamente uno de rsa/ec está presente según Kind.
// Vive solo durante la llamada; no se guarda en el LinkBuilder.
type SigningKey struct {
	Kind KeyKind
	rsa  *rsa.PrivateKey
	ec   *ecdsa.PrivateKey
}

// ResolveSigningKey localiza la llave privada para el certificado, en este orden:
//  1. privateKeyPEM (si no está en blanco), que debe ser de la misma familia que la llave pública de leaf;
//  2. llave RSA embebida en el manejador del certificado;
//  3. llave ECDSA embebida.
//
// Si ninguna sirve devuelve un error que envuelve domain.ErrSigningUnavailable.
func ResolveSigningKey(leaf *x509.Certificate, embedded crypto.PrivateKey, privateKeyPEM string) (SigningKey, error) {
	if leaf == nil {
		return SigningKey{}, fmt.Errorf("%w: certificado requerido", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(privateKeyPEM) != "" {
		priv, err := ParsePrivateKeyPEM(privateKeyPEM)
		if err != nil {
			return SigningKey{}, err
		}
		return matchCertificate(leaf, priv)
	}
	if k, ok := embedded.(*rsa.PrivateKey); ok {
		return matchCertificate(leaf, k)
	}
	if k, ok := embedded.(*ecdsa.PrivateKey); ok {
		return matchCertificate(leaf, k)
	}
	if embedded == nil {
		return SigningKey{}, domain.ErrPrivateKeyMissing
	}
	return SigningKey{}, fmt.Errorf("%w (%T)", domain.ErrKeyAlgorithmUnsupported, embedded)
}

// matchCertificate exige que priv sea la pareja de la llave pública del certificado.
func matchCertificate(leaf *x509.Certificate, priv crypto.PrivateKey) (SigningKey, error) {
	switch pub := leaf.PublicKey.(type) {
	case *rsa.PublicKey:
		k, ok := priv.(*rsa.PrivateKey)
		if !ok {
			return SigningKey{}, fmt.Errorf("%w: el certificado es RSA y la llave es %T", domain.ErrKeyMismatch, priv)
		}
		if !pub.Equal(k.Public()) {
			return SigningKey{}, fmt.Errorf("%w: módulo RSA distinto", domain.ErrKeyMismatch)
		}
		return SigningKey{Kind: KeyRSA, rsa: k}, nil
	case *ecdsa.PublicKey:
		k, ok := priv.(*ecdsa.PrivateKey)
		if !ok {
			return SigningKey{}, fmt.Errorf("%w: el certificado es ECDSA y la llave es %T", domain.ErrKeyMismatch, priv)
		}
		if !pub.Equal(k.Public()) {
			return SigningKey{}, fmt.Errorf("%w: punto ECDSA distinto", domain.ErrKeyMismatch)
		}
		return SigningKey{Kind: KeyEC, ec: k}, nil
	default:
		return SigningKey{}, fmt.Errorf("%w: llave pública del certificado %T", domain.ErrKeyAlgorithmUnsupported, leaf.PublicKey)
	}
}

// ParsePrivateKeyPEM lee una llave privada PKCS#8, PKCS#1 ("RSA PRIVATE KEY") o SEC1 ("EC PRIVATE KEY").
// Los bloques "EC PARAMETERS" que antepone openssl se ignoran.
func ParsePrivateKeyPEM(text string) (crypto.PrivateKey, error) {
	rest := []byte(strings.TrimSpace(text))
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return nil, fmt.Errorf("%w: no se encontró un bloque PEM de llave privada", domain.ErrEncoding)
		}
		var (
			key crypto.PrivateKey
			err error
		)
		switch block.Type {
		case "EC PARAMETERS":
			continue
		case "PRIVATE KEY":
			key, err = x509.ParsePKCS8PrivateKey(block.Bytes)
		case "RSA PRIVATE KEY":
			key, err = x509.ParsePKCS1PrivateKey(block.Bytes)
		case "EC PRIVATE KEY":
			key, err = x509.ParseECPrivateKey(block.Bytes)
		default:
			return nil, fmt.Errorf("%w: bloque PEM %q no soportado como llave privada", domain.ErrEncoding, block.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: llave privada %s: %v", domain.ErrEncoding, block.Type, err)
		}
		return key, nil
	}
}
