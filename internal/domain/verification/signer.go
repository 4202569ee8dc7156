package verification

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"

	"github.com/jhoicas/ksef-qr/internal/domain"
)

// Parámetros RSASSA-PSS: SHA-256 y sal del tamaño del hash.
var pssOptions = &rsa.PSSOptions{
	SaltLength: rsa.PSSSaltLengthEqualsHash,
	Hash:       crypto.SHA256,
}

// Sign firma data (los bytes crudos del hash de la factura) con SHA-256.
// RSA: PSS, la firma mide lo mismo que el módulo. ECDSA: DER ASN.1.
func (k SigningKey) Sign(data []byte) ([]byte, error) {
	h := sha256.Sum256(data)
	switch k.Kind {
	case KeyRSA:
		sig, err := rsa.SignPSS(rand.Reader, k.rsa, crypto.SHA256, h[:], pssOptions)
		if err != nil {
			return nil, fmt.Errorf("verificación: firmar RSA-PSS: %w", err)
		}
		return sig, nil
	case KeyEC:
		sig, err := ecdsa.SignASN1(rand.Reader, k.ec, h[:])
		if err != nil {
			return nil, fmt.Errorf("verificación: firmar ECDSA: %w", err)
		}
		return sig, nil
	default:
		return nil, domain.ErrPrivateKeyMissing
	}
}

// VerifySignature comprueba sig sobre data con la llave pública de un certificado.
func VerifySignature(pub crypto.PublicKey, data, sig []byte) error {
	h := sha256.Sum256(data)
	switch p := pub.(type) {
	case *rsa.PublicKey:
		if err := rsa.VerifyPSS(p, crypto.SHA256, h[:], sig, pssOptions); err != nil {
			return fmt.Errorf("%w: RSA-PSS: %v", domain.ErrSignatureInvalid, err)
		}
		return nil
	case *ecdsa.PublicKey:
		if !ecdsa.VerifyASN1(p, h[:], sig) {
			return fmt.Errorf("%w: ECDSA", domain.ErrSignatureInvalid)
		}
		return nil
	default:
		return fmt.Errorf("%w: llave pública %T", domain.ErrKeyAlgorithmUnsupported, pub)
	}
}
