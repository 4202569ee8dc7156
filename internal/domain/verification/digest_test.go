package verification_test

import (
	"crypto/sha256"
	"encoding/base64"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ksef-qr/internal/domain"
	"github.com/jhoicas/ksef-qr/internal/domain/verification"
)

var urlSafeToken = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// 0xfb 0xff → "+/8=" en Base64 estándar: cubre los dos caracteres reemplazados y el relleno.
func TestEncodeURLSafe_ReemplazaAlfabetoYQuitaRelleno(t *testing.T) {
	token, err := verification.EncodeURLSafe("+/8=")
	require.NoError(t, err)
	assert.Equal(t, "-_8", token)
}

func TestEncodeBytesURLSafe_CoincideConCadena(t *testing.T) {
	raw := []byte{0xfb, 0xff, 0x00, 0x10}
	fromBytes := verification.EncodeBytesURLSafe(raw)
	fromText, err := verification.EncodeURLSafe(base64.StdEncoding.EncodeToString(raw))
	require.NoError(t, err)
	assert.Equal(t, fromText, fromBytes)
}

func TestEncodeURLSafe_Base64MalFormado(t *testing.T) {
	for _, in := range []string{"no es base64!", "abc", "-_8"} {
		_, err := verification.EncodeURLSafe(in)
		assert.ErrorIs(t, err, domain.ErrEncoding, "entrada %q", in)
	}
}

// El token decodificado y recodificado en Base64 estándar reproduce el hash original.
func TestDigest_IdaYVuelta(t *testing.T) {
	inputs := []string{"", "<root>test</root>", "<data>special & chars /?</data>", "zażółć gęślą jaźń"}
	for _, in := range inputs {
		sum := sha256.Sum256([]byte(in))
		std := base64.StdEncoding.EncodeToString(sum[:])

		token, err := verification.EncodeURLSafe(std)
		require.NoError(t, err)
		assert.Regexp(t, urlSafeToken, token)
		assert.Len(t, token, 43, "SHA-256 sin relleno ocupa 43 caracteres")

		raw, err := verification.DecodeURLSafe(token)
		require.NoError(t, err)
		assert.Equal(t, sum[:], raw)
		assert.Equal(t, std, base64.StdEncoding.EncodeToString(raw))
	}
}
