package verification_test

import (
	"crypto/sha256"
	"crypto/tls"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ksef-qr/internal/domain"
	"github.com/jhoicas/ksef-qr/internal/domain/verification"
	"github.com/jhoicas/ksef-qr/internal/testutil"
	"github.com/jhoicas/ksef-qr/pkg/ksef"
)

func TestParseInvoiceLink_IdaYVuelta(t *testing.T) {
	b := newBuilder(t)
	issueDate := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	link, err := b.BuildInvoiceVerificationURL("1234567890", issueDate, testutil.DigestBase64("<root>test</root>"))
	require.NoError(t, err)

	parsed, err := b.ParseInvoiceLink(link)
	require.NoError(t, err)
	sum := sha256.Sum256([]byte("<root>test</root>"))
	assert.Equal(t, "1234567890", parsed.TaxID)
	assert.True(t, issueDate.Equal(parsed.IssueDate))
	assert.Equal(t, sum[:], parsed.Digest)
}

func TestParseInvoiceLink_Rechazos(t *testing.T) {
	b := newBuilder(t)
	for name, link := range map[string]string{
		"otra base":        "https://example.com/client-app/invoice/1/05-01-2026/abc",
		"tipo incorrecto":  testBaseURL + "/certificate/1/05-01-2026/abc",
		"segmentos de más": testBaseURL + "/invoice/1/05-01-2026/abc/def",
		"fecha ISO":        testBaseURL + "/invoice/1/2026-01-05/abc",
	} {
		_, err := b.ParseInvoiceLink(link)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, name)
	}
}

func TestVerifyCertificateLink_RSAyECDSA(t *testing.T) {
	b := newBuilder(t)
	for _, cert := range []tls.Certificate{
		testutil.NewRSACertificate(t, "CN=VerifyRSA"),
		testutil.NewECCertificate(t, "CN=VerifyEC"),
	} {
		link, serial, err := buildCertificateLink(t, b, cert, "")
		require.NoError(t, err)

		parsed, err := b.ParseCertificateLink(link)
		require.NoError(t, err)
		assert.Equal(t, ksef.ContextNip, parsed.ContextType)
		assert.Equal(t, testNIP, parsed.ContextValue)
		assert.Equal(t, testNIP, parsed.TaxID)
		assert.Equal(t, serial, parsed.CertificateSerial)

		assert.NoError(t, verification.VerifyCertificateLink(parsed, cert.Leaf))
	}
}

func TestVerifyCertificateLink_HashAlterado(t *testing.T) {
	b := newBuilder(t)
	cert := testutil.NewECCertificate(t, "CN=Tamper")
	link, _, err := buildCertificateLink(t, b, cert, "")
	require.NoError(t, err)

	parsed, err := b.ParseCertificateLink(link)
	require.NoError(t, err)
	parsed.Digest[0] ^= 0xff

	err = verification.VerifyCertificateLink(parsed, cert.Leaf)
	assert.ErrorIs(t, err, domain.ErrSignatureInvalid)
}

func TestVerifyCertificateLink_OtroCertificado(t *testing.T) {
	b := newBuilder(t)
	cert := testutil.NewRSACertificate(t, "CN=Signer")
	other := testutil.NewRSACertificate(t, "CN=Other")
	link, _, err := buildCertificateLink(t, b, cert, "")
	require.NoError(t, err)

	parsed, err := b.ParseCertificateLink(link)
	require.NoError(t, err)
	assert.ErrorIs(t, verification.VerifyCertificateLink(parsed, other.Leaf), domain.ErrSignatureInvalid)
}

func TestParseCertificateLink_SegmentoNoBase64(t *testing.T) {
	b := newBuilder(t)
	cert := testutil.NewECCertificate(t, "CN=Bad")
	link, _, err := buildCertificateLink(t, b, cert, "")
	require.NoError(t, err)

	broken := link[:strings.LastIndex(link, "/")+1] + "no=base64"
	_, err = b.ParseCertificateLink(broken)
	assert.ErrorIs(t, err, domain.ErrEncoding)
}
