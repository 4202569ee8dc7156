package verification_test

import (
	"bytes"
	"context"
	"crypto/tls"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appverification "github.com/jhoicas/ksef-qr/internal/application/verification"
	"github.com/jhoicas/ksef-qr/internal/domain"
	"github.com/jhoicas/ksef-qr/internal/infrastructure/certs"
	"github.com/jhoicas/ksef-qr/internal/infrastructure/invoicexml"
	"github.com/jhoicas/ksef-qr/internal/infrastructure/qrcode"
	"github.com/jhoicas/ksef-qr/internal/testutil"
	"github.com/jhoicas/ksef-qr/pkg/ksef"
)

const (
	testBaseURL = "https://ksef-test.mf.gov.pl/client-app"
	testNIP     = "5261040828"
)

// fakeSheets guarda la última hoja pedida.
type fakeSheets struct {
	last appverification.Sheet
}

func (f *fakeSheets) GenerateSheet(_ context.Context, sheet appverification.Sheet) ([]byte, error) {
	f.last = sheet
	return []byte("%PDF-fake"), nil
}

func newUseCase(t *testing.T, cfg appverification.Config) (*appverification.LinksUseCase, *fakeSheets) {
	t.Helper()
	if cfg.BaseURL == "" {
		cfg.BaseURL = testBaseURL
	}
	sheets := &fakeSheets{}
	uc, err := appverification.NewLinksUseCase(cfg, invoicexml.NewReader(), qrcode.NewGenerator(), sheets, nil)
	require.NoError(t, err)
	return uc, sheets
}

func withCert(cert tls.Certificate) appverification.Config {
	return appverification.Config{Certificate: &cert}
}

func TestNewLinksUseCase_SinURLBase(t *testing.T) {
	_, err := appverification.NewLinksUseCase(appverification.Config{BaseURL: "  "}, invoicexml.NewReader(), qrcode.NewGenerator(), &fakeSheets{}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestInvoiceLink_Escenario(t *testing.T) {
	uc, _ := newUseCase(t, appverification.Config{})
	link, err := uc.InvoiceLink(context.Background(), appverification.NewInvoiceLinkRequest(
		"1234567890", time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC), testutil.DigestBase64("<root>test</root>"),
	))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, testBaseURL+"/invoice/1234567890/05-01-2026/"))
}

func TestInvoiceLink_NIPEstricto(t *testing.T) {
	uc, _ := newUseCase(t, appverification.Config{StrictNIP: true})
	date := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)

	_, err := uc.InvoiceLink(context.Background(), appverification.NewInvoiceLinkRequest("1234567890", date, testutil.DigestBase64("x")))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.InvoiceLink(context.Background(), appverification.NewInvoiceLinkRequest(testNIP, date, testutil.DigestBase64("x")))
	assert.NoError(t, err)
}

func TestCertificateLink_CertificadoConfigurado(t *testing.T) {
	cert := testutil.NewECCertificate(t, "CN=Configurado")
	uc, _ := newUseCase(t, withCert(cert))

	req := appverification.NewCertificateLinkRequest(testNIP, ksef.ContextNip, testNIP, "", testutil.DigestBase64("<Faktura/>"))
	link, err := uc.CertificateLink(context.Background(), req)
	require.NoError(t, err)

	serial := certs.SerialNumber(cert.Leaf)
	assert.Contains(t, link, "/certificate/Nip/"+testNIP+"/"+testNIP+"/"+serial+"/")

	res, err := uc.Verify(context.Background(), link, "")
	require.NoError(t, err)
	assert.True(t, res.SignatureChecked)
	assert.True(t, res.Valid)
	assert.Equal(t, serial, res.CertificateSerial)
}

func TestCertificateLink_CertificadoPEMYLlaveExterna(t *testing.T) {
	cert := testutil.NewRSACertificate(t, "CN=Externo")
	uc, _ := newUseCase(t, appverification.Config{})

	req := appverification.NewCertificateLinkRequest(testNIP, ksef.ContextInternalID, testNIP+"-00001", "01AB", testutil.DigestBase64("a")).
		WithCertificatePEM(testutil.CertificatePEM(cert), testutil.PKCS8PEM(t, cert.PrivateKey))
	link, err := uc.CertificateLink(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, link, "/certificate/InternalId/"+testNIP+"-00001/"+testNIP+"/01AB/")

	res, err := uc.Verify(context.Background(), link, testutil.CertificatePEM(cert))
	require.NoError(t, err)
	assert.True(t, res.SignatureChecked)
}

func TestCertificateLink_SoloPublico(t *testing.T) {
	cert := testutil.NewRSACertificate(t, "CN=Publico")
	uc, _ := newUseCase(t, appverification.Config{})

	req := appverification.NewCertificateLinkRequest(testNIP, ksef.ContextNip, testNIP, "01", testutil.DigestBase64("a")).
		WithCertificatePEM(testutil.CertificatePEM(cert), "")
	_, err := uc.CertificateLink(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrSigningUnavailable)
	assert.ErrorIs(t, err, domain.ErrPrivateKeyMissing)
}

func TestCertificateLink_SinCertificado(t *testing.T) {
	uc, _ := newUseCase(t, appverification.Config{})
	req := appverification.NewCertificateLinkRequest(testNIP, ksef.ContextNip, testNIP, "01", testutil.DigestBase64("a"))
	_, err := uc.CertificateLink(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCertificateLink_PEMInvalido(t *testing.T) {
	uc, _ := newUseCase(t, appverification.Config{})
	req := appverification.NewCertificateLinkRequest(testNIP, ksef.ContextNip, testNIP, "01", testutil.DigestBase64("a")).
		WithCertificatePEM("no es pem", "")
	_, err := uc.CertificateLink(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrEncoding)
}

func TestLinksForInvoiceXML_Offline(t *testing.T) {
	cert := testutil.NewRSACertificate(t, "CN=Offline")
	uc, _ := newUseCase(t, withCert(cert))
	xml := []byte(testutil.InvoiceXML(testNIP, "FV/1/2026", "2026-01-05"))

	out, err := uc.LinksForInvoiceXML(context.Background(), xml, "", false)
	require.NoError(t, err)
	assert.Equal(t, testNIP, out.SellerNIP)
	assert.Equal(t, "FV/1/2026", out.InvoiceNumber)
	assert.Equal(t, "2026-01-05", out.IssueDate)
	assert.Equal(t, invoicexml.NewReader().Digest(xml), out.InvoiceHash)
	assert.Equal(t, qrcode.LabelOffline, out.InvoiceLabel)
	assert.True(t, strings.HasPrefix(out.InvoiceURL, testBaseURL+"/invoice/"+testNIP+"/05-01-2026/"))
	assert.True(t, strings.HasPrefix(out.CertificateURL, testBaseURL+"/certificate/Nip/"+testNIP+"/"+testNIP+"/"))
}

func TestLinksForInvoiceXML_ConNumeroKSeFSinCertificado(t *testing.T) {
	uc, _ := newUseCase(t, appverification.Config{})
	xml := []byte(testutil.InvoiceXML(testNIP, "FV/2/2026", "2026-02-01"))

	out, err := uc.LinksForInvoiceXML(context.Background(), xml, "5261040828-20260201-0100001AF629-AF", true)
	require.NoError(t, err)
	assert.Equal(t, "5261040828-20260201-0100001AF629-AF", out.InvoiceLabel)
	assert.Empty(t, out.CertificateURL)

	canonical, err := invoicexml.NewReader().CanonicalDigest(xml)
	require.NoError(t, err)
	assert.Equal(t, canonical, out.InvoiceHash)
}

func TestLinksForInvoiceXML_XMLInvalido(t *testing.T) {
	uc, _ := newUseCase(t, appverification.Config{})
	_, err := uc.LinksForInvoiceXML(context.Background(), []byte("<Faktura/>"), "", false)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQRCode_ConEtiqueta(t *testing.T) {
	uc, _ := newUseCase(t, appverification.Config{})
	plain, err := uc.QRCode(context.Background(), testBaseURL+"/invoice/x/05-01-2026/abc", "", 4)
	require.NoError(t, err)
	labelled, err := uc.QRCode(context.Background(), testBaseURL+"/invoice/x/05-01-2026/abc", qrcode.LabelOffline, 4)
	require.NoError(t, err)

	a, err := png.Decode(bytes.NewReader(plain))
	require.NoError(t, err)
	b, err := png.Decode(bytes.NewReader(labelled))
	require.NoError(t, err)
	assert.Greater(t, b.Bounds().Dy(), a.Bounds().Dy())

	_, err = uc.QRCode(context.Background(), " ", "", 4)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQRCode_TamanoFueraDeRango(t *testing.T) {
	uc, _ := newUseCase(t, appverification.Config{})
	link := testBaseURL + "/invoice/x/05-01-2026/abc"
	for _, ppm := range []int{-1, qrcode.MaxPixelsPerModule + 1, 2000} {
		_, err := uc.QRCode(context.Background(), link, "", ppm)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "ppm %d", ppm)
	}
}

func TestVerificationSheet(t *testing.T) {
	cert := testutil.NewECCertificate(t, "CN=Hoja")
	uc, sheets := newUseCase(t, withCert(cert))
	xml := []byte(testutil.InvoiceXML(testNIP, "FV/3/2026", "2026-03-10"))

	pdf, filename, err := uc.VerificationSheet(context.Background(), xml, "", false)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-fake", string(pdf))
	assert.Equal(t, "weryfikacja_FV_3_2026.pdf", filename)
	assert.Equal(t, "FV/3/2026", sheets.last.InvoiceNumber)
	assert.Equal(t, time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC), sheets.last.IssueDate)
	assert.NotEmpty(t, sheets.last.InvoiceLink)
	assert.NotEmpty(t, sheets.last.CertificateLink)
	assert.Equal(t, qrcode.LabelOffline, sheets.last.InvoiceLabel)
}

func TestVerify_EnlaceFactura(t *testing.T) {
	uc, _ := newUseCase(t, appverification.Config{})
	digest := testutil.DigestBase64("<root>test</root>")
	link, err := uc.InvoiceLink(context.Background(), appverification.NewInvoiceLinkRequest(
		testNIP, time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC), digest,
	))
	require.NoError(t, err)

	res, err := uc.Verify(context.Background(), link, "")
	require.NoError(t, err)
	assert.Equal(t, "invoice", res.Kind)
	assert.Equal(t, "2026-01-05", res.IssueDate)
	assert.Equal(t, digest, res.InvoiceHash)
	assert.False(t, res.SignatureChecked)
}

func TestVerify_SinCertificadoSoloEstructura(t *testing.T) {
	cert := testutil.NewRSACertificate(t, "CN=Estructura")
	signer, _ := newUseCase(t, withCert(cert))
	link, err := signer.CertificateLink(context.Background(),
		appverification.NewCertificateLinkRequest(testNIP, ksef.ContextNip, testNIP, "", testutil.DigestBase64("a")))
	require.NoError(t, err)

	verifier, _ := newUseCase(t, appverification.Config{})
	res, err := verifier.Verify(context.Background(), link, "")
	require.NoError(t, err)
	assert.Equal(t, "certificate", res.Kind)
	assert.False(t, res.SignatureChecked)
}

func TestVerify_OtroCertificado(t *testing.T) {
	cert := testutil.NewRSACertificate(t, "CN=Firmante")
	other := testutil.NewRSACertificate(t, "CN=Otro")
	uc, _ := newUseCase(t, withCert(cert))
	link, err := uc.CertificateLink(context.Background(),
		appverification.NewCertificateLinkRequest(testNIP, ksef.ContextNip, testNIP, "", testutil.DigestBase64("a")))
	require.NoError(t, err)

	_, err = uc.Verify(context.Background(), link, testutil.CertificatePEM(other))
	assert.ErrorIs(t, err, domain.ErrSignatureInvalid)
}

func TestVerify_OtroDominio(t *testing.T) {
	uc, _ := newUseCase(t, appverification.Config{})
	_, err := uc.Verify(context.Background(), "https://example.com/client-app/invoice/1/05-01-2026/abc", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
