package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ksef-qr/internal/testutil"
	pkgjwt "github.com/jhoicas/ksef-qr/pkg/jwt"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := Run(context.Background(), args, &stdout, &stderr)
	return strings.TrimSpace(stdout.String()), err
}

func TestInvoiceCommand_Flags(t *testing.T) {
	out, err := run(t, "invoice", "--nip", "1234567890", "--date", "2026-01-05", "--hash", testutil.DigestBase64("<root>test</root>"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "https://ksef-test.mf.gov.pl/client-app/invoice/1234567890/05-01-2026/"))
}

func TestInvoiceCommand_XMLYPNG(t *testing.T) {
	dir := t.TempDir()
	xmlPath := filepath.Join(dir, "fa.xml")
	pngPath := filepath.Join(dir, "kod1.png")
	require.NoError(t, os.WriteFile(xmlPath, []byte(testutil.InvoiceXML("5261040828", "FV/1", "2026-01-05")), 0o600))

	out, err := run(t, "--env", "prod", "invoice", "--xml", xmlPath, "--png", pngPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "https://ksef.mf.gov.pl/client-app/invoice/5261040828/05-01-2026/"))

	png, err := os.ReadFile(pngPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestInvoiceCommand_FaltanDatos(t *testing.T) {
	_, err := run(t, "invoice", "--nip", "1234567890")
	assert.Error(t, err)
}

func TestInvoiceCommand_SinFecha(t *testing.T) {
	_, err := run(t, "invoice", "--nip", "1234567890", "--hash", testutil.DigestBase64("x"))
	assert.EqualError(t, err, "indique --xml o bien --nip, --date y --hash")
}

func TestInvoiceCommand_NIPEstricto(t *testing.T) {
	_, err := run(t, "--strict-nip", "invoice", "--nip", "1234567890", "--date", "2026-01-05", "--hash", testutil.DigestBase64("x"))
	assert.Error(t, err)
}

func TestCertificateCommand_FirmaYVerifica(t *testing.T) {
	dir := t.TempDir()
	cert := testutil.NewECCertificate(t, "CN=CLI")
	certPath := filepath.Join(dir, "cert.pem")
	keyPath := filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(certPath, []byte(testutil.CertificatePEM(cert)), 0o600))
	require.NoError(t, os.WriteFile(keyPath, []byte(testutil.PKCS8PEM(t, cert.PrivateKey)), 0o600))

	link, err := run(t, "certificate",
		"--nip", "5261040828", "--hash", testutil.DigestBase64("<Faktura/>"),
		"--cert", certPath, "--private-key", keyPath)
	require.NoError(t, err)
	assert.Contains(t, link, "/certificate/Nip/5261040828/5261040828/")

	out, err := run(t, "verify", link, "--cert", certPath)
	require.NoError(t, err)
	assert.Contains(t, out, "firma:   válida")
}

func TestCertificateCommand_SinLlave(t *testing.T) {
	dir := t.TempDir()
	cert := testutil.NewRSACertificate(t, "CN=SinLlave")
	certPath := filepath.Join(dir, "cert.pem")
	require.NoError(t, os.WriteFile(certPath, []byte(testutil.CertificatePEM(cert)), 0o600))

	_, err := run(t, "certificate", "--nip", "5261040828", "--hash", testutil.DigestBase64("a"), "--cert", certPath)
	assert.ErrorContains(t, err, "llave privada")
}

func TestCertificateCommand_SinHash(t *testing.T) {
	dir := t.TempDir()
	cert := testutil.NewECCertificate(t, "CN=SinHash")
	certPath := filepath.Join(dir, "cert.pem")
	require.NoError(t, os.WriteFile(certPath, []byte(testutil.CertificatePEM(cert)), 0o600))

	_, err := run(t, "certificate", "--nip", "5261040828", "--cert", certPath)
	assert.EqualError(t, err, "indique --xml o bien --nip y --hash")
}

func TestCertificateCommand_SinCert(t *testing.T) {
	_, err := run(t, "certificate", "--nip", "5261040828", "--hash", testutil.DigestBase64("a"))
	assert.EqualError(t, err, "required flag(s) \"cert\" not set")
}

func TestVerifyCommand_SinURL(t *testing.T) {
	_, err := run(t, "verify")
	assert.EqualError(t, err, "accepts 1 arg(s), received 0")
}

func TestCertInfoCommand(t *testing.T) {
	dir := t.TempDir()
	cert := testutil.NewRSACertificate(t, "CN=Info")
	combined := filepath.Join(dir, "combined.pem")
	public := filepath.Join(dir, "public.pem")
	require.NoError(t, os.WriteFile(combined, []byte(testutil.CertificatePEM(cert)+testutil.PKCS8PEM(t, cert.PrivateKey)), 0o600))
	require.NoError(t, os.WriteFile(public, []byte(testutil.CertificatePEM(cert)), 0o600))

	out, err := run(t, "cert-info", combined)
	require.NoError(t, err)
	assert.Contains(t, out, "CN=Info")
	assert.Contains(t, out, "firma:       disponible (RSA)")

	out, err = run(t, "cert-info", public)
	require.NoError(t, err)
	assert.Contains(t, out, "firma:       no disponible")
}

func TestTokenCommand_UsaConfiguracion(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("JWT_ISSUER", "ksef-qr-cli")

	tok, err := run(t, "token", "--client-id", "erp-7", "--scope", pkgjwt.ScopeSign)
	require.NoError(t, err)

	clientID, scope, err := pkgjwt.Parse("cli-secret", "ksef-qr-cli", tok)
	require.NoError(t, err)
	assert.Equal(t, "erp-7", clientID)
	assert.Equal(t, pkgjwt.ScopeSign, scope)
}

func TestTokenCommand_SinSecret(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JWT_SECRET", "")

	_, err := run(t, "token", "--client-id", "erp-7")
	assert.EqualError(t, err, "JWT_SECRET no configurado")
}

func TestTokenCommand_ExpiracionNoValida(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("JWT_EXPIRATION_MINUTES", "0")

	_, err := run(t, "token", "--client-id", "erp-7")
	assert.EqualError(t, err, "la expiración debe ser mayor que cero")
}
