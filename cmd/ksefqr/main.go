package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	appverification "github.com/jhoicas/ksef-qr/internal/application/verification"
	"github.com/jhoicas/ksef-qr/internal/infrastructure/invoicexml"
	infrapdf "github.com/jhoicas/ksef-qr/internal/infrastructure/pdf"
	"github.com/jhoicas/ksef-qr/internal/infrastructure/qrcode"
	"github.com/jhoicas/ksef-qr/pkg/ksef"
	"github.com/jhoicas/ksef-qr/pkg/logger"
)

func main() {
	// ^C cancela el contexto
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// rootOptions flags comunes a todos los comandos.
type rootOptions struct {
	environment string
	baseURL     string
	strictNIP   bool
	logLevel    string
	stderr      io.Writer
}

// Run construye el comando raíz y lo ejecuta con args.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts := &rootOptions{stderr: stderr}

	cmd := &cobra.Command{
		Use:           "ksefqr",
		Short:         "Enlaces y códigos QR de verificación KSeF",
		SilenceUsage:  true,
		SilenceErrors: true,
		Run:           func(cmd *cobra.Command, args []string) {},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.PersistentFlags().StringVar(&opts.environment, "env", "test", "Ambiente KSeF: test, demo o prod")
	cmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "URL base de los enlaces (reemplaza --env)")
	cmd.PersistentFlags().BoolVar(&opts.strictNIP, "strict-nip", false, "Exigir dígito de control del NIP")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Nivel de log (debug, info, warn, error)")

	cmd.AddCommand(InvoiceCommand(opts))
	cmd.AddCommand(CertificateCommand(opts))
	cmd.AddCommand(VerifyCommand(opts))
	cmd.AddCommand(CertInfoCommand(opts))
	cmd.AddCommand(TokenCommand())

	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// resolveBaseURL --base-url o la URL del ambiente.
func (o *rootOptions) resolveBaseURL() (string, error) {
	if o.baseURL != "" {
		return o.baseURL, nil
	}
	env, err := ksef.EnvironmentURL(o.environment)
	if err != nil {
		return "", err
	}
	return ksef.ClientAppURL(env), nil
}

// useCase arma el caso de uso con el certificado indicado (nil = solo KOD I).
func (o *rootOptions) useCase(cfg appverification.Config) (*appverification.LinksUseCase, error) {
	baseURL, err := o.resolveBaseURL()
	if err != nil {
		return nil, err
	}
	cfg.BaseURL = baseURL
	cfg.StrictNIP = o.strictNIP
	log := logger.New(logger.Config{Env: "development", Level: o.logLevel, Out: o.stderr}).Child("cli")
	return appverification.NewLinksUseCase(cfg, invoicexml.NewReader(), qrcode.NewGenerator(), infrapdf.NewMarotoSheetGenerator(), log)
}
