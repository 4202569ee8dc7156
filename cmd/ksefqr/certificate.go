package main

import (
	"fmt"

	"github.com/spf13/cobra"

	appverification "github.com/jhoicas/ksef-qr/internal/application/verification"
	"github.com/jhoicas/ksef-qr/internal/infrastructure/certs"
	"github.com/jhoicas/ksef-qr/internal/infrastructure/qrcode"
	"github.com/jhoicas/ksef-qr/pkg/ksef"
)

// CertificateCommand genera el enlace firmado KOD II.
func CertificateCommand(opts *rootOptions) *cobra.Command {
	var (
		src          invoiceSource
		out          pngOutput
		contextType  string
		contextValue string
		serial       string
		certPath     string
		keyPath      string
		password     string
		privateKey   string
	)
	cmd := &cobra.Command{
		Use:   "certificate",
		Short: "Genera el enlace firmado de verificación del certificado (KOD II)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			nip, _, hash, err := src.resolve(false)
			if err != nil {
				return err
			}
			ctxType, err := ksef.ParseContextIdentifierType(contextType)
			if err != nil {
				return err
			}
			if contextValue == "" {
				contextValue = nip
			}
			cert, err := certs.Load(certPath, keyPath, password)
			if err != nil {
				return err
			}
			keyPEM, err := certs.ReadPrivateKeyPEM(privateKey)
			if err != nil {
				return err
			}

			uc, err := opts.useCase(appverification.Config{Certificate: &cert, PrivateKeyPEM: keyPEM})
			if err != nil {
				return err
			}
			link, err := uc.CertificateLink(cmd.Context(),
				appverification.NewCertificateLinkRequest(nip, ctxType, contextValue, serial, hash))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), link)
			return out.write(cmd, uc, link)
		},
	}
	src.addFlags(cmd)
	out.addFlags(cmd, qrcode.LabelCertificate)
	cmd.Flags().StringVar(&contextType, "context-type", ksef.ContextNip.String(), "Tipo de contexto: Nip, InternalId, NipVatUe o PeppolId")
	cmd.Flags().StringVar(&contextValue, "context-value", "", "Identificador del contexto (por defecto el NIP)")
	cmd.Flags().StringVar(&serial, "serial", "", "Número de serie del certificado (por defecto el del archivo)")
	cmd.Flags().StringVar(&certPath, "cert", "", "Certificado KSeF (.pem, .p12 o .pfx)")
	cmd.Flags().StringVar(&keyPath, "cert-key", "", "Llave .pem del certificado si va en otro archivo")
	cmd.Flags().StringVar(&password, "password", "", "Contraseña del .p12")
	cmd.Flags().StringVar(&privateKey, "private-key", "", "Llave privada externa (PEM) con la que firmar")
	_ = cmd.MarkFlagRequired("cert")
	return cmd
}
