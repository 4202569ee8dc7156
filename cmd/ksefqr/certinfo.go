package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/ksef-qr/internal/domain"
	"github.com/jhoicas/ksef-qr/internal/domain/verification"
	"github.com/jhoicas/ksef-qr/internal/infrastructure/certs"
)

// CertInfoCommand diagnostica un certificado KSeF: lectura, contraseña y llave utilizable para firmar.
func CertInfoCommand(opts *rootOptions) *cobra.Command {
	var (
		keyPath    string
		password   string
		privateKey string
	)
	cmd := &cobra.Command{
		Use:   "cert-info [path]",
		Short: "Muestra los datos de un certificado y si puede firmar enlaces KOD II",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cert, err := certs.Load(args[0], keyPath, password)
			if err != nil {
				return err
			}
			keyPEM, err := certs.ReadPrivateKeyPEM(privateKey)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			leaf := cert.Leaf
			fmt.Fprintf(w, "sujeto:      %s\n", leaf.Subject.String())
			fmt.Fprintf(w, "emisor:      %s\n", leaf.Issuer.String())
			fmt.Fprintf(w, "serie:       %s\n", certs.SerialNumber(leaf))
			fmt.Fprintf(w, "huella:      %s\n", certs.Fingerprint(leaf))
			fmt.Fprintf(w, "vigencia:    %s hasta %s\n", leaf.NotBefore.Format("2006-01-02"), leaf.NotAfter.Format("2006-01-02"))
			fmt.Fprintf(w, "algoritmo:   %s\n", leaf.PublicKeyAlgorithm)

			key, err := verification.ResolveSigningKey(leaf, cert.PrivateKey, keyPEM)
			switch {
			case err == nil:
				fmt.Fprintf(w, "firma:       disponible (%s)\n", key.Kind)
			case errors.Is(err, domain.ErrSigningUnavailable):
				fmt.Fprintf(w, "firma:       no disponible: %v\n", err)
			default:
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&keyPath, "cert-key", "", "Llave .pem del certificado si va en otro archivo")
	cmd.Flags().StringVar(&password, "password", "", "Contraseña del .p12")
	cmd.Flags().StringVar(&privateKey, "private-key", "", "Llave privada externa (PEM) a comprobar contra el certificado")
	return cmd
}
