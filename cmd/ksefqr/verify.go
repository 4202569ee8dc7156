package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	appverification "github.com/jhoicas/ksef-qr/internal/application/verification"
)

// VerifyCommand analiza un enlace y comprueba la firma de los enlaces KOD II.
func VerifyCommand(opts *rootOptions) *cobra.Command {
	var certPath string

	cmd := &cobra.Command{
		Use:   "verify [url]",
		Short: "Analiza un enlace de verificación",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var certPEM string
			if certPath != "" {
				data, err := os.ReadFile(certPath)
				if err != nil {
					return err
				}
				certPEM = string(data)
			}
			uc, err := opts.useCase(appverification.Config{})
			if err != nil {
				return err
			}
			res, err := uc.Verify(cmd.Context(), args[0], certPEM)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "tipo:    %s\n", res.Kind)
			fmt.Fprintf(w, "nip:     %s\n", res.TaxID)
			if res.IssueDate != "" {
				fmt.Fprintf(w, "fecha:   %s\n", res.IssueDate)
			}
			fmt.Fprintf(w, "hash:    %s\n", res.InvoiceHash)
			if res.ContextType != "" {
				fmt.Fprintf(w, "contexto: %s %s\n", res.ContextType, res.ContextValue)
				fmt.Fprintf(w, "serie:   %s\n", res.CertificateSerial)
			}
			switch {
			case res.SignatureChecked:
				fmt.Fprintln(w, "firma:   válida")
			case res.Kind == "certificate":
				fmt.Fprintln(w, "firma:   no comprobada (use --cert)")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&certPath, "cert", "", "Certificado PEM con el que comprobar la firma")
	return cmd
}
