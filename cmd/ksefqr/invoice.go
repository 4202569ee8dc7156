package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	appverification "github.com/jhoicas/ksef-qr/internal/application/verification"
	"github.com/jhoicas/ksef-qr/internal/infrastructure/invoicexml"
	"github.com/jhoicas/ksef-qr/internal/infrastructure/qrcode"
)

// invoiceSource de dónde salen NIP, fecha y hash: flags o archivo XML.
type invoiceSource struct {
	nip       string
	date      string
	hash      string
	xmlPath   string
	canonical bool
}

func (s *invoiceSource) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.nip, "nip", "", "NIP del vendedor")
	cmd.Flags().StringVar(&s.date, "date", "", "Fecha de emisión (yyyy-MM-dd)")
	cmd.Flags().StringVar(&s.hash, "hash", "", "SHA-256 de la factura en Base64 estándar")
	cmd.Flags().StringVar(&s.xmlPath, "xml", "", "Factura XML de la que leer NIP, fecha y hash")
	cmd.Flags().BoolVar(&s.canonical, "canonical", false, "Calcular el hash sobre la forma C14N del XML")
	cmd.MarkFlagsMutuallyExclusive("xml", "hash")
}

// resolve completa NIP, fecha y hash; los flags explícitos tienen prioridad sobre el XML.
// El enlace KOD II no lleva fecha, por eso requireDate es opcional.
func (s *invoiceSource) resolve(requireDate bool) (nip string, issueDate time.Time, hash string, err error) {
	nip, hash = s.nip, s.hash
	if s.date != "" {
		if issueDate, err = time.Parse("2006-01-02", s.date); err != nil {
			return "", time.Time{}, "", fmt.Errorf("--date debe ser yyyy-MM-dd: %w", err)
		}
	}
	if s.xmlPath != "" {
		data, err := os.ReadFile(s.xmlPath)
		if err != nil {
			return "", time.Time{}, "", err
		}
		reader := invoicexml.NewReader()
		header, err := reader.ReadHeader(data)
		if err != nil {
			return "", time.Time{}, "", err
		}
		if nip == "" {
			nip = header.SellerNIP
		}
		if issueDate.IsZero() {
			issueDate = header.IssueDate
		}
		hash = reader.Digest(data)
		if s.canonical {
			if hash, err = reader.CanonicalDigest(data); err != nil {
				return "", time.Time{}, "", err
			}
		}
	}
	if requireDate && (nip == "" || hash == "" || issueDate.IsZero()) {
		return "", time.Time{}, "", fmt.Errorf("indique --xml o bien --nip, --date y --hash")
	}
	if nip == "" || hash == "" {
		return "", time.Time{}, "", fmt.Errorf("indique --xml o bien --nip y --hash")
	}
	return nip, issueDate, hash, nil
}

// pngOutput escribe el QR si se indicó --png.
type pngOutput struct {
	path  string
	label string
}

func (p *pngOutput) addFlags(cmd *cobra.Command, defaultLabel string) {
	cmd.Flags().StringVar(&p.path, "png", "", "Escribir el código QR en este archivo PNG")
	cmd.Flags().StringVar(&p.label, "label", defaultLabel, "Etiqueta bajo el código QR")
}

func (p *pngOutput) write(cmd *cobra.Command, uc *appverification.LinksUseCase, link string) error {
	if p.path == "" {
		return nil
	}
	png, err := uc.QRCode(cmd.Context(), link, p.label, qrcode.DefaultPixelsPerModule)
	if err != nil {
		return err
	}
	return os.WriteFile(p.path, png, 0o644)
}

// InvoiceCommand genera el enlace KOD I.
func InvoiceCommand(opts *rootOptions) *cobra.Command {
	var (
		src invoiceSource
		out pngOutput
	)
	cmd := &cobra.Command{
		Use:   "invoice",
		Short: "Genera el enlace de verificación de la factura (KOD I)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			nip, issueDate, hash, err := src.resolve(true)
			if err != nil {
				return err
			}
			uc, err := opts.useCase(appverification.Config{})
			if err != nil {
				return err
			}
			link, err := uc.InvoiceLink(cmd.Context(), appverification.NewInvoiceLinkRequest(nip, issueDate, hash))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), link)
			return out.write(cmd, uc, link)
		},
	}
	src.addFlags(cmd)
	out.addFlags(cmd, qrcode.LabelOffline)
	return cmd
}
