package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/ksef-qr/pkg/config"
	"github.com/jhoicas/ksef-qr/pkg/jwt"
)

// TokenCommand emite un JWT para un cliente de la API con JWT_SECRET, JWT_ISSUER
// y JWT_EXPIRATION_MINUTES de la configuración.
func TokenCommand() *cobra.Command {
	var (
		clientID   string
		scope      string
		expiration int
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Emite un token JWT para la API de verificación",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.JWT.Secret == "" {
				return fmt.Errorf("JWT_SECRET no configurado")
			}
			if scope != jwt.ScopeSign && scope != jwt.ScopeVerify {
				return fmt.Errorf("--scope debe ser %s o %s", jwt.ScopeSign, jwt.ScopeVerify)
			}
			if !cmd.Flags().Changed("expiration") {
				expiration = cfg.JWT.Expiration
			}
			if expiration <= 0 {
				return fmt.Errorf("la expiración debe ser mayor que cero")
			}
			tok, err := jwt.Generate(cfg.JWT.Secret, clientID, scope, cfg.JWT.Issuer, expiration)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&clientID, "client-id", "", "Identificador del cliente (claim client_id)")
	cmd.Flags().StringVar(&scope, "scope", jwt.ScopeVerify, "Scope: verification:sign o verification:verify")
	cmd.Flags().IntVar(&expiration, "expiration", 0, "Minutos de validez (por defecto JWT_EXPIRATION_MINUTES)")
	_ = cmd.MarkFlagRequired("client-id")
	return cmd
}
