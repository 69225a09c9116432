package main

import (
	"fmt"

	"github.com/nikolayk812/shopflow/internal/auth"
	"github.com/nikolayk812/shopflow/internal/config"
	"github.com/spf13/cobra"
)

// tokenCmd issues bearer tokens for local testing and operator scripts.
func tokenCmd() *cobra.Command {
	var (
		username string
		role     string
	)

	cmd := &cobra.Command{
		Use:   "token [user-id]",
		Short: "Issue a signed bearer token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("config.Load: %w", err)
			}

			parsed, ok := auth.ParseRole(role)
			if !ok {
				return fmt.Errorf("unknown role %q", role)
			}

			tokens, err := auth.NewTokenManager(cfg.Auth.SigningKey, auth.WithTTL(cfg.Auth.TokenTTL))
			if err != nil {
				return fmt.Errorf("auth.NewTokenManager: %w", err)
			}

			if username == "" {
				username = args[0]
			}

			token, err := tokens.Issue(args[0], username, parsed)
			if err != nil {
				return fmt.Errorf("tokens.Issue: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "display name carried in the token (defaults to the user id)")
	cmd.Flags().StringVar(&role, "role", string(auth.RoleUser), "USER or ADMIN")

	return cmd
}
