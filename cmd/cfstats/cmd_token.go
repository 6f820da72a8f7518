package main

import (
	"fmt"

	"cfstats/internal/common/security"
	"cfstats/internal/domain/model"
	"cfstats/internal/platform/config"

	"github.com/spf13/cobra"
)

var tokenFlags struct {
	userID string
	role   string
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an API token signed with JWT_SECRET",
	RunE:  runToken,
}

func init() {
	f := tokenCmd.Flags()
	f.StringVar(&tokenFlags.userID, "user-id", "cli", "user_id claim")
	f.StringVar(&tokenFlags.role, "role", model.RoleAdmin, "role claim (admin or user)")
}

func runToken(cmd *cobra.Command, _ []string) error {
	if tokenFlags.role != model.RoleAdmin && tokenFlags.role != model.RoleUser {
		return fmt.Errorf("unknown role %q", tokenFlags.role)
	}
	config.Load()
	security.InitJWT(config.AppConfig.JWTKey, config.AppConfig.JWTExp)

	token, err := security.GenerateToken(tokenFlags.userID, tokenFlags.role)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
