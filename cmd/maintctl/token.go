package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ukydev/maintenance-tracker/internal/auth"
	"github.com/ukydev/maintenance-tracker/internal/config"
	"github.com/ukydev/maintenance-tracker/internal/models"
)

func newTokenCmd(opts *globalOptions) *cobra.Command {
	var (
		userID   string
		username string
		role     string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token",
		Long:  "Issue an API bearer token signed with JWT_SECRET.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.envFile)
			if err != nil {
				return err
			}
			if username == "" {
				username = userID
			}
			token, err := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry).
				GenerateToken(userID, username, models.Role(role))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "cli", "User id")
	cmd.Flags().StringVar(&username, "name", "", "Display name (defaults to the user id)")
	cmd.Flags().StringVar(&role, "role", string(models.RoleOwner), "Role: admin, owner or viewer")

	return cmd
}
