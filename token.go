package main

import (
	"errors"
	"fmt"
	"stock-dashboard-backend/config"
	"stock-dashboard-backend/middleware"
	"time"

	"github.com/spf13/cobra"
)

var (
	generateSecret bool
	tokenSubject   string
	tokenTTL       time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Generate a JWT secret or sign a service token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if generateSecret {
			secret, err := middleware.GenerateSecret()
			if err != nil {
				return fmt.Errorf("failed to generate secret: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), secret)
			return nil
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cfg.JWT.SecretKey == "" {
			return errors.New("jwt.secret_key (or JWT_SECRET_KEY) is not set")
		}

		token, err := middleware.GenerateToken(cfg.JWT.SecretKey, tokenSubject, tokenTTL)
		if err != nil {
			return fmt.Errorf("failed to sign token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().BoolVar(&generateSecret, "generate-secret", false, "print a new random JWT secret and exit")
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "dashboard-frontend", "token subject (caller name)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", middleware.DefaultTokenTTL, "token lifetime")
}
