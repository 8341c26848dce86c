package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"delivery_costs_backend/pkg/utils"
)

var (
	tokenUserID   int64
	tokenUsername string
	tokenRole     string
	tokenTTL      time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API bearer token for a tenant",
	Long: `Sign an access token with JWT_SECRET. Users are provisioned outside this
service; operators use this command for integrations and support access.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTenant(); err != nil {
			return err
		}
		if cfg.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is not configured")
		}
		token, err := utils.GenerateAccessToken(tokenUserID, tenantID, tokenUsername, tokenRole, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().Int64Var(&tokenUserID, "user-id", 0, "user id recorded in the token")
	tokenCmd.Flags().StringVar(&tokenUsername, "username", "costctl", "username recorded in the token")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "Staff", "role (Admin or Staff)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
}
