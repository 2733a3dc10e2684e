package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/accumate/docfilter/internal/core/auth"
	"github.com/accumate/docfilter/internal/core/config"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage API keys",
}

var keysCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Issue an API key (printed once)",
	Args:  cobra.NoArgs,
	RunE:  runKeysCreate,
}

var keysRevokeCmd = &cobra.Command{
	Use:   "revoke <api-key-id>",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysRevoke,
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List issued API keys",
	Args:  cobra.NoArgs,
	RunE:  runKeysList,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysCreateCmd, keysRevokeCmd, keysListCmd)
	keysCreateCmd.Flags().String("client", "", "client ID the key authenticates as")
	keysCreateCmd.Flags().String("name", "", "human-readable key label")
	_ = keysCreateCmd.MarkFlagRequired("client")
}

// withAuthenticator opens the store and runs fn with an authenticator over
// the configured HMAC secrets.
func withAuthenticator(cmd *cobra.Command, fn func(*auth.Authenticator) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	database, queries, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer database.Close()
	return fn(auth.NewAuthenticator(secrets, queries, logger))
}

func runKeysCreate(cmd *cobra.Command, args []string) error {
	client, _ := cmd.Flags().GetString("client")
	name, _ := cmd.Flags().GetString("name")

	return withAuthenticator(cmd, func(a *auth.Authenticator) error {
		key, rec, err := a.IssueKey(cmd.Context(), client, name)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "api_key_id: %s\n", rec.APIKeyID)
		fmt.Fprintf(out, "client_id:  %s\n", rec.ClientID)
		fmt.Fprintf(out, "api_key:    %s\n", key)
		return nil
	})
}

func runKeysRevoke(cmd *cobra.Command, args []string) error {
	return withAuthenticator(cmd, func(a *auth.Authenticator) error {
		if err := a.RevokeKey(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "revoked %s\n", args[0])
		return nil
	})
}

func runKeysList(cmd *cobra.Command, args []string) error {
	return withAuthenticator(cmd, func(a *auth.Authenticator) error {
		keys, err := a.ListKeys(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "API KEY ID\tCLIENT\tNAME\tCREATED\tLAST USED\tSTATUS")
		for _, k := range keys {
			lastUsed := "-"
			if k.LastUsedAt.Valid {
				lastUsed = k.LastUsedAt.Time.Format(time.RFC3339)
			}
			state := "active"
			if k.Revoked() {
				state = "revoked"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				k.APIKeyID, k.ClientID, k.Name, k.CreatedAt.Format(time.RFC3339), lastUsed, state)
		}
		return w.Flush()
	})
}
