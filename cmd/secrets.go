package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/jobtrack/internal/secrets"
)

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Store provider credentials in the OS keychain",
	Long:  "Accounts are looked up per user as <account>:<user-id>, then as <account> alone.",
}

var secretsSetCmd = &cobra.Command{
	Use:   "set <account>",
	Short: "Store a credential read from stdin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		account := args[0]
		if user, _ := cmd.Flags().GetString("user"); user != "" {
			account = secrets.UserAccount(account, user)
		}

		fmt.Fprintf(os.Stderr, "Enter secret for %s: ", account)
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return eris.Wrap(err, "read secret")
		}
		if err := secrets.Set(account, strings.TrimRight(line, "\r\n")); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "stored")
		return nil
	},
}

var secretsDeleteCmd = &cobra.Command{
	Use:   "delete <account>",
	Short: "Remove a stored credential",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		account := args[0]
		if user, _ := cmd.Flags().GetString("user"); user != "" {
			account = secrets.UserAccount(account, user)
		}
		return secrets.Delete(account)
	},
}

func init() {
	for _, c := range []*cobra.Command{secretsSetCmd, secretsDeleteCmd} {
		c.Flags().String("user", "", "scope the credential to one user")
		secretsCmd.AddCommand(c)
	}
	rootCmd.AddCommand(secretsCmd)
}
