package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/axio-hub/axio-go/internal/client"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage your account",
}

var accountDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Permanently delete your account and all data",
	Args:  cobra.NoArgs,
	RunE:  runAccountDelete,
}

var accountPrefCmd = &cobra.Command{
	Use:   "pref <setting>",
	Short: "Toggle a notification setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountPref,
}

func init() {
	accountCmd.AddCommand(accountDeleteCmd)
	accountCmd.AddCommand(accountPrefCmd)
	rootCmd.AddCommand(accountCmd)
}

func runAccountDelete(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}

	fmt.Println("This permanently deletes your account, all documents, and all jobs.")
	fmt.Printf("Type %s to confirm: ", client.DeleteConfirmation)

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read confirmation: %w", err)
	}
	typed := strings.TrimSpace(line)

	if typed != client.DeleteConfirmation {
		fmt.Println("Confirmation did not match, aborting")
		return nil
	}

	ctx := context.Background()
	if err := shell.Client.DeleteAccount(ctx, typed); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	if err := shell.SignOut(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	fmt.Println("Account deleted")
	return nil
}

func runAccountPref(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	ctx := context.Background()

	key := args[0]
	if err := shell.Prefs.Toggle(ctx, key); err != nil {
		return fmt.Errorf("toggle %s: %w", key, err)
	}

	state := "off"
	if shell.Prefs.Enabled(key) {
		state = "on"
	}
	fmt.Printf("%s is now %s\n", key, state)
	return nil
}
