package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/axio-hub/axio-go/internal/app"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with a backend-issued token",
	Long: `Sign in to Axio Hub. Complete the OAuth flow in your browser, copy the
issued token, and paste it here. The token is stored in your user config
directory and attached to every request until you log out.`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear cached state",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := shell.SignOut(); err != nil {
			return fmt.Errorf("sign out: %w", err)
		}
		fmt.Println("Signed out.")
		return nil
	},
}

func init() {
	loginCmd.Flags().String("user", "", "user id the token belongs to")
	loginCmd.Flags().String("email", "", "account email (display only)")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	// Auth flows need the OAuth app configuration; fail fast and visibly.
	if err := shell.Config.RequireOAuth(); err != nil {
		return err
	}

	fmt.Printf("Open the sign-in page for OAuth client %s and complete the flow.\n",
		shell.Config.OAuthClientID)

	token, err := readToken()
	if err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("empty token")
	}

	userID, _ := cmd.Flags().GetString("user")
	email, _ := cmd.Flags().GetString("email")

	if err := shell.SignIn(app.Session{Token: token, UserID: userID, Email: email}); err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	fmt.Println("Signed in.")
	return nil
}

// readToken prompts without echo on a terminal, and falls back to a plain
// line read when stdin is piped.
func readToken() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Print("Token: ")
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("read token: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}

	var line string
	if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(line), nil
}
