package main

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"vkscraper/pkg/auth"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage VK access tokens",
	Long: `Manage stored VK access tokens securely.

Tokens are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - VKSCRAPER_ACCESS_TOKEN environment variable (read-only fallback)

Never share your tokens or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store a VK access token securely",
	Long: `Store a VK access token in the system keychain or encrypted file.

The token is read from the terminal without echo. Obtain one from
https://vk.com/dev or via an OAuth flow of your choice.`,
	Example: `  # Store the default token
  vkscraper auth login

  # Store a named token
  vkscraper auth login work`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [name]",
	Short: "Remove a stored access token",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts with masked tokens",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
}

func accountArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "default"
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize token manager: %w", err)
	}

	fmt.Print("VK access token: ")
	tokenBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}

	token := strings.TrimSpace(string(tokenBytes))
	if token == "" {
		return fmt.Errorf("empty token")
	}

	name := accountArg(args)
	if err := manager.Store(&auth.Account{Name: name, AccessToken: token}); err != nil {
		return err
	}

	fmt.Printf("Token stored for account %q\n", name)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize token manager: %w", err)
	}

	name := accountArg(args)
	if err := manager.Delete(name); err != nil {
		return err
	}

	fmt.Printf("Token removed for account %q\n", name)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize token manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		fmt.Println("No stored accounts.")
		return nil
	}

	w := os.Stdout
	for _, account := range accounts {
		masked := auth.Sanitize(account)
		fmt.Fprintf(w, "%-16s %s\n", masked.Name, masked.AccessToken)
	}
	return nil
}
