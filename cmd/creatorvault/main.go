package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"creatorvault/internal/app"
	"creatorvault/internal/config"
	"creatorvault/internal/model"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies CREATORVAULT_* overrides.
func loadConfig() (*config.Config, string, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, "", fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, "", fmt.Errorf("reading config: %w", err)
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, "", fmt.Errorf("reading environment overrides: %w", err)
	}
	return cfg, defaults["config_path"], nil
}

// newApp reads the config and creates an App. The caller must defer a.Close().
// operation identifies the CLI command being run (e.g. "Purchase", "Serve").
func newApp(cmd *cobra.Command, operation string) (*app.App, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	a, err := app.New(cmd.Context(), cfg, operation, app.Options{Console: os.Stderr, Verbose: verbose})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// actingIdentity resolves --as/--name against the configured fallback.
func actingIdentity(cmd *cobra.Command, a *app.App) (model.Identity, error) {
	address, _ := cmd.Flags().GetString("as")
	name, _ := cmd.Flags().GetString("name")
	return a.Identity(address, name)
}

// readPassphrase returns CREATORVAULT_PASSPHRASE or prompts on the terminal.
func readPassphrase(prompt string, confirm bool) (string, error) {
	if p, ok := os.LookupEnv(app.PassphraseEnv); ok {
		return p, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no terminal for passphrase prompt; set %s", app.PassphraseEnv)
	}

	fmt.Fprint(os.Stderr, prompt)
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	if !confirm {
		return string(first), nil
	}

	fmt.Fprint(os.Stderr, "Confirm passphrase: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	if string(first) != string(second) {
		return "", errors.New("passphrases do not match")
	}
	return string(first), nil
}

func shortHash(s string) string {
	if len(s) > 12 {
		return s[:12]
	}
	return s
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

var rootCmd = &cobra.Command{
	Use:           "creatorvault",
	Short:         "Creator content, payments and earnings",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().String("as", "", "Wallet address to act as (default: auth.fallback_address)")
	rootCmd.PersistentFlags().String("name", "", "Display name for --as")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug output")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(contentCmd)
	rootCmd.AddCommand(purchaseCmd)
	rootCmd.AddCommand(tipCmd)
	rootCmd.AddCommand(earningsCmd)
	rootCmd.AddCommand(mediaCmd)
	rootCmd.AddCommand(legacyCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(serveCmd)
}
