package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"vkscraper/pkg/auth"
	"vkscraper/pkg/config"
	"vkscraper/pkg/errtable"
	"vkscraper/pkg/logger"
	"vkscraper/pkg/vkapi"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile  string
	logLevel    string
	accountName string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vkscraper",
	Short: "A VK API client with table-driven error handling and retries",
	Long: `vkscraper issues VK API calls through a retrying client that maps VK
error codes to break, retry or skip dispositions via a configurable error
table, with exponential backoff between retry attempts.

The access token is resolved from the configuration file, the
VKSCRAPER_ACCESS_TOKEN environment variable, or the secure token store
(see 'vkscraper auth login').`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .vkscraper.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "", "use a specific stored account token")

	rootCmd.SetVersionTemplate(`vkscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// setup loads configuration, initializes logging, resolves the access token
// and builds the API client.
func setup() (*vkapi.Client, logger.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	log := logger.GetLogger()

	if cfg.VK.AccessToken == "" {
		if manager, err := auth.NewManager(); err == nil {
			var account *auth.Account
			if accountName != "" {
				account, err = manager.Retrieve(accountName)
			} else {
				account, err = manager.RetrieveDefault()
			}
			if err == nil {
				cfg.VK.AccessToken = account.AccessToken
			}
		}
	}
	if cfg.VK.AccessToken == "" {
		return nil, nil, fmt.Errorf("no access token: set vk.access_token, VKSCRAPER_ACCESS_TOKEN, or run 'vkscraper auth login'")
	}

	table, err := errtable.Load(cfg.VK.ErrorTable)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load error table: %w", err)
	}
	log.InfoWithFields("error table loaded", map[string]interface{}{
		"path":  cfg.VK.ErrorTable,
		"rules": table.Len(),
	})

	client, err := vkapi.New(cfg, table, log)
	if err != nil {
		return nil, nil, err
	}
	return client, log, nil
}

// exitOnFatal terminates the process for error classes the policy table
// declares non-recoverable. This is the only place break, unclassified and
// response-shape faults turn into a process exit.
func exitOnFatal(log logger.Logger, err error) {
	if err != nil && vkapi.IsFatal(err) {
		log.FatalWithFields("unrecoverable error", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
