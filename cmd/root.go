package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/crf/internal/feedback"
	"github.com/joescharf/crf/internal/gateway"
	"github.com/joescharf/crf/internal/output"
	"github.com/joescharf/crf/internal/service"
	"github.com/joescharf/crf/internal/store"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui        *output.UI
	logger    *slog.Logger
	dataStore store.Store
	svc       *service.Service

	verbose bool
	dryRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "crf",
	Short: "Code review feedback - triage machine-generated review suggestions",
	Long: `crf loads code-review suggestions from a review backend and records
your accept / reject / edit decision on each one. Decisions feed the
backend's acceptance statistics.

Start with 'crf review --diff changes.patch' or 'crf review --github <pr-url>'.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return rootRun(cmd)
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (debug logging)")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without contacting the backend")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/crf/config.yaml)")
}

func initConfig() {
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}
		viper.AddConfigPath(filepath.Join(home, ".config", "crf"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("CRF")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	setDefaults()

	_ = viper.ReadInConfig()
}

// setDefaults registers every config key's default value.
func setDefaults() {
	home, _ := os.UserHomeDir()
	stateDir := filepath.Join(home, ".config", "crf")

	viper.SetDefault("state_dir", stateDir)
	viper.SetDefault("db_path", filepath.Join(stateDir, "crf.db"))
	viper.SetDefault("backend.url", "http://localhost:8000/api")
	viper.SetDefault("backend.timeout", "30s")
	viper.SetDefault("backend.fetch_attempts", 3)
	viper.SetDefault("history.limit", service.DefaultHistoryLimit)
	viper.SetDefault("display.highlight", true)
	viper.SetDefault("display.style", output.DefaultStyle)
	viper.SetDefault("serve.port", 8080)
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun
	ui.Highlight = viper.GetBool("display.highlight")
	ui.Style = viper.GetString("display.style")

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Store and backend client are opened lazily so config/version work
	// without a database.
}

// rootRun handles `crf` with no subcommand: show the current review if any.
func rootRun(cmd *cobra.Command) error {
	s, err := getService()
	if err != nil {
		return cmd.Help()
	}
	r, err := s.Current(cmdContext(cmd))
	if errors.Is(err, feedback.ErrNoReview) {
		return cmd.Help()
	}
	if err != nil {
		return err
	}
	ui.Review(r, output.SuggestionFilter{})
	return nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// getStore returns the shared store, initializing it on first call.
func getStore() (store.Store, error) {
	if dataStore != nil {
		return dataStore, nil
	}

	s, err := store.NewSQLiteStore(viper.GetString("db_path"))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := s.Migrate(context.Background()); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	dataStore = s
	return dataStore, nil
}

// backendClient builds the backend gateway from config.
func backendClient() *gateway.HTTPClient {
	return gateway.New(gateway.Config{
		BaseURL:       viper.GetString("backend.url"),
		Timeout:       viper.GetDuration("backend.timeout"),
		FetchAttempts: viper.GetInt("backend.fetch_attempts"),
	}, logger)
}

// getService returns the shared service, initializing it on first call.
func getService() (*service.Service, error) {
	if svc != nil {
		return svc, nil
	}
	s, err := getStore()
	if err != nil {
		return nil, err
	}
	svc = service.New(backendClient(), s, service.Options{
		HistoryLimit: viper.GetInt("history.limit"),
		Logger:       logger,
	})
	return svc, nil
}
