// Package commands implements the pvwizard operator CLI.
package commands

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pritechvior/project-wizard/internal/backend"
	"github.com/pritechvior/project-wizard/internal/catalog"
	"github.com/pritechvior/project-wizard/internal/pricing"
)

var (
	backendURL  string
	serverURL   string
	apiKey      string
	pricingFile string
	timeout     time.Duration
	verbose     bool
)

// Execute runs the root command
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "pvwizard",
		Short:        "Operator tools for the PritechVior project wizard",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&backendURL, "backend", envOr("PRITECH_API_BASE_URL", "http://localhost:8000"), "PritechVior backend base URL")
	root.PersistentFlags().StringVar(&serverURL, "server", envOr("WIZARD_SERVER_URL", "http://localhost:8080"), "wizard server base URL")
	root.PersistentFlags().StringVar(&apiKey, "api-key", os.Getenv("WIZARD_API_KEY"), "admin API key for the wizard server")
	root.PersistentFlags().StringVar(&pricingFile, "pricing", os.Getenv("PRICING_FILE"), "price table override (YAML)")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 15*time.Second, "request timeout")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(estimateCmd(), catalogCmd(), submissionsCmd())
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newEstimator() (*pricing.Estimator, error) {
	if pricingFile == "" {
		return pricing.NewEstimator(nil), nil
	}
	tables, err := pricing.LoadFile(pricingFile)
	if err != nil {
		return nil, err
	}
	return pricing.NewEstimator(tables), nil
}

func newLoader(est *pricing.Estimator) *catalog.Loader {
	client := backend.NewClient(backendURL, backend.WithTimeout(timeout))
	return catalog.NewLoader(client, catalog.Config{Hardware: est.Tables().Hardware})
}
