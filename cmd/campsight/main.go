package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"campsight/internal/app"
	"campsight/internal/config"
	"campsight/internal/insights"
)

var (
	cfgFile   string
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	// Local development convenience; missing .env is fine
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "campsight",
	Short: "Campsight - email campaign insight service",
	Long:  `Campsight searches past email campaigns by keyword and enriches matches with performance metrics and recurring themes.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run one keyword search and print the report as JSON",
	RunE:  runSearch,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	RunE:  runConfigValidate,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("campsight version %s\n", version)
		if commit != "unknown" {
			fmt.Printf("  commit: %s\n", commit)
		}
		if buildTime != "unknown" {
			fmt.Printf("  built:  %s\n", buildTime)
		}
	},
}

var (
	searchKeyword string
	searchDays    int
	searchLimit   int
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")

	searchCmd.Flags().StringVarP(&searchKeyword, "keyword", "k", "", "keyword to search for (required)")
	searchCmd.Flags().IntVar(&searchDays, "days", 0, "metrics day window (default from config)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "maximum enriched campaigns (default from config)")
	searchCmd.MarkFlagRequired("keyword")

	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(serveCmd, searchCmd, configCmd, versionCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	application, err := app.New(cfg, version)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	return application.Run(context.Background())
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := app.SetupLogger(cfg.Logging)
	pipeline := app.NewPipeline(cfg, logger, nil)

	report, err := pipeline.Search(cmd.Context(), insights.Request{
		Keyword: searchKeyword,
		Days:    searchDays,
		Limit:   searchLimit,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	fmt.Println(string(out))

	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if cfgFile == "" {
		return fmt.Errorf("config file is required (use -c flag)")
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}

	fmt.Printf("Configuration is valid\n")
	fmt.Printf("  Hostname: %s\n", cfg.Server.Hostname)
	fmt.Printf("  API: %s\n", cfg.API.ListenAddr)
	fmt.Printf("  Upstream: %s\n", cfg.Upstream.BaseURL)
	fmt.Printf("  History: enabled=%v path=%s\n", cfg.History.Enabled, cfg.History.Path)

	return nil
}
