package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"commentintel/internal/app"
	"commentintel/internal/config"
)

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "commentintel",
		Short:         "Harvest and classify community comments for competitive intelligence",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config (default: $COMMENTINTEL_CONFIG)")

	buildApp := func() (*app.App, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		return app.New(cfg, nil), nil
	}

	root.AddCommand(newScrapeCommand(buildApp))
	root.AddCommand(newAnalyzeCommand(buildApp))
	root.AddCommand(newRunCommand(buildApp))
	return root
}

func newScrapeCommand(buildApp func() (*app.App, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Ingest new comments into the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			stats, err := a.Scrape(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, renderScrapeSummary(stats))
			return nil
		},
	}
}

func newAnalyzeCommand(buildApp func() (*app.App, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Triage the ledger, classify candidates, and write the analyst table",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			report, err := a.Analyze(cmd.Context(), batchProgress())
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, renderAnalyzeSummary(report))
			return nil
		},
	}
}

func newRunCommand(buildApp func() (*app.App, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Scrape and analyze in one pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			scrapeStats, err := a.Scrape(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, renderScrapeSummary(scrapeStats))

			report, err := a.Analyze(cmd.Context(), batchProgress())
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, renderAnalyzeSummary(report))
			return nil
		},
	}
}
