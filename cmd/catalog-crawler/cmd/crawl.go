package cmd

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/maltedev/catalog-crawler/internal/browser"
	"github.com/maltedev/catalog-crawler/internal/catalog"
	"github.com/maltedev/catalog-crawler/internal/crawler"
	"github.com/maltedev/catalog-crawler/internal/storage"
)

var (
	catalogPath string
	outputPath  string
	engine      string
)

func init() {
	crawlCmd.Flags().StringVar(&catalogPath, "catalog", "", "product name CSV (defaults to CRAWLER_CATALOG)")
	crawlCmd.Flags().StringVar(&outputPath, "output", "", "workbook to append to (defaults to STORAGE_WORKBOOK)")
	crawlCmd.Flags().StringVar(&engine, "engine", "", "browser engine: playwright, selenium or static")
	rootCmd.AddCommand(crawlCmd)
}

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawls every product in the catalog and appends the variant records.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if catalogPath != "" {
			cfg.Crawler.CatalogPath = catalogPath
		}
		if outputPath != "" {
			cfg.Storage.WorkbookPath = outputPath
		}
		if engine != "" {
			cfg.Browser.Engine = engine
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		products, err := catalog.Load(cfg.Crawler.CatalogPath)
		if err != nil {
			if products.Len() == 0 {
				return err
			}
			log.Warn("catalog partially loaded", "path", cfg.Crawler.CatalogPath, "entries", products.Len(), "error", err)
		}

		crawlCfg, err := crawlerConfig(cfg.Crawler)
		if err != nil {
			return err
		}
		open, err := newOpener(cfg.Browser)
		if err != nil {
			return err
		}

		sink, cleanup, err := openSinks(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		runID := uuid.New()
		ctx = storage.WithRunID(ctx, runID)
		log.Info("crawl starting", "run_id", runID, "engine", cfg.Browser.Engine, "entries", products.Len())

		report, err := crawler.RunSession(ctx, open, sink, crawlCfg, products,
			crawler.WithPacer(newPacer(cfg.Crawler)),
			crawler.WithLogger(log))
		if report != nil {
			report.Render(cmd.OutOrStdout())
		}

		switch {
		case err == nil:
			return nil
		case errors.Is(err, browser.ErrSessionUnavailable):
			return err
		default:
			log.Warn("crawl ended early", "run_id", runID, "error", err)
			return nil
		}
	},
}
