package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/0khacha/web-scraper/internal/config"
	"github.com/0khacha/web-scraper/internal/crawler"
	"github.com/0khacha/web-scraper/internal/export"
	"github.com/0khacha/web-scraper/internal/extract"
	"github.com/0khacha/web-scraper/internal/fetch"
	"github.com/0khacha/web-scraper/internal/log"
	"github.com/0khacha/web-scraper/internal/model"
	"github.com/0khacha/web-scraper/internal/pipeline"
	"github.com/0khacha/web-scraper/internal/state"
)

// NewScrapeCmd creates the scrape command.
func NewScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape [url...]",
		Short: "Scrape structured data from one or more URLs",
		Long: `Scrape extracts structured items from web pages.

A single URL is crawled with pagination when the site config defines it.
Multiple URLs are fetched concurrently, one page each.

Extraction uses configured CSS selectors when available, then automatic
list detection, then whole-page content extraction.

Examples:
  # Scrape with automatic extraction
  webscrape scrape https://example.com/products

  # Inline field selectors
  webscrape scrape --container "div.product" \
    --fields "title=h2 a,price=.price,link=h2 a" \
    https://example.com/products

  # Use a named config from .webscrape.yaml
  webscrape scrape --site books https://books.toscrape.com/

  # Paginate by incrementing a page number in the URL
  webscrape scrape --url-pattern 'page=(\d+)' --max-pages 10 \
    'https://example.com/list?page=1'

  # Export CSV and Markdown alongside JSON
  webscrape scrape --formats json,csv,markdown https://example.com

Configuration file (.webscrape.yaml) example:
  sites:
    books_toscrape:
      container: "article.product_pod"
      selectors:
        title: "h3 a"
        price: ".price_color"
      pagination:
        type: next_button
        max_pages: 5`,
		Args: cobra.ArbitraryArgs,
		RunE: runScrapeCmd,
	}

	// Extraction flags
	cmd.Flags().StringP("site", "s", "",
		"Named site config from the config file")
	cmd.Flags().String("container", "",
		"CSS selector for one repeating record (with --fields)")
	cmd.Flags().StringSliceP("fields", "f", nil,
		"Field selectors as name=selector pairs")

	// Pagination flags
	cmd.Flags().String("next-selector", "",
		"CSS selector for the next-page link")
	cmd.Flags().String("url-pattern", "",
		`Regex with one capture group over the page number, e.g. 'page=(\d+)'`)
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum pages to follow in a pagination chain")
	cmd.Flags().Int("max-items", 0,
		"Stop after this many items (0 = unlimited)")

	// Fetch behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Per-request timeout")
	cmd.Flags().IntP("retries", "r", config.DefaultRetries,
		"Retry attempts for network errors and 5xx responses")
	cmd.Flags().Duration("delay-min", config.DefaultDelayMin,
		"Minimum delay between requests")
	cmd.Flags().Duration("delay-max", config.DefaultDelayMax,
		"Maximum delay between requests")
	cmd.Flags().String("proxy", "",
		"Proxy URL for outbound requests")
	cmd.Flags().IntP("concurrency", "b", config.DefaultConcurrency,
		"Concurrent fetches for multi-URL scraping")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Site-config file path (default: .webscrape.yaml in current or home directory)")

	// Output flags
	cmd.Flags().StringSliceP("formats", "F", []string{"json"},
		"Export formats: json, csv, markdown")
	cmd.Flags().StringP("output", "o", "output",
		"Directory for export files")

	// State flags
	cmd.Flags().String("state-dir", "",
		"Directory for the state database (default: XDG data directory)")
	cmd.Flags().Bool("no-state", false,
		"Disable visit tracking and session recording")

	return cmd
}

// runScrapeCmd executes the scrape command.
func runScrapeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Graceful shutdown on interrupt: in-flight page finishes, the
	// session still gets closed.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runScrape(ctx, cmd, cfg, args, logger)
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}
	cfg.Retries, err = cmd.Flags().GetInt("retries")
	if err != nil {
		return nil, err
	}
	cfg.DelayMin, err = cmd.Flags().GetDuration("delay-min")
	if err != nil {
		return nil, err
	}
	cfg.DelayMax, err = cmd.Flags().GetDuration("delay-max")
	if err != nil {
		return nil, err
	}
	cfg.Proxy, err = cmd.Flags().GetString("proxy")
	if err != nil {
		return nil, err
	}
	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}
	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}
	cfg.Formats, err = cmd.Flags().GetStringSlice("formats")
	if err != nil {
		return nil, err
	}
	cfg.OutputDir, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}
	cfg.NoState, err = cmd.Flags().GetBool("no-state")
	if err != nil {
		return nil, err
	}

	stateDir, err := cmd.Flags().GetString("state-dir")
	if err != nil {
		return nil, err
	}
	if stateDir != "" {
		cfg.StateDir = stateDir
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicitly named config file that doesn't exist is an error;
	// an absent default file is not.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		cfg.Sites, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// resolveSiteConfig determines the extraction config for this run.
// Priority: inline flags > --site by name > domain match > none.
func resolveSiteConfig(cmd *cobra.Command, cfg *config.Config, firstURL string) (*config.SiteConfig, error) {
	container, err := cmd.Flags().GetString("container")
	if err != nil {
		return nil, err
	}
	fieldPairs, err := cmd.Flags().GetStringSlice("fields")
	if err != nil {
		return nil, err
	}
	nextSelector, err := cmd.Flags().GetString("next-selector")
	if err != nil {
		return nil, err
	}
	urlPattern, err := cmd.Flags().GetString("url-pattern")
	if err != nil {
		return nil, err
	}
	maxItems, err := cmd.Flags().GetInt("max-items")
	if err != nil {
		return nil, err
	}

	var site *config.SiteConfig

	siteName, err := cmd.Flags().GetString("site")
	if err != nil {
		return nil, err
	}
	if siteName != "" {
		site = cfg.Sites.ByName(siteName)
		if site == nil {
			return nil, fmt.Errorf("site config %q not found in config file", siteName)
		}
	} else if cfg.Sites != nil {
		site = cfg.Sites.ForURL(firstURL)
	}

	// Inline flags layer on top of whatever the file provided.
	if container != "" || len(fieldPairs) > 0 || nextSelector != "" || urlPattern != "" || maxItems > 0 {
		if site == nil {
			site = &config.SiteConfig{}
		}
		if container != "" {
			site.Container = container
		}
		if len(fieldPairs) > 0 {
			selectors, err := parseFieldPairs(fieldPairs)
			if err != nil {
				return nil, err
			}
			site.Selectors = selectors
		}
		if nextSelector != "" {
			site.Pagination = &config.PaginationConfig{
				Type:     config.PaginationNextButton,
				Selector: nextSelector,
			}
		}
		if urlPattern != "" {
			site.Pagination = &config.PaginationConfig{
				Type:    config.PaginationURLPattern,
				Pattern: urlPattern,
			}
		}
		if maxItems > 0 {
			site.MaxItems = maxItems
		}
	}

	return site, nil
}

// parseFieldPairs parses "name=selector" pairs into a selector map.
// "=" is the separator because CSS selectors themselves contain ":".
func parseFieldPairs(pairs []string) (map[string]string, error) {
	selectors := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, selector, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		selector = strings.TrimSpace(selector)
		if !ok || name == "" || selector == "" {
			return nil, fmt.Errorf("invalid field pair %q (expected name=selector)", pair)
		}
		selectors[name] = selector
	}
	return selectors, nil
}

// runScrape executes the scrape.
func runScrape(ctx context.Context, cmd *cobra.Command, cfg *config.Config, targets []string, logger *slog.Logger) error {
	if len(targets) == 0 {
		return fmt.Errorf("%w (specify one or more URLs as arguments)", config.ErrNoStartURL)
	}

	site, err := resolveSiteConfig(cmd, cfg, targets[0])
	if err != nil {
		return err
	}

	logger.Info("starting scrape",
		"targets", len(targets),
		"configured", site != nil,
		"concurrency", cfg.Concurrency,
		"state", !cfg.NoState,
	)

	// Open the state store unless disabled.
	var store *state.Store
	if !cfg.NoState {
		store, err = state.Open(cfg.StateDir, state.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open state store: %w", err)
		}
		defer store.Close()
		logger.Debug("state store opened", "path", store.Path())
	}

	// Assemble the crawl components.
	fetcher := fetch.NewHTTPFetcher(
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithRetries(cfg.Retries),
		fetch.WithDelayRange(cfg.DelayMin, cfg.DelayMax),
		fetch.WithProxy(cfg.Proxy),
	)

	engine := extract.NewEngine(extract.WithLogger(logger))

	var schemaJSON []byte
	if site != nil {
		schemaJSON, err = site.SchemaJSON()
		if err != nil {
			return fmt.Errorf("invalid schema in site config: %w", err)
		}
	}
	chain, err := pipeline.NewChain(schemaJSON, pipeline.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	opts := []crawler.ControllerOption{
		crawler.WithSiteConfig(site),
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithLogger(logger),
	}
	if store != nil {
		opts = append(opts, crawler.WithStore(store))
	}
	ctrl := crawler.NewController(fetcher, engine, chain, opts...)

	startTime := time.Now()

	var (
		items     []model.Item
		sessionID string
	)
	if len(targets) == 1 {
		res, err := ctrl.Run(ctx, targets[0])
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		items = res.Items
		sessionID = res.SessionID
		fmt.Printf("Scraped %d item(s) from %d page(s)", len(res.Items), res.PagesVisited)
		if res.PagesFailed > 0 {
			fmt.Printf(", %d failed", res.PagesFailed)
		}
		if res.PagesSkipped > 0 {
			fmt.Printf(", %d skipped (already visited)", res.PagesSkipped)
		}
		fmt.Printf(" in %s\n", time.Since(startTime).Round(time.Millisecond))
	} else {
		summary, err := ctrl.RunBatch(ctx, targets, cfg.Concurrency)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		items = summary.Items()
		sessionID = summary.SessionID
		fmt.Printf("Scraped %d item(s) from %d URL(s): %d ok, %d failed, %d skipped in %s\n",
			len(items), len(targets),
			summary.Succeeded(), summary.Failed(), summary.Skipped(),
			time.Since(startTime).Round(time.Millisecond))
	}

	if dropped := chain.TotalDropped(); dropped > 0 {
		logger.Info("pipeline dropped items", "dropped", dropped, "by_stage", chain.DropCounts())
	}

	// Export even when the context was cancelled: partial results are
	// still results.
	baseName := "results_" + startTime.Format("20060102_150405")
	paths, err := export.NewManager().Export(items, cfg.Formats, cfg.OutputDir, baseName)
	if err != nil {
		return err
	}
	for _, format := range cfg.Formats {
		fmt.Printf("  %-8s %s\n", format, paths[format])
	}

	if sessionID != "" {
		fmt.Printf("Session: %s\n", sessionID)
	}

	return nil
}
