package commands

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/auctionscope/auctionscope/internal/analysis"
	"github.com/auctionscope/auctionscope/internal/browser"
	"github.com/auctionscope/auctionscope/internal/document"
	"github.com/auctionscope/auctionscope/internal/llm"
	"github.com/auctionscope/auctionscope/internal/logger"
	"github.com/auctionscope/auctionscope/internal/output"
	"github.com/auctionscope/auctionscope/internal/pipeline"
	"github.com/auctionscope/auctionscope/internal/query"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch, enrich, and classify auction listings",
	Long: `Run one extraction pass against the auction listing site.

Dates are given as YYYY-MM-DD. The --*-param flags take opaque filter
fragments copied from the site's own filter widgets (a leading "&" is
tolerated); the --region, --municipality, and --property-type flags are
display names echoed back on every record.

Examples:
  # First page of today's auctions
  auctionscope run

  # Every page of a date window, grouped by classification tag
  auctionscope run --conduct-from 2025-06-01 --conduct-to 2025-06-30 \
      --all-pages --group-by-tag

  # Skip the politeness delays against a local test server
  auctionscope run --bypass-pacing`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()

	// Query filters
	flags.Int("page", 1, "listing page to fetch")
	flags.Bool("all-pages", false, "fetch every listing page, starting from --page")
	flags.String("conduct-from", "", "earliest auction date, YYYY-MM-DD (default: today)")
	flags.String("conduct-to", "", "latest auction date, YYYY-MM-DD")
	flags.String("post-from", "", "earliest posting date, YYYY-MM-DD")
	flags.String("post-to", "", "latest posting date, YYYY-MM-DD")
	flags.String("sort", "", "ordering: auctionDateAsc, auctionDateDesc, priceAsc, priceDesc")
	flags.String("property-param", "", "property-type filter fragment from the site")
	flags.String("region-param", "", "region filter fragment from the site")
	flags.String("municipality-param", "", "municipality filter fragment from the site")
	flags.String("region", "", "display name of the selected region")
	flags.String("municipality", "", "display name of the selected municipality")
	flags.String("property-type", "", "display name of the selected property type")

	// Analysis settings
	flags.StringP("provider", "p", "", "analysis provider: anthropic, openai (auto-detects from env vars)")
	flags.StringP("model", "m", "", "model name (provider-specific)")
	flags.StringP("api-key", "k", "", "API key (or use env var)")
	flags.String("base-url", "", "custom API base URL")
	flags.String("max-document-text", "14KB", "max document text sent for analysis (e.g., 14KB, 1MB)")

	// Browser settings
	flags.Bool("headless", true, "run the browser headless")
	flags.Duration("nav-timeout", 60*time.Second, "page navigation budget")
	flags.String("user-agent", "", "override the rotating user agent")

	// Pacing
	flags.Bool("bypass-pacing", false, "skip politeness delays between requests")

	// Output settings
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.String("format", "json", "output format: json, jsonl, yaml")
	flags.Bool("group-by-tag", false, "bucket records by primary tag instead of a flat list")

	_ = viper.BindPFlag("provider", flags.Lookup("provider"))
	_ = viper.BindPFlag("model", flags.Lookup("model"))
	_ = viper.BindPFlag("api_key", flags.Lookup("api-key"))
	_ = viper.BindPFlag("base_url", flags.Lookup("base-url"))
}

func runRun(cmd *cobra.Command, args []string) error {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	filters, err := buildFilters(cmd)
	if err != nil {
		return err
	}
	if err := filters.Validate(); err != nil {
		logger.Error("invalid filters", "error", err)
		return err
	}

	analyzer, err := buildAnalyzer(cmd)
	if err != nil {
		return err
	}

	headless, _ := cmd.Flags().GetBool("headless")
	navTimeout, _ := cmd.Flags().GetDuration("nav-timeout")
	userAgent, _ := cmd.Flags().GetString("user-agent")

	session := browser.NewSession(browser.Config{
		UserAgent:  userAgent,
		NavTimeout: navTimeout,
		Headless:   headless,
	})
	defer func() { _ = session.Close() }()

	bypassPacing, _ := cmd.Flags().GetBool("bypass-pacing")
	p := pipeline.New(session, document.NewDownloader(), analyzer, pipeline.Config{
		Pacing: pipeline.PacingPolicy{Bypass: bypassPacing},
	})

	writer, cleanup, err := buildWriter(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	defer func() { _ = writer.Close() }()

	allPages, _ := cmd.Flags().GetBool("all-pages")

	page := filters.Page
	records, failures := 0, 0
	for {
		filters.Page = page
		batch, err := p.Run(ctx, filters)
		if err != nil {
			logger.Error("run failed", "page", page, "error", err)
			return err
		}

		if err := writer.WriteBatch(batch); err != nil {
			logger.Error("failed to write output", "error", err)
			return err
		}

		if batch.Error != "" {
			logger.Warn("batch error", "page", page, "error", batch.Error)
			break
		}
		for _, item := range batch.Items {
			if item.Err != nil {
				failures++
			} else {
				records++
			}
		}

		if !allPages || page >= batch.TotalPages {
			break
		}
		page++
	}

	if err := writer.Close(); err != nil {
		logger.Error("failed to flush output", "error", err)
		return err
	}

	logger.Info("run complete", "records", records, "failures", failures)
	return nil
}

// buildFilters assembles the filter set from the command flags.
func buildFilters(cmd *cobra.Command) (query.FilterSet, error) {
	flags := cmd.Flags()

	page, _ := flags.GetInt("page")
	conductFrom, _ := flags.GetString("conduct-from")
	conductTo, _ := flags.GetString("conduct-to")
	postFrom, _ := flags.GetString("post-from")
	postTo, _ := flags.GetString("post-to")
	sort, _ := flags.GetString("sort")
	propertyParam, _ := flags.GetString("property-param")
	regionParam, _ := flags.GetString("region-param")
	municipalityParam, _ := flags.GetString("municipality-param")
	region, _ := flags.GetString("region")
	municipality, _ := flags.GetString("municipality")
	propertyType, _ := flags.GetString("property-type")

	return query.FilterSet{
		ConductFrom:          conductFrom,
		ConductTo:            conductTo,
		PostingFrom:          postFrom,
		PostingTo:            postTo,
		SortBy:               query.SortKey(sort),
		Page:                 page,
		PropertyParam:        propertyParam,
		RegionParam:          regionParam,
		MunicipalityParam:    municipalityParam,
		SelectedRegion:       region,
		SelectedMunicipality: municipality,
		SelectedPropertyType: propertyType,
	}, nil
}

// buildAnalyzer wires the analysis provider; a missing API key is not an
// error, the run just carries default facts on every record.
func buildAnalyzer(cmd *cobra.Command) (*analysis.Analyzer, error) {
	providerName := viper.GetString("provider")
	apiKey := viper.GetString("api_key")

	if providerName == "" {
		detected, detectedKey := llm.DetectProvider()
		if detected == "" {
			logger.Warn("no analysis API key found, records will carry default facts")
			return nil, nil
		}
		providerName = detected
		if apiKey == "" {
			apiKey = detectedKey
		}
	}

	cfg := llm.DefaultProviderConfig()
	cfg.APIKey = apiKey
	cfg.Model = viper.GetString("model")
	cfg.BaseURL = viper.GetString("base_url")

	provider, err := llm.NewProvider(providerName, cfg)
	if err != nil {
		logger.Error("failed to create analysis provider", "provider", providerName, "error", err)
		return nil, err
	}

	analysisCfg := analysis.DefaultConfig()
	maxTextStr, _ := cmd.Flags().GetString("max-document-text")
	if strings.TrimSpace(maxTextStr) != "" && maxTextStr != "0" {
		maxBytes, err := humanize.ParseBytes(maxTextStr)
		if err != nil {
			logger.Error("invalid max-document-text", "value", maxTextStr, "error", err)
			return nil, err
		}
		analysisCfg.MaxInputBytes = int(maxBytes)
	}

	logger.Info("document analysis enabled", "provider", providerName)
	return analysis.New(provider, analysisCfg), nil
}

// buildWriter creates the output writer and a cleanup for the
// destination file.
func buildWriter(cmd *cobra.Command) (output.Writer, func(), error) {
	outFile := os.Stdout
	cleanup := func() {}
	if outPath, _ := cmd.Flags().GetString("output"); outPath != "" {
		f, err := os.Create(outPath) //#nosec G304 -- CLI tool writes to user-specified output file
		if err != nil {
			logger.Error("failed to create output file", "path", outPath, "error", err)
			return nil, nil, err
		}
		outFile = f
		cleanup = func() { _ = f.Close() }
	}

	formatStr, _ := cmd.Flags().GetString("format")
	groupByTag, _ := cmd.Flags().GetBool("group-by-tag")
	writer, err := output.NewWriter(outFile, output.Format(formatStr), output.WithGroupByTag(groupByTag))
	if err != nil {
		cleanup()
		logger.Error("failed to create output writer", "format", formatStr, "error", err)
		return nil, nil, err
	}
	return writer, cleanup, nil
}
