// Package pipeline orchestrates one listing-page run: render the listing,
// extract its items, and enrich each item with its auction document,
// analyzed facts, and classification labels. Enrichment is best-effort
// per item; one broken item never sinks the batch.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/auctionscope/auctionscope/internal/analysis"
	"github.com/auctionscope/auctionscope/internal/browser"
	"github.com/auctionscope/auctionscope/internal/classify"
	"github.com/auctionscope/auctionscope/internal/document"
	"github.com/auctionscope/auctionscope/internal/listing"
	"github.com/auctionscope/auctionscope/internal/logger"
	"github.com/auctionscope/auctionscope/internal/numeric"
	"github.com/auctionscope/auctionscope/internal/query"
)

// Renderer renders a page to HTML. *browser.Session satisfies it.
type Renderer interface {
	Render(ctx context.Context, url string, opts browser.RenderOptions) (browser.PageContent, error)
}

// Fetcher downloads raw document bytes. *document.Downloader satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FilterContext echoes the display names of the active filters on every
// record, so downstream consumers can tell which query produced it.
type FilterContext struct {
	Region       string `json:"region,omitempty" yaml:"region,omitempty"`
	Municipality string `json:"municipality,omitempty" yaml:"municipality,omitempty"`
	PropertyType string `json:"property_type,omitempty" yaml:"property_type,omitempty"`
}

// Record is one fully enriched auction listing.
type Record struct {
	Code         string `json:"code" yaml:"code"`
	PartLabel    string `json:"part_number" yaml:"part_number"`
	PostDate     string `json:"post_date" yaml:"post_date"`
	Status       string `json:"status" yaml:"status"`
	Price        string `json:"price" yaml:"price"`
	ConductDate  string `json:"date" yaml:"date"`
	Debtor       string `json:"debtor" yaml:"debtor"`
	Kind         string `json:"kind" yaml:"kind"`
	Region       string `json:"region" yaml:"region"`
	Municipality string `json:"municipality" yaml:"municipality"`
	DetailURL    string `json:"detail_link" yaml:"detail_link"`

	// DocumentURL is the selected auction document, "N/A" when none was
	// discovered; AllDocumentURLs keeps every candidate in discovery order.
	DocumentURL     string   `json:"document_url" yaml:"document_url"`
	AllDocumentURLs []string `json:"all_document_links" yaml:"all_document_links"`

	analysis.Facts `yaml:",inline"`

	Labels        []string      `json:"labels" yaml:"labels"`
	PrimaryTag    string        `json:"primary_tag" yaml:"primary_tag"`
	FilterContext FilterContext `json:"filter_context" yaml:"filter_context"`
}

// ItemResult is either an enriched Record or a per-item failure. It
// serializes as the record itself, or as {"error": "..."} on failure.
type ItemResult struct {
	Record *Record
	Err    error
}

func (r ItemResult) MarshalJSON() ([]byte, error) {
	if r.Err != nil {
		return json.Marshal(map[string]string{"error": r.Err.Error()})
	}
	return json.Marshal(r.Record)
}

func (r ItemResult) MarshalYAML() (any, error) {
	if r.Err != nil {
		return map[string]string{"error": r.Err.Error()}, nil
	}
	return r.Record, nil
}

// Batch is the outcome of one listing-page run. A batch-level Error (for
// example an out-of-range page) comes with preserved totals and no items.
type Batch struct {
	Page         int          `json:"page" yaml:"page"`
	TotalResults int          `json:"total_results" yaml:"total_results"`
	TotalPages   int          `json:"total_pages" yaml:"total_pages"`
	Items        []ItemResult `json:"items" yaml:"items"`
	Error        string       `json:"error,omitempty" yaml:"error,omitempty"`
}

// Config holds pipeline settings.
type Config struct {
	// BaseURL anchors relative links found on rendered pages.
	BaseURL string
	Pacing  PacingPolicy
	// Now supplies the clock; nil means time.Now.
	Now func() time.Time
}

// Pipeline runs listing extraction and per-item enrichment.
type Pipeline struct {
	renderer Renderer
	fetcher  Fetcher
	analyzer *analysis.Analyzer
	cfg      Config
}

// New creates a Pipeline. analyzer may be nil, in which case every record
// carries default facts and classification runs on listing data alone.
func New(renderer Renderer, fetcher Fetcher, analyzer *analysis.Analyzer, cfg Config) *Pipeline {
	if cfg.BaseURL == "" {
		cfg.BaseURL = query.BaseURL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Pipeline{
		renderer: renderer,
		fetcher:  fetcher,
		analyzer: analyzer,
		cfg:      cfg,
	}
}

// Run executes one listing-page run for the filter set. Cancellation
// between items returns the batch accumulated so far alongside the
// context error.
func (p *Pipeline) Run(ctx context.Context, filters query.FilterSet) (Batch, error) {
	if err := filters.Validate(); err != nil {
		return Batch{}, err
	}

	pageURL := query.Build(filters, p.cfg.Now())
	logger.Info("fetching listing page", "page", filters.Page, "url", pageURL)

	content, err := p.renderer.Render(ctx, pageURL, browser.RenderOptions{
		WaitSelector: listing.ResultsCountSelector,
	})
	if err != nil {
		return Batch{}, fmt.Errorf("listing page render failed: %w", err)
	}

	result, err := listing.Extract(content.HTML, filters.Page, p.cfg.BaseURL)
	batch := Batch{
		Page:         filters.Page,
		TotalResults: result.TotalResults,
		TotalPages:   result.TotalPages,
		Items:        []ItemResult{},
	}
	if err != nil {
		if errors.Is(err, listing.ErrPageOutOfRange) {
			batch.Error = err.Error()
			return batch, nil
		}
		return Batch{}, err
	}

	fc := FilterContext{
		Region:       filters.SelectedRegion,
		Municipality: filters.SelectedMunicipality,
		PropertyType: filters.SelectedPropertyType,
	}

	for i, item := range result.Items {
		if i > 0 {
			if err := p.cfg.Pacing.Sleep(ctx, DelayBetweenItems); err != nil {
				return batch, err
			}
		}
		if ctx.Err() != nil {
			return batch, ctx.Err()
		}

		logger.Info("processing listing item",
			"item", i+1,
			"of", len(result.Items),
			"code", item.Code)
		batch.Items = append(batch.Items, p.processItem(ctx, item, fc))
	}

	for _, itemErr := range result.ItemErrors {
		batch.Items = append(batch.Items, ItemResult{Err: itemErr})
	}

	logger.Info("listing page done",
		"page", batch.Page,
		"records", len(result.Items),
		"failures", len(result.ItemErrors))
	return batch, nil
}

// processItem enriches one listing item: detail page, document text,
// analysis, price-per-area derivation, and classification. Every step
// after the listing fields is best-effort.
func (p *Pipeline) processItem(ctx context.Context, item listing.Item, fc FilterContext) ItemResult {
	rec := &Record{
		Code:            item.Code,
		PartLabel:       item.PartLabel,
		PostDate:        item.PostDate,
		Status:          item.Status,
		Price:           item.Price,
		ConductDate:     item.ConductDate,
		Debtor:          item.Debtor,
		Kind:            item.Kind,
		Region:          item.Region,
		Municipality:    item.Municipality,
		DetailURL:       item.DetailURL,
		DocumentURL:     listing.Unknown,
		AllDocumentURLs: []string{},
		Facts:           analysis.Defaults(),
		Labels:          []string{},
		PrimaryTag:      classify.TagUnknown,
		FilterContext:   fc,
	}

	text := p.enrichDocument(ctx, item, rec)

	if text != "" && p.analyzer != nil {
		p.cfg.Pacing.Sleep(ctx, DelayBeforeAnalysis)
		rec.Facts = p.analyzer.Analyze(ctx, text)
	}

	sig := classify.Signals{
		PropertyArea: rec.Facts.PropertyArea,
		ConductDate:  item.ConductDate,
		Description:  rec.Facts.PropertyDescription,
		Notes:        rec.Facts.Notes,
		IsBankruptcy: rec.Facts.IsBankruptcy,
		HasDocument:  rec.DocumentURL != listing.Unknown,
	}
	if price, ok := numeric.Parse(item.Price); ok {
		sig.Price = &price
	}
	if ppa, ok := analysis.DerivePricePerArea(&rec.Facts, item.Price); ok {
		sig.PricePerArea = &ppa
	}

	res := classify.Classify(sig, p.cfg.Now())
	if res.Labels != nil {
		rec.Labels = res.Labels
	}
	rec.PrimaryTag = res.PrimaryTag

	return ItemResult{Record: rec}
}

// enrichDocument renders the detail page, resolves the auction document,
// and returns its extracted text. Failures log and return "".
func (p *Pipeline) enrichDocument(ctx context.Context, item listing.Item, rec *Record) string {
	if item.DetailURL == listing.Unknown || item.DetailURL == "" {
		logger.Debug("item has no detail link", "code", item.Code)
		return ""
	}

	p.cfg.Pacing.Sleep(ctx, DelayBeforeDetail)
	detail, err := p.renderer.Render(ctx, item.DetailURL, browser.RenderOptions{
		WaitSelector: document.AnchorSelector,
	})
	if err != nil {
		logger.Warn("detail page render failed", "code", item.Code, "error", err)
		return ""
	}
	p.cfg.Pacing.Sleep(ctx, DelayAfterDetail)

	candidates := document.FindCandidates(detail.HTML, p.cfg.BaseURL)
	rec.AllDocumentURLs = document.URLs(candidates)

	chosen, ok := document.Select(candidates)
	if !ok {
		logger.Debug("no auction document on detail page", "code", item.Code)
		return ""
	}
	rec.DocumentURL = chosen.URL

	p.cfg.Pacing.Sleep(ctx, DelayBeforeDownload)
	data, err := p.fetcher.Fetch(ctx, chosen.URL)
	if err != nil {
		logger.Warn("document download failed", "code", item.Code, "url", chosen.URL, "error", err)
		return ""
	}

	text, err := document.ExtractText(data)
	if err != nil {
		logger.Warn("document text extraction failed", "code", item.Code, "error", err)
		return ""
	}
	return text
}

// GroupByPrimaryTag buckets batch items by their primary tag. Failed
// items land under the "error" key.
func GroupByPrimaryTag(items []ItemResult) map[string][]ItemResult {
	groups := make(map[string][]ItemResult)
	for _, item := range items {
		key := "error"
		if item.Err == nil {
			key = item.Record.PrimaryTag
		}
		groups[key] = append(groups[key], item)
	}
	return groups
}
