// Package document resolves attached auction documents from detail pages
// and extracts their text.
package document

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/ledongthuc/pdf"

	"github.com/auctionscope/auctionscope/internal/browser"
	"github.com/auctionscope/auctionscope/internal/listing"
	"github.com/auctionscope/auctionscope/internal/logger"
)

// AnchorSelector matches the download links on a detail page. Callers
// rendering detail pages wait on it before handing the HTML over.
const AnchorSelector = "div.AuctionDetailsPDFItem .AuctionDetailsPDFtext .DownloadAuctionFile"

// Candidate is one discovered document link with its optional title hint.
type Candidate struct {
	URL   string
	Title string
}

// FindCandidates collects every document anchor on a rendered detail
// page, normalizing relative locations against base. Anchors without an
// href are skipped.
func FindCandidates(html, base string) []Candidate {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		logger.Warn("failed to parse detail page", "error", err)
		return nil
	}

	var candidates []Candidate
	doc.Find(AnchorSelector).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		title, _ := sel.Attr("title")
		candidates = append(candidates, Candidate{
			URL:   listing.AbsoluteURL(href, base),
			Title: title,
		})
	})
	return candidates
}

// Select picks the canonical document: the first candidate whose title
// starts with "report" (case-insensitive), else the first candidate in
// discovery order. Returns false for an empty set.
func Select(candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c.Title), "report") {
			return c, true
		}
	}
	return candidates[0], true
}

// URLs returns the candidate locations in discovery order.
func URLs(candidates []Candidate) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.URL)
	}
	return out
}

// Downloader retrieves document bytes with browser-like request headers.
type Downloader struct {
	Timeout   time.Duration
	UserAgent string
}

// NewDownloader creates a downloader with a 30 second timeout.
func NewDownloader() *Downloader {
	return &Downloader{Timeout: 30 * time.Second}
}

// Fetch downloads the document at url.
func (d *Downloader) Fetch(ctx context.Context, url string) ([]byte, error) {
	ua := d.UserAgent
	if ua == "" {
		ua = browser.RandomUserAgent()
	}

	c := colly.NewCollector(colly.UserAgent(ua), colly.StdlibContext(ctx))
	timeout := d.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	c.SetRequestTimeout(timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "application/pdf,*/*")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
		r.Headers.Set("Connection", "keep-alive")
		r.Headers.Set("Upgrade-Insecure-Requests", "1")
	})

	var body []byte
	var fetchErr error

	c.OnResponse(func(r *colly.Response) {
		if r.StatusCode >= 400 {
			fetchErr = fmt.Errorf("document download returned status %d", r.StatusCode)
			return
		}
		body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("document download failed: %w", err)
	})

	if err := c.Visit(url); err != nil {
		return nil, fmt.Errorf("document download failed: %w", err)
	}
	if fetchErr != nil {
		return nil, fetchErr
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("document download returned empty body")
	}
	return body, nil
}

// ExtractText pulls plain text from a PDF, page by page, trimming each
// page and joining with newlines.
func ExtractText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open document: %w", err)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			logger.Warn("failed to extract document page", "page", i, "error", err)
			continue
		}
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			pages = append(pages, trimmed)
		}
	}

	return strings.Join(pages, "\n"), nil
}
