// Package listing parses rendered listing pages into raw auction items.
package listing

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/auctionscope/auctionscope/internal/logger"
)

// ItemsPerPage is the fixed page size the source uses.
const ItemsPerPage = 20

// Unknown is the sentinel for textual fields whose DOM node is missing.
// Extraction never aborts an item over a single missing sub-field.
const Unknown = "N/A"

// ResultsCountSelector locates the "N results" indicator on the listing
// page; it is also the selector the renderer waits on.
const ResultsCountSelector = ".AuctionsListSearchOrderingTbl .AuctionsList-resultstxt"

// containerSelector locates one listing entry.
const containerSelector = "div.AList-BoxContainer"

// ErrPageOutOfRange signals a requested page beyond the computed total.
var ErrPageOutOfRange = errors.New("requested page is out of range")

// Item is one raw listing-page entry before enrichment.
type Item struct {
	Status       string `json:"status"`
	Price        string `json:"price"`
	ConductDate  string `json:"date"`
	Debtor       string `json:"debtor"`
	Kind         string `json:"kind"`
	Region       string `json:"region"`
	Municipality string `json:"municipality"`
	DetailURL    string `json:"detail_link"`
	Code         string `json:"code"`
	PartLabel    string `json:"part_number"`
	PostDate     string `json:"post_date"`
}

// PageResult holds the outcome of extracting one listing page.
type PageResult struct {
	TotalResults int
	TotalPages   int
	Page         int
	Items        []Item
	// ItemErrors records per-container extraction failures by position;
	// a malformed container never drops the rest of the page.
	ItemErrors []error
}

var firstInteger = regexp.MustCompile(`\d+`)

// ParseTotalResults reads the total result count from the results
// indicator. A missing indicator or a text without an integer token
// yields 0 rather than an error.
func ParseTotalResults(doc *goquery.Document) int {
	text := strings.TrimSpace(doc.Find(ResultsCountSelector).First().Text())
	if text == "" {
		logger.Warn("results-count indicator not found, assuming 0 results")
		return 0
	}
	m := firstInteger.FindString(text)
	if m == "" {
		logger.Warn("results-count indicator has no integer token", "text", text)
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// TotalPages computes the page count at 20 items per page, with a floor
// of one page for zero results.
func TotalPages(totalResults int) int {
	if totalResults <= 0 {
		return 1
	}
	return (totalResults + ItemsPerPage - 1) / ItemsPerPage
}

// Extract parses a rendered listing page. If page is outside
// [1, totalPages] it returns the total alongside ErrPageOutOfRange and no
// items; the caller must not process items in that case.
func Extract(html string, page int, baseURL string) (PageResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return PageResult{}, fmt.Errorf("failed to parse listing page: %w", err)
	}

	result := PageResult{
		TotalResults: ParseTotalResults(doc),
		Page:         page,
	}
	result.TotalPages = TotalPages(result.TotalResults)

	if page < 1 || page > result.TotalPages {
		return result, fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, page, result.TotalPages)
	}

	doc.Find(containerSelector).Each(func(i int, sel *goquery.Selection) {
		item, err := extractItem(sel, baseURL)
		if err != nil {
			logger.Warn("skipping malformed listing container", "index", i, "error", err)
			result.ItemErrors = append(result.ItemErrors, fmt.Errorf("item %d: %w", i+1, err))
			return
		}
		result.Items = append(result.Items, item)
	})

	logger.Debug("listing page extracted",
		"total_results", result.TotalResults,
		"total_pages", result.TotalPages,
		"items", len(result.Items),
		"item_errors", len(result.ItemErrors))
	return result, nil
}

// extractItem pulls one Item out of a listing container. Missing nodes
// produce the Unknown sentinel; only an entirely empty container is an
// error.
func extractItem(sel *goquery.Selection, baseURL string) (Item, error) {
	if strings.TrimSpace(sel.Text()) == "" {
		return Item{}, errors.New("empty container")
	}

	item := Item{
		ConductDate: textOr(sel, "div.AList-BoxMainCell2 .DateIcon"),
		Debtor:      textOr(sel, "div.AList-BoxMainCell3 .AList-BoxTextBlueBold"),
		Price:       textOr(sel, "div.AList-Boxheader .AList-BoxheaderRight .AList-BoxTextPrice"),
		Status:      textOr(sel, "div.AList-Boxheader .AList-BoxheaderLeft .AList-BoxTextBlueBold"),
		PartLabel:   textOr(sel, "div.AList-BoxFooter .AList-BoxFooterLeft b"),
		Kind:        extractKind(sel),
	}
	item.Region, item.Municipality = extractLocation(sel)
	item.PostDate, item.Code = extractFooterFields(sel)
	item.DetailURL = extractDetailURL(sel, baseURL)

	return item, nil
}

// extractKind strips the auction-type prefix, leaving the bare property
// kind ("Ακίνητο - Διαμέρισμα" becomes "Διαμέρισμα").
func extractKind(sel *goquery.Selection) string {
	kind := textOr(sel, "div.AList-BoxMainCell4 .AList-BoxTextBlueBold")
	if kind == Unknown {
		return kind
	}
	return strings.TrimSpace(strings.ReplaceAll(kind, "Ακίνητο -", ""))
}

// extractLocation parses region and municipality out of the combined
// location text block by matching fixed line prefixes. Unmatched lines
// are ignored.
func extractLocation(sel *goquery.Selection) (region, municipality string) {
	region, municipality = Unknown, Unknown

	block := sel.Find("div.AList-BoxMainCell4 .AList-BoxTextBlue").First()
	if block.Length() == 0 {
		return region, municipality
	}

	for _, line := range strings.Split(block.Text(), "\n") {
		switch {
		case strings.Contains(line, "Περιφέρεια:"):
			region = strings.TrimSpace(strings.ReplaceAll(line, "Περιφέρεια:", ""))
		case strings.Contains(line, "Δήμος:"):
			municipality = strings.TrimSpace(strings.ReplaceAll(line, "Δήμος:", ""))
		}
	}
	return region, municipality
}

// extractFooterFields reads the footer text cells: posting date first,
// site-internal code second.
func extractFooterFields(sel *goquery.Selection) (postDate, code string) {
	postDate, code = Unknown, Unknown

	cells := sel.Find("div.AList-BoxFooter .AList-BoxFooterLeft .AList-BoxTextBlue500")
	if cells.Length() > 0 {
		postDate = strings.TrimSpace(cells.Eq(0).Text())
	}
	if cells.Length() > 1 {
		code = strings.TrimSpace(cells.Eq(1).Text())
	}
	return postDate, code
}

// extractDetailURL resolves the container's first anchor to an absolute
// detail-page URL.
func extractDetailURL(sel *goquery.Selection, baseURL string) string {
	href, ok := sel.Find("a").First().Attr("href")
	if !ok || href == "" {
		return Unknown
	}
	return AbsoluteURL(href, baseURL)
}

// AbsoluteURL resolves href against base, returning href unchanged when
// it is already absolute.
func AbsoluteURL(href, base string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	bu, err := url.Parse(base)
	if err != nil {
		return href
	}
	hu, err := url.Parse(href)
	if err != nil {
		return href
	}
	return bu.ResolveReference(hu).String()
}

// textOr returns the trimmed text of the first node matching selector,
// or the Unknown sentinel when the node is missing or empty.
func textOr(sel *goquery.Selection, selector string) string {
	text := strings.TrimSpace(sel.Find(selector).First().Text())
	if text == "" {
		return Unknown
	}
	return text
}
