package listing

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const testBase = "https://www.eauction.gr"

// readTestdata reads a file from the testdata directory
func readTestdata(t *testing.T, filename string) string {
	t.Helper()
	path := filepath.Join("testdata", filename)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read testdata %s: %v", filename, err)
	}
	return string(data)
}

func docFrom(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse HTML: %v", err)
	}
	return doc
}

func TestParseTotalResults(t *testing.T) {
	doc := docFrom(t, readTestdata(t, "listing.html"))
	if got := ParseTotalResults(doc); got != 45 {
		t.Errorf("expected 45 results, got %d", got)
	}
}

func TestParseTotalResults_MissingIndicator(t *testing.T) {
	doc := docFrom(t, "<html><body><p>nothing here</p></body></html>")
	if got := ParseTotalResults(doc); got != 0 {
		t.Errorf("missing indicator should yield 0, got %d", got)
	}
}

func TestParseTotalResults_NoIntegerToken(t *testing.T) {
	html := `<div class="AuctionsListSearchOrderingTbl"><span class="AuctionsList-resultstxt">κανένα αποτέλεσμα</span></div>`
	doc := docFrom(t, html)
	if got := ParseTotalResults(doc); got != 0 {
		t.Errorf("non-numeric indicator should yield 0, got %d", got)
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total, want int
	}{
		{0, 1},
		{1, 1},
		{20, 1},
		{21, 2},
		{45, 3},
		{400, 20},
	}
	for _, tc := range cases {
		if got := TotalPages(tc.total); got != tc.want {
			t.Errorf("TotalPages(%d) = %d, want %d", tc.total, got, tc.want)
		}
	}
}

func TestExtract_FullItem(t *testing.T) {
	result, err := Extract(readTestdata(t, "listing.html"), 1, testBase)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if result.TotalResults != 45 {
		t.Errorf("expected 45 total results, got %d", result.TotalResults)
	}
	if result.TotalPages != 3 {
		t.Errorf("expected 3 pages, got %d", result.TotalPages)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(result.Items))
	}

	item := result.Items[0]
	if item.Status != "Ενεργός" {
		t.Errorf("status: got %q", item.Status)
	}
	if item.Price != "94.000,00 €" {
		t.Errorf("price: got %q", item.Price)
	}
	if item.ConductDate != "25/07/2025" {
		t.Errorf("conduct date: got %q", item.ConductDate)
	}
	if item.Debtor != "ΠΑΠΑΔΟΠΟΥΛΟΣ ΓΕΩΡΓΙΟΣ" {
		t.Errorf("debtor: got %q", item.Debtor)
	}
	if item.Kind != "Διαμέρισμα" {
		t.Errorf("kind prefix should be stripped: got %q", item.Kind)
	}
	if item.Region != "Θεσσαλίας" {
		t.Errorf("region: got %q", item.Region)
	}
	if item.Municipality != "Λαρισαίων" {
		t.Errorf("municipality: got %q", item.Municipality)
	}
	if item.DetailURL != "https://www.eauction.gr/Auction/Details/123456" {
		t.Errorf("detail URL should be absolute: got %q", item.DetailURL)
	}
	if item.PostDate != "01/07/2025" {
		t.Errorf("post date: got %q", item.PostDate)
	}
	if item.Code != "ΗΛ-123456" {
		t.Errorf("code: got %q", item.Code)
	}
	if item.PartLabel != "Μέρος 1 από 2" {
		t.Errorf("part label: got %q", item.PartLabel)
	}
}

func TestExtract_MissingFieldsGetSentinel(t *testing.T) {
	result, err := Extract(readTestdata(t, "listing.html"), 1, testBase)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	// Second fixture item deliberately lacks most nodes.
	item := result.Items[1]
	for name, got := range map[string]string{
		"status":       item.Status,
		"date":         item.ConductDate,
		"debtor":       item.Debtor,
		"region":       item.Region,
		"municipality": item.Municipality,
		"post date":    item.PostDate,
		"code":         item.Code,
		"part label":   item.PartLabel,
	} {
		if got != Unknown {
			t.Errorf("%s should default to %q, got %q", name, Unknown, got)
		}
	}

	if item.Price != "40.000,00 €" {
		t.Errorf("present price should survive: got %q", item.Price)
	}
	if item.Kind != "Οικόπεδο" {
		t.Errorf("kind: got %q", item.Kind)
	}
	if item.DetailURL != "https://www.eauction.gr/Auction/Details/654321" {
		t.Errorf("absolute detail URL should pass through: got %q", item.DetailURL)
	}
}

func TestExtract_MalformedContainerIsolated(t *testing.T) {
	result, err := Extract(readTestdata(t, "listing.html"), 1, testBase)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	// Third fixture container is empty; it must be recorded as an error
	// without dropping the other items.
	if len(result.ItemErrors) != 1 {
		t.Errorf("expected 1 item error, got %d", len(result.ItemErrors))
	}
	if len(result.Items) != 2 {
		t.Errorf("malformed container must not drop the rest: got %d items", len(result.Items))
	}
}

func TestExtract_PageOutOfRange(t *testing.T) {
	html := readTestdata(t, "listing.html")

	for _, page := range []int{0, 4, 99} {
		result, err := Extract(html, page, testBase)
		if !errors.Is(err, ErrPageOutOfRange) {
			t.Errorf("page %d: expected ErrPageOutOfRange, got %v", page, err)
		}
		if len(result.Items) != 0 {
			t.Errorf("page %d: out-of-range must yield no items", page)
		}
		if result.TotalResults != 45 {
			t.Errorf("page %d: total must be preserved, got %d", page, result.TotalResults)
		}
	}
}

func TestExtract_ZeroResultsStillOnePage(t *testing.T) {
	result, err := Extract("<html><body></body></html>", 1, testBase)
	if err != nil {
		t.Fatalf("page 1 of an empty listing must be in range: %v", err)
	}
	if result.TotalPages != 1 {
		t.Errorf("expected floor of 1 page, got %d", result.TotalPages)
	}
	if len(result.Items) != 0 {
		t.Errorf("expected no items, got %d", len(result.Items))
	}
}

func TestAbsoluteURL(t *testing.T) {
	if got := AbsoluteURL("/Auction/Details/1", testBase); got != "https://www.eauction.gr/Auction/Details/1" {
		t.Errorf("relative href: got %q", got)
	}
	if got := AbsoluteURL("https://elsewhere.example/x", testBase); got != "https://elsewhere.example/x" {
		t.Errorf("absolute href must pass through: got %q", got)
	}
}
