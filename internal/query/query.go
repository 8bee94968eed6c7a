// Package query builds listing-page request URLs for eauction.gr.
//
// The target source is sensitive to query parameter order, so the URL is
// assembled by hand in the exact sequence the site expects rather than
// through url.Values (which sorts keys).
package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/auctionscope/auctionscope/internal/logger"
)

// BaseURL is the listing endpoint for real-estate auctions.
const BaseURL = "https://www.eauction.gr/Home/HlektronikoiPleistiriasmoi"

// SortKey selects the listing ordering.
type SortKey string

const (
	SortAuctionDateAsc  SortKey = "auctionDateAsc"
	SortAuctionDateDesc SortKey = "auctionDateDesc"
	SortPriceAsc        SortKey = "priceAsc"
	SortPriceDesc       SortKey = "priceDesc"
)

// FilterSet is the user-supplied query intent for one pipeline run.
// Dates are in YYYY-MM-DD form as supplied by the caller; the builder
// converts them to the DD/MM/YYYY form the site expects. The *Param
// fields are opaque filter fragments harvested from the site's own
// filter widgets (e.g. "&subType=5") and are passed through verbatim
// after stripping any leading separator.
type FilterSet struct {
	ConductFrom string  `json:"conductFrom,omitempty"`
	ConductTo   string  `json:"conductTo,omitempty"`
	PostingFrom string  `json:"postingFrom,omitempty"`
	PostingTo   string  `json:"postingTo,omitempty"`
	SortBy      SortKey `json:"sortBy,omitempty" validate:"omitempty,oneof=auctionDateAsc auctionDateDesc priceAsc priceDesc"`
	Page        int     `json:"page" validate:"min=1"`

	PropertyParam     string `json:"propertyParam,omitempty"`
	RegionParam       string `json:"regionParam,omitempty"`
	MunicipalityParam string `json:"municipalityParam,omitempty"`

	// Display names of the selected filters, echoed back on each record
	// for the presentation layer. Not part of the request.
	SelectedRegion       string `json:"selectedRegion,omitempty"`
	SelectedMunicipality string `json:"selectedMunicipality,omitempty"`
	SelectedPropertyType string `json:"selectedPropertyType,omitempty"`
}

var validate = validator.New()

// Validate checks the filter set before a run starts.
func (f FilterSet) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("invalid filter set: %w", err)
	}
	return nil
}

// sortParams maps the sort key to the site's sortId/sortAsc pair.
// sortId 1 orders by auction date, 2 by price.
func sortParams(key SortKey) (sortID int, sortAsc bool, ok bool) {
	switch key {
	case SortAuctionDateAsc:
		return 1, true, true
	case SortAuctionDateDesc:
		return 1, false, true
	case SortPriceAsc:
		return 2, true, true
	case SortPriceDesc:
		return 2, false, true
	}
	return 0, false, false
}

// formatDate converts YYYY-MM-DD to the DD/MM/YYYY form the site uses.
// Returns "" for empty or malformed input.
func formatDate(s string) string {
	if s == "" {
		return ""
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return ""
	}
	return t.Format("02/01/2006")
}

// stripSeparator removes a leading "&" from a harvested filter fragment
// so the builder never emits duplicated separators.
func stripSeparator(fragment string) string {
	return strings.TrimPrefix(strings.TrimSpace(fragment), "&")
}

// Build constructs the listing-page URL for the filter set. The parameter
// order is fixed: conductFrom, type, sortAsc, sortId, conductTo, postFrom,
// postTo, property fragment, region fragment, municipality fragment,
// conductedSubTypeId, page. Absent optional filters are omitted entirely.
// When ConductFrom is unset it defaults to the current date.
func Build(f FilterSet, now time.Time) string {
	params := make([]string, 0, 12)

	conductFrom := formatDate(f.ConductFrom)
	if conductFrom == "" {
		conductFrom = now.Format("02/01/2006")
	}
	params = append(params, "conductFrom="+conductFrom)

	params = append(params, "type=1")

	if sortID, sortAsc, ok := sortParams(f.SortBy); ok {
		params = append(params, fmt.Sprintf("sortAsc=%t", sortAsc))
		params = append(params, fmt.Sprintf("sortId=%d", sortID))
	}

	if d := formatDate(f.ConductTo); d != "" {
		params = append(params, "conductTo="+d)
	}
	if d := formatDate(f.PostingFrom); d != "" {
		params = append(params, "postFrom="+d)
	}
	if d := formatDate(f.PostingTo); d != "" {
		params = append(params, "postTo="+d)
	}

	for _, fragment := range []string{f.PropertyParam, f.RegionParam, f.MunicipalityParam} {
		if fragment == "" {
			continue
		}
		params = append(params, stripSeparator(fragment))
	}

	params = append(params, "conductedSubTypeId=1")

	page := f.Page
	if page < 1 {
		page = 1
	}
	params = append(params, fmt.Sprintf("page=%d", page))

	u := BaseURL + "?" + strings.Join(params, "&")
	logger.Debug("listing URL built", "url", u)
	return u
}
