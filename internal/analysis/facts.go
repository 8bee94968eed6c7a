// Package analysis sends extracted document text to a content-analysis
// model and parses its reply into a fixed schema. The model's output is
// untrusted: every field has an explicit default and a schema violation
// never propagates past this package.
package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/auctionscope/auctionscope/internal/numeric"
)

// Unavailable is the sentinel for string facts the model could not find.
const Unavailable = "N/A"

// Facts is the structured answer mined from an auction document.
type Facts struct {
	// PropertyArea is the total area in square meters; 0 means unknown.
	PropertyArea float64 `json:"property_area"`
	// StartingPrice is the starting price in euros; 0 means unknown.
	StartingPrice       float64 `json:"starting_price"`
	Address             string  `json:"address"`
	PropertyDescription string  `json:"property_description"`
	// Notes holds special conditions (mortgages, liens, third-party
	// rights); empty when the document mentions none or analysis failed.
	Notes           string `json:"notes"`
	OccupancyStatus string `json:"occupancy_status"`
	IsBankruptcy    bool   `json:"is_bankruptcy"`
	PropertyType    string `json:"property_type"`
	// PricePerArea is the formatted listing-price-per-square-meter,
	// derived after analysis; Unavailable when either operand is missing.
	PricePerArea string `json:"price_per_sqm"`
}

// Defaults returns the Facts used when no document text is available or
// the model reply cannot be parsed.
func Defaults() Facts {
	return Facts{
		Address:             Unavailable,
		PropertyDescription: Unavailable,
		Notes:               "",
		OccupancyStatus:     Unavailable,
		PropertyType:        Unavailable,
		PricePerArea:        Unavailable,
	}
}

// rawFacts mirrors the reply schema with loose types, so a model that
// returns an area as "88,52 τ.μ." or a null address does not sink the
// whole parse.
type rawFacts struct {
	PropertyArea        any `json:"property_area"`
	StartingPrice       any `json:"starting_price"`
	Address             any `json:"address"`
	PropertyDescription any `json:"property_description"`
	Notes               any `json:"notes"`
	OccupancyStatus     any `json:"occupancy_status"`
	IsBankruptcy        any `json:"is_bankruptcy"`
	PropertyType        any `json:"property_type"`
}

// ParseReply unwraps and parses a model reply into Facts. On any failure
// it returns Defaults alongside the error; callers treat the error as
// diagnostic only.
func ParseReply(reply string) (Facts, error) {
	body := strings.TrimSpace(UnwrapFence(reply))
	if body == "" {
		return Defaults(), fmt.Errorf("empty analysis reply")
	}

	var raw rawFacts
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return Defaults(), fmt.Errorf("malformed analysis reply: %w", err)
	}

	facts := Defaults()
	if v, ok := coerceNumber(raw.PropertyArea); ok {
		facts.PropertyArea = v
	}
	if v, ok := coerceNumber(raw.StartingPrice); ok {
		facts.StartingPrice = v
	}
	facts.Address = coerceString(raw.Address, Unavailable)
	facts.PropertyDescription = coerceString(raw.PropertyDescription, Unavailable)
	facts.Notes = coerceString(raw.Notes, "")
	facts.OccupancyStatus = coerceString(raw.OccupancyStatus, Unavailable)
	facts.PropertyType = coerceString(raw.PropertyType, Unavailable)
	if b, ok := raw.IsBankruptcy.(bool); ok {
		facts.IsBankruptcy = b
	}
	return facts, nil
}

// coerceNumber accepts a JSON number or a Greek-formatted number string.
func coerceNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		return numeric.Parse(n)
	}
	return 0, false
}

// coerceString accepts a non-empty string, else the fallback.
func coerceString(v any, fallback string) string {
	if s, ok := v.(string); ok {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

// DerivePricePerArea divides the listing's starting price by the
// analyzed property area and stores the formatted result on facts.
// The numeric value is returned for classification; ok is false when
// either operand is missing or non-positive.
func DerivePricePerArea(facts *Facts, priceText string) (float64, bool) {
	price, priceOK := numeric.Parse(priceText)
	if !priceOK || price <= 0 || facts.PropertyArea <= 0 {
		facts.PricePerArea = Unavailable
		return 0, false
	}
	v := price / facts.PropertyArea
	facts.PricePerArea = "€" + humanize.FormatFloat("#,###.##", v)
	return v, true
}
