// Package classify labels enriched auction records with deterministic,
// ordered rules. Classification is pure: it reads the signals it is
// given and never re-fetches or re-parses source data.
package classify

import (
	"strings"
	"time"
)

// Labels applied by the rules, in evaluation order.
const (
	LabelIncomplete  = "Incomplete"
	LabelBankruptcy  = "Bankruptcy"
	LabelExpensive   = "Expensive"
	LabelOpportunity = "Opportunity"
	LabelHot         = "Hot"
	LabelCaution     = "Caution"
)

// TagUnknown is the primary tag when no tagging rule fires.
const TagUnknown = "unknown"

// Rule thresholds, in euros and square meters.
const (
	expensivePerArea   = 1500.0
	opportunityPerArea = 600.0
	opportunityMinArea = 70.0
	cautionMaxPrice    = 50000.0
	opportunityWindow  = 21 * 24 * time.Hour
)

// riskKeywords flag encumbrances in the document notes.
var riskKeywords = []string{"υποθήκη", "βάρη"}

// Signals carries the inputs the rules inspect. Pointer fields separate
// "known zero" from "unknown": a nil Price means the listing price could
// not be parsed, not that the property is free.
type Signals struct {
	// Price is the parsed starting price in euros.
	Price *float64
	// PricePerArea is price divided by analyzed area.
	PricePerArea *float64
	// PropertyArea is the analyzed area in square meters; 0 means unknown.
	PropertyArea float64
	// ConductDate is the auction date in DD/MM/YYYY form.
	ConductDate string
	// Description is the analyzed property description; the sentinel
	// "N/A" counts as absent.
	Description  string
	Notes        string
	IsBankruptcy bool
	// HasDocument reports whether any auction document was discovered.
	HasDocument bool
}

// Result is the classification outcome. Labels keeps rule order and may
// be empty; PrimaryTag is always set.
type Result struct {
	Labels     []string
	PrimaryTag string
}

// Classify applies the rules to the signals. Rules are evaluated in a
// fixed order; labels accumulate, and the last tagging rule that matches
// owns the primary tag.
func Classify(sig Signals, now time.Time) Result {
	res := Result{PrimaryTag: TagUnknown}

	incomplete := !sig.HasDocument || sig.PropertyArea <= 0
	if incomplete {
		res.Labels = append(res.Labels, LabelIncomplete)
		res.PrimaryTag = LabelIncomplete
	}

	if sig.IsBankruptcy {
		res.Labels = append(res.Labels, LabelBankruptcy)
	}

	if sig.PricePerArea != nil && *sig.PricePerArea > expensivePerArea {
		res.Labels = append(res.Labels, LabelExpensive)
		res.PrimaryTag = LabelExpensive
	}

	if sig.PricePerArea != nil && *sig.PricePerArea < opportunityPerArea &&
		sig.PropertyArea > opportunityMinArea &&
		withinWindow(sig.ConductDate, now) {
		res.Labels = append(res.Labels, LabelOpportunity)
		res.PrimaryTag = LabelOpportunity
		// Hot is an overlay on Opportunity and never owns the tag.
		if hasDescription(sig.Description) {
			res.Labels = append(res.Labels, LabelHot)
		}
	}

	if sig.Price != nil && *sig.Price < cautionMaxPrice &&
		(hasRiskNotes(sig.Notes) || incomplete) {
		res.Labels = append(res.Labels, LabelCaution)
	}

	return res
}

// withinWindow reports whether the DD/MM/YYYY conduct date falls between
// today (inclusive) and today plus the opportunity window. Unparsable
// dates fall outside the window.
func withinWindow(conductDate string, now time.Time) bool {
	d, err := time.ParseInLocation("02/01/2006", strings.TrimSpace(conductDate), now.Location())
	if err != nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return !d.Before(today) && !d.After(today.Add(opportunityWindow))
}

func hasDescription(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && s != "N/A"
}

func hasRiskNotes(notes string) bool {
	lower := strings.ToLower(notes)
	for _, kw := range riskKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
