package classify

import (
	"reflect"
	"testing"
	"time"
)

func fp(v float64) *float64 { return &v }

// now is fixed so window arithmetic stays deterministic.
var now = time.Date(2025, 6, 10, 15, 30, 0, 0, time.UTC)

func dateIn(days int) string {
	return now.AddDate(0, 0, days).Format("02/01/2006")
}

func complete() Signals {
	return Signals{
		Price:        fp(94000),
		PricePerArea: fp(1342.66),
		PropertyArea: 70.01,
		ConductDate:  dateIn(30),
		Description:  "Διαμέρισμα πρώτου ορόφου.",
		HasDocument:  true,
	}
}

func TestClassify_NoRulesFire(t *testing.T) {
	res := Classify(complete(), now)
	if len(res.Labels) != 0 {
		t.Errorf("expected no labels, got %v", res.Labels)
	}
	if res.PrimaryTag != TagUnknown {
		t.Errorf("expected %q, got %q", TagUnknown, res.PrimaryTag)
	}
}

func TestClassify_MissingDocument(t *testing.T) {
	sig := complete()
	sig.HasDocument = false

	res := Classify(sig, now)
	if !reflect.DeepEqual(res.Labels, []string{LabelIncomplete}) {
		t.Errorf("expected Incomplete only, got %v", res.Labels)
	}
	if res.PrimaryTag != LabelIncomplete {
		t.Errorf("expected tag %q, got %q", LabelIncomplete, res.PrimaryTag)
	}
}

func TestClassify_MissingArea(t *testing.T) {
	sig := complete()
	sig.PropertyArea = 0
	sig.PricePerArea = nil

	res := Classify(sig, now)
	if !reflect.DeepEqual(res.Labels, []string{LabelIncomplete}) {
		t.Errorf("expected Incomplete only, got %v", res.Labels)
	}
}

func TestClassify_BankruptcyLabelOnly(t *testing.T) {
	sig := complete()
	sig.IsBankruptcy = true

	res := Classify(sig, now)
	if !reflect.DeepEqual(res.Labels, []string{LabelBankruptcy}) {
		t.Errorf("expected Bankruptcy only, got %v", res.Labels)
	}
	if res.PrimaryTag != TagUnknown {
		t.Errorf("bankruptcy must not set the tag, got %q", res.PrimaryTag)
	}
}

func TestClassify_Expensive(t *testing.T) {
	sig := complete()
	sig.PricePerArea = fp(1500.01)

	res := Classify(sig, now)
	if !reflect.DeepEqual(res.Labels, []string{LabelExpensive}) {
		t.Errorf("expected Expensive, got %v", res.Labels)
	}
	if res.PrimaryTag != LabelExpensive {
		t.Errorf("expected tag %q, got %q", LabelExpensive, res.PrimaryTag)
	}
}

func TestClassify_ExpensiveBoundaryExclusive(t *testing.T) {
	sig := complete()
	sig.PricePerArea = fp(1500.0)

	if res := Classify(sig, now); len(res.Labels) != 0 {
		t.Errorf("exactly 1500 is not expensive, got %v", res.Labels)
	}
}

func TestClassify_OpportunityWithHot(t *testing.T) {
	sig := Signals{
		Price:        fp(40000),
		PricePerArea: fp(500),
		PropertyArea: 80,
		ConductDate:  dateIn(5),
		Description:  "Μονοκατοικία με αυλή.",
		HasDocument:  true,
	}

	res := Classify(sig, now)
	if !reflect.DeepEqual(res.Labels, []string{LabelOpportunity, LabelHot}) {
		t.Errorf("expected Opportunity+Hot, got %v", res.Labels)
	}
	if res.PrimaryTag != LabelOpportunity {
		t.Errorf("expected tag %q, got %q", LabelOpportunity, res.PrimaryTag)
	}
}

func TestClassify_OpportunityWithoutDescription(t *testing.T) {
	sig := complete()
	sig.PricePerArea = fp(500)
	sig.PropertyArea = 80
	sig.ConductDate = dateIn(5)
	sig.Description = "N/A"

	res := Classify(sig, now)
	if !reflect.DeepEqual(res.Labels, []string{LabelOpportunity}) {
		t.Errorf("Hot requires a description, got %v", res.Labels)
	}
}

func TestClassify_OpportunityAreaBoundary(t *testing.T) {
	sig := complete()
	sig.PricePerArea = fp(500)
	sig.ConductDate = dateIn(5)
	sig.PropertyArea = 70.0

	if res := Classify(sig, now); len(res.Labels) != 0 {
		t.Errorf("exactly 70 sqm is not an opportunity, got %v", res.Labels)
	}
}

func TestClassify_OpportunityWindow(t *testing.T) {
	base := complete()
	base.PricePerArea = fp(500)
	base.PropertyArea = 80

	tests := []struct {
		name string
		date string
		want bool
	}{
		{"today", dateIn(0), true},
		{"last day", dateIn(21), true},
		{"past window", dateIn(22), false},
		{"yesterday", dateIn(-1), false},
		{"unparsable", "soon", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := base
			sig.ConductDate = tt.date
			res := Classify(sig, now)
			got := len(res.Labels) > 0 && res.Labels[0] == LabelOpportunity
			if got != tt.want {
				t.Errorf("date %q: opportunity = %v, want %v", tt.date, got, tt.want)
			}
		})
	}
}

func TestClassify_CautionOnRiskNotes(t *testing.T) {
	sig := complete()
	sig.Price = fp(45000)
	sig.Notes = "Υπάρχει υποθήκη υπέρ τράπεζας."

	res := Classify(sig, now)
	if !reflect.DeepEqual(res.Labels, []string{LabelCaution}) {
		t.Errorf("expected Caution, got %v", res.Labels)
	}
	if res.PrimaryTag != TagUnknown {
		t.Errorf("caution must not set the tag, got %q", res.PrimaryTag)
	}
}

func TestClassify_CautionOnEncumbrances(t *testing.T) {
	sig := complete()
	sig.Price = fp(45000)
	sig.Notes = "Καταγεγραμμένα βάρη στο κτηματολόγιο."

	res := Classify(sig, now)
	if !reflect.DeepEqual(res.Labels, []string{LabelCaution}) {
		t.Errorf("expected Caution, got %v", res.Labels)
	}
}

func TestClassify_CautionOnIncomplete(t *testing.T) {
	sig := complete()
	sig.Price = fp(45000)
	sig.HasDocument = false

	res := Classify(sig, now)
	if !reflect.DeepEqual(res.Labels, []string{LabelIncomplete, LabelCaution}) {
		t.Errorf("expected Incomplete+Caution, got %v", res.Labels)
	}
	if res.PrimaryTag != LabelIncomplete {
		t.Errorf("expected tag %q, got %q", LabelIncomplete, res.PrimaryTag)
	}
}

func TestClassify_CautionNeedsCheapPrice(t *testing.T) {
	sig := complete()
	sig.Price = fp(50000)
	sig.Notes = "υποθήκη"

	if res := Classify(sig, now); len(res.Labels) != 0 {
		t.Errorf("50000 is not below the caution threshold, got %v", res.Labels)
	}

	sig.Price = nil
	if res := Classify(sig, now); len(res.Labels) != 0 {
		t.Errorf("unknown price must not trigger caution, got %v", res.Labels)
	}
}

func TestClassify_LaterTaggingRuleWins(t *testing.T) {
	sig := complete()
	sig.HasDocument = false
	sig.PricePerArea = fp(2000)

	res := Classify(sig, now)
	if !reflect.DeepEqual(res.Labels, []string{LabelIncomplete, LabelExpensive}) {
		t.Errorf("expected Incomplete+Expensive, got %v", res.Labels)
	}
	if res.PrimaryTag != LabelExpensive {
		t.Errorf("the last matching tagging rule owns the tag, got %q", res.PrimaryTag)
	}
}

func TestClassify_PureInputs(t *testing.T) {
	sig := complete()
	sig.Notes = "υποθήκη"
	sig.Price = fp(10000)
	before := sig

	Classify(sig, now)
	if !reflect.DeepEqual(sig, before) {
		t.Error("Classify must not mutate its input")
	}
}
