package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/auctionscope/auctionscope/internal/pipeline"
)

func testBatch() pipeline.Batch {
	return pipeline.Batch{
		Page:         1,
		TotalResults: 45,
		TotalPages:   3,
		Items: []pipeline.ItemResult{
			{Record: &pipeline.Record{Code: "111", PrimaryTag: "Opportunity"}},
			{Record: &pipeline.Record{Code: "222", PrimaryTag: "unknown"}},
			{Err: errors.New("item 3: empty container")},
		},
	}
}

func TestNewWriter_UnsupportedFormat(t *testing.T) {
	if _, err := NewWriter(&bytes.Buffer{}, Format("xml")); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestJSONWriter_SingleBatch(t *testing.T) {
	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, FormatJSON)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}

	if err := w.WriteBatch(testBatch()); err != nil {
		t.Fatalf("WriteBatch() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not a JSON object: %v", err)
	}
	if got["total_results"] != float64(45) {
		t.Errorf("total_results: got %v", got["total_results"])
	}
	items, ok := got["items"].([]any)
	if !ok || len(items) != 3 {
		t.Fatalf("items: got %v", got["items"])
	}
	if errItem, ok := items[2].(map[string]any); !ok || errItem["error"] == nil {
		t.Errorf("failed item must serialize as an error object, got %v", items[2])
	}
}

func TestJSONWriter_MultipleBatchesBecomeArray(t *testing.T) {
	buf := &bytes.Buffer{}
	w, _ := NewWriter(buf, FormatJSON, WithPretty(false))

	if err := w.WriteBatch(testBatch()); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteBatch(testBatch()); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	var got []any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not a JSON array: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 batches, got %d", len(got))
	}
}

func TestJSONWriter_GroupByTag(t *testing.T) {
	buf := &bytes.Buffer{}
	w, _ := NewWriter(buf, FormatJSON, WithGroupByTag(true))

	if err := w.WriteBatch(testBatch()); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	var got struct {
		Groups map[string][]json.RawMessage `json:"groups"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Groups["Opportunity"]) != 1 || len(got.Groups["unknown"]) != 1 || len(got.Groups["error"]) != 1 {
		t.Errorf("groups: got %v", got.Groups)
	}
}

func TestJSONLWriter_OneLinePerItem(t *testing.T) {
	buf := &bytes.Buffer{}
	w, _ := NewWriter(buf, FormatJSONL)

	if err := w.WriteBatch(testBatch()); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	for i, line := range lines {
		if !json.Valid([]byte(line)) {
			t.Errorf("line %d is not valid JSON: %s", i, line)
		}
	}
	if !strings.Contains(lines[0], `"code":"111"`) {
		t.Errorf("first line: got %s", lines[0])
	}
	if !strings.Contains(lines[2], `"error"`) {
		t.Errorf("failed item line: got %s", lines[2])
	}
}

func TestJSONLWriter_BatchError(t *testing.T) {
	buf := &bytes.Buffer{}
	w, _ := NewWriter(buf, FormatJSONL)

	batch := pipeline.Batch{Page: 9, TotalResults: 45, TotalPages: 3, Error: "requested page is out of range"}
	if err := w.WriteBatch(batch); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["error"] == nil || got["total_results"] != float64(45) {
		t.Errorf("batch error line: got %v", got)
	}
}

func TestYAMLWriter_SingleBatch(t *testing.T) {
	buf := &bytes.Buffer{}
	w, _ := NewWriter(buf, FormatYAML)

	if err := w.WriteBatch(testBatch()); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if got["total_results"] != 45 {
		t.Errorf("total_results: got %v", got["total_results"])
	}
}
