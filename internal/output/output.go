// Package output serializes pipeline batches to JSON, JSONL, or YAML.
package output

import (
	"fmt"
	"io"

	"github.com/auctionscope/auctionscope/internal/pipeline"
)

// Format selects the serialization format.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// Writer serializes one or more batches to its destination. Close must
// be called to flush buffered output.
type Writer interface {
	WriteBatch(batch pipeline.Batch) error
	Close() error
}

// Option configures a writer.
type Option func(*config)

type config struct {
	pretty     bool
	indent     string
	groupByTag bool
}

// WithPretty toggles pretty-printing where the format supports it.
func WithPretty(enabled bool) Option {
	return func(c *config) {
		c.pretty = enabled
	}
}

// WithIndent sets the indentation string for pretty output.
func WithIndent(indent string) Option {
	return func(c *config) {
		c.indent = indent
	}
}

// WithGroupByTag replaces the flat item list with items bucketed by
// primary tag. JSONL ignores this; its consumers group themselves.
func WithGroupByTag(enabled bool) Option {
	return func(c *config) {
		c.groupByTag = enabled
	}
}

// NewWriter creates a writer for the format.
func NewWriter(w io.Writer, format Format, opts ...Option) (Writer, error) {
	cfg := &config{
		pretty: true,
		indent: "  ",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	switch format {
	case FormatJSON:
		return newJSONWriter(w, cfg), nil
	case FormatJSONL:
		return newJSONLWriter(w), nil
	case FormatYAML:
		return newYAMLWriter(w, cfg), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// groupedBatch is the serialized shape when grouping is enabled.
type groupedBatch struct {
	Page         int                              `json:"page" yaml:"page"`
	TotalResults int                              `json:"total_results" yaml:"total_results"`
	TotalPages   int                              `json:"total_pages" yaml:"total_pages"`
	Groups       map[string][]pipeline.ItemResult `json:"groups" yaml:"groups"`
	Error        string                           `json:"error,omitempty" yaml:"error,omitempty"`
}

func group(batch pipeline.Batch) groupedBatch {
	return groupedBatch{
		Page:         batch.Page,
		TotalResults: batch.TotalResults,
		TotalPages:   batch.TotalPages,
		Groups:       pipeline.GroupByPrimaryTag(batch.Items),
		Error:        batch.Error,
	}
}
