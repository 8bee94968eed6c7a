package output

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/auctionscope/auctionscope/internal/pipeline"
)

// jsonWriter buffers batches and emits them on Close: a single batch
// directly, multiple batches as an array.
type jsonWriter struct {
	w       *bufio.Writer
	cfg     *config
	batches []any
	closed  bool
}

func newJSONWriter(w io.Writer, cfg *config) *jsonWriter {
	return &jsonWriter{
		w:   bufio.NewWriter(w),
		cfg: cfg,
	}
}

func (w *jsonWriter) WriteBatch(batch pipeline.Batch) error {
	if w.cfg.groupByTag {
		w.batches = append(w.batches, group(batch))
	} else {
		w.batches = append(w.batches, batch)
	}
	return nil
}

func (w *jsonWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var payload any = w.batches
	if len(w.batches) == 1 {
		payload = w.batches[0]
	}

	var out []byte
	var err error
	if w.cfg.pretty {
		out, err = json.MarshalIndent(payload, "", w.cfg.indent)
	} else {
		out, err = json.Marshal(payload)
	}
	if err != nil {
		return err
	}

	if _, err := w.w.Write(out); err != nil {
		return err
	}
	if _, err := w.w.WriteString("\n"); err != nil {
		return err
	}
	return w.w.Flush()
}

// jsonlWriter streams one JSON line per item, so consumers can process
// records before the run finishes. Batch-level errors become their own
// line.
type jsonlWriter struct {
	w *bufio.Writer
}

func newJSONLWriter(w io.Writer) *jsonlWriter {
	return &jsonlWriter{w: bufio.NewWriter(w)}
}

func (w *jsonlWriter) WriteBatch(batch pipeline.Batch) error {
	if batch.Error != "" {
		return w.writeLine(map[string]any{
			"page":          batch.Page,
			"total_results": batch.TotalResults,
			"total_pages":   batch.TotalPages,
			"error":         batch.Error,
		})
	}
	for _, item := range batch.Items {
		if err := w.writeLine(item); err != nil {
			return err
		}
	}
	return nil
}

func (w *jsonlWriter) writeLine(v any) error {
	out, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(out); err != nil {
		return err
	}
	if _, err := w.w.WriteString("\n"); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *jsonlWriter) Close() error {
	return w.w.Flush()
}
