package output

import (
	"bufio"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/auctionscope/auctionscope/internal/pipeline"
)

// yamlWriter buffers batches and emits them on Close, mirroring the
// JSON writer's single-versus-array behavior.
type yamlWriter struct {
	w       *bufio.Writer
	cfg     *config
	batches []any
	closed  bool
}

func newYAMLWriter(w io.Writer, cfg *config) *yamlWriter {
	return &yamlWriter{
		w:   bufio.NewWriter(w),
		cfg: cfg,
	}
}

func (w *yamlWriter) WriteBatch(batch pipeline.Batch) error {
	if w.cfg.groupByTag {
		w.batches = append(w.batches, group(batch))
	} else {
		w.batches = append(w.batches, batch)
	}
	return nil
}

func (w *yamlWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	enc := yaml.NewEncoder(w.w)
	enc.SetIndent(2)

	var payload any = w.batches
	if len(w.batches) == 1 {
		payload = w.batches[0]
	}

	if err := enc.Encode(payload); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return w.w.Flush()
}
