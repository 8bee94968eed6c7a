package analysis

import (
	"context"
	"strings"

	"github.com/auctionscope/auctionscope/internal/llm"
	"github.com/auctionscope/auctionscope/internal/logger"
)

// DefaultMaxInputBytes bounds the document text sent to the model.
const DefaultMaxInputBytes = 14000

// Analyzer submits document text to a model provider and parses the
// structured reply. A nil Analyzer is valid and always yields Defaults,
// so the pipeline runs unchanged when no provider is configured.
type Analyzer struct {
	provider llm.Provider
	cfg      Config
}

// Config holds analyzer settings.
type Config struct {
	MaxInputBytes int
	MaxTokens     int
	Temperature   float64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxInputBytes: DefaultMaxInputBytes,
		MaxTokens:     2048,
		Temperature:   0.1,
	}
}

// New creates an Analyzer for the provider.
func New(provider llm.Provider, cfg Config) *Analyzer {
	if cfg.MaxInputBytes <= 0 {
		cfg.MaxInputBytes = DefaultMaxInputBytes
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultConfig().MaxTokens
	}
	return &Analyzer{provider: provider, cfg: cfg}
}

// Analyze extracts Facts from document text. Analysis is best-effort:
// any provider or parse failure yields Defaults and never an error.
func (a *Analyzer) Analyze(ctx context.Context, text string) Facts {
	if a == nil || a.provider == nil {
		return Defaults()
	}

	cleaned := NormalizeText(text, a.cfg.MaxInputBytes)
	if cleaned == "" {
		return Defaults()
	}

	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		System:      systemPrompt,
		Prompt:      BuildPrompt(cleaned),
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		logger.Warn("document analysis call failed", "provider", a.provider.Name(), "error", err)
		return Defaults()
	}

	facts, err := ParseReply(resp.Content)
	if err != nil {
		logger.Warn("document analysis reply unparsable", "provider", a.provider.Name(), "error", err)
	}
	logger.Debug("document analyzed",
		"provider", a.provider.Name(),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens)
	return facts
}

// NormalizeText drops blank lines, trims every line, and truncates the
// result to maxBytes to respect the model's input-size limits.
func NormalizeText(text string, maxBytes int) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	cleaned := strings.Join(lines, "\n")
	if maxBytes > 0 && len(cleaned) > maxBytes {
		cleaned = cleaned[:maxBytes]
	}
	return cleaned
}
