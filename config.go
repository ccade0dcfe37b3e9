package docparse

import "github.com/hmatsuda/docparse/partition"

// Rewrite-failure policies (spec'd per document, chosen by configuration).
const (
	// RewriteAbort fails the whole document on a rewrite error.
	RewriteAbort = "abort"
	// RewriteKeepOriginal substitutes the raw extracted text for the page.
	RewriteKeepOriginal = "keep-original"
)

// Config holds all configuration for the docparse engine.
type Config struct {
	// LLM providers. Chat rewrites page text; Vision describes images.
	Chat   LLMConfig `json:"chat" yaml:"chat"`
	Vision LLMConfig `json:"vision" yaml:"vision"`

	// Language selects prompt text and placeholder strings: "ja" or "en".
	Language string `json:"language" yaml:"language"`

	// Partitioner selects the PDF partitioning backend: "local" (pdfcpu +
	// native text layer) or "unstructured" (hosted layout-detection API).
	Partitioner  string                        `json:"partitioner" yaml:"partitioner"`
	Unstructured *partition.UnstructuredConfig `json:"unstructured,omitempty" yaml:"unstructured,omitempty"`

	// OCRLanguages enables Tesseract OCR over locally extracted images
	// when non-empty ("eng", "eng+jpn", ...). Local partitioner only.
	OCRLanguages string `json:"ocr_languages" yaml:"ocr_languages"`

	// OnRewriteError is the policy when a page's text rewrite fails:
	// RewriteAbort (default) or RewriteKeepOriginal.
	OnRewriteError string `json:"on_rewrite_error" yaml:"on_rewrite_error"`

	// IncludeVisionCost adds vision-model token usage to the document
	// cost. Off by default: the aggregate then covers text rewriting
	// only, matching the established accounting.
	IncludeVisionCost bool `json:"include_vision_cost" yaml:"include_vision_cost"`

	// SpliceEachFigure places each image's description block after the
	// first reference to that specific figure/table number instead of
	// inserting the combined block once. Opt-in.
	SpliceEachFigure bool `json:"splice_each_figure" yaml:"splice_each_figure"`

	// WriteReport also emits an XLSX per-page/cost report on Save.
	WriteReport bool `json:"write_report" yaml:"write_report"`

	// PageConcurrency bounds parallel page processing. Values <= 1 keep
	// the strictly sequential order of model calls.
	PageConcurrency int `json:"page_concurrency" yaml:"page_concurrency"`

	// RequestTimeoutSeconds bounds each individual model invocation.
	// Expiry is treated as a model failure under the usual policies.
	RequestTimeoutSeconds int `json:"request_timeout_seconds" yaml:"request_timeout_seconds"`

	// Patterns override the figure/table detection regexes.
	Patterns PatternConfig `json:"patterns" yaml:"patterns"`
}

// LLMConfig configures a single LLM provider endpoint.
type LLMConfig struct {
	Provider string `json:"provider" yaml:"provider"` // ollama, lmstudio, openrouter, openai, groq, xai, gemini, custom
	Model    string `json:"model" yaml:"model"`
	BaseURL  string `json:"base_url" yaml:"base_url"`
	APIKey   string `json:"api_key" yaml:"api_key"`
}

// PatternConfig holds the regular expressions used for classification and
// reference detection. All are applied case-insensitively. Empty fields
// fall back to defaults covering English and Japanese (図/表).
type PatternConfig struct {
	// Figure and Table classify OCR text; each must be anchored at the
	// start and capture the number in group 2.
	Figure string `json:"figure" yaml:"figure"`
	Table  string `json:"table" yaml:"table"`

	// Reference matches in-text figure/table references for splicing.
	Reference string `json:"reference" yaml:"reference"`
}

// Default pattern set. Classification follows the OCR text's leading
// token; reference detection accepts any figure/table mention with a
// number, in English or Japanese.
const (
	defaultFigurePattern    = `^(fig|figure|図)\s*(\d+)`
	defaultTablePattern     = `^(table|tab|表)\s*(\d+)`
	defaultReferencePattern = `(figure|fig|table|図|表)\s*\d+`
)

// DefaultConfig returns a Config with sensible defaults for local
// inference: Ollama for both models, Japanese output, local partitioning,
// sequential processing, abort on rewrite failure.
func DefaultConfig() Config {
	return Config{
		Chat: LLMConfig{
			Provider: "ollama",
			Model:    "llama3.1:8b",
			BaseURL:  "http://localhost:11434",
		},
		Vision: LLMConfig{
			Provider: "ollama",
			Model:    "llama3.2-vision",
			BaseURL:  "http://localhost:11434",
		},
		Language:              "ja",
		Partitioner:           "local",
		OnRewriteError:        RewriteAbort,
		PageConcurrency:       1,
		RequestTimeoutSeconds: 120,
	}
}
