// Package textnorm turns free text into comparable tokens: clean, strip,
// detect language, segment and drop stopwords.
package textnorm

import (
	"log/slog"
	"strings"
)

// DefaultLanguage is used when detection fails.
const DefaultLanguage = "en"

// Normalizer composes the normalization stages. A Normalizer is safe for
// concurrent use; its stopword cache is the only mutable state.
type Normalizer struct {
	detector   Detector
	stopwords  *StopwordCache
	segmenters Registry
	fallback   string
	log        *slog.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithDetector replaces the language detector.
func WithDetector(d Detector) Option {
	return func(n *Normalizer) { n.detector = d }
}

// WithSegmenters replaces the segmenter registry.
func WithSegmenters(r Registry) Option {
	return func(n *Normalizer) { n.segmenters = r }
}

// WithFallbackLanguage sets the language assumed when detection fails.
func WithFallbackLanguage(lang string) Option {
	return func(n *Normalizer) {
		if lang != "" {
			n.fallback = lang
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(n *Normalizer) {
		if log != nil {
			n.log = log
		}
	}
}

// New builds a Normalizer over a stopword store. Each call creates a fresh
// stopword cache, so one Normalizer per run scopes the cache to that run.
func New(store StopwordStore, opts ...Option) *Normalizer {
	n := &Normalizer{
		detector: WhatlangDetector{},
		fallback: DefaultLanguage,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.segmenters == nil {
		n.segmenters = DefaultRegistry(n.log)
	}
	n.stopwords = NewStopwordCache(store, n.log)
	return n
}

// Normalize returns the ordered content tokens of text. Empty or
// whitespace-only input yields nil.
func (n *Normalizer) Normalize(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	cleaned := StripPunct(Clean(text))
	lang := n.Language(cleaned)
	tokens := n.segmenters.Tokenize(cleaned, lang)
	return FilterStopwords(tokens, n.stopwords.Get(lang))
}

// Language detects the language of text, substituting the fallback
// language on failure.
func (n *Normalizer) Language(text string) string {
	lang, err := n.detector.Detect(text)
	if err != nil || lang == "" {
		n.log.Debug("language detection failed, using fallback", "fallback", n.fallback, "error", err)
		return n.fallback
	}
	return lang
}

// Stopwords exposes the run-scoped stopword cache.
func (n *Normalizer) Stopwords() *StopwordCache {
	return n.stopwords
}
