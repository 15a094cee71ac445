package textnorm

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/clipperhouse/uax29/v2/words"
	ko "github.com/ikawaha/kagome-dict-ko"
	"github.com/ikawaha/kagome-dict/dict"
	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Segmenter splits text written without whitespace word boundaries.
type Segmenter interface {
	Segment(text string) []string
}

// Registry maps language codes to segmenters. Languages without an entry
// are split on whitespace.
type Registry map[string]Segmenter

// Tokenize segments text for lang, falling back to whitespace splitting.
func (r Registry) Tokenize(text, lang string) []string {
	if seg, ok := r[lang]; ok && seg != nil {
		return seg.Segment(text)
	}
	return strings.Fields(text)
}

// DefaultRegistry wires morphological analysis for Japanese and Korean and
// UAX #29 word boundaries for Chinese.
func DefaultRegistry(log *slog.Logger) Registry {
	return Registry{
		"ja": NewKagomeSegmenter(log),
		"ko": NewKoreanSegmenter(log),
		"zh": UAX29Segmenter{},
	}
}

// UAX29Segmenter splits on Unicode word boundaries, which isolates each Han
// ideograph.
type UAX29Segmenter struct{}

func (UAX29Segmenter) Segment(text string) []string {
	var out []string
	tokens := words.FromString(text)
	for tokens.Next() {
		if tok := strings.TrimSpace(tokens.Value()); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// KagomeSegmenter returns surface forms from a kagome dictionary. The
// dictionary is loaded on first use; if that fails the segmenter degrades to
// whitespace splitting.
type KagomeSegmenter struct {
	lang string
	dict func() *dict.Dict
	once sync.Once
	tok  *tokenizer.Tokenizer
	log  *slog.Logger
}

// NewKagomeSegmenter segments Japanese with the IPA dictionary.
func NewKagomeSegmenter(log *slog.Logger) *KagomeSegmenter {
	return newKagome("ja", ipa.Dict, log)
}

// NewKoreanSegmenter segments Korean with the mecab-ko dictionary, which
// separates particles and endings from their stems.
func NewKoreanSegmenter(log *slog.Logger) *KagomeSegmenter {
	return newKagome("ko", ko.Dict, log)
}

func newKagome(lang string, load func() *dict.Dict, log *slog.Logger) *KagomeSegmenter {
	if log == nil {
		log = slog.Default()
	}
	return &KagomeSegmenter{lang: lang, dict: load, log: log}
}

func (k *KagomeSegmenter) Segment(text string) []string {
	k.once.Do(func() {
		t, err := k.load()
		if err != nil {
			k.log.Warn("segmenter unavailable, using whitespace", "lang", k.lang, "error", err)
			return
		}
		k.tok = t
	})
	if k.tok == nil {
		return strings.Fields(text)
	}

	var out []string
	for _, s := range k.tok.Wakati(text) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// load builds the tokenizer. Dictionary loaders panic on corrupt embedded
// data, so a panic is reported as an error.
func (k *KagomeSegmenter) load() (t *tokenizer.Tokenizer, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			t, err = nil, fmt.Errorf("load %s dictionary: %v", k.lang, rec)
		}
	}()
	return tokenizer.New(k.dict(), tokenizer.OmitBosEos())
}
