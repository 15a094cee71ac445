package textnorm

import (
	"errors"

	"github.com/abadojack/whatlanggo"
)

// ErrUndetermined is returned when a detector cannot name a language.
var ErrUndetermined = errors.New("language undetermined")

// Detector guesses the ISO 639-1 code of a text.
type Detector interface {
	Detect(text string) (string, error)
}

// WhatlangDetector identifies languages with whatlanggo's trigram models.
// Results below whatlanggo's reliability threshold count as failures, which
// mostly happens on short Latin-script snippets.
type WhatlangDetector struct{}

func (WhatlangDetector) Detect(text string) (string, error) {
	info := whatlanggo.Detect(text)
	if info.Script == nil || !info.IsReliable() {
		return "", ErrUndetermined
	}
	code := info.Lang.Iso6391()
	if code == "" {
		return "", ErrUndetermined
	}
	return code, nil
}
