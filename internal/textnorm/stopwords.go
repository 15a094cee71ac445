package textnorm

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"
)

//go:embed stopwords/*.txt
var builtinStopwords embed.FS

// ErrNoStopwords means a store has no list for the requested language.
var ErrNoStopwords = errors.New("no stopwords for language")

// StopwordStore loads the stopword set for a language code.
type StopwordStore interface {
	Load(lang string) (map[string]struct{}, error)
}

// FSStore reads "stopwords_<lang>.txt" files, one word per line.
type FSStore struct {
	FS fs.FS
}

func (s FSStore) Load(lang string) (map[string]struct{}, error) {
	f, err := s.FS.Open("stopwords_" + lang + ".txt")
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoStopwords
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	set := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if w := strings.TrimSpace(scanner.Text()); w != "" {
			set[w] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stopwords %s: %w", lang, err)
	}
	return set, nil
}

// LayeredStore consults each store in order and returns the first list found.
type LayeredStore []StopwordStore

func (l LayeredStore) Load(lang string) (map[string]struct{}, error) {
	for _, s := range l {
		set, err := s.Load(lang)
		if errors.Is(err, ErrNoStopwords) {
			continue
		}
		return set, err
	}
	return nil, ErrNoStopwords
}

// DefaultStore prefers files in dir and falls back to the built-in lists.
// An empty or missing dir leaves only the built-in lists.
func DefaultStore(dir string) StopwordStore {
	builtin, _ := fs.Sub(builtinStopwords, "stopwords")
	stores := LayeredStore{FSStore{FS: builtin}}
	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			stores = LayeredStore{FSStore{FS: os.DirFS(dir)}, FSStore{FS: builtin}}
		}
	}
	return stores
}

// StopwordCache memoizes stopword sets per language for the lifetime of a
// run. Misses are cached as empty sets so the store is asked at most once
// per language.
type StopwordCache struct {
	mu    sync.Mutex
	store StopwordStore
	sets  map[string]map[string]struct{}
	log   *slog.Logger
}

func NewStopwordCache(store StopwordStore, log *slog.Logger) *StopwordCache {
	if log == nil {
		log = slog.Default()
	}
	return &StopwordCache{
		store: store,
		sets:  make(map[string]map[string]struct{}),
		log:   log,
	}
}

// Get returns the stopword set for lang, loading it on first use.
func (c *StopwordCache) Get(lang string) map[string]struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	if set, ok := c.sets[lang]; ok {
		return set
	}

	set, err := c.store.Load(lang)
	if err != nil {
		c.log.Warn("stopwords unavailable, continuing without filtering", "lang", lang, "error", err)
		set = map[string]struct{}{}
	}
	c.sets[lang] = set
	return set
}

// Warm loads the given languages ahead of concurrent use.
func (c *StopwordCache) Warm(langs ...string) {
	for _, lang := range langs {
		c.Get(lang)
	}
}
