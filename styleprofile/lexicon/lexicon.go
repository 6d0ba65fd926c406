// Package lexicon holds the hand-curated word tables the style profiler classifies against:
// stopwords, slang, filler words, greeting/farewell terms and topic keywords.
//
// A Lexicon is immutable once built and is safe to share across goroutines.
package lexicon

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed default_lexicon.yaml
var defaultLexiconYAML []byte

// Topic is a named keyword group. Declaration order in Tables.Topics is the tie-break order for scoring.
type Topic struct {
	Name     string   `yaml:"name" json:"name"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// Tables is the on-disk shape of a lexicon file. A nil section means "inherit the default".
type Tables struct {
	Stopwords   []string `yaml:"stopwords"`
	Slang       []string `yaml:"slang"`
	FillerWords []string `yaml:"filler_words"`
	Greetings   []string `yaml:"greetings"`
	Farewells   []string `yaml:"farewells"`
	Topics      []Topic  `yaml:"topics"`
}

// Lexicon is the validated, normalized form of Tables.
type Lexicon struct {
	stopwords   map[string]struct{}
	slang       []string
	fillerWords []string
	greetings   []string
	farewells   []string
	topics      []Topic
}

var defaultLexicon = sync.OnceValue(func() *Lexicon {
	var t Tables
	if err := yaml.Unmarshal(defaultLexiconYAML, &t); err != nil {
		panic(fmt.Sprintf("lexicon: embedded default: %v", err))
	}
	lex, err := New(t)
	if err != nil {
		panic(fmt.Sprintf("lexicon: embedded default: %v", err))
	}
	return lex
})

// Default returns the built-in English lexicon. The same instance is returned on every call.
func Default() *Lexicon {
	return defaultLexicon()
}

// New validates and normalizes t. Terms are trimmed, lowercased and deduplicated, keeping first occurrence.
func New(t Tables) (*Lexicon, error) {
	lex := &Lexicon{
		stopwords:   make(map[string]struct{}, len(t.Stopwords)),
		slang:       normalizeTerms(t.Slang),
		fillerWords: normalizeTerms(t.FillerWords),
		greetings:   normalizeTerms(t.Greetings),
		farewells:   normalizeTerms(t.Farewells),
	}
	for _, w := range normalizeTerms(t.Stopwords) {
		lex.stopwords[w] = struct{}{}
	}
	sort.Strings(lex.slang)

	seen := make(map[string]struct{}, len(t.Topics))
	for i, tp := range t.Topics {
		name := strings.TrimSpace(tp.Name)
		if name == "" {
			return nil, fmt.Errorf("lexicon.New: topic %d has no name", i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("lexicon.New: duplicate topic %q", name)
		}
		seen[name] = struct{}{}
		kws := normalizeTerms(tp.Keywords)
		if len(kws) == 0 {
			return nil, fmt.Errorf("lexicon.New: topic %q has no keywords", name)
		}
		lex.topics = append(lex.topics, Topic{Name: name, Keywords: kws})
	}
	return lex, nil
}

// Parse decodes a YAML lexicon. Sections missing from b are taken from Default.
func Parse(b []byte) (*Lexicon, error) {
	var t Tables
	if err := yaml.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("lexicon.Parse: unmarshal: %w", err)
	}
	return New(overlay(defaultTables(), t))
}

// Load reads a YAML lexicon file. An empty path returns Default.
func Load(path string) (*Lexicon, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lexicon.Load: read file: %w", err)
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return nil, errors.New("lexicon.Load: file is empty")
	}
	return Parse(b)
}

// IsStopword reports whether w (already lowercased) is a stopword.
func (l *Lexicon) IsStopword(w string) bool {
	_, ok := l.stopwords[w]
	return ok
}

// StopwordCount is the number of distinct stopwords.
func (l *Lexicon) StopwordCount() int { return len(l.stopwords) }

// Slang returns the slang terms in sorted order.
func (l *Lexicon) Slang() []string { return append([]string(nil), l.slang...) }

// FillerWords returns filler words in declaration order.
func (l *Lexicon) FillerWords() []string { return append([]string(nil), l.fillerWords...) }

func (l *Lexicon) Greetings() []string { return append([]string(nil), l.greetings...) }

func (l *Lexicon) Farewells() []string { return append([]string(nil), l.farewells...) }

// Topics returns a deep copy of the topic table in declaration order.
func (l *Lexicon) Topics() []Topic {
	out := make([]Topic, len(l.topics))
	for i, t := range l.topics {
		out[i] = Topic{Name: t.Name, Keywords: append([]string(nil), t.Keywords...)}
	}
	return out
}

func defaultTables() Tables {
	var t Tables
	// Already validated by Default.
	_ = yaml.Unmarshal(defaultLexiconYAML, &t)
	return t
}

func overlay(base, over Tables) Tables {
	if over.Stopwords != nil {
		base.Stopwords = over.Stopwords
	}
	if over.Slang != nil {
		base.Slang = over.Slang
	}
	if over.FillerWords != nil {
		base.FillerWords = over.FillerWords
	}
	if over.Greetings != nil {
		base.Greetings = over.Greetings
	}
	if over.Farewells != nil {
		base.Farewells = over.Farewells
	}
	if over.Topics != nil {
		base.Topics = over.Topics
	}
	return base
}

func normalizeTerms(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
