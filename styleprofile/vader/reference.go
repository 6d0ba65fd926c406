package vader

import (
	"sync"

	"github.com/jonreiter/govader"
)

// Reference scores text with the full published VADER lexicon.
type Reference struct {
	// PolarityScores is not documented as safe for concurrent use.
	mu  sync.Mutex
	sia *govader.SentimentIntensityAnalyzer
}

var defaultReference = sync.OnceValue(func() *Reference {
	return &Reference{sia: govader.NewSentimentIntensityAnalyzer()}
})

// Default returns the shared Reference scorer.
func Default() *Reference {
	return defaultReference()
}

// PolarityScores returns the neg/neu/pos proportions and the compound score of text.
func (r *Reference) PolarityScores(text string) Scores {
	r.mu.Lock()
	s := r.sia.PolarityScores(text)
	r.mu.Unlock()
	return Scores{Neg: s.Negative, Neu: s.Neutral, Pos: s.Positive, Compound: s.Compound}
}

// Compound returns only the compound score of text.
func (r *Reference) Compound(text string) float64 {
	return r.PolarityScores(text).Compound
}
