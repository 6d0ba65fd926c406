// Package vader implements the VADER rule-based sentiment model (Hutto & Gilbert, 2014):
// lexicon valences adjusted for booster words, negation, ALL-CAPS emphasis, contrastive "but",
// and punctuation emphasis, normalized into a compound score in [-1, 1].
//
// Default scores against the full published lexicon through github.com/jonreiter/govader. Analyzer applies
// the same rules to a lexicon file loaded with LoadFile, for deployments that ship their own word list.
package vader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	bIncr    = 0.293
	bDecr    = -0.293
	cIncr    = 0.733
	nScalar  = -0.74
	alpha    = 15.0
	exclAmp  = 0.292
	questAmp = 0.18
)

var negations = toSet(
	"aint", "arent", "cannot", "cant", "couldnt", "darent", "didnt", "doesnt",
	"ain't", "aren't", "can't", "couldn't", "daren't", "didn't", "doesn't",
	"dont", "hadnt", "hasnt", "havent", "isnt", "mightnt", "mustnt", "neither",
	"don't", "hadn't", "hasn't", "haven't", "isn't", "mightn't", "mustn't",
	"neednt", "needn't", "never", "none", "nope", "nor", "not", "nothing", "nowhere",
	"oughtnt", "shant", "shouldnt", "uhuh", "wasnt", "werent",
	"oughtn't", "shan't", "shouldn't", "uh-uh", "wasn't", "weren't",
	"without", "wont", "wouldnt", "won't", "wouldn't", "rarely", "seldom", "despite",
)

var boosters = func() map[string]float64 {
	m := make(map[string]float64)
	for _, w := range []string{
		"absolutely", "amazingly", "awfully", "completely", "considerable", "considerably",
		"decidedly", "deeply", "effing", "enormous", "enormously", "entirely", "especially",
		"exceptional", "exceptionally", "extreme", "extremely", "fabulously", "flipping", "flippin",
		"frackin", "fracking", "fricking", "frickin", "frigging", "friggin", "fully", "fuckin", "fucking",
		"fuggin", "fugging", "greatly", "hella", "highly", "hugely", "incredible", "incredibly", "intensely",
		"major", "majorly", "more", "most", "particularly", "purely", "quite", "really", "remarkably",
		"so", "substantially", "thoroughly", "total", "totally", "tremendous", "tremendously",
		"uber", "unbelievably", "unusually", "utter", "utterly", "very",
	} {
		m[w] = bIncr
	}
	for _, w := range []string{
		"almost", "barely", "hardly", "just enough", "kind of", "kinda", "kindof", "kind-of",
		"less", "little", "marginal", "marginally", "occasional", "occasionally", "partly",
		"scarce", "scarcely", "slight", "slightly", "somewhat", "sort of", "sorta", "sortof", "sort-of",
	} {
		m[w] = bDecr
	}
	return m
}()

// Scores is the polarity breakdown for one text. Neg/Neu/Pos are proportions; Compound is normalized.
type Scores struct {
	Neg      float64 `json:"neg"`
	Neu      float64 `json:"neu"`
	Pos      float64 `json:"pos"`
	Compound float64 `json:"compound"`
}

// Analyzer scores text against an immutable lexicon. It is safe for concurrent use.
type Analyzer struct {
	lexicon map[string]float64
}

// Parse reads a lexicon in vader_lexicon.txt format: token<TAB>mean[<TAB>...], one per line.
func Parse(r io.Reader) (*Analyzer, error) {
	lex := make(map[string]float64, 8000)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(s) == "" {
			continue
		}
		fields := strings.Split(s, "\t")
		if len(fields) < 2 {
			return nil, fmt.Errorf("vader.Parse: line %d: expected token<TAB>valence", line)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("vader.Parse: line %d: %w", line, err)
		}
		lex[strings.ToLower(fields[0])] = v
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("vader.Parse: scan: %w", err)
	}
	if len(lex) == 0 {
		return nil, fmt.Errorf("vader.Parse: lexicon is empty")
	}
	return &Analyzer{lexicon: lex}, nil
}

// LoadFile reads a lexicon file from disk.
func LoadFile(path string) (*Analyzer, error) {
	if path == "" {
		return nil, errors.New("vader.LoadFile: path is empty")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vader.LoadFile: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Size is the number of lexicon entries.
func (a *Analyzer) Size() int { return len(a.lexicon) }

// Compound returns only the compound score of text.
func (a *Analyzer) Compound(text string) float64 {
	return a.PolarityScores(text).Compound
}

// PolarityScores scores text.
func (a *Analyzer) PolarityScores(text string) Scores {
	words := wordsAndEmoticons(text)
	lower := make([]string, len(words))
	for i, w := range words {
		lower[i] = strings.ToLower(w)
	}
	capDiff := allCapDifferential(words)

	sentiments := make([]float64, 0, len(words))
	for i, w := range lower {
		if _, ok := boosters[w]; ok {
			sentiments = append(sentiments, 0)
			continue
		}
		if i < len(lower)-1 && w == "kind" && lower[i+1] == "of" {
			sentiments = append(sentiments, 0)
			continue
		}
		sentiments = append(sentiments, a.valence(words, lower, i, capDiff))
	}
	sentiments = butCheck(lower, sentiments)
	return scoreValence(sentiments, text)
}

func (a *Analyzer) valence(words, lower []string, i int, capDiff bool) float64 {
	v, ok := a.lexicon[lower[i]]
	if !ok {
		return 0
	}
	if isUpper(words[i]) && capDiff {
		if v > 0 {
			v += cIncr
		} else {
			v -= cIncr
		}
	}
	for start := 0; start < 3; start++ {
		j := i - (start + 1)
		if j < 0 {
			break
		}
		if _, inLex := a.lexicon[lower[j]]; inLex {
			continue
		}
		s := scalarIncDec(words[j], lower[j], v, capDiff)
		if start == 1 && s != 0 {
			s *= 0.95
		}
		if start == 2 && s != 0 {
			s *= 0.9
		}
		v += s
		v = negationCheck(v, lower, start, i)
	}
	return a.leastCheck(v, lower, i)
}

func scalarIncDec(word, lower string, v float64, capDiff bool) float64 {
	scalar, ok := boosters[lower]
	if !ok {
		return 0
	}
	if v < 0 {
		scalar = -scalar
	}
	if isUpper(word) && capDiff {
		if v > 0 {
			scalar += cIncr
		} else {
			scalar -= cIncr
		}
	}
	return scalar
}

func negationCheck(v float64, lower []string, start, i int) float64 {
	soThis := func(w string) bool { return w == "so" || w == "this" }
	switch start {
	case 0:
		if negated(lower[i-1]) {
			v *= nScalar
		}
	case 1:
		switch {
		case lower[i-2] == "never" && soThis(lower[i-1]):
			v *= 1.25
		case lower[i-2] == "without" && lower[i-1] == "doubt":
		case negated(lower[i-2]):
			v *= nScalar
		}
	case 2:
		switch {
		case lower[i-3] == "never" && (soThis(lower[i-2]) || soThis(lower[i-1])):
			v *= 1.25
		case lower[i-3] == "without" && (lower[i-2] == "doubt" || lower[i-1] == "doubt"):
		case negated(lower[i-3]):
			v *= nScalar
		}
	}
	return v
}

func (a *Analyzer) leastCheck(v float64, lower []string, i int) float64 {
	if i > 0 && lower[i-1] == "least" {
		if _, inLex := a.lexicon["least"]; inLex {
			return v
		}
		if i > 1 && (lower[i-2] == "at" || lower[i-2] == "very") {
			return v
		}
		v *= nScalar
	}
	return v
}

func butCheck(lower []string, sentiments []float64) []float64 {
	bi := -1
	for i, w := range lower {
		if w == "but" {
			bi = i
			break
		}
	}
	if bi < 0 {
		return sentiments
	}
	for i := range sentiments {
		switch {
		case i < bi:
			sentiments[i] *= 0.5
		case i > bi:
			sentiments[i] *= 1.5
		}
	}
	return sentiments
}

func scoreValence(sentiments []float64, text string) Scores {
	if len(sentiments) == 0 {
		return Scores{}
	}
	sum := 0.0
	for _, s := range sentiments {
		sum += s
	}
	amp := punctuationEmphasis(text)
	if sum > 0 {
		sum += amp
	} else if sum < 0 {
		sum -= amp
	}
	compound := normalize(sum)

	var posSum, negSum, neuCount float64
	for _, s := range sentiments {
		switch {
		case s > 0:
			posSum += s + 1
		case s < 0:
			negSum += s - 1
		default:
			neuCount++
		}
	}
	if posSum > math.Abs(negSum) {
		posSum += amp
	} else if posSum < math.Abs(negSum) {
		negSum -= amp
	}
	total := posSum + math.Abs(negSum) + neuCount
	if total == 0 {
		return Scores{Compound: round(compound, 4)}
	}
	return Scores{
		Neg:      round(math.Abs(negSum/total), 3),
		Neu:      round(math.Abs(neuCount/total), 3),
		Pos:      round(math.Abs(posSum/total), 3),
		Compound: round(compound, 4),
	}
}

func punctuationEmphasis(text string) float64 {
	ep := strings.Count(text, "!")
	if ep > 4 {
		ep = 4
	}
	amp := float64(ep) * exclAmp
	if qm := strings.Count(text, "?"); qm > 1 {
		if qm <= 3 {
			amp += float64(qm) * questAmp
		} else {
			amp += 0.96
		}
	}
	return amp
}

func normalize(score float64) float64 {
	n := score / math.Sqrt(score*score+alpha)
	return math.Max(-1, math.Min(1, n))
}

// wordsAndEmoticons splits on whitespace, strips surrounding punctuation from words but leaves short
// tokens (emoticons such as ":)") intact, and drops single-character tokens.
func wordsAndEmoticons(text string) []string {
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		stripped := strings.TrimFunc(f, isASCIIPunct)
		if utf8.RuneCountInString(stripped) > 2 {
			f = stripped
		}
		if utf8.RuneCountInString(f) <= 1 {
			continue
		}
		out = append(out, f)
	}
	return out
}

func allCapDifferential(words []string) bool {
	caps := 0
	for _, w := range words {
		if isUpper(w) {
			caps++
		}
	}
	diff := len(words) - caps
	return diff > 0 && diff < len(words)
}

// isUpper mirrors str.isupper: at least one cased rune and no lowercase runes.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

func negated(w string) bool {
	if _, ok := negations[w]; ok {
		return true
	}
	return strings.Contains(w, "n't")
}

func isASCIIPunct(r rune) bool {
	return r < utf8.RuneSelf && unicode.IsPunct(r) || strings.ContainsRune("$+<=>^`|~", r)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
