package styleprofile

import (
	"sort"
	"strings"

	"github.com/theimaginaryfoundation/style-o-bot/styleprofile/lexicon"
)

const (
	slangMinCount       = 3
	fillerMinCount      = 5
	farewellMinCount    = 2
	bigramMinCount      = 3
	topBigramCount      = 10
	topPhraseSlang      = 10
	topPhraseBigrams    = 5
	defaultWordsPerSent = 5.0
)

type vocabularyStats struct {
	slangLevel          string
	usedSlang           []string
	topBigrams          []string
	greetings           []string
	farewells           []string
	fillers             []string
	richness            float64
	avgWordsPerSentence float64
}

func analyzeVocabulary(docs []document, lex *lexicon.Lexicon) vocabularyStats {
	words := newCounter[string]()
	bigrams := newCounter[string]()
	totalWords := 0
	sentences, sentenceWords := 0, 0

	for _, d := range docs {
		for _, w := range d.words {
			words.add(w)
		}
		totalWords += len(d.words)
		for _, n := range d.sentenceLengths {
			sentences++
			sentenceWords += n
		}

		var content []string
		for _, w := range d.words {
			if !lex.IsStopword(w) {
				content = append(content, w)
			}
		}
		for i := 1; i < len(content); i++ {
			bigrams.add(content[i-1] + " " + content[i])
		}
	}

	var used []string
	for _, s := range lex.Slang() {
		if words.get(s) >= slangMinCount {
			used = append(used, s)
		}
	}

	var top []string
	for _, e := range bigrams.mostCommon(topBigramCount) {
		if e.count >= bigramMinCount {
			top = append(top, e.key)
		}
	}

	var greetings []string
	for _, g := range lex.Greetings() {
		for _, d := range docs {
			if strings.HasPrefix(strings.ToLower(d.text), g) {
				greetings = append(greetings, g)
				break
			}
		}
	}
	sort.Strings(greetings)

	var farewells []string
	for _, f := range lex.Farewells() {
		if words.get(f) >= farewellMinCount {
			farewells = append(farewells, f)
		}
	}
	sort.Strings(farewells)

	var fillers []string
	for _, f := range lex.FillerWords() {
		if words.get(f) >= fillerMinCount {
			fillers = append(fillers, f)
		}
	}

	avg := defaultWordsPerSent
	if sentences > 0 {
		avg = float64(sentenceWords) / float64(sentences)
	}

	return vocabularyStats{
		slangLevel:          SlangLevel(len(used)),
		usedSlang:           used,
		topBigrams:          top,
		greetings:           greetings,
		farewells:           farewells,
		fillers:             fillers,
		richness:            ratio(words.distinct(), totalWords),
		avgWordsPerSentence: avg,
	}
}

// SlangLevel maps the number of distinct, repeatedly used slang terms to a level.
func SlangLevel(distinctUsed int) string {
	switch {
	case distinctUsed > 5:
		return LevelHigh
	case distinctUsed > 2:
		return LevelMedium
	default:
		return LevelLow
	}
}

// topPhrases is up to ten used slang terms (sorted) followed by up to five frequent bigrams.
func (v vocabularyStats) topPhrases() []string {
	out := make([]string, 0, topPhraseSlang+topPhraseBigrams)
	out = append(out, v.usedSlang[:min(len(v.usedSlang), topPhraseSlang)]...)
	out = append(out, v.topBigrams[:min(len(v.topBigrams), topPhraseBigrams)]...)
	return out
}
