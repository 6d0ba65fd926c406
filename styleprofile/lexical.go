package styleprofile

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// emojiClass covers emoticons, misc symbols & pictographs, transport & map, regional-indicator flags,
// dingbats, enclosed alphanumerics, supplemental symbols & pictographs, pictographs extended-A and
// misc symbols. Consecutive emoji form a single match.
const emojiClass = `[\x{1F600}-\x{1F64F}\x{1F300}-\x{1F5FF}\x{1F680}-\x{1F6FF}\x{1F1E0}-\x{1F1FF}` +
	`\x{2702}-\x{27B0}\x{24C2}\x{1F170}-\x{1F251}\x{1F900}-\x{1F9FF}\x{1FA00}-\x{1FA6F}` +
	`\x{1FA70}-\x{1FAFF}\x{2600}-\x{26FF}]+`

var (
	emojiPattern     = regexp.MustCompile(emojiClass)
	emojiOnlyPattern = regexp.MustCompile(`^` + emojiClass + `$`)
)

const (
	capitalizationCutoff = 0.8
	periodCutoff         = 0.3
	questionCutoff       = 0.1
	ellipsisCutoff       = 0.05
	apostropheCutoff     = 0.2
	topEmojiCount        = 5
)

// PunctuationRatios are the fractions of subject messages satisfying each predicate.
type PunctuationRatios struct {
	Periods     float64 // ends with "."
	Exclamation float64
	Question    float64
	Ellipsis    float64
	Commas      float64
	Apostrophes float64
}

type lexicalStats struct {
	capitalization string
	punctuation    PunctuationRatios
	emojiFrequency float64
	topEmojis      []string
	emojiOnly      bool
}

func analyzeLexical(texts []string) lexicalStats {
	total := len(texts)
	var lower, upper int
	var periods, excl, quest, ellipsis, commas, apos int
	emojis := newCounter[string]()
	emojiRuns := 0
	emojiOnly := false

	for _, t := range texts {
		if r, _ := utf8.DecodeRuneInString(t); r != utf8.RuneError {
			if unicode.IsLower(r) {
				lower++
			} else if unicode.IsUpper(r) {
				upper++
			}
		}
		if strings.HasSuffix(t, ".") {
			periods++
		}
		if strings.Contains(t, "!") {
			excl++
		}
		if strings.Contains(t, "?") {
			quest++
		}
		if strings.Contains(t, "...") {
			ellipsis++
		}
		if strings.Contains(t, ",") {
			commas++
		}
		if strings.Contains(t, "'") {
			apos++
		}
		for _, e := range emojiPattern.FindAllString(t, -1) {
			emojis.add(e)
			emojiRuns++
		}
		if !emojiOnly && emojiOnlyPattern.MatchString(t) {
			emojiOnly = true
		}
	}

	top := make([]string, 0, topEmojiCount)
	for _, e := range emojis.mostCommon(topEmojiCount) {
		top = append(top, e.key)
	}

	return lexicalStats{
		capitalization: CapitalizationLabel(ratio(lower, total), ratio(upper, total)),
		punctuation: PunctuationRatios{
			Periods:     ratio(periods, total),
			Exclamation: ratio(excl, total),
			Question:    ratio(quest, total),
			Ellipsis:    ratio(ellipsis, total),
			Commas:      ratio(commas, total),
			Apostrophes: ratio(apos, total),
		},
		emojiFrequency: ratio(emojiRuns, total),
		topEmojis:      top,
		emojiOnly:      emojiOnly,
	}
}

// CapitalizationLabel classifies by the share of messages starting lowercase or uppercase.
// A share exactly at the cutoff does not exceed it.
func CapitalizationLabel(lowerRatio, upperRatio float64) string {
	switch {
	case lowerRatio > capitalizationCutoff:
		return CapitalizationNever
	case upperRatio > capitalizationCutoff:
		return CapitalizationAlways
	default:
		return CapitalizationMixed
	}
}

// FrequencyLabel buckets a ratio into rarely/sometimes/often/frequently.
func FrequencyLabel(r float64) string {
	switch {
	case r < 0.05:
		return FrequencyRarely
	case r < 0.2:
		return FrequencySometimes
	case r < 0.5:
		return FrequencyOften
	default:
		return FrequencyFrequently
	}
}

// ExtractEmojis returns the emoji runs found in text, in order.
func ExtractEmojis(text string) []string {
	return emojiPattern.FindAllString(text, -1)
}
