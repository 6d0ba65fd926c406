package styleprofile

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"

	"github.com/theimaginaryfoundation/style-o-bot/styleprofile/lexicon"
	"github.com/theimaginaryfoundation/style-o-bot/styleprofile/vader"
)

const (
	// MinSubjectMessages is the smallest subject sample Analyze will profile.
	MinSubjectMessages = 20
	// MinCorpusMessages is the smallest two-sided corpus ProfileContacts will hand to Analyze.
	MinCorpusMessages = 50

	messagesPerDayWindow = 50.0
)

// ErrInsufficientData is returned when a corpus has too few subject messages to profile.
var ErrInsufficientData = errors.New("insufficient data")

// Engine computes style profiles. It holds only read-only tables and is safe for concurrent use.
type Engine struct {
	lex    *lexicon.Lexicon
	scorer SentimentScorer
}

// NewEngine returns an engine over the given lexicon and sentiment scorer; nil selects the embedded defaults.
func NewEngine(lex *lexicon.Lexicon, scorer SentimentScorer) *Engine {
	if lex == nil {
		lex = lexicon.Default()
	}
	if scorer == nil {
		scorer = vader.Default()
	}
	return &Engine{lex: lex, scorer: scorer}
}

// SubjectMessages returns the messages sent by the subject with non-empty text, in corpus order.
func SubjectMessages(msgs []Message) []Message {
	var out []Message
	for _, m := range msgs {
		if m.IsFromMe && m.Text != "" {
			out = append(out, m)
		}
	}
	return out
}

// Analyze builds the profile for one contact's time-ordered corpus. Style, vocabulary and sentiment read
// the subject's messages; bursts and response times read the whole conversation.
func (e *Engine) Analyze(msgs []Message) (*StyleProfile, error) {
	subject := SubjectMessages(msgs)
	if len(subject) < MinSubjectMessages {
		return nil, fmt.Errorf("Analyze: %d subject messages, need %d: %w", len(subject), MinSubjectMessages, ErrInsufficientData)
	}
	texts := make([]string, len(subject))
	for i, m := range subject {
		texts[i] = m.Text
	}

	docs := tokenizeAll(texts)
	lx := analyzeLexical(texts)
	voc := analyzeVocabulary(docs, e.lex)
	sent := analyzeSentiment(texts, e.scorer)
	bursts := DetectBursts(msgs)
	rt := ResponseTimeStats(msgs)
	act := ActivityStats(subject)
	topics := CommonTopics(ScoreTopics(texts, e.lex.Topics()))

	return &StyleProfile{
		MessageStats: messageStats(texts, len(msgs)),
		Style: Style{
			Capitalization:      lx.capitalization,
			UsesPeriods:         lx.punctuation.Periods > periodCutoff,
			UsesCommas:          FrequencyLabel(lx.punctuation.Commas),
			UsesExclamation:     FrequencyLabel(lx.punctuation.Exclamation),
			UsesQuestionMarks:   lx.punctuation.Question > questionCutoff,
			UsesEllipsis:        lx.punctuation.Ellipsis > ellipsisCutoff,
			UsesApostrophes:     lx.punctuation.Apostrophes > apostropheCutoff,
			AbbreviationLevel:   voc.slangLevel,
			AvgWordsPerSentence: round(voc.avgWordsPerSentence, 1),
		},
		Emoji: Emoji{
			Frequency:           round(lx.emojiFrequency, 3),
			TopEmojis:           nonNil(lx.topEmojis),
			UsesEmojiAsResponse: lx.emojiOnly,
		},
		Vocabulary: Vocabulary{
			SlangLevel:         voc.slangLevel,
			TopPhrases:         voc.topPhrases(),
			GreetingPatterns:   nonNil(voc.greetings),
			FarewellPatterns:   nonNil(voc.farewells),
			FillerWords:        nonNil(voc.fillers),
			VocabularyRichness: round(voc.richness, 3),
		},
		Sentiment: Sentiment{
			AvgCompound:     round(sent.avg, 3),
			ToneLabel:       sent.label,
			PositivityRatio: round(sent.posRatio, 3),
			NegativityRatio: round(sent.negRatio, 3),
		},
		Behavior: Behavior{
			MultiMessageTendency:    round(bursts.MultiMessageTendency, 2),
			AvgMessagesPerBurst:     round(bursts.AvgMessagesPerBurst, 1),
			ResponseTimeMeanMinutes: round(rt.Mean, 1),
			ResponseTimeStdMinutes:  round(rt.Std, 1),
			Unmeasured:              append([]string(nil), unmeasuredBehavior...),
		},
		Topics: Topics{
			Common:           topics,
			Avoids:           []string{},
			InsideReferences: []string{},
		},
		TimePatterns: TimePatterns{
			MostActiveHours:  act.MostActiveHours,
			MorningStyle:     act.MorningStyle,
			EveningStyle:     act.EveningStyle,
			WeekendVsWeekday: act.WeekendVsWeekday,
		},
		SkippedTimestamps: rt.Skipped + act.Skipped,
	}, nil
}

func messageStats(texts []string, corpusSize int) MessageStats {
	lengths := make([]int, len(texts))
	sum := 0
	for i, t := range texts {
		lengths[i] = utf8.RuneCountInString(t)
		sum += lengths[i]
	}
	sort.Ints(lengths)
	days := math.Max(1, float64(corpusSize)/messagesPerDayWindow)
	return MessageStats{
		TotalMessagesFromYou: len(texts),
		AvgMessageLength:     sum / len(texts),
		MedianMessageLength:  lengths[len(lengths)/2],
		MaxMessageLength:     lengths[len(lengths)-1],
		MessagesPerDayAvg:    round(float64(len(texts))/days, 1),
	}
}
