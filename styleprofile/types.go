package styleprofile

// Message is one entry of a contact's time-ordered corpus, in either direction.
// Date is kept as the ISO-8601 string produced by the history extractor and parsed lazily so that a single
// malformed timestamp only drops the samples it would have fed.
type Message struct {
	ID       int64
	Text     string
	IsFromMe bool
	Date     string
	IsGroup  bool
}

// StyleProfile is the communication fingerprint of the subject towards one contact.
// It is created once per corpus and never mutated; serialization is byte-stable for a given corpus.
type StyleProfile struct {
	MessageStats MessageStats `json:"message_stats"`
	Style        Style        `json:"style"`
	Emoji        Emoji        `json:"emoji"`
	Vocabulary   Vocabulary   `json:"vocabulary"`
	Sentiment    Sentiment    `json:"sentiment"`
	Behavior     Behavior     `json:"behavior"`
	Topics       Topics       `json:"topics"`
	TimePatterns TimePatterns `json:"time_patterns"`

	// SkippedTimestamps counts timing samples dropped because a date did not parse. Not serialized.
	SkippedTimestamps int `json:"-"`
}

type MessageStats struct {
	TotalMessagesFromYou int     `json:"total_messages_from_you"`
	AvgMessageLength     int     `json:"avg_message_length"`
	MedianMessageLength  int     `json:"median_message_length"`
	MaxMessageLength     int     `json:"max_message_length"`
	MessagesPerDayAvg    float64 `json:"messages_per_day_avg"`
}

// Style mixes boolean cutoffs and frequency labels; downstream prompt builders depend on both shapes.
type Style struct {
	Capitalization      string  `json:"capitalization"`
	UsesPeriods         bool    `json:"uses_periods"`
	UsesCommas          string  `json:"uses_commas"`
	UsesExclamation     string  `json:"uses_exclamation"`
	UsesQuestionMarks   bool    `json:"uses_question_marks"`
	UsesEllipsis        bool    `json:"uses_ellipsis"`
	UsesApostrophes     bool    `json:"uses_apostrophes"`
	AbbreviationLevel   string  `json:"abbreviation_level"`
	AvgWordsPerSentence float64 `json:"avg_words_per_sentence"`
}

type Emoji struct {
	Frequency           float64  `json:"frequency"`
	TopEmojis           []string `json:"top_emojis"`
	UsesEmojiAsResponse bool     `json:"uses_emoji_as_response"`
}

type Vocabulary struct {
	SlangLevel         string   `json:"slang_level"`
	TopPhrases         []string `json:"top_phrases"`
	GreetingPatterns   []string `json:"greeting_patterns"`
	FarewellPatterns   []string `json:"farewell_patterns"`
	FillerWords        []string `json:"filler_words"`
	VocabularyRichness float64  `json:"vocabulary_richness"`
}

type Sentiment struct {
	AvgCompound     float64 `json:"avg_compound"`
	ToneLabel       string  `json:"tone_label"`
	PositivityRatio float64 `json:"positivity_ratio"`
	NegativityRatio float64 `json:"negativity_ratio"`
}

// Behavior carries timing metrics. The pointer fields are not measured yet: they are always null and are
// named in Unmeasured so consumers never mistake a placeholder for data.
type Behavior struct {
	MultiMessageTendency       float64  `json:"multi_message_tendency"`
	AvgMessagesPerBurst        float64  `json:"avg_messages_per_burst"`
	ResponseTimeMeanMinutes    float64  `json:"response_time_mean_minutes"`
	ResponseTimeStdMinutes     float64  `json:"response_time_std_minutes"`
	InitiatesConversations     *bool    `json:"initiates_conversations"`
	InitiationFrequencyPerWeek *float64 `json:"initiation_frequency_per_week"`
	TapbackFrequency           *float64 `json:"tapback_frequency"`
	LeavesOnReadFrequency      *float64 `json:"leaves_on_read_frequency"`
	Unmeasured                 []string `json:"unmeasured"`
}

type Topics struct {
	Common           []string `json:"common"`
	Avoids           []string `json:"avoids"`
	InsideReferences []string `json:"inside_references"`
}

type TimePatterns struct {
	MostActiveHours  []int  `json:"most_active_hours"`
	MorningStyle     string `json:"morning_style"`
	EveningStyle     string `json:"evening_style"`
	WeekendVsWeekday string `json:"weekend_vs_weekday"`
}

// Label values.
const (
	CapitalizationNever  = "never"
	CapitalizationAlways = "always"
	CapitalizationMixed  = "mixed"

	FrequencyRarely     = "rarely"
	FrequencySometimes  = "sometimes"
	FrequencyOften      = "often"
	FrequencyFrequently = "frequently"

	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"

	TonePositive = "positive"
	ToneNegative = "negative"
	ToneMixed    = "mixed"
	ToneNeutral  = "neutral"

	MorningMinimal  = "minimal"
	EveningEngaged  = "engaged"
	PeriodInactive  = "inactive"
	WeekendsHeavier = "more_on_weekends"
	WeekdaysHeavier = "more_on_weekdays"
	WeekSimilar     = "similar"
)

var unmeasuredBehavior = []string{
	"initiates_conversations",
	"initiation_frequency_per_week",
	"tapback_frequency",
	"leaves_on_read_frequency",
}
