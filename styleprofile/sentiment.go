package styleprofile

// SentimentScorer returns a compound polarity score in [-1, 1] for one message.
// Implementations must be safe for concurrent use; *vader.Reference and *vader.Analyzer satisfy it.
type SentimentScorer interface {
	Compound(text string) float64
}

const (
	toneCutoff     = 0.15
	polarityCutoff = 0.05
	mixedPositive  = 0.4
	mixedNegative  = 0.2
)

type sentimentStats struct {
	avg      float64
	posRatio float64
	negRatio float64
	label    string
}

func analyzeSentiment(texts []string, scorer SentimentScorer) sentimentStats {
	if len(texts) == 0 {
		return sentimentStats{label: ToneNeutral}
	}
	sum := 0.0
	pos, neg := 0, 0
	for _, t := range texts {
		c := scorer.Compound(t)
		sum += c
		if c > polarityCutoff {
			pos++
		}
		if c < -polarityCutoff {
			neg++
		}
	}
	s := sentimentStats{
		avg:      sum / float64(len(texts)),
		posRatio: ratio(pos, len(texts)),
		negRatio: ratio(neg, len(texts)),
	}
	s.label = ToneLabel(s.avg, s.posRatio, s.negRatio)
	return s
}

// ToneLabel classifies the average compound score, falling back to the positive/negative mix.
func ToneLabel(avg, posRatio, negRatio float64) string {
	switch {
	case avg > toneCutoff:
		return TonePositive
	case avg < -toneCutoff:
		return ToneNegative
	case posRatio > mixedPositive && negRatio > mixedNegative:
		return ToneMixed
	default:
		return ToneNeutral
	}
}
