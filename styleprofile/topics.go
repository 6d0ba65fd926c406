package styleprofile

import (
	"sort"
	"strings"

	"github.com/theimaginaryfoundation/style-o-bot/styleprofile/lexicon"
)

const (
	topicMinScore  = 5
	maxCommonTopic = 5
)

// TopicScore is the keyword hit count of one topic.
type TopicScore struct {
	Name  string
	Score int
}

// ScoreTopics counts non-overlapping keyword occurrences over the space-joined, lowercased texts.
// Keywords match as substrings, so "eat" also hits "great". Results keep declaration order.
func ScoreTopics(texts []string, topics []lexicon.Topic) []TopicScore {
	joined := strings.ToLower(strings.Join(texts, " "))
	out := make([]TopicScore, len(topics))
	for i, tp := range topics {
		out[i].Name = tp.Name
		for _, kw := range tp.Keywords {
			out[i].Score += strings.Count(joined, kw)
		}
	}
	return out
}

// CommonTopics keeps qualifying topics, highest score first, ties in declaration order.
func CommonTopics(scores []TopicScore) []string {
	var q []TopicScore
	for _, s := range scores {
		if s.Score >= topicMinScore {
			q = append(q, s)
		}
	}
	sort.SliceStable(q, func(i, j int) bool { return q[i].Score > q[j].Score })
	out := make([]string, 0, maxCommonTopic)
	for _, s := range q[:min(len(q), maxCommonTopic)] {
		out = append(out, s.Name)
	}
	return out
}
