package styleprofile

import (
	"regexp"
	"strings"
	"unicode"
)

// document is the shared tokenization of one subject message.
type document struct {
	text string
	// words are the case-folded, alphabetic-only tokens.
	words []string
	// sentenceLengths holds the number of alphabetic tokens in each sentence.
	sentenceLengths []int
}

var sentenceBoundary = regexp.MustCompile(`[.!?]+\s+`)

var clitics = []string{"n't", "'s", "'m", "'d", "'ll", "'re", "'ve"}

func tokenizeAll(texts []string) []document {
	docs := make([]document, len(texts))
	for i, t := range texts {
		docs[i] = tokenizeDocument(t)
	}
	return docs
}

func tokenizeDocument(text string) document {
	d := document{text: text}
	for _, tok := range tokenize(text) {
		if isAlpha(tok) {
			d.words = append(d.words, strings.ToLower(tok))
		}
	}
	for _, s := range splitSentences(text) {
		n := 0
		for _, tok := range tokenize(s) {
			if isAlpha(tok) {
				n++
			}
		}
		d.sentenceLengths = append(d.sentenceLengths, n)
	}
	return d
}

// splitSentences breaks text after runs of terminal punctuation followed by whitespace.
func splitSentences(text string) []string {
	parts := sentenceBoundary.Split(strings.TrimSpace(text), -1)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// tokenize is a Treebank-flavoured word splitter: punctuation becomes its own token, trailing periods are
// detached, and clitics ("n't", "'s", "'ll", ...) are split from their host word.
func tokenize(text string) []string {
	var toks []string
	for _, field := range strings.Fields(text) {
		var cur strings.Builder
		flush := func() {
			if cur.Len() > 0 {
				toks = appendWordTokens(toks, cur.String())
				cur.Reset()
			}
		}
		for _, r := range field {
			if isSplitRune(r) {
				flush()
				toks = append(toks, string(r))
				continue
			}
			cur.WriteRune(r)
		}
		flush()
	}
	return toks
}

func appendWordTokens(toks []string, seg string) []string {
	seg = strings.ReplaceAll(seg, "’", "'")
	for strings.HasPrefix(seg, "'") {
		toks = append(toks, "'")
		seg = seg[1:]
	}
	trailing := 0
	for strings.HasSuffix(seg, ".") {
		seg = seg[:len(seg)-1]
		trailing++
	}
	if seg != "" {
		toks = append(toks, splitClitic(seg)...)
	}
	for ; trailing > 0; trailing-- {
		toks = append(toks, ".")
	}
	return toks
}

func splitClitic(word string) []string {
	for _, suf := range clitics {
		cut := len(word) - len(suf)
		if cut > 0 && strings.EqualFold(word[cut:], suf) {
			return []string{word[:cut], word[cut:]}
		}
	}
	return []string{word}
}

func isSplitRune(r rune) bool {
	switch r {
	case '\'', '’', '-', '.':
		return false
	case '$', '<', '>':
		return true
	}
	return unicode.IsPunct(r)
}

func isAlpha(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
