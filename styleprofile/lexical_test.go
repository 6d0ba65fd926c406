package styleprofile

import (
	"reflect"
	"testing"
)

func TestCapitalizationLabel_Boundary(t *testing.T) {
	t.Parallel()

	if got := CapitalizationLabel(0.8, 0.2); got != CapitalizationMixed {
		t.Fatalf("CapitalizationLabel(0.8, 0.2)=%q, want mixed", got)
	}
	if got := CapitalizationLabel(0.81, 0.19); got != CapitalizationNever {
		t.Fatalf("CapitalizationLabel(0.81, 0.19)=%q, want never", got)
	}
	if got := CapitalizationLabel(0.1, 0.8); got != CapitalizationMixed {
		t.Fatalf("CapitalizationLabel(0.1, 0.8)=%q, want mixed", got)
	}
	if got := CapitalizationLabel(0, 0.9); got != CapitalizationAlways {
		t.Fatalf("CapitalizationLabel(0, 0.9)=%q, want always", got)
	}
}

func TestCapitalization_FourOfFiveIsMixed(t *testing.T) {
	t.Parallel()

	texts := []string{"ok", "sure", "yeah", "no", "Fine"}
	if got := analyzeLexical(texts).capitalization; got != CapitalizationMixed {
		t.Fatalf("capitalization=%q, want mixed (4/5 is exactly 0.8)", got)
	}
	texts = append(texts, "k", "yep", "nah", "right", "fine")
	if got := analyzeLexical(texts).capitalization; got != CapitalizationNever {
		t.Fatalf("capitalization=%q, want never (9/10)", got)
	}
}

func TestFrequencyLabel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		r    float64
		want string
	}{
		{0, FrequencyRarely},
		{0.049, FrequencyRarely},
		{0.05, FrequencySometimes},
		{0.2, FrequencyOften},
		{0.499, FrequencyOften},
		{0.5, FrequencyFrequently},
		{1, FrequencyFrequently},
	}
	for _, c := range cases {
		if got := FrequencyLabel(c.r); got != c.want {
			t.Fatalf("FrequencyLabel(%v)=%q, want %q", c.r, got, c.want)
		}
	}
}

func TestAnalyzeLexical_Punctuation(t *testing.T) {
	t.Parallel()

	texts := []string{"Done.", "wait, what?", "hmm...", "it's fine!"}
	lx := analyzeLexical(texts)
	p := lx.punctuation
	// "hmm..." ends with "." too.
	if p.Periods != 0.5 || p.Question != 0.25 || p.Ellipsis != 0.25 || p.Commas != 0.25 || p.Apostrophes != 0.25 || p.Exclamation != 0.25 {
		t.Fatalf("punctuation=%+v", p)
	}
}

func TestAnalyzeLexical_Emoji(t *testing.T) {
	t.Parallel()

	texts := []string{"lol 😂😂", "😂", "nice 👍", "ok", "😂"}
	lx := analyzeLexical(texts)

	// Adjacent emoji form one run, so "😂😂" and "😂" are different entries.
	if lx.emojiFrequency != 4.0/5.0 {
		t.Fatalf("emojiFrequency=%v, want 0.8", lx.emojiFrequency)
	}
	want := []string{"😂", "😂😂", "👍"}
	if !reflect.DeepEqual(lx.topEmojis, want) {
		t.Fatalf("topEmojis=%q, want %q", lx.topEmojis, want)
	}
	if !lx.emojiOnly {
		t.Fatalf("expected emoji-only response to be detected")
	}

	if analyzeLexical([]string{"nice 👍"}).emojiOnly {
		t.Fatalf("mixed text should not count as emoji-only")
	}
}

func TestAnalyzeLexical_TopEmojiTiesKeepFirstSeen(t *testing.T) {
	t.Parallel()

	texts := []string{"🍕", "a 🎉", "b 🔥", "c 🚀", "d 🌮", "e 🎸", "🎸"}
	got := analyzeLexical(texts).topEmojis
	want := []string{"🎸", "🍕", "🎉", "🔥", "🚀"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("topEmojis=%q, want %q", got, want)
	}
}

func TestExtractEmojis(t *testing.T) {
	t.Parallel()

	got := ExtractEmojis("good ☀️ morning 🇺🇸 ✂ x")
	if len(got) != 3 {
		t.Fatalf("ExtractEmojis=%q, want 3 runs", got)
	}
}

func TestExtractEmojis_EnclosedSymbolsNotLetters(t *testing.T) {
	t.Parallel()

	got := ExtractEmojis("Ⓜ ok 🅰 你好 한국 🈁")
	want := []string{"Ⓜ", "🅰", "🈁"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractEmojis=%q, want %q", got, want)
	}
}
