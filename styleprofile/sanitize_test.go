package styleprofile

import "testing"

func TestSanitizeKey(t *testing.T) {
	t.Parallel()

	cases := []struct {
		label, fallback, want string
	}{
		{"José Núñez", "", "jose_nunez"},
		{"Mary-Jane O'Neil", "", "mary-jane_o_neil"},
		{"  Bob  ", "", "bob"},
		{"!!!", "+1 555 000", "1_555_000"},
		{"", "+15551234567", "15551234567"},
		{"", "", "unknown"},
		{"😂", "  ", "unknown"},
	}
	for _, c := range cases {
		if got := SanitizeKey(c.label, c.fallback); got != c.want {
			t.Fatalf("SanitizeKey(%q, %q)=%q, want %q", c.label, c.fallback, got, c.want)
		}
	}
}
