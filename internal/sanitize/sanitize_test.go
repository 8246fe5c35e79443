package sanitize

import (
	"strings"
	"testing"
)

func TestForStorageRemovesUnsafeCharacters(t *testing.T) {
	t.Parallel()

	in := "line one\nline two\r\nsaid \"hello\""
	out := ForStorage(in)

	for _, forbidden := range []string{"\n", "\r", `"`} {
		if strings.Contains(out, forbidden) {
			t.Fatalf("output still contains %q: %q", forbidden, out)
		}
	}
	if out != "line one line two  said 'hello'" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestForStorageEmpty(t *testing.T) {
	t.Parallel()

	if got := ForStorage(""); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestForStoragePreservesContent(t *testing.T) {
	t.Parallel()

	in := "Costs $20/mo... REALLY?!"
	if got := ForStorage(in); got != in {
		t.Fatalf("content was modified: %q", got)
	}
}

func TestForTriageNormalization(t *testing.T) {
	t.Parallel()

	in := `I think grok's bias is SO bad!! see http://x.co [link](http://y.co)`
	want := "i think groks bias is so bad see"
	if got := ForTriage(in); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestForTriageDropsNonASCII(t *testing.T) {
	t.Parallel()

	got := ForTriage("café ☕ is nice")
	if got != "cafe is nice" {
		t.Fatalf("got %q", got)
	}
}

func TestForTriageStripsURLsAndMarkdown(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in, want string
	}{
		{"visit www.example.com today", "visit today"},
		{"[label](https://a.b) trailing", "trailing"},
		{"plain text stays", "plain text stays"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := ForTriage(tc.in); got != tc.want {
			t.Fatalf("ForTriage(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
