package gazette

import "testing"

func TestResolveURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		href string
		want string
	}{
		{name: "relative path", href: "/ekab/1/publikation/", want: "https://amtsblatt.ag.ch/ekab/1/publikation/"},
		{name: "absolute unchanged", href: "https://example.org/x?y=1", want: "https://example.org/x?y=1"},
		{name: "relative with query", href: "/publikationen/detail/?id=42", want: "https://amtsblatt.ag.ch/publikationen/detail/?id=42"},
		{name: "empty stays empty", href: "", want: ""},
		{name: "whitespace trimmed", href: "  /a.pdf ", want: "https://amtsblatt.ag.ch/a.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ResolveURL(DefaultBaseURL, tt.href); got != tt.want {
				t.Fatalf("ResolveURL(%q) = %q, want %q", tt.href, got, tt.want)
			}
		})
	}
}

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	got, err := NormalizeURL("HTTPS://Amtsblatt.AG.ch:443/publikationen/#top")
	if err != nil {
		t.Fatalf("NormalizeURL() error = %v", err)
	}
	if got != "https://amtsblatt.ag.ch/publikationen/" {
		t.Fatalf("unexpected normalized url %q", got)
	}
	if _, err := NormalizeURL("http://%"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestOrigin(t *testing.T) {
	t.Parallel()

	if got := Origin("https://amtsblatt.ag.ch/publikationen/?q=1"); got != "https://amtsblatt.ag.ch" {
		t.Fatalf("unexpected origin %q", got)
	}
	if got := Origin("not a url"); got != "" {
		t.Fatalf("expected empty origin, got %q", got)
	}
}
