package urlnorm

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://www.example.com/a/", "https://example.com/a"},
		{"HTTPS://EXAMPLE.COM/a", "https://example.com/a"},
		{"https://example.com:443/a", "https://example.com/a"},
		{"http://example.com:80/a", "http://example.com/a"},
		{"https://example.com//a//b", "https://example.com/a/b"},
		{"https://example.com/a#section", "https://example.com/a"},
		{"https://example.com/a?x=1&y=2", "https://example.com/a?x=1&y=2"},
		{"https://example.com/", "https://example.com"},
	}

	for _, c := range cases {
		got, err := Normalize(c.in)
		if err != nil {
			t.Fatalf("Normalize(%q) error: %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	urls := []string{
		"https://www.example.com/a/b//c?x=1",
		"http://EXAMPLE.com:80/x/",
	}
	for _, u := range urls {
		once, err := Normalize(u)
		if err != nil {
			t.Fatalf("Normalize(%q) error: %v", u, err)
		}
		twice, err := Normalize(once)
		if err != nil {
			t.Fatalf("Normalize(%q) error: %v", once, err)
		}
		if once != twice {
			t.Errorf("not idempotent: norm(%q)=%q, norm(norm(%q))=%q", u, once, u, twice)
		}
	}
}

func TestMatchesDomain(t *testing.T) {
	cases := []struct {
		host           string
		registered     string
		allowSubdomain bool
		want           bool
	}{
		{"example.com", "example.com", false, true},
		{"a.example.com", "example.com", false, false},
		{"a.example.com", "example.com", true, true},
		{"a.b.example.com", "example.com", true, true},
		{"xample.com", "example.com", true, false},
		{"notexample.com", "example.com", true, false},
	}
	for _, c := range cases {
		got := MatchesDomain(c.host, c.registered, c.allowSubdomain)
		if got != c.want {
			t.Errorf("MatchesDomain(%q, %q, %v) = %v, want %v", c.host, c.registered, c.allowSubdomain, got, c.want)
		}
	}
}

func TestHasPrefix(t *testing.T) {
	if !HasPrefix("https://www.example.com/blog/post-1", "https://example.com/blog") {
		t.Error("expected prefix match after normalization")
	}
	if HasPrefix("https://example.com/other/post-1", "https://example.com/blog") {
		t.Error("expected no prefix match")
	}
}
