package useragent

import (
	"testing"
)

func TestPool_GetSequential(t *testing.T) {
	p := NewPool([]string{"A", "B", "C"})

	for i, want := range []string{"A", "B", "C", "A"} {
		if got := p.GetSequential(); got != want {
			t.Errorf("call %d: expected %s, got %s", i, want, got)
		}
	}
}

func TestPool_Default(t *testing.T) {
	p := NewPool(nil)
	if len(p.GetAll()) != len(DefaultPool) {
		t.Errorf("expected pool length %d, got %d", len(DefaultPool), len(p.GetAll()))
	}
	if got := p.GetSequential(); got != DefaultPool[0] {
		t.Errorf("expected %s, got %s", DefaultPool[0], got)
	}
}

func TestPool_GetRandom(t *testing.T) {
	p := NewPool([]string{"A", "B"})

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		got := p.GetRandom()
		if got != "A" && got != "B" {
			t.Fatalf("unexpected UA: %s", got)
		}
		seen[got] = true
	}

	if !seen["A"] || !seen["B"] {
		t.Errorf("expected to see both A and B randomly, got %v", seen)
	}
}

func TestPool_Empty(t *testing.T) {
	p := &Pool{uas: []string{}}

	if got := p.GetSequential(); got != "" {
		t.Errorf("expected empty string on empty sequential, got %s", got)
	}
	if got := p.GetRandom(); got != "" {
		t.Errorf("expected empty string on empty random, got %s", got)
	}
}

func TestPool_Identity(t *testing.T) {
	ua := "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15"
	p := NewPool([]string{ua})

	id := p.Identity()
	if id.UserAgent != ua {
		t.Errorf("expected UA %q, got %q", ua, id.UserAgent)
	}
	if id.Platform != "MacIntel" {
		t.Errorf("expected MacIntel platform, got %q", id.Platform)
	}

	valid := false
	for _, vp := range DefaultViewports {
		if vp == id.Viewport {
			valid = true
		}
	}
	if !valid {
		t.Errorf("viewport %s not drawn from DefaultViewports", id.Viewport)
	}
}

func TestIdentity_Headers(t *testing.T) {
	id := Identity{UserAgent: "TestBrowser/1.0"}
	h := id.Headers()

	if got := h.Get("User-Agent"); got != "TestBrowser/1.0" {
		t.Errorf("expected User-Agent TestBrowser/1.0, got %q", got)
	}
	if got := h.Get("Accept-Language"); got != defaultAcceptLanguage {
		t.Errorf("expected default Accept-Language, got %q", got)
	}
	if got := h.Get("Upgrade-Insecure-Requests"); got != "1" {
		t.Errorf("expected Upgrade-Insecure-Requests 1, got %q", got)
	}

	id.AcceptLanguage = "ja-JP,ja;q=0.9"
	if got := id.Headers().Get("Accept-Language"); got != "ja-JP,ja;q=0.9" {
		t.Errorf("expected overridden Accept-Language, got %q", got)
	}
}

func TestPlatformOf(t *testing.T) {
	tests := map[string]string{
		DefaultPool[0]: "Win32",
		DefaultPool[2]: "MacIntel",
		DefaultPool[3]: "Linux x86_64",
		"curl/8.0":     "",
	}
	for ua, want := range tests {
		if got := PlatformOf(ua); got != want {
			t.Errorf("PlatformOf(%q) = %q, want %q", ua, got, want)
		}
	}
}

func TestViewport_String(t *testing.T) {
	if got := (Viewport{Width: 1366, Height: 768}).String(); got != "1366x768" {
		t.Errorf("expected 1366x768, got %s", got)
	}
}
