package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"strings"
	"testing"
	"time"
)

// chromePath returns a local Chrome binary or skips the test.
func chromePath(t *testing.T) string {
	t.Helper()
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	t.Skip("no Chrome binary found")
	return ""
}

func TestBrowser_FetchAndVisit(t *testing.T) {
	exe := chromePath(t)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			_, _ = w.Write([]byte(`<html><body><div id="search"><div class="g"><a href="https://a.example/"><h3>A</h3></a></div></div></body></html>`))
		default:
			_, _ = w.Write([]byte(`<html><body style="height:3000px">landing</body></html>`))
		}
	}))
	defer ts.Close()

	b, err := NewBrowser(BrowserConfig{
		ExecPath:      exe,
		ReadySelector: "#search",
		ReadyTimeout:  5 * time.Second,
		ScrollSteps:   1,
		Engine:        "google",
		Logger:        quietLogger(),
	})
	if err != nil {
		t.Fatalf("NewBrowser failed: %v", err)
	}
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	page, err := b.Fetch(ctx, ts.URL+"/search?q=x")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !strings.Contains(page.HTML, `class="g"`) {
		t.Errorf("expected result markup in HTML, got %q", page.HTML)
	}
	if page.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", page.StatusCode)
	}

	if err := b.Visit(ctx, ts.URL+"/landing"); err != nil {
		t.Errorf("Visit failed: %v", err)
	}

	if err := b.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}

func TestBrowser_MissingContainerStillReturnsHTML(t *testing.T) {
	exe := chromePath(t)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>nothing here</p></body></html>`))
	}))
	defer ts.Close()

	b, err := NewBrowser(BrowserConfig{
		ExecPath:      exe,
		ReadySelector: "#search",
		ReadyTimeout:  500 * time.Millisecond,
		Logger:        quietLogger(),
	})
	if err != nil {
		t.Fatalf("NewBrowser failed: %v", err)
	}
	defer b.Close()

	page, err := b.Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !strings.Contains(page.HTML, "nothing here") {
		t.Errorf("unexpected HTML %q", page.HTML)
	}
}
