package useragent

import (
	"crypto/rand"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
)

// DefaultPool provides a realistic set of modern User-Agents for desktop browsers.
var DefaultPool = []string{
	// Chrome Windows
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	// Chrome Mac
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	// Chrome Linux
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	// Firefox Windows
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	// Firefox Mac
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:125.0) Gecko/20100101 Firefox/125.0",
	// Safari Mac
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	// Edge Windows
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36 Edg/124.0.0.0",
}

// Viewport is a browser window size in CSS pixels.
type Viewport struct {
	Width  int
	Height int
}

func (v Viewport) String() string {
	return strconv.Itoa(v.Width) + "x" + strconv.Itoa(v.Height)
}

// DefaultViewports lists common desktop resolutions.
var DefaultViewports = []Viewport{
	{Width: 1920, Height: 1080},
	{Width: 1536, Height: 864},
	{Width: 1440, Height: 900},
	{Width: 1366, Height: 768},
	{Width: 1280, Height: 720},
}

const (
	defaultAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	defaultAcceptLanguage = "en-US,en;q=0.5"
)

// Identity is the request signature a single search request presents.
type Identity struct {
	UserAgent      string
	Platform       string
	Viewport       Viewport
	AcceptLanguage string
}

// Headers returns the HTTP request headers for the identity.
func (id Identity) Headers() http.Header {
	h := make(http.Header)
	h.Set("User-Agent", id.UserAgent)
	h.Set("Accept", defaultAccept)
	lang := id.AcceptLanguage
	if lang == "" {
		lang = defaultAcceptLanguage
	}
	h.Set("Accept-Language", lang)
	h.Set("Connection", "keep-alive")
	h.Set("Upgrade-Insecure-Requests", "1")
	return h
}

// PlatformOf derives the navigator.platform value a browser with the given
// User-Agent would report.
func PlatformOf(ua string) string {
	switch {
	case strings.Contains(ua, "Windows"):
		return "Win32"
	case strings.Contains(ua, "Macintosh"):
		return "MacIntel"
	case strings.Contains(ua, "Linux"):
		return "Linux x86_64"
	default:
		return ""
	}
}

// Pool represents a collection of User-Agents and viewports from which
// request identities are drawn.
type Pool struct {
	uas       []string
	viewports []Viewport
	counter   atomic.Uint64
}

// NewPool creates a new User-Agent pool. If the provided slice is empty,
// it falls back to DefaultPool.
func NewPool(uas []string) *Pool {
	if len(uas) == 0 {
		uas = DefaultPool
	}
	copied := make([]string, len(uas))
	copy(copied, uas)
	vps := make([]Viewport, len(DefaultViewports))
	copy(vps, DefaultViewports)
	return &Pool{
		uas:       copied,
		viewports: vps,
	}
}

// GetSequential returns the next User-Agent in the pool in a round-robin fashion.
// It is safe for concurrent use.
func (p *Pool) GetSequential() string {
	if len(p.uas) == 0 {
		return ""
	}
	idx := p.counter.Add(1) - 1
	return p.uas[idx%uint64(len(p.uas))]
}

// GetRandom returns a random User-Agent from the pool using crypto/rand.
func (p *Pool) GetRandom() string {
	if len(p.uas) == 0 {
		return ""
	}
	i, ok := randIndex(len(p.uas))
	if !ok {
		return p.GetSequential()
	}
	return p.uas[i]
}

// Identity draws a random User-Agent and viewport and pairs them with the
// matching platform.
func (p *Pool) Identity() Identity {
	ua := p.GetRandom()
	id := Identity{
		UserAgent: ua,
		Platform:  PlatformOf(ua),
		Viewport:  DefaultViewports[0],
	}
	if len(p.viewports) > 0 {
		if i, ok := randIndex(len(p.viewports)); ok {
			id.Viewport = p.viewports[i]
		}
	}
	return id
}

// GetAll returns a copy of all User-Agents currently in the pool.
func (p *Pool) GetAll() []string {
	copied := make([]string, len(p.uas))
	copy(copied, p.uas)
	return copied
}

func randIndex(n int) (int, bool) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, false
	}
	return int(v.Int64()), true
}
