package bypass

import (
	"bytes"
	"net/http"
	"strings"
)

// Response is the part of a fetched page the detectors look at.
type Response struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Detector examines a response to determine if the search engine or a CDN
// in front of it blocked or challenged the request.
type Detector func(res *Response) (detected bool, source string)

// DefaultDetectors returns the standard list of block detectors.
func DefaultDetectors() []Detector {
	return []Detector{
		detectGoogleSorry,
		detectBingChallenge,
		detectCloudflare,
		detectRateLimit,
	}
}

// Analyze runs the response through all provided detectors and returns the
// source of the first detection.
func Analyze(res *Response, detectors []Detector) (bool, string) {
	if res == nil {
		return false, ""
	}
	for _, d := range detectors {
		if detected, source := d(res); detected {
			return true, source
		}
	}
	return false, ""
}

func containsFold(body []byte, needle string) bool {
	return bytes.Contains(bytes.ToLower(body), []byte(strings.ToLower(needle)))
}

// detectGoogleSorry matches the "unusual traffic" interstitial Google serves
// from /sorry/index, sometimes with a 200.
func detectGoogleSorry(res *Response) (bool, string) {
	if strings.Contains(res.URL, "/sorry/") {
		return true, "GoogleSorry"
	}
	if bytes.Contains(res.Body, []byte(`id="captcha-form"`)) ||
		containsFold(res.Body, "our systems have detected unusual traffic") {
		return true, "GoogleSorry"
	}
	if res.StatusCode == http.StatusTooManyRequests && bytes.Contains(res.Body, []byte("g-recaptcha")) {
		return true, "GoogleSorry"
	}
	return false, ""
}

// detectBingChallenge matches Bing's captcha challenge page.
func detectBingChallenge(res *Response) (bool, string) {
	if bytes.Contains(res.Body, []byte("b_captcha")) ||
		bytes.Contains(res.Body, []byte("/challenge/verify")) {
		return true, "BingChallenge"
	}
	return false, ""
}

// detectCloudflare looks for common Cloudflare challenge/block signatures.
func detectCloudflare(res *Response) (bool, string) {
	if res.StatusCode != http.StatusForbidden && res.StatusCode != http.StatusServiceUnavailable {
		return false, ""
	}
	if strings.Contains(strings.ToLower(res.Headers.Get("Server")), "cloudflare") {
		return true, "Cloudflare"
	}
	if bytes.Contains(res.Body, []byte("cf-browser-verification")) ||
		bytes.Contains(res.Body, []byte("cf-turnstile")) ||
		bytes.Contains(res.Body, []byte("Attention Required! | Cloudflare")) {
		return true, "Cloudflare"
	}
	return false, ""
}

// detectRateLimit flags a bare 429 that no engine-specific detector claimed.
func detectRateLimit(res *Response) (bool, string) {
	if res.StatusCode == http.StatusTooManyRequests {
		return true, "RateLimited"
	}
	return false, ""
}
