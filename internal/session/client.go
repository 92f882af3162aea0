package session

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"
)

// NewClient builds an HTTP client whose jar is seeded with the session
// cookie for the LMS host. Clients mutate per-request state internally, so
// every worker goroutine gets its own instance; the cookie value is copied
// in, never shared.
func NewClient(baseURL, cookie string) *http.Client {
	jar, _ := cookiejar.New(nil)
	if host, err := url.Parse(baseURL); err == nil && cookie != "" {
		jar.SetCookies(host, []*http.Cookie{{
			Name:  sessionCookieName,
			Value: cookie,
			Path:  "/",
		}})
	}
	return &http.Client{
		Jar:       jar,
		Timeout:   30 * time.Second,
		Transport: userAgentTransport{next: http.DefaultTransport},
	}
}

// userAgentTransport stamps the browser User-Agent on every request; the
// LMS serves reduced markup to unidentified clients.
type userAgentTransport struct {
	next http.RoundTripper
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if clone.Header.Get("User-Agent") == "" {
		clone.Header.Set("User-Agent", browserUserAgent)
	}
	return t.next.RoundTrip(clone)
}
