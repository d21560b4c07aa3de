package geocode

import (
	"net/http"
	"strings"

	"golang.org/x/time/rate"
)

// newTestLimiter creates a rate limiter that effectively does not limit for tests.
func newTestLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 1)
}

// newTestGeocoder builds a geocoder whose requests to targetPrefix are served
// by the test server at srvURL.
func newTestGeocoder(p Provider, srvURL, targetPrefix string) *geocoder {
	return &geocoder{
		httpClient: newRewriteClient(srvURL, targetPrefix),
		provider:   p,
		userAgent:  "rentbeacon-test",
		googleKey:  "test-key",
		limiter:    newTestLimiter(),
	}
}

// newRewriteClient creates an HTTP client that redirects every request whose
// URL starts with targetPrefix to the test server.
func newRewriteClient(testServerURL, targetPrefix string) *http.Client {
	return &http.Client{
		Transport: &rewriteTransport{
			base:         http.DefaultTransport,
			testServer:   testServerURL,
			targetPrefix: targetPrefix,
		},
	}
}

type rewriteTransport struct {
	base         http.RoundTripper
	testServer   string
	targetPrefix string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	origURL := req.URL.String()
	if !strings.HasPrefix(origURL, t.targetPrefix) {
		return t.base.RoundTrip(req)
	}
	parsed, err := req.URL.Parse(t.testServer + origURL[len(t.targetPrefix):])
	if err != nil {
		return nil, err
	}
	newReq := req.Clone(req.Context())
	newReq.URL = parsed
	newReq.Host = parsed.Host
	return t.base.RoundTrip(newReq)
}
