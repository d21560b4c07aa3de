package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"
)

// getJSON waits for the limiter, issues a GET to endpoint with params and
// decodes a 200 response into out. Errors are prefixed with the provider.
func (g *geocoder) getJSON(ctx context.Context, p Provider, endpoint string, params url.Values, out any) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return eris.Wrapf(err, "geocode: %s rate limit", p)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return eris.Wrapf(err, "geocode: %s build request", p)
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return eris.Wrapf(err, "geocode: %s request", p)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("geocode: %s returned status %d", p, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrapf(err, "geocode: %s read body", p)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "geocode: %s parse response", p)
	}
	return nil
}

// miss is the Result for an address the provider could not place.
func miss(p Provider) *Result {
	return &Result{Matched: false, Source: string(p)}
}
