// Package rentcast queries the RentCast rental listings API.
package rentcast

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the long-term rental listings search endpoint.
	DefaultBaseURL = "https://api.rentcast.io/v1/listings/rental/long-term"

	// DefaultStatus is the listing status filter applied when none is given.
	DefaultStatus = "Active"
)

// Client searches rental listings near a point.
type Client interface {
	SearchRentals(ctx context.Context, params SearchParams) ([]Listing, error)
}

// SearchParams are the query parameters for a radius search.
type SearchParams struct {
	Latitude  float64
	Longitude float64
	Radius    float64 // miles
	Status    string
}

// Listing is a rental listing as returned by the API. Every field is optional
// on the wire; absent fields decode to nil.
type Listing struct {
	ID               string   `json:"id" yaml:"id"`
	FormattedAddress *string  `json:"formattedAddress" yaml:"formattedAddress"`
	AddressLine1     *string  `json:"addressLine1" yaml:"addressLine1"`
	AddressLine2     *string  `json:"addressLine2" yaml:"addressLine2"`
	City             *string  `json:"city" yaml:"city"`
	State            *string  `json:"state" yaml:"state"`
	ZipCode          *string  `json:"zipCode" yaml:"zipCode"`
	County           *string  `json:"county" yaml:"county"`
	Latitude         *float64 `json:"latitude" yaml:"latitude"`
	Longitude        *float64 `json:"longitude" yaml:"longitude"`
	PropertyType     *string  `json:"propertyType" yaml:"propertyType"`
	Status           *string  `json:"status" yaml:"status"`
	Price            *int     `json:"price" yaml:"price"`
	Bedrooms         *float64 `json:"bedrooms" yaml:"bedrooms"`
	Bathrooms        *float64 `json:"bathrooms" yaml:"bathrooms"`
	SquareFootage    *int     `json:"squareFootage" yaml:"squareFootage"`
	LotSize          *int     `json:"lotSize" yaml:"lotSize"`
	YearBuilt        *int     `json:"yearBuilt" yaml:"yearBuilt"`
	ListedDate       *string  `json:"listedDate" yaml:"listedDate"`
	RemovedDate      *string  `json:"removedDate" yaml:"removedDate"`
	CreatedDate      *string  `json:"createdDate" yaml:"createdDate"`
	LastSeenDate     *string  `json:"lastSeenDate" yaml:"lastSeenDate"`
	DaysOnMarket     *int     `json:"daysOnMarket" yaml:"daysOnMarket"`
}

// ErrUnexpectedFormat is returned when a 200 response is JSON but not an array.
var ErrUnexpectedFormat = eris.New("rentcast: unexpected response format")

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default search endpoint.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the request timeout on the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a RentCast API client. The API key and base URL are
// required.
func NewClient(apiKey string, opts ...Option) (Client, error) {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	if c.apiKey == "" {
		return nil, eris.New("rentcast: api key is required (RENTCAST_API_KEY)")
	}
	if c.baseURL == "" {
		return nil, eris.New("rentcast: base url is required (RENTCAST_API_URL)")
	}
	return c, nil
}

func (c *httpClient) SearchRentals(ctx context.Context, params SearchParams) ([]Listing, error) {
	status := params.Status
	if status == "" {
		status = DefaultStatus
	}

	q := url.Values{
		"latitude":  {formatFloat(params.Latitude)},
		"longitude": {formatFloat(params.Longitude)},
		"radius":    {formatFloat(params.Radius)},
		"status":    {status},
	}

	reqURL, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, eris.Wrap(err, "rentcast: parse base url")
	}
	merged := reqURL.Query()
	for k, v := range q {
		merged[k] = v
	}
	reqURL.RawQuery = merged.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "rentcast: create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "rentcast: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "rentcast: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("rentcast: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if !json.Valid(body) {
		return nil, eris.New("rentcast: could not decode JSON response")
	}
	if trimmed := bytes.TrimSpace(body); len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, eris.Wrapf(ErrUnexpectedFormat, "body %s", truncate(string(trimmed), 200))
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(body, &elems); err != nil {
		return nil, eris.Wrap(err, "rentcast: unmarshal listings")
	}

	// One malformed record must not cost the rest of the page.
	listings := make([]Listing, 0, len(elems))
	for i, raw := range elems {
		var l Listing
		if err := json.Unmarshal(raw, &l); err != nil {
			zap.L().Warn("rentcast: skipping undecodable listing",
				zap.Int("index", i),
				zap.String("body", truncate(string(raw), 200)),
				zap.Error(err),
			)
			continue
		}
		listings = append(listings, l)
	}
	return listings, nil
}

// UnmarshalJSON decodes a listing, accepting fractional values in the integer
// fields and rounding them half away from zero.
func (l *Listing) UnmarshalJSON(data []byte) error {
	type plain Listing
	aux := struct {
		*plain
		Price         *json.Number `json:"price"`
		SquareFootage *json.Number `json:"squareFootage"`
		LotSize       *json.Number `json:"lotSize"`
		YearBuilt     *json.Number `json:"yearBuilt"`
		DaysOnMarket  *json.Number `json:"daysOnMarket"`
	}{plain: (*plain)(l)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	if l.Price, err = roundNumber("price", aux.Price); err != nil {
		return err
	}
	if l.SquareFootage, err = roundNumber("squareFootage", aux.SquareFootage); err != nil {
		return err
	}
	if l.LotSize, err = roundNumber("lotSize", aux.LotSize); err != nil {
		return err
	}
	if l.YearBuilt, err = roundNumber("yearBuilt", aux.YearBuilt); err != nil {
		return err
	}
	if l.DaysOnMarket, err = roundNumber("daysOnMarket", aux.DaysOnMarket); err != nil {
		return err
	}
	return nil
}

func roundNumber(field string, n *json.Number) (*int, error) {
	if n == nil {
		return nil, nil
	}
	if i, err := n.Int64(); err == nil && i >= math.MinInt && i <= math.MaxInt {
		v := int(i)
		return &v, nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, eris.Wrapf(err, "rentcast: %s", field)
	}
	r := math.Round(f)
	if r < math.MinInt64 || r >= math.MaxInt64 {
		return nil, eris.Errorf("rentcast: %s %s out of range", field, n.String())
	}
	v := int(r)
	return &v, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
