// Package fmp is the Financial Modeling Prep provider plug-in.
package fmp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/openbb/platform-core/internal/openbberr"
)

const defaultBaseURL = "https://financialmodelingprep.com/api/v3"

// Client performs authenticated GET requests against the FMP API.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient creates an FMP API client. The rate limiter keeps bursts under
// the vendor's free-tier ceiling.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(5), 5),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// get fetches path with the given query values, injecting the API key, and
// decodes the JSON response into out. Non-2xx responses surface as
// UpstreamError so the dispatcher can classify them.
func (c *Client) get(ctx context.Context, path string, query url.Values, apiKey string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	query.Set("apikey", apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "fmp: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "fmp: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "fmp: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return &openbberr.UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "fmp: unmarshal response")
	}
	return nil
}
