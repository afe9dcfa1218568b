// Package polygon is the Polygon.io provider plug-in.
package polygon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cast"
	"golang.org/x/time/rate"

	"github.com/openbb/platform-core/internal/models"
	"github.com/openbb/platform-core/internal/openbberr"
	"github.com/openbb/platform-core/internal/provider"
)

// Name is the registry identifier for this plug-in.
const Name = "polygon"

// CredentialAPIKey is the credential this provider requires.
const CredentialAPIKey = "polygon_api_key"

const defaultBaseURL = "https://api.polygon.io"

// Client performs authenticated GET requests against the Polygon API.
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

// NewClient creates a Polygon API client.
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
		limiter: rate.NewLimiter(rate.Limit(4), 4),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) get(ctx context.Context, path string, query url.Values, apiKey string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	query.Set("apiKey", apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "polygon: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "polygon: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "polygon: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return &openbberr.UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "polygon: unmarshal response")
	}
	return nil
}

// Descriptor returns the registration object for the Polygon plug-in.
func Descriptor(opts ...Option) provider.Descriptor {
	client := NewClient(opts...)
	return provider.Descriptor{
		Name:            Name,
		Website:         "https://polygon.io",
		Description:     "Polygon.io: market data and reference news.",
		ReprName:        "Polygon",
		CredentialNames: []string{CredentialAPIKey},
		Models: map[string]provider.ModelCoverage{
			models.CompanyNews: {
				Fetcher: &companyNewsFetcher{client: client},
				Extras: []provider.ExtraField{
					{Name: "order", Kind: "string", Optional: true, Default: "desc",
						Description: "Sort order by publication date."},
					// Polygon filters by several sources at once; the name
					// collides with fmp's scalar variant and stays
					// provider-namespaced in the merged schema.
					{Name: "source", Kind: "list", Elem: "string", Optional: true,
						Description: "Restrict articles to these publishers."},
				},
			},
		},
	}
}

// companyNewsFetcher maps the standard company-news query onto Polygon's
// v2 reference news endpoint.
type companyNewsFetcher struct {
	client *Client
}

func (f *companyNewsFetcher) TransformQuery(params map[string]any) (provider.Query, error) {
	q := provider.Query{}
	if v, ok := params["symbols"].([]any); ok {
		parts := make([]string, len(v))
		for i, s := range v {
			parts[i] = cast.ToString(s)
		}
		q["ticker"] = strings.Join(parts, ",")
	}
	if v, ok := params["limit"]; ok {
		q["limit"] = v
	}
	if v, ok := params["order"]; ok {
		q["order"] = v
	}
	if v, ok := params["polygon.source"]; ok {
		q["source"] = v
	}
	return q, nil
}

type newsResponse struct {
	Results []map[string]any `json:"results"`
	Status  string           `json:"status"`
	Count   int              `json:"count"`
}

func (f *companyNewsFetcher) ExtractData(ctx context.Context, query provider.Query, creds provider.Credentials) (provider.RawBatch, error) {
	values := url.Values{}
	for _, key := range []string{"ticker", "limit", "order"} {
		if v, ok := query[key]; ok {
			values.Set(key, cast.ToString(v))
		}
	}
	if v, ok := query["source"].([]any); ok {
		parts := make([]string, len(v))
		for i, s := range v {
			parts[i] = cast.ToString(s)
		}
		values.Set("source", strings.Join(parts, ","))
	}

	var resp newsResponse
	if err := f.client.get(ctx, "/v2/reference/news", values, creds[CredentialAPIKey], &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (f *companyNewsFetcher) TransformData(_ context.Context, _ provider.Query, raw provider.RawBatch, _ provider.Credentials) (*provider.Result, error) {
	resp, ok := raw.(newsResponse)
	if !ok {
		return nil, fmt.Errorf("polygon: unexpected raw batch type %T", raw)
	}

	records := make([]provider.Record, 0, len(resp.Results))
	for _, a := range resp.Results {
		rec := provider.Record{}
		for k, v := range a {
			rec[k] = v
		}
		renameKey(rec, "published_utc", "date")
		renameKey(rec, "article_url", "url")
		renameKey(rec, "description", "text")
		if tickers, ok := rec["tickers"].([]any); ok {
			parts := make([]string, len(tickers))
			for i, t := range tickers {
				parts[i] = cast.ToString(t)
			}
			delete(rec, "tickers")
			rec["symbols"] = strings.Join(parts, ",")
		}
		records = append(records, rec)
	}

	return &provider.Result{
		Records:  records,
		Metadata: map[string]any{"status": resp.Status, "count": resp.Count},
	}, nil
}

func renameKey(rec provider.Record, from, to string) {
	if v, ok := rec[from]; ok {
		delete(rec, from)
		rec[to] = v
	}
}
