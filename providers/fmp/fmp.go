package fmp

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/openbb/platform-core/internal/models"
	"github.com/openbb/platform-core/internal/provider"
)

// Name is the registry identifier for this plug-in.
const Name = "fmp"

// CredentialAPIKey is the credential this provider requires.
const CredentialAPIKey = "fmp_api_key"

// Descriptor returns the registration object for the FMP plug-in.
func Descriptor(opts ...Option) provider.Descriptor {
	client := NewClient(opts...)
	return provider.Descriptor{
		Name:            Name,
		Website:         "https://financialmodelingprep.com",
		Description:     "Financial Modeling Prep: market data, fundamentals, and news.",
		ReprName:        "FMP",
		CredentialNames: []string{CredentialAPIKey},
		Models: map[string]provider.ModelCoverage{
			models.EquityHistorical: {
				Fetcher: &equityHistoricalFetcher{client: client},
				Extras: []provider.ExtraField{
					{Name: "adjusted", Kind: "bool", Optional: true, Default: true,
						Description: "Return split and dividend adjusted prices."},
				},
			},
			models.CompanyNews: {
				Fetcher: &companyNewsFetcher{client: client},
				Extras: []provider.ExtraField{
					{Name: "order", Kind: "string", Optional: true, Default: "desc",
						Description: "Sort order by publication date."},
					{Name: "source", Kind: "string", Optional: true,
						Description: "Restrict articles to one news source."},
				},
			},
		},
	}
}

// equityHistoricalFetcher maps the standard historical-price query onto
// FMP's historical-price-full endpoint.
type equityHistoricalFetcher struct {
	client *Client
}

func (f *equityHistoricalFetcher) TransformQuery(params map[string]any) (provider.Query, error) {
	q := provider.Query{"symbol": params["symbol"]}
	if v, ok := params["start_date"].(time.Time); ok {
		q["from"] = v.Format("2006-01-02")
	}
	if v, ok := params["end_date"].(time.Time); ok {
		q["to"] = v.Format("2006-01-02")
	}
	if v, ok := params["interval"]; ok {
		q["interval"] = v
	}
	if v, ok := params["adjusted"]; ok {
		q["adjusted"] = v
	}
	return q, nil
}

type historicalResponse struct {
	Symbol     string           `json:"symbol"`
	Historical []map[string]any `json:"historical"`
}

func (f *equityHistoricalFetcher) ExtractData(ctx context.Context, query provider.Query, creds provider.Credentials) (provider.RawBatch, error) {
	symbol := cast.ToString(query["symbol"])
	values := url.Values{}
	if v, ok := query["from"]; ok {
		values.Set("from", cast.ToString(v))
	}
	if v, ok := query["to"]; ok {
		values.Set("to", cast.ToString(v))
	}

	var resp historicalResponse
	if err := f.client.get(ctx, "/historical-price-full/"+url.PathEscape(symbol), values, creds[CredentialAPIKey], &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (f *equityHistoricalFetcher) TransformData(_ context.Context, _ provider.Query, raw provider.RawBatch, _ provider.Credentials) (*provider.Result, error) {
	resp, ok := raw.(historicalResponse)
	if !ok {
		return nil, fmt.Errorf("fmp: unexpected raw batch type %T", raw)
	}

	records := make([]provider.Record, 0, len(resp.Historical))
	var warnings []provider.Warning
	for _, row := range resp.Historical {
		rec := provider.Record{}
		for k, v := range row {
			// FMP returns adjClose, changePercent and friends beyond the
			// standard bar; extension fields ride along untouched.
			rec[normalizeKey(k)] = v
		}
		if _, ok := rec["date"]; !ok {
			warnings = append(warnings, provider.Warning{
				Category: "OpenBBWarning",
				Message:  "fmp returned a bar without a date; record kept as-is",
			})
		}
		records = append(records, rec)
	}

	return &provider.Result{
		Records:  records,
		Metadata: map[string]any{"symbol": resp.Symbol},
		Warnings: warnings,
	}, nil
}

// companyNewsFetcher maps the standard company-news query onto FMP's
// stock_news endpoint.
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
		q["tickers"] = strings.Join(parts, ",")
	}
	if v, ok := params["limit"]; ok {
		q["limit"] = v
	}
	if v, ok := params["page"]; ok {
		q["page"] = v
	}
	if v, ok := params["order"]; ok {
		q["order"] = v
	}
	if v, ok := params["source"]; ok {
		q["source"] = v
	}
	return q, nil
}

func (f *companyNewsFetcher) ExtractData(ctx context.Context, query provider.Query, creds provider.Credentials) (provider.RawBatch, error) {
	values := url.Values{}
	for _, key := range []string{"tickers", "limit", "page", "order", "source"} {
		if v, ok := query[key]; ok {
			values.Set(key, cast.ToString(v))
		}
	}

	var articles []map[string]any
	if err := f.client.get(ctx, "/stock_news", values, creds[CredentialAPIKey], &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

func (f *companyNewsFetcher) TransformData(_ context.Context, _ provider.Query, raw provider.RawBatch, _ provider.Credentials) (*provider.Result, error) {
	articles, ok := raw.([]map[string]any)
	if !ok {
		return nil, fmt.Errorf("fmp: unexpected raw batch type %T", raw)
	}

	records := make([]provider.Record, 0, len(articles))
	for _, a := range articles {
		rec := provider.Record{}
		for k, v := range a {
			rec[normalizeKey(k)] = v
		}
		// FMP names differ from the standard schema.
		renameKey(rec, "published_date", "date")
		renameKey(rec, "ticker", "symbols")
		records = append(records, rec)
	}
	return &provider.Result{Records: records}, nil
}

func renameKey(rec provider.Record, from, to string) {
	if v, ok := rec[from]; ok {
		delete(rec, from)
		rec[to] = v
	}
}

// normalizeKey converts FMP's camelCase response keys to the platform's
// snake_case convention.
func normalizeKey(k string) string {
	var sb strings.Builder
	for i, r := range k {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r + ('a' - 'A'))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
