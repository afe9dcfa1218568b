// Package models declares the standard query and data schemas for every
// logical model the platform ships. Standard field names are snake-case
// and carry no provider prefixes; provider-specific knobs live in each
// provider's descriptor extras.
package models

import (
	"github.com/openbb/platform-core/internal/schema"
)

// Model names.
const (
	EquityHistorical = "EquityHistorical"
	CompanyNews      = "CompanyNews"
)

// Routes for the operation surface.
const (
	RouteEquityHistorical = "/equity/price/historical"
	RouteCompanyNews      = "/news/company"
)

// RegisterAll registers every standard model into the schema registry.
func RegisterAll(reg *schema.Registry) error {
	for _, m := range All() {
		if err := reg.Register(m); err != nil {
			return err
		}
	}
	return nil
}

// All returns the standard model declarations in registration order.
func All() []schema.Model {
	return []schema.Model{
		equityHistorical(),
		companyNews(),
	}
}

func equityHistorical() schema.Model {
	return schema.Model{
		Name:  EquityHistorical,
		Route: RouteEquityHistorical,
		Query: schema.NewQuerySchema(
			schema.Field{
				Name:        "symbol",
				Kind:        schema.KindSymbol,
				Description: "Ticker symbol to fetch historical prices for.",
				Validators:  []schema.Validator{schema.SingleValue(), schema.UpperCase()},
			},
			schema.Field{
				Name:        "start_date",
				Kind:        schema.KindDate,
				Optional:    true,
				Description: "Start of the requested window.",
			},
			schema.Field{
				Name:        "end_date",
				Kind:        schema.KindDate,
				Optional:    true,
				Description: "End of the requested window.",
			},
			schema.Field{
				Name:        "interval",
				Kind:        schema.KindEnum,
				Choices:     []string{"1m", "5m", "15m", "1h", "1d", "1W", "1M"},
				Default:     "1d",
				Optional:    true,
				Description: "Bar interval.",
			},
		),
		Data: schema.NewDataSchema(
			schema.Field{Name: "date", Kind: schema.KindDate, Description: "Bar date."},
			schema.Field{Name: "open", Kind: schema.KindFloat, Description: "Opening price."},
			schema.Field{Name: "high", Kind: schema.KindFloat, Description: "High price."},
			schema.Field{Name: "low", Kind: schema.KindFloat, Description: "Low price."},
			schema.Field{Name: "close", Kind: schema.KindFloat, Description: "Closing price."},
			schema.Field{Name: "volume", Kind: schema.KindInt, Optional: true, Description: "Traded volume."},
		),
	}
}

func companyNews() schema.Model {
	return schema.Model{
		Name:  CompanyNews,
		Route: RouteCompanyNews,
		Query: schema.NewQuerySchema(
			schema.Field{
				Name:        "symbols",
				Kind:        schema.KindList,
				Elem:        schema.KindSymbol,
				Description: "Ticker symbols to fetch news for.",
			},
			schema.Field{
				Name:        "limit",
				Kind:        schema.KindInt,
				Default:     20,
				Optional:    true,
				Description: "Maximum number of articles.",
			},
			schema.Field{
				Name:        "page",
				Kind:        schema.KindInt,
				Default:     0,
				Optional:    true,
				Description: "Page of results to fetch.",
			},
		),
		Data: schema.NewDataSchema(
			schema.Field{Name: "date", Kind: schema.KindDateTime, Description: "Publication timestamp."},
			schema.Field{Name: "title", Kind: schema.KindString, Description: "Article headline."},
			schema.Field{Name: "text", Kind: schema.KindString, Optional: true, Description: "Article body or summary."},
			schema.Field{Name: "url", Kind: schema.KindString, Optional: true, Description: "Canonical article URL."},
			schema.Field{Name: "symbols", Kind: schema.KindString, Optional: true, Description: "Symbols the article covers."},
		),
	}
}
