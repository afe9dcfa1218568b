// Package envelope wraps dispatched results, warnings, and execution
// metadata into the uniform outbound container every surface returns.
package envelope

import (
	"sync"
	"time"

	"github.com/openbb/platform-core/internal/provider"
)

// Metadata records how a call was executed. Arguments is a redacted copy
// of the call's parameters; credentials never appear in it.
type Metadata struct {
	Arguments map[string]any `json:"arguments"`
	Duration  int64          `json:"duration"` // nanoseconds around invoke only
	Route     string         `json:"route"`
	Timestamp time.Time      `json:"timestamp"`
	CallID    string         `json:"call_id,omitempty"`
}

// Extra is the envelope's open metadata container.
type Extra struct {
	Metadata Metadata       `json:"metadata"`
	Results  map[string]any `json:"results_metadata,omitempty"` // annotated-result metadata from the provider
}

// Envelope is the uniform result container. Constructed once per dispatch;
// immutable afterwards. Accessors are pure reads of Results.
type Envelope struct {
	Results   []provider.Record  `json:"results"`
	Provider  string             `json:"provider"`
	Warnings  []provider.Warning `json:"warnings"`
	Chart     any                `json:"chart"`
	Cancelled bool               `json:"cancelled,omitempty"`
	Extra     Extra              `json:"extra"`

	// columns is the standard data schema order; provider extras are
	// appended in first-encountered order when a table is materialized.
	columns []string

	tableOnce sync.Once
	table     *Table
}

// Builder assembles an envelope for one dispatched call.
type Builder struct {
	env Envelope
}

// NewBuilder starts an envelope for the given provider and route.
func NewBuilder(providerName, route string) *Builder {
	b := &Builder{}
	b.env.Provider = providerName
	b.env.Warnings = []provider.Warning{}
	b.env.Extra.Metadata.Route = route
	b.env.Extra.Metadata.Timestamp = time.Now().UTC()
	return b
}

// WithCallID attaches the dispatch call ID.
func (b *Builder) WithCallID(id string) *Builder {
	b.env.Extra.Metadata.CallID = id
	return b
}

// WithArguments attaches the redacted argument copy. The caller guarantees
// credentials were never placed in args.
func (b *Builder) WithArguments(args map[string]any) *Builder {
	copied := make(map[string]any, len(args))
	for k, v := range args {
		copied[k] = v
	}
	b.env.Extra.Metadata.Arguments = copied
	return b
}

// WithDuration records the nanosecond timing measured around invoke.
func (b *Builder) WithDuration(d time.Duration) *Builder {
	b.env.Extra.Metadata.Duration = d.Nanoseconds()
	return b
}

// WithColumns sets the standard column order for tabular accessors.
func (b *Builder) WithColumns(columns []string) *Builder {
	b.env.columns = columns
	return b
}

// WithWarnings appends warnings hoisted from validation or the provider.
func (b *Builder) WithWarnings(warnings ...provider.Warning) *Builder {
	b.env.Warnings = append(b.env.Warnings, warnings...)
	return b
}

// WithResult attaches the fetcher's output, lifting annotated-result
// metadata and per-record warnings onto the envelope.
func (b *Builder) WithResult(res *provider.Result) *Builder {
	if res == nil {
		b.env.Results = []provider.Record{}
		return b
	}
	b.env.Results = res.Records
	if b.env.Results == nil {
		b.env.Results = []provider.Record{}
	}
	if len(res.Metadata) > 0 {
		b.env.Extra.Results = res.Metadata
	}
	b.env.Warnings = append(b.env.Warnings, res.Warnings...)
	return b
}

// Cancelled marks the envelope as the product of a cancelled call.
func (b *Builder) Cancelled() *Builder {
	b.env.Cancelled = true
	b.env.Results = []provider.Record{}
	return b
}

// Build finalizes the envelope.
func (b *Builder) Build() *Envelope {
	if b.env.Results == nil {
		b.env.Results = []provider.Record{}
	}
	return &b.env
}
