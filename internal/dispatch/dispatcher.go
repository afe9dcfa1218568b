// Package dispatch selects a provider for a call, gates it on credentials,
// invokes the provider's fetcher with a deadline, and normalizes every
// failure into the boundary error taxonomy.
package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openbb/platform-core/internal/coerce"
	"github.com/openbb/platform-core/internal/compose"
	"github.com/openbb/platform-core/internal/credentials"
	"github.com/openbb/platform-core/internal/envelope"
	"github.com/openbb/platform-core/internal/openbberr"
	"github.com/openbb/platform-core/internal/provider"
	"github.com/openbb/platform-core/internal/schema"
)

// state tracks a call through the dispatch lifecycle.
type state int

const (
	stateCreated state = iota
	stateReady
	stateCredentialed
	stateInFlight
	stateSucceeded
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateCreated:
		return "created"
	case stateReady:
		return "ready"
	case stateCredentialed:
		return "credentialed"
	case stateInFlight:
		return "in_flight"
	case stateSucceeded:
		return "succeeded"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Options tunes a single dispatched call.
type Options struct {
	// Provider is the caller's explicit provider hint. Empty means resolve
	// via route default, then credential availability, then registration
	// order.
	Provider string

	// EmptyAsError controls whether a provider returning zero records is a
	// fatal EmptyData failure (default) or an empty envelope.
	EmptyAsError *bool

	// Timeout bounds the invoke phase. Zero applies the 10 second default.
	Timeout time.Duration
}

func (o Options) emptyAsError() bool {
	return o.EmptyAsError == nil || *o.EmptyAsError
}

// Dispatcher is the per-process dispatch core. All referenced registries
// are frozen before the first call; the dispatcher itself holds no mutable
// state, so concurrent calls are independent.
type Dispatcher struct {
	providers     *provider.Registry
	composer      *compose.Composer
	vault         *credentials.Vault
	routeDefaults map[string]string // route -> provider name, from user settings
	timeout       time.Duration
}

// New creates a dispatcher. routeDefaults maps a route to the user's
// preferred provider for it.
func New(providers *provider.Registry, composer *compose.Composer, vault *credentials.Vault, routeDefaults map[string]string) *Dispatcher {
	return &Dispatcher{
		providers:     providers,
		composer:      composer,
		vault:         vault,
		routeDefaults: routeDefaults,
		timeout:       provider.DefaultTimeout,
	}
}

// WithTimeout overrides the default invoke deadline for all calls.
func (d *Dispatcher) WithTimeout(t time.Duration) *Dispatcher {
	if t > 0 {
		d.timeout = t
	}
	return d
}

// Dispatch runs one call: select, validate, credential, invoke, wrap.
// Cancellation by the caller yields a Cancelled envelope and a nil error;
// every other failure returns a classified boundary error and no envelope.
func (d *Dispatcher) Dispatch(ctx context.Context, modelName string, raw map[string]any, opts Options) (*envelope.Envelope, error) {
	callID := uuid.NewString()
	st := stateCreated

	merged, err := d.composer.Merged(modelName)
	if err != nil {
		return nil, err
	}
	route := merged.Model.Route

	provName, err := d.selectProvider(merged, opts)
	if err != nil {
		return nil, err
	}

	coerced, err := coerce.Coerce(merged, provName, raw)
	if err != nil {
		return nil, err
	}
	st = stateReady

	desc, err := d.providers.Get(provName)
	if err != nil {
		return nil, err
	}
	creds, err := d.vault.CredentialsFor(desc)
	if err != nil {
		return nil, err
	}
	st = stateCredentialed

	builder := envelope.NewBuilder(provName, route).
		WithCallID(callID).
		WithArguments(redact(coerced.Params, desc.CredentialNames)).
		WithColumns(merged.DataColumns()).
		WithWarnings(coerced.Warnings...)

	fetcher := desc.Models[modelName].Fetcher

	st = stateInFlight
	start := time.Now()
	res, invokeErr := d.invoke(ctx, fetcher, coerced.Params, creds, opts.Timeout)
	elapsed := time.Since(start)
	builder.WithDuration(elapsed)

	if invokeErr != nil {
		// Caller cancellation surfaces as an envelope, not an error.
		if errors.Is(ctx.Err(), context.Canceled) {
			st = stateFailed
			zap.L().Info("dispatch cancelled",
				zap.String("call_id", callID),
				zap.String("model", modelName),
				zap.String("provider", provName),
				zap.Duration("elapsed", elapsed),
			)
			return builder.Cancelled().Build(), nil
		}
		st = stateFailed
		classified := openbberr.Classify(invokeErr)
		zap.L().Warn("dispatch failed",
			zap.String("call_id", callID),
			zap.String("model", modelName),
			zap.String("provider", provName),
			zap.String("state", st.String()),
			zap.String("kind", string(classified.Kind)),
			zap.Error(invokeErr),
		)
		return nil, classified
	}

	builder.WithResult(res)
	env := builder.Build()

	if env.Empty() && opts.emptyAsError() {
		st = stateFailed
		return nil, openbberr.New(openbberr.KindEmptyData, "provider %q returned no data for %q", provName, modelName)
	}

	st = stateSucceeded
	zap.L().Debug("dispatch complete",
		zap.String("call_id", callID),
		zap.String("model", modelName),
		zap.String("provider", provName),
		zap.String("state", st.String()),
		zap.Int("records", len(env.Results)),
		zap.Duration("elapsed", elapsed),
	)
	return env, nil
}

// selectProvider resolves the provider: explicit hint, then route default,
// then first provider with credentials, then first registered.
func (d *Dispatcher) selectProvider(merged *compose.Merged, opts Options) (string, error) {
	if opts.Provider != "" {
		for _, name := range merged.Providers {
			if name == opts.Provider {
				return name, nil
			}
		}
		return "", openbberr.New(openbberr.KindUnknownProvider,
			"provider %q does not cover model %q", opts.Provider, merged.Model.Name)
	}
	return d.providers.DefaultProvider(merged.Model.Name, d.routeDefaults[merged.Model.Route], d.vault)
}

// invoke sequentially runs the three fetcher steps under the call deadline.
// No locks are held across the suspension points.
func (d *Dispatcher) invoke(ctx context.Context, f provider.Fetcher, params map[string]any, creds provider.Credentials, timeout time.Duration) (*provider.Result, error) {
	if timeout <= 0 {
		timeout = d.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	query, err := f.TransformQuery(params)
	if err != nil {
		return nil, err
	}

	raw, err := f.ExtractData(ctx, query, creds)
	if err != nil {
		return nil, err
	}

	return f.TransformData(ctx, query, raw, creds)
}

// redact copies params, dropping any key matching a declared credential
// name. Credentials travel on their own channel and must never appear in
// envelope arguments.
func redact(params map[string]any, credentialNames []string) map[string]any {
	blocked := make(map[string]struct{}, len(credentialNames))
	for _, name := range credentialNames {
		blocked[name] = struct{}{}
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		if _, hit := blocked[k]; hit {
			continue
		}
		out[k] = v
	}
	return out
}

// ModelForRoute looks up the model registered under a route. Used by the
// HTTP surface and CLI to translate an operation id into a model name.
func ModelForRoute(schemas *schema.Registry, route string) (string, error) {
	for _, name := range schemas.Names() {
		m, err := schemas.Lookup(name)
		if err != nil {
			continue
		}
		if m.Route == route {
			return name, nil
		}
	}
	return "", openbberr.New(openbberr.KindUnknownModel, "no model registered for route %q", route)
}
