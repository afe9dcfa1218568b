package openbberr

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Message(t *testing.T) {
	err := New(KindUnknownModel, "model %q not registered", "EquityHistorical")
	assert.Equal(t, `UnknownModel: model "EquityHistorical" not registered`, err.Error())
}

func TestError_FieldsMessage(t *testing.T) {
	err := Validation([]FieldError{
		{Field: "symbol", Message: "required parameter is missing"},
		{Field: "limit", Message: "must be an integer"},
	})
	assert.Contains(t, err.Error(), "symbol: required parameter is missing")
	assert.Contains(t, err.Error(), "limit: must be an integer")
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindMissingCredential, KindOf(New(KindMissingCredential, "no key")))
	assert.Equal(t, KindProviderInternal, KindOf(errors.New("plain error")))

	wrapped := Wrap(KindUnauthorized, errors.New("401"), "denied")
	assert.Equal(t, KindUnauthorized, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindUnauthorized))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindUnauthorized, http.StatusUnauthorized},
		{KindValidationFailed, http.StatusUnprocessableEntity},
		{KindEmptyData, http.StatusNoContent},
		{KindProviderTimeout, http.StatusGatewayTimeout},
		{KindUnknownModel, http.StatusNotFound},
		{KindProviderUnavailable, http.StatusBadGateway},
		{KindProviderInternal, http.StatusBadGateway},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.kind), string(tt.kind))
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitInvalidArguments, ExitCode(New(KindUnknownProvider, "x")))
	assert.Equal(t, ExitValidationFailure, ExitCode(Validation([]FieldError{{Field: "a"}})))
	assert.Equal(t, ExitMissingCredential, ExitCode(New(KindMissingCredential, "x")))
	assert.Equal(t, ExitProviderError, ExitCode(New(KindProviderUnavailable, "x")))
}

func TestClassify_Upstream(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"401", &UpstreamError{StatusCode: 401, Body: "invalid key"}, KindUnauthorized},
		{"403", &UpstreamError{StatusCode: 403, Body: "forbidden"}, KindUnauthorized},
		{"500", &UpstreamError{StatusCode: 500, Body: "boom"}, KindProviderUnavailable},
		{"429 with message", &UpstreamError{StatusCode: 429, Body: "slow down"}, KindProviderRejected},
		{"400 access denied body", &UpstreamError{StatusCode: 400, Body: "Access Denied for plan"}, KindUnauthorized},
		{"deadline", context.DeadlineExceeded, KindProviderTimeout},
		{"cancel", context.Canceled, KindCancelled},
		{"plain", errors.New("something odd"), KindProviderInternal},
		{"unauthorized text", errors.New("request unauthorized"), KindUnauthorized},
		{"connection", errors.New("dial tcp: connection reset by peer"), KindProviderUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Kind)
		})
	}
}

func TestClassify_PreservesOriginal(t *testing.T) {
	cause := errors.New("the original failure")
	got := Classify(cause)
	require.NotNil(t, got)
	assert.Equal(t, KindProviderInternal, got.Kind)
	assert.True(t, errors.Is(got, cause))
}

func TestClassify_PassThrough(t *testing.T) {
	already := New(KindEmptyData, "no rows")
	got := Classify(already)
	assert.Same(t, already, got)
}
