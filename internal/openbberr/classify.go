package openbberr

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"syscall"
)

// UpstreamError carries an HTTP status and body from a provider fetcher so
// classification can run on structured data instead of string matching.
// Fetchers are encouraged to return it; anything else falls back to the
// heuristics in Classify.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return "upstream status " + strconv.Itoa(e.StatusCode)
	}
	return "upstream status " + strconv.Itoa(e.StatusCode) + ": " + e.Body
}

// Classify normalizes an arbitrary fetcher error into a boundary Error
// according to the dispatch normalization table. Already-classified errors
// pass through unchanged.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var oe *Error
	if errors.As(err, &oe) {
		return oe
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(KindProviderTimeout, err, "deadline exceeded")
	}
	if errors.Is(err, context.Canceled) {
		return Wrap(KindCancelled, err, "dispatch cancelled")
	}

	var ue *UpstreamError
	if errors.As(err, &ue) {
		return classifyUpstream(ue)
	}

	if isConnectionFailure(err) {
		return Wrap(KindProviderUnavailable, err, "connection failure")
	}

	if looksUnauthorized(err.Error()) {
		return Wrap(KindUnauthorized, err, "%s", err.Error())
	}

	return Wrap(KindProviderInternal, err, "%s", err.Error())
}

func classifyUpstream(ue *UpstreamError) *Error {
	switch {
	case ue.StatusCode == 401 || ue.StatusCode == 403:
		return Wrap(KindUnauthorized, ue, "%s", ue.Body)
	case ue.StatusCode >= 500:
		return Wrap(KindProviderUnavailable, ue, "%s", ue.Body)
	case ue.StatusCode >= 400:
		if looksUnauthorized(ue.Body) {
			return Wrap(KindUnauthorized, ue, "%s", ue.Body)
		}
		return Wrap(KindProviderRejected, ue, "%s", ue.Body)
	default:
		return Wrap(KindProviderInternal, ue, "%s", ue.Body)
	}
}

func looksUnauthorized(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "access denied") || strings.Contains(msg, "unauthorized")
}

func isConnectionFailure(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}
	msg := strings.ToLower(err.Error())
	patterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
	}
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
