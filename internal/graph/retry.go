package graph

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ParseRetryDelay attempts to extract a retry duration from a throttled
// response. It checks the standard Retry-After header first (seconds, then
// HTTP date). Returns 0 if no retry information is found.
// NOTE: this consumes and restores the response body if it needs to read it.
func ParseRetryDelay(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}

	if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil {
			return time.Duration(seconds) * time.Second
		}
		if t, err := http.ParseTime(retryAfter); err == nil {
			return time.Until(t)
		}
	}

	// Graph throttling errors carry the delay in the header; the body only
	// repeats the error code. Restore it anyway so callers can still read it.
	if resp.Body == nil {
		return 0
	}
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0
	}
	resp.Body = io.NopCloser(strings.NewReader(string(bodyBytes)))

	return 0
}

// retriable reports whether a request that got this status is worth retrying.
func retriable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
