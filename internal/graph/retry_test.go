package graph

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestParseRetryDelay_NilResponse(t *testing.T) {
	if got := ParseRetryDelay(nil); got != 0 {
		t.Errorf("ParseRetryDelay(nil) = %v, want 0", got)
	}
}

func TestParseRetryDelay_Seconds(t *testing.T) {
	resp := &http.Response{Header: http.Header{"Retry-After": []string{"30"}}}
	if got := ParseRetryDelay(resp); got != 30*time.Second {
		t.Errorf("ParseRetryDelay = %v, want 30s", got)
	}
}

func TestParseRetryDelay_HTTPDate(t *testing.T) {
	future := time.Now().Add(45 * time.Second).UTC().Format(http.TimeFormat)
	resp := &http.Response{Header: http.Header{"Retry-After": []string{future}}}

	got := ParseRetryDelay(resp)
	if got < 40*time.Second || got > 45*time.Second {
		t.Errorf("ParseRetryDelay = %v, want about 45s", got)
	}
}

func TestParseRetryDelay_NoHeaderRestoresBody(t *testing.T) {
	resp := &http.Response{
		Header: http.Header{},
		Body:   io.NopCloser(strings.NewReader(`{"error": {"code": "activityLimitReached"}}`)),
	}

	if got := ParseRetryDelay(resp); got != 0 {
		t.Errorf("ParseRetryDelay = %v, want 0", got)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read restored body: %v", err)
	}
	if !strings.Contains(string(body), "activityLimitReached") {
		t.Errorf("body = %q, want the original content restored", body)
	}
}

func TestRetriable(t *testing.T) {
	for status, want := range map[int]bool{
		http.StatusOK:                  false,
		http.StatusNotFound:            false,
		http.StatusTooManyRequests:     true,
		http.StatusInternalServerError: true,
		http.StatusServiceUnavailable:  true,
	} {
		if got := retriable(status); got != want {
			t.Errorf("retriable(%d) = %v, want %v", status, got, want)
		}
	}
}
