package graph

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := NewClient(StaticTokenSource("test-token"), "contoso.example", "/sites/media")
	c.BaseURL = srv.URL
	return c
}

func TestSiteID_MissingConfig(t *testing.T) {
	c := NewClient(StaticTokenSource("t"), "", "")

	_, err := c.SiteID(context.Background())
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want *ConfigError", err)
	}
}

func TestDriveID_ResolvedOnceAndCached(t *testing.T) {
	var siteCalls, driveCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/sites/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sites/contoso.example:/sites/media":
			siteCalls.Add(1)
			fmt.Fprint(w, `{"id": "site-1"}`)
		case "/sites/site-1/drive":
			driveCalls.Add(1)
			fmt.Fprint(w, `{"id": "drive-1"}`)
		default:
			http.NotFound(w, r)
		}
	})
	c := newTestClient(t, mux)

	for i := 0; i < 3; i++ {
		id, err := c.DriveID(context.Background())
		if err != nil {
			t.Fatalf("DriveID: %v", err)
		}
		if id != "drive-1" {
			t.Fatalf("DriveID = %q, want drive-1", id)
		}
	}

	if n := siteCalls.Load(); n != 1 {
		t.Errorf("site resolved %d times, want 1", n)
	}
	if n := driveCalls.Load(); n != 1 {
		t.Errorf("drive resolved %d times, want 1", n)
	}
}

func TestItemMetadata_NotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := c.ItemMetadata(context.Background(), "drive-1", "nope")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("err = %v, want *NotFoundError", err)
	}
}

func TestItemMetadata_Fields(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"id": "item-1",
			"name": "clip.mp4",
			"size": 3145728,
			"file": {"mimeType": "video/mp4"},
			"parentReference": {"driveId": "drive-1"}
		}`)
	}))

	item, err := c.ItemMetadata(context.Background(), "drive-1", "item-1")
	if err != nil {
		t.Fatalf("ItemMetadata: %v", err)
	}
	if item.Name != "clip.mp4" || item.Size != 3145728 {
		t.Errorf("item = %+v", item)
	}
	if item.MimeType() != "video/mp4" {
		t.Errorf("MimeType() = %q, want video/mp4", item.MimeType())
	}
}

func TestContent_RangeForwarded(t *testing.T) {
	var gotRange string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.Header.Get("Range")
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Range", "bytes 0-9/100")
		w.WriteHeader(http.StatusPartialContent)
		w.Write([]byte("0123456789"))
	}))

	resp, err := c.Content(context.Background(), "drive-1", "item-1", "bytes=0-9")
	if err != nil {
		t.Fatalf("Content: %v", err)
	}
	defer resp.Body.Close()

	if gotRange != "bytes=0-9" {
		t.Errorf("upstream Range = %q, want bytes=0-9", gotRange)
	}
	if resp.StatusCode != http.StatusPartialContent {
		t.Errorf("status = %d, want 206", resp.StatusCode)
	}
}

func TestContent_NotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error": {"code": "itemNotFound", "message": "The resource could not be found."}}`)
	}))

	_, err := c.Content(context.Background(), "drive-1", "nope", "")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("err = %v, want *NotFoundError", err)
	}
}

func TestUpload_Success(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		if r.URL.Path != "/drives/drive-1/root:/Images/photo.png:/content" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{
			"id": "item-9",
			"name": "photo.png",
			"size": 4,
			"parentReference": {"driveId": "drive-1"}
		}`)
	}))

	item, err := c.Upload(context.Background(), "drive-1", "/Images", "photo.png", "image/png", []byte("data"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if item.ID != "item-9" || item.ParentReference.DriveID != "drive-1" {
		t.Errorf("item = %+v", item)
	}
}

func TestUpload_ErrorMessageExtracted(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error": {"code": "accessDenied", "message": "Access denied by policy"}}`)
	}))

	_, err := c.Upload(context.Background(), "drive-1", "/Images", "photo.png", "image/png", []byte("data"))
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("err = %v, want *UpstreamError", err)
	}
	if upstream.Status != http.StatusForbidden {
		t.Errorf("status = %d, want 403", upstream.Status)
	}
	if upstream.Message != "Access denied by policy" {
		t.Errorf("message = %q, want the extracted error.message", upstream.Message)
	}
}

func TestUpload_MalformedResponse(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name": "photo.png"}`)
	}))

	_, err := c.Upload(context.Background(), "drive-1", "/Images", "photo.png", "image/png", []byte("data"))
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("err = %v, want *UpstreamError", err)
	}
}

func TestGet_RetriesThrottledResponses(t *testing.T) {
	orig := retryBaseDelay
	retryBaseDelay = time.Millisecond
	t.Cleanup(func() { retryBaseDelay = orig })

	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"id": "item-1", "name": "clip.mp4"}`)
	}))

	item, err := c.ItemMetadata(context.Background(), "drive-1", "item-1")
	if err != nil {
		t.Fatalf("ItemMetadata after retries: %v", err)
	}
	if item.ID != "item-1" {
		t.Errorf("item = %+v", item)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("upstream called %d times, want 3", n)
	}
}

func TestGet_GivesUpAfterMaxAttempts(t *testing.T) {
	orig := retryBaseDelay
	retryBaseDelay = time.Millisecond
	t.Cleanup(func() { retryBaseDelay = orig })

	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"error": {"message": "try later"}}`)
	}))

	_, err := c.ItemMetadata(context.Background(), "drive-1", "item-1")
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("err = %v, want *UpstreamError", err)
	}
	if upstream.Status != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", upstream.Status)
	}
	if n := calls.Load(); n != maxAttempts {
		t.Errorf("upstream called %d times, want %d", n, maxAttempts)
	}
}

func TestEscapePath(t *testing.T) {
	cases := map[string]string{
		"/Images":         "/Images",
		"Images":          "/Images",
		"/My Docs/Sub":    "/My%20Docs/Sub",
		"/Video/Clips ok": "/Video/Clips%20ok",
	}
	for in, want := range cases {
		if got := escapePath(in); got != want {
			t.Errorf("escapePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractMessage(t *testing.T) {
	if got := extractMessage([]byte(`{"error": {"message": "boom"}}`)); got != "boom" {
		t.Errorf("extractMessage = %q, want boom", got)
	}
	if got := extractMessage([]byte("  plain text error \n")); got != "plain text error" {
		t.Errorf("extractMessage = %q, want trimmed raw text", got)
	}
}
