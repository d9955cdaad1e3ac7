// Package graph is the Microsoft Graph client used to reach the SharePoint
// document library: site/drive resolution, item metadata, content download
// (with byte ranges), uploads, and drive quota.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/taikhoandev/driveshare/internal/util"
)

// DefaultBaseURL is the production Graph endpoint.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

const (
	// driveCacheTTL bounds how long a resolved drive ID is reused. Site
	// topology is effectively static for a fixed configuration, so this is
	// generous.
	driveCacheTTL = time.Hour

	maxAttempts = 3
)

// retryBaseDelay is the first backoff step when the upstream gives no
// Retry-After hint. Variable so tests can shrink it.
var retryBaseDelay = 500 * time.Millisecond

// TokenSource supplies a bearer token for each upstream call.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type staticTokenSource string

func (s staticTokenSource) Token(context.Context) (string, error) { return string(s), nil }

// StaticTokenSource returns a TokenSource that always yields the given token.
// Intended for tests.
func StaticTokenSource(token string) TokenSource { return staticTokenSource(token) }

// Client talks to the Graph API for a single configured site. The resolved
// drive ID is cached; everything else is per-call.
type Client struct {
	// BaseURL can be pointed at a test server.
	BaseURL string

	httpClient *http.Client
	tokens     TokenSource
	domain     string
	sitePath   string

	mu         sync.Mutex
	driveID    string
	driveFresh time.Time
}

// NewClient creates a Graph client for the given site addressing.
func NewClient(tokens TokenSource, domain, sitePath string) *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 5 * time.Minute}, // long enough for media transfers
		tokens:     tokens,
		domain:     domain,
		sitePath:   strings.Trim(sitePath, "/"),
	}
}

// SiteID resolves the configured (domain, sitePath) pair to a site ID.
func (c *Client) SiteID(ctx context.Context) (string, error) {
	if c.domain == "" || c.sitePath == "" {
		return "", &ConfigError{Missing: "sharepoint domain or site path"}
	}

	var site Site
	u := fmt.Sprintf("%s/sites/%s:/%s", c.BaseURL, c.domain, c.sitePath)
	if err := c.getJSON(ctx, u, "site "+c.sitePath, &site); err != nil {
		return "", err
	}
	if site.ID == "" {
		return "", &UpstreamError{Status: http.StatusOK, Message: "site response missing id"}
	}
	return site.ID, nil
}

// DriveID resolves the default document library of the configured site.
// The result is cached for driveCacheTTL.
func (c *Client) DriveID(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.driveID != "" && time.Now().Before(c.driveFresh.Add(driveCacheTTL)) {
		id := c.driveID
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	siteID, err := c.SiteID(ctx)
	if err != nil {
		return "", err
	}

	var drive Drive
	u := fmt.Sprintf("%s/sites/%s/drive", c.BaseURL, siteID)
	if err := c.getJSON(ctx, u, "drive for site "+siteID, &drive); err != nil {
		return "", err
	}
	if drive.ID == "" {
		return "", &UpstreamError{Status: http.StatusOK, Message: "drive response missing id"}
	}

	c.mu.Lock()
	c.driveID = drive.ID
	c.driveFresh = time.Now()
	c.mu.Unlock()

	log.Printf("resolved drive %s for site %s", drive.ID, c.sitePath)
	return drive.ID, nil
}

// ItemMetadata fetches name, size and MIME type for a drive item.
func (c *Client) ItemMetadata(ctx context.Context, driveID, itemID string) (*DriveItem, error) {
	var item DriveItem
	u := fmt.Sprintf("%s/drives/%s/items/%s", c.BaseURL, url.PathEscape(driveID), url.PathEscape(itemID))
	if err := c.getJSON(ctx, u, "item "+itemID, &item); err != nil {
		return nil, err
	}
	if item.ID == "" {
		return nil, &UpstreamError{Status: http.StatusOK, Message: "item response missing id"}
	}
	return &item, nil
}

// Content fetches the item's bytes. rangeHeader, when non-empty, is forwarded
// as the Range header and a 206 is expected. The returned response body is
// open; the caller must close it.
func (c *Client) Content(ctx context.Context, driveID, itemID, rangeHeader string) (*http.Response, error) {
	u := fmt.Sprintf("%s/drives/%s/items/%s/content", c.BaseURL, url.PathEscape(driveID), url.PathEscape(itemID))
	resp, err := c.get(ctx, u, rangeHeader)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusPartialContent:
		return resp, nil
	}

	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusNotFound {
		return nil, &NotFoundError{Resource: "item " + itemID}
	}
	return nil, &UpstreamError{Status: resp.StatusCode, Message: extractMessage(body)}
}

// Upload PUTs a file into a folder on the drive in one shot. folderPath is
// the drive-relative folder (e.g. "/Images"). Existing names follow the
// upstream's default replace behavior.
func (c *Client) Upload(ctx context.Context, driveID, folderPath, fileName, contentType string, data []byte) (*DriveItem, error) {
	u := fmt.Sprintf("%s/drives/%s/root:%s/%s:/content",
		c.BaseURL, url.PathEscape(driveID), escapePath(folderPath), url.PathEscape(fileName))

	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upload response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Printf("upload of %s rejected with %d: %s", fileName, resp.StatusCode, util.TruncateBytes(body))
		return nil, &UpstreamError{Status: resp.StatusCode, Message: extractMessage(body)}
	}

	var item DriveItem
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, &UpstreamError{Status: resp.StatusCode, Message: "malformed upload response"}
	}
	if item.ID == "" || item.ParentReference.DriveID == "" {
		return nil, &UpstreamError{Status: resp.StatusCode, Message: "upload response missing id or driveId"}
	}

	log.Printf("uploaded %s (%d bytes) to %s", fileName, len(data), folderPath)
	return &item, nil
}

// SiteDrives lists the document libraries of the configured site, with quota.
func (c *Client) SiteDrives(ctx context.Context) ([]Drive, error) {
	siteID, err := c.SiteID(ctx)
	if err != nil {
		return nil, err
	}

	var list driveList
	u := fmt.Sprintf("%s/sites/%s/drives", c.BaseURL, siteID)
	if err := c.getJSON(ctx, u, "drives for site "+siteID, &list); err != nil {
		return nil, err
	}
	return list.Value, nil
}

// getJSON performs a GET and decodes a JSON body, mapping error statuses to
// the package error types.
func (c *Client) getJSON(ctx context.Context, u, resource string, v interface{}) error {
	resp, err := c.get(ctx, u, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &NotFoundError{Resource: resource}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		log.Printf("graph request for %s failed with %d: %s", resource, resp.StatusCode, util.TruncateBytes(body))
		return &UpstreamError{Status: resp.StatusCode, Message: extractMessage(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &UpstreamError{Status: resp.StatusCode, Message: "malformed response for " + resource}
	}
	return nil
}

// get performs an authenticated GET, retrying throttled and 5xx responses
// with backoff and respect for Retry-After.
func (c *Client) get(ctx context.Context, u, rangeHeader string) (*http.Response, error) {
	var resp *http.Response
	var err error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := ParseRetryDelay(resp)
			if resp != nil {
				resp.Body.Close()
			}
			if delay <= 0 {
				delay = retryBaseDelay << (attempt - 1)
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		var tok string
		tok, err = c.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}

		var req *http.Request
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+tok)
		req.Header.Set("Accept", "application/json")
		if rangeHeader != "" {
			req.Header.Set("Range", rangeHeader)
		}

		resp, err = c.httpClient.Do(req)
		if err != nil {
			resp = nil
			continue
		}
		if !retriable(resp.StatusCode) {
			return resp, nil
		}
		log.Printf("graph returned %d for %s, attempt %d/%d", resp.StatusCode, u, attempt+1, maxAttempts)
	}

	if resp != nil {
		return resp, nil // let the caller read the error body
	}
	return nil, err
}

// escapePath escapes each segment of a drive-relative folder path.
func escapePath(p string) string {
	segs := strings.Split(strings.Trim(p, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return "/" + strings.Join(segs, "/")
}
