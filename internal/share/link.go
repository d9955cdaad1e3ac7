// Package share mints and resolves the opaque proxy URLs that address drive
// items without exposing Graph credentials. A proxy URL carries a
// driveId/itemId/fileName triple in its path query parameter; when a signing
// key is configured the triple is bound to an expiry with an HMAC.
package share

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ContentRoute is the path the minted URLs point at.
const ContentRoute = "/api/files/content"

var (
	ErrMalformedPath    = errors.New("share: malformed content path")
	ErrBadSignature     = errors.New("share: signature mismatch")
	ErrLinkExpired      = errors.New("share: link expired")
	ErrMissingSignature = errors.New("share: signature required")
)

// Minter builds and verifies proxy URLs.
type Minter struct {
	// SigningKey enables signed, time-limited links. Empty means unsigned
	// open links, matching the original deployment.
	SigningKey []byte
	// TTL is the signed-link lifetime. Ignored when SigningKey is empty.
	TTL time.Duration

	now func() time.Time
}

// NewMinter creates a Minter. key may be empty for unsigned links.
func NewMinter(key string, ttl time.Duration) *Minter {
	m := &Minter{TTL: ttl, now: time.Now}
	if key != "" {
		m.SigningKey = []byte(key)
	}
	return m
}

// ContentPath joins the triple into the wire form embedded in proxy URLs.
func ContentPath(driveID, itemID, fileName string) string {
	return driveID + "/" + itemID + "/" + fileName
}

// ParseContentPath splits a content path back into its triple. The file name
// is the remainder after the second separator, so names containing no
// slashes round-trip exactly.
func ParseContentPath(p string) (driveID, itemID, fileName string, err error) {
	parts := strings.SplitN(p, "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", ErrMalformedPath
	}
	return parts[0], parts[1], parts[2], nil
}

// ProxyURL mints the same-origin URL for a drive item. base is the server
// origin (e.g. "https://files.example.com").
func (m *Minter) ProxyURL(base, driveID, itemID, fileName string) string {
	p := ContentPath(driveID, itemID, fileName)
	u := fmt.Sprintf("%s%s?path=%s", strings.TrimRight(base, "/"), ContentRoute, url.QueryEscape(p))
	if len(m.SigningKey) == 0 {
		return u
	}
	exp := m.now().Add(m.TTL).Unix()
	return fmt.Sprintf("%s&exp=%d&sig=%s", u, exp, m.sign(p, exp))
}

// Resolve parses a minted URL back into its triple, verifying the signature
// when signing is enabled.
func (m *Minter) Resolve(rawURL string) (driveID, itemID, fileName string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", "", err
	}
	q := u.Query()
	if err := m.Verify(q.Get("path"), q.Get("exp"), q.Get("sig")); err != nil {
		return "", "", "", err
	}
	return ParseContentPath(q.Get("path"))
}

// Verify checks the expiry and HMAC for a content path. With no signing key
// configured every path is accepted.
func (m *Minter) Verify(p, expStr, sig string) error {
	if len(m.SigningKey) == 0 {
		return nil
	}
	if expStr == "" || sig == "" {
		return ErrMissingSignature
	}
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return ErrMissingSignature
	}
	if !hmac.Equal([]byte(m.sign(p, exp)), []byte(sig)) {
		return ErrBadSignature
	}
	if m.now().Unix() > exp {
		return ErrLinkExpired
	}
	return nil
}

func (m *Minter) sign(p string, exp int64) string {
	mac := hmac.New(sha256.New, m.SigningKey)
	fmt.Fprintf(mac, "%s|%d", p, exp)
	return hex.EncodeToString(mac.Sum(nil))
}
