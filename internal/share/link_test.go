package share

import (
	"strings"
	"testing"
	"time"
)

func TestProxyURL_RoundTrip(t *testing.T) {
	m := NewMinter("", 0)

	cases := [][3]string{
		{"b!abc123", "01ITEM", "photo.jpg"},
		{"drive-1", "item-2", "My_File-2024.mp4"},
		{"d", "i", "a.b.c.txt"},
	}
	for _, c := range cases {
		u := m.ProxyURL("http://localhost:8080", c[0], c[1], c[2])
		d, i, f, err := m.Resolve(u)
		if err != nil {
			t.Fatalf("Resolve(%q) failed: %v", u, err)
		}
		if d != c[0] || i != c[1] || f != c[2] {
			t.Errorf("round trip = (%q,%q,%q), want (%q,%q,%q)", d, i, f, c[0], c[1], c[2])
		}
	}
}

func TestProxyURL_Unsigned(t *testing.T) {
	m := NewMinter("", 0)
	u := m.ProxyURL("http://localhost:8080", "d1", "i1", "f.png")
	if strings.Contains(u, "sig=") {
		t.Errorf("unsigned minter produced a signature: %s", u)
	}
	if !strings.Contains(u, ContentRoute) {
		t.Errorf("URL %q does not point at %s", u, ContentRoute)
	}
}

func TestProxyURL_SignedRoundTrip(t *testing.T) {
	m := NewMinter("secret-key", time.Hour)

	u := m.ProxyURL("https://files.example.com", "d1", "i1", "clip.mp4")
	if !strings.Contains(u, "sig=") || !strings.Contains(u, "exp=") {
		t.Fatalf("signed URL missing sig/exp: %s", u)
	}

	d, i, f, err := m.Resolve(u)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if d != "d1" || i != "i1" || f != "clip.mp4" {
		t.Errorf("round trip = (%q,%q,%q)", d, i, f)
	}
}

func TestVerify_RejectsTamperedPath(t *testing.T) {
	m := NewMinter("secret-key", time.Hour)
	u := m.ProxyURL("https://x", "d1", "i1", "a.mp4")

	tampered := strings.Replace(u, "i1", "i2", 1)
	if _, _, _, err := m.Resolve(tampered); err != ErrBadSignature {
		t.Errorf("Resolve(tampered) err = %v, want ErrBadSignature", err)
	}
}

func TestVerify_RejectsExpired(t *testing.T) {
	m := NewMinter("secret-key", time.Hour)
	u := m.ProxyURL("https://x", "d1", "i1", "a.mp4")

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, _, _, err := m.Resolve(u); err != ErrLinkExpired {
		t.Errorf("Resolve(expired) err = %v, want ErrLinkExpired", err)
	}
}

func TestVerify_RequiresSignatureWhenKeyed(t *testing.T) {
	m := NewMinter("secret-key", time.Hour)
	if err := m.Verify("d/i/f", "", ""); err != ErrMissingSignature {
		t.Errorf("Verify(no sig) err = %v, want ErrMissingSignature", err)
	}
}

func TestParseContentPath_Malformed(t *testing.T) {
	bad := []string{"", "only", "two/parts", "a//b", "/x/y"}
	for _, p := range bad {
		if _, _, _, err := ParseContentPath(p); err != ErrMalformedPath {
			t.Errorf("ParseContentPath(%q) err = %v, want ErrMalformedPath", p, err)
		}
	}
}
