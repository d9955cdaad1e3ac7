// Package upload screens incoming files before they reach the drive. The
// checks mirror what the web UI enforces, repeated server-side so a direct
// API caller cannot bypass them: an extension blocklist, a MIME blocklist,
// and a magic-number sniff of the first bytes.
package upload

import (
	"bytes"
	"fmt"
	"path"
	"regexp"
	"strings"
)

// SniffLen is how many leading bytes Screen needs for the magic-number check.
const SniffLen = 16

// BlockedError reports a file rejected by screening.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return "upload blocked: " + e.Reason
}

var blockedExtensions = map[string]bool{
	// Shell scripts
	".sh": true, ".bash": true, ".ksh": true, ".csh": true, ".zsh": true, ".fish": true,
	// Windows scripts
	".bat": true, ".cmd": true, ".ps1": true, ".psm1": true, ".vbs": true, ".vbe": true,
	".js": true, ".jse": true, ".wsf": true, ".wsh": true,
	// PHP
	".php": true, ".php3": true, ".php4": true, ".php5": true, ".phtml": true,
	// Executables
	".exe": true, ".msi": true, ".dll": true, ".bin": true, ".iso": true,
	// Web shells and server scripts
	".asp": true, ".aspx": true, ".jsp": true, ".jspx": true, ".cgi": true, ".pl": true, ".py": true,
	// Config files that may carry secrets
	".env": true, ".config": true, ".ini": true, ".conf": true,
}

var blockedMIMETypes = map[string]bool{
	"application/x-msdownload":    true,
	"application/x-executable":    true,
	"application/x-dosexec":       true,
	"application/x-msdos-program": true,
	"application/x-msi":           true,
	"application/x-python-code":   true,
	"application/x-perl":          true,
	"application/x-ruby":          true,
	"application/x-sh":            true,
	"application/x-shellscript":   true,
	"text/x-php":                  true,
	"text/x-script":               true,
	"text/javascript":             true,
}

// dangerousHeaders are magic numbers of executable or script payloads.
var dangerousHeaders = [][]byte{
	{0x4D, 0x5A},             // DOS MZ executable
	{0x7F, 0x45, 0x4C, 0x46}, // ELF
	zipHeader,                // ZIP (may wrap anything)
	[]byte("#!/"),            // script shebang
	[]byte("<?php"),
	[]byte("<%"), // ASP
}

var zipHeader = []byte{0x50, 0x4B, 0x03, 0x04}

// officeContainers are ZIP-based document formats the Documents folder
// accepts. Their ZIP signature is expected, not suspicious.
var officeContainers = map[string]bool{
	".docx": true,
	".xlsx": true,
	".pptx": true,
}

// Screen rejects files with a blocked extension, a blocked declared MIME
// type, or a dangerous leading byte signature. head is the first SniffLen
// bytes of the file (shorter files pass what they have).
func Screen(fileName, mimeType string, head []byte) error {
	ext := strings.ToLower(path.Ext(fileName))
	if blockedExtensions[ext] {
		return &BlockedError{Reason: fmt.Sprintf("file extension %q is not allowed", ext)}
	}

	if blockedMIMETypes[strings.ToLower(mimeType)] {
		return &BlockedError{Reason: fmt.Sprintf("content type %q is not allowed", mimeType)}
	}

	for _, h := range dangerousHeaders {
		if !bytes.HasPrefix(head, h) {
			continue
		}
		if bytes.Equal(h, zipHeader) && officeContainers[ext] {
			continue
		}
		return &BlockedError{Reason: "file signature matches an executable format"}
	}
	return nil
}

var (
	unsafeChars  = regexp.MustCompile(`[^a-zA-Z0-9.-]`)
	repeatedDots = regexp.MustCompile(`\.{2,}`)
)

// SanitizeFileName strips characters that could break paths or enable
// traversal, matching the UI's behavior so names agree on both sides.
func SanitizeFileName(name string) string {
	name = unsafeChars.ReplaceAllString(name, "_")
	name = repeatedDots.ReplaceAllString(name, ".")
	return name
}
