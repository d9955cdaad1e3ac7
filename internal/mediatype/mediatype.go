// Package mediatype maps file extensions to MIME types and classifies what
// the content streamer treats as streamable media.
package mediatype

import (
	"path"
	"strings"
)

// Binary is the fallback for unknown extensions.
const Binary = "application/octet-stream"

var byExtension = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",

	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",

	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".m4a":  "audio/mp4",
	".flac": "audio/flac",

	".m3u8": "application/vnd.apple.mpegurl",

	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

// ForFile returns the MIME type for a file name based on its extension.
func ForFile(fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	if mt, ok := byExtension[ext]; ok {
		return mt
	}
	return Binary
}

// IsStreamable reports whether content of this MIME type is served in ranged
// mode for playback.
func IsStreamable(mimeType string) bool {
	return strings.HasPrefix(mimeType, "audio/") || strings.HasPrefix(mimeType, "video/")
}

// IsHLS reports whether the file is an HLS playlist.
func IsHLS(fileName string) bool {
	return strings.HasSuffix(strings.ToLower(fileName), ".m3u8")
}
