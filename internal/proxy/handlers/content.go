package handlers

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strconv"

	"github.com/taikhoandev/driveshare/internal/graph"
	"github.com/taikhoandev/driveshare/internal/mediatype"
	"github.com/taikhoandev/driveshare/internal/share"
)

// rangeChunkSize caps every partial response at 1 MiB regardless of the
// requested range end; players re-request subsequent windows.
const rangeChunkSize = 1 << 20

// firstRangeStart matches the start of the first byte-range in a Range
// header. The requested end is ignored on purpose.
var firstRangeStart = regexp.MustCompile(`^bytes=(\d+)-`)

// ContentHandler streams a drive item addressed by a minted content path.
// Streamable media and explicit Range requests get ranged 206 responses;
// everything else is proxied whole.
func ContentHandler(client *graph.Client, minter *share.Minter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		p := q.Get("path")
		if p == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing file path"})
			return
		}

		if err := minter.Verify(p, q.Get("exp"), q.Get("sig")); err != nil {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
			return
		}

		driveID, itemID, fileName, err := share.ParseContentPath(p)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid file path"})
			return
		}

		mimeType := mediatype.ForFile(fileName)
		rangeHeader := r.Header.Get("Range")

		if mediatype.IsStreamable(mimeType) || rangeHeader != "" {
			serveRanged(w, r, client, driveID, itemID, mimeType, rangeHeader)
			return
		}
		serveFull(w, r, client, driveID, itemID, fileName, mimeType)
	}
}

// serveFull proxies the whole item in one 200 response. The response is
// cacheable; the ETag is stable per (drive, item) pair.
func serveFull(w http.ResponseWriter, r *http.Request, client *graph.Client, driveID, itemID, fileName, mimeType string) {
	resp, err := client.Content(r.Context(), driveID, itemID, "")
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer resp.Body.Close()

	w.Header().Set("Content-Type", mimeType)
	if resp.ContentLength >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(resp.ContentLength, 10))
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("ETag", fmt.Sprintf("%q", driveID+"_"+itemID))
	if r.URL.Query().Get("download") == "1" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, resp.Body); err != nil {
		// Client went away mid-transfer; the context cancellation already
		// stopped the upstream read.
		log.Printf("content copy aborted for %s: %v", itemID, err)
	}
}

// serveRanged serves one bounded window of the item as a 206. Partial
// windows are never cached.
func serveRanged(w http.ResponseWriter, r *http.Request, client *graph.Client, driveID, itemID, mimeType, rangeHeader string) {
	meta, err := client.ItemMetadata(r.Context(), driveID, itemID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	size := meta.Size
	if size <= 0 {
		serveFull(w, r, client, driveID, itemID, meta.Name, mimeType)
		return
	}

	start := parseRangeStart(rangeHeader)
	if start >= size {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		writeJSON(w, http.StatusRequestedRangeNotSatisfiable, map[string]string{"error": "range start beyond end of file"})
		return
	}

	end := start + rangeChunkSize - 1
	if end > size-1 {
		end = size - 1
	}

	resp, err := client.Content(r.Context(), driveID, itemID, fmt.Sprintf("bytes=%d-%d", start, end))
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer resp.Body.Close()

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	w.Header().Set("Content-Length", strconv.FormatInt(end-start+1, 10))
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusPartialContent)

	if _, err := io.Copy(w, resp.Body); err != nil {
		log.Printf("range copy aborted for %s: %v", itemID, err)
	}
}

// parseRangeStart extracts the first range's start offset. A missing or
// unparseable header means start from zero.
func parseRangeStart(rangeHeader string) int64 {
	m := firstRangeStart.FindStringSubmatch(rangeHeader)
	if m == nil {
		return 0
	}
	start, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0
	}
	return start
}
