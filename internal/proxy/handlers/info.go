package handlers

import (
	"encoding/json"
	"log"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/taikhoandev/driveshare/internal/config"
	"github.com/taikhoandev/driveshare/internal/db"
	"github.com/taikhoandev/driveshare/internal/graph"
	"github.com/taikhoandev/driveshare/internal/mediatype"
	"github.com/taikhoandev/driveshare/internal/share"
	"gorm.io/gorm"
)

// fallbackQuotaBytes is the figure reported when the upstream quota call
// fails: 25600 GB, matching what the UI has always shown in that case.
const fallbackQuotaBytes = int64(25600) * 1024 * 1024 * 1024

// FileInfo is the response body for item metadata lookups.
type FileInfo struct {
	URL       string `json:"url"`
	PublicURL string `json:"publicUrl"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	IsHLS     bool   `json:"isHLS"`
}

// DriveQuota is one normalized quota record.
type DriveQuota struct {
	Name        string `json:"name"`
	Used        int64  `json:"used"`
	Total       int64  `json:"total"`
	Remaining   int64  `json:"remaining"`
	UsedGB      string `json:"usedGB"`
	TotalGB     string `json:"totalGB"`
	RemainingGB string `json:"remainingGB"`
	Percentage  int    `json:"percentage"`
}

// ItemInfoHandler resolves an item ID to its metadata plus a minted proxy URL.
func ItemInfoHandler(client *graph.Client, minter *share.Minter, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID := chi.URLParam(r, "itemID")

		driveID, err := client.DriveID(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}

		meta, err := client.ItemMetadata(r.Context(), driveID, itemID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		base := requestBaseURL(r, cfg.Server.PublicBaseURL)
		proxyURL := minter.ProxyURL(base, driveID, meta.ID, meta.Name)

		mimeType := meta.MimeType()
		if mimeType == "" {
			mimeType = mediatype.ForFile(meta.Name)
		}

		writeJSON(w, http.StatusOK, FileInfo{
			URL:       proxyURL,
			PublicURL: proxyURL,
			Name:      meta.Name,
			Type:      mimeType,
			IsHLS:     mediatype.IsHLS(meta.Name),
		})
	}
}

// CreateLinkHandler mints a proxy URL for an already-stored item.
func CreateLinkHandler(client *graph.Client, minter *share.Minter, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ItemID  string `json:"itemId"`
			DriveID string `json:"driveId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ItemID == "" || req.DriveID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "itemId and driveId are required"})
			return
		}

		meta, err := client.ItemMetadata(r.Context(), req.DriveID, req.ItemID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		base := requestBaseURL(r, cfg.Server.PublicBaseURL)
		writeJSON(w, http.StatusOK, map[string]string{
			"publicUrl":   minter.ProxyURL(base, req.DriveID, meta.ID, meta.Name),
			"originalUrl": meta.WebURL,
			"name":        meta.Name,
		})
	}
}

// QuotaHandler reports drive storage usage. Upstream failures degrade to a
// fixed fallback record instead of an error: the dashboard must never block
// on quota.
func QuotaHandler(client *graph.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		drives, err := client.SiteDrives(r.Context())
		if err != nil || len(drives) == 0 {
			if err != nil {
				log.Printf("quota lookup failed, serving fallback: %v", err)
			}
			writeJSON(w, http.StatusOK, map[string][]DriveQuota{"quotas": {fallbackQuota()}})
			return
		}

		q := drives[0].Quota
		writeJSON(w, http.StatusOK, map[string][]DriveQuota{"quotas": {normalizeQuota(q)}})
	}
}

func normalizeQuota(q graph.Quota) DriveQuota {
	percentage := 0
	if q.Total > 0 {
		percentage = int(math.Round(float64(q.Used) / float64(q.Total) * 100))
	}
	return DriveQuota{
		Name:        "Documents",
		Used:        q.Used,
		Total:       q.Total,
		Remaining:   q.Remaining,
		UsedGB:      formatGB(q.Used),
		TotalGB:     formatGB(q.Total),
		RemainingGB: formatGB(q.Remaining),
		Percentage:  percentage,
	}
}

func fallbackQuota() DriveQuota {
	return DriveQuota{
		Name:        "Documents",
		Used:        0,
		Total:       fallbackQuotaBytes,
		Remaining:   fallbackQuotaBytes,
		UsedGB:      "0.00",
		TotalGB:     "25600.00",
		RemainingGB: "25600.00",
		Percentage:  0,
	}
}

func formatGB(bytes int64) string {
	return strconv.FormatFloat(float64(bytes)/(1<<30), 'f', 2, 64)
}

// ListUploadsHandler returns the most recent upload records.
func ListUploadsHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
				limit = n
			}
		}

		uploads, err := db.RecentUploads(database, limit)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"files": uploads})
	}
}
