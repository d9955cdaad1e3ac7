package handlers

import (
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/taikhoandev/driveshare/internal/config"
	"github.com/taikhoandev/driveshare/internal/db"
	"github.com/taikhoandev/driveshare/internal/db/models"
	"github.com/taikhoandev/driveshare/internal/graph"
	"github.com/taikhoandev/driveshare/internal/mediatype"
	"github.com/taikhoandev/driveshare/internal/share"
	"github.com/taikhoandev/driveshare/internal/upload"
	"gorm.io/gorm"
)

// maxMultipartMemory bounds how much of the form is held in memory before
// spilling to disk. The file itself is still fully buffered for the
// single-shot PUT.
const maxMultipartMemory = 32 << 20

// UploadedFile is the response body for a successful upload.
type UploadedFile struct {
	URL       string `json:"url"`
	PublicURL string `json:"publicUrl"`
	ItemID    string `json:"itemId"`
	DriveID   string `json:"driveId"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Size      int64  `json:"size"`
	Folder    string `json:"folder"`
}

// UploadHandler accepts a multipart file and puts it into the requested
// logical folder on the drive. Screening happens here, server-side: the UI
// runs the same checks but cannot be trusted to.
func UploadHandler(client *graph.Client, minter *share.Minter, database *gorm.DB, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no file in request"})
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read file"})
			return
		}

		fileName := upload.SanitizeFileName(header.Filename)
		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = mediatype.ForFile(fileName)
		}

		head := data
		if len(head) > upload.SniffLen {
			head = head[:upload.SniffLen]
		}
		if err := upload.Screen(fileName, contentType, head); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		folder := cfg.FolderByName(r.FormValue("folder"))
		if !folder.Allows(contentType) {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("folder %s does not accept %s", folder.Name, contentType),
			})
			return
		}

		driveID, err := client.DriveID(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}

		item, err := client.Upload(r.Context(), driveID, folder.Path, fileName, contentType, data)
		if err != nil {
			writeError(w, r, err)
			return
		}

		base := requestBaseURL(r, cfg.Server.PublicBaseURL)
		publicURL := minter.ProxyURL(base, item.ParentReference.DriveID, item.ID, item.Name)

		rec := &models.Upload{
			ID:        uuid.New().String(),
			ItemID:    item.ID,
			DriveID:   item.ParentReference.DriveID,
			Name:      item.Name,
			Folder:    folder.Name,
			MimeType:  contentType,
			Size:      item.Size,
			WebURL:    item.WebURL,
			PublicURL: publicURL,
		}
		if err := db.RecordUpload(database, rec); err != nil {
			// History is best-effort; the file is already on the drive.
			log.Printf("record upload %s: %v", item.ID, err)
		}

		writeJSON(w, http.StatusOK, UploadedFile{
			URL:       item.WebURL,
			PublicURL: publicURL,
			ItemID:    item.ID,
			DriveID:   item.ParentReference.DriveID,
			Name:      item.Name,
			Type:      contentType,
			Size:      item.Size,
			Folder:    folder.Name,
		})
	}
}
