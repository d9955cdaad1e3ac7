package graph

import "time"

// Site represents a SharePoint site resolved by hostname and path.
type Site struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	WebURL string `json:"webUrl"`
}

// Quota holds the storage figures of a drive.
type Quota struct {
	Total     int64  `json:"total"`
	Used      int64  `json:"used"`
	Remaining int64  `json:"remaining"`
	Deleted   int64  `json:"deleted"`
	State     string `json:"state"`
}

// Drive represents a document library attached to a site.
type Drive struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	DriveType string `json:"driveType"`
	WebURL    string `json:"webUrl"`
	Quota     Quota  `json:"quota"`
}

// driveList is the collection envelope for /sites/{id}/drives.
type driveList struct {
	Value []Drive `json:"value"`
}

// FileFacet carries file-specific metadata of a drive item.
type FileFacet struct {
	MimeType string `json:"mimeType"`
}

// FolderFacet marks a drive item as a folder.
type FolderFacet struct {
	ChildCount int `json:"childCount"`
}

// ParentReference locates an item within its drive.
type ParentReference struct {
	DriveID string `json:"driveId"`
	ID      string `json:"id"`
	Path    string `json:"path"`
}

// DriveItem represents a file or folder entry within a drive.
type DriveItem struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	Size                 int64           `json:"size"`
	WebURL               string          `json:"webUrl"`
	ETag                 string          `json:"eTag"`
	CreatedDateTime      time.Time       `json:"createdDateTime"`
	LastModifiedDateTime time.Time       `json:"lastModifiedDateTime"`
	File                 *FileFacet      `json:"file,omitempty"`
	Folder               *FolderFacet    `json:"folder,omitempty"`
	ParentReference      ParentReference `json:"parentReference"`
}

// MimeType returns the item's MIME type, or empty when the facet is absent
// (folders, or responses with trimmed fields).
func (i *DriveItem) MimeType() string {
	if i.File == nil {
		return ""
	}
	return i.File.MimeType
}
