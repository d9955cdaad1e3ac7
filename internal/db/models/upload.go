package models

import "time"

// Upload records one successful transfer to the drive so the gallery can
// list recent files without a Graph round trip. The remote drive remains the
// source of truth; records are never reconciled against deletions there.
type Upload struct {
	ID        string `gorm:"primaryKey"` // UUID
	ItemID    string `gorm:"index"`
	DriveID   string
	Name      string
	Folder    string
	MimeType  string
	Size      int64
	WebURL    string
	PublicURL string
	CreatedAt time.Time
	UpdatedAt time.Time
}
