package models

import "time"

// Asset is an uploaded file stored on disk under a content hash. Posts
// reference assets by ID; the same bytes uploaded twice resolve to one row.
type Asset struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	Hash         string    `gorm:"size:64;uniqueIndex;not null" json:"hash"`
	OriginalPath string    `gorm:"size:512;not null" json:"-"`
	WebPPath     string    `gorm:"size:512" json:"-"`
	ContentType  string    `gorm:"size:100" json:"contentType"`
	Bytes        int64     `json:"bytes"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	CreatedAt    time.Time `json:"createdAt"`
}
