// Package models contains data structures for the application's domain models.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Post statuses. Transitions are restricted to the draft/published toggle.
const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
)

// TagList stores a normalized tag set as a JSON array in a single text
// column. Order is preserved but not meaningful.
type TagList []string

// Value implements driver.Valuer.
func (t TagList) Value() (driver.Value, error) {
	if t == nil {
		t = TagList{}
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (t *TagList) Scan(value interface{}) error {
	if value == nil {
		*t = TagList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	default:
		return fmt.Errorf("unsupported tag list source type %T", value)
	}
}

// Post represents a blog post in the Inkwell application.
type Post struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	Slug         string  `gorm:"size:220;not null;uniqueIndex" json:"slug"`
	Title        string  `gorm:"size:300;not null" json:"title"`
	Content      string  `gorm:"type:text;not null" json:"content"`
	Excerpt      string  `gorm:"size:500" json:"excerpt"`
	CoverURL     string  `json:"coverImage"`
	CoverAssetID string  `gorm:"size:64;index" json:"coverFileId,omitempty"`
	AuthorID     uint    `gorm:"not null;index" json:"authorId"`
	Author       User    `gorm:"foreignKey:AuthorID" json:"author"`
	Category     string  `gorm:"size:100;index" json:"category"`
	Tags         TagList `gorm:"type:text" json:"tags"`
	Status       string  `gorm:"size:16;not null;default:draft;index" json:"status"`
	Featured     bool    `gorm:"default:false;index" json:"featured"`
	ViewsCount   int64   `gorm:"not null;default:0" json:"viewsCount"`
	LikesCount   int64   `gorm:"not null;default:0" json:"likesCount"`
	MetaTitle    string  `gorm:"size:300" json:"metaTitle"`
	MetaDesc     string  `gorm:"size:500" json:"metaDescription"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int            `gorm:"->" json:"commentsCount"`
	Comments      []Comment      `gorm:"-" json:"comments,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// MarshalJSON swaps the full account record for the trimmed AuthorRef
// shape, so responses never carry the author's admin flag or timestamps.
func (p Post) MarshalJSON() ([]byte, error) {
	type alias Post
	return json.Marshal(struct {
		alias
		Author AuthorRef `json:"author"`
	}{alias(p), p.Author.Ref()})
}

// Published reports whether the post is visible to unprivileged readers.
func (p *Post) Published() bool {
	return p.Status == PostStatusPublished
}

// BlogStats is the aggregate view returned by the admin stats endpoint.
type BlogStats struct {
	TotalBlogs     int64           `json:"totalBlogs"`
	PublishedBlogs int64           `json:"publishedBlogs"`
	DraftBlogs     int64           `json:"draftBlogs"`
	FeaturedBlogs  int64           `json:"featuredBlogs"`
	TotalViews     int64           `json:"totalViews"`
	TotalLikes     int64           `json:"totalLikes"`
	AvgViews       float64         `json:"avgViews"`
	AvgLikes       float64         `json:"avgLikes"`
	Categories     []CategoryCount `json:"categories"`
}

// CategoryCount is one row of the per-category breakdown, sorted by
// descending count.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}
