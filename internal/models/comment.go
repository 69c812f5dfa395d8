// Package models contains data structures for the application's domain models.
package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// DeletedCommentPlaceholder replaces the content of soft-deleted comments.
const DeletedCommentPlaceholder = "[This comment has been deleted]"

// Comment represents a comment on a post. A nil ParentID marks a top-level
// comment; replies attach to top-level comments only.
type Comment struct {
	ID       uint     `gorm:"primaryKey" json:"id"`
	Content  string   `gorm:"type:text;not null" json:"content"`
	UserID   uint     `gorm:"not null;index" json:"userId"`
	PostID   uint     `gorm:"not null;index" json:"postId"`
	ParentID *uint    `gorm:"index" json:"parentId,omitempty"`
	User     User     `gorm:"foreignKey:UserID" json:"user"`
	Parent   *Comment `gorm:"foreignKey:ParentID" json:"parentComment,omitempty"`
	IsEdited bool     `gorm:"default:false" json:"isEdited"`
	// IsDeleted marks a soft-deleted comment. The row is retained so reply
	// threads keep their shape, but content is redacted and default
	// listings skip it.
	IsDeleted bool           `gorm:"default:false;index" json:"isDeleted"`
	Replies   []Comment      `gorm:"-" json:"replies,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// MarshalJSON swaps the full account record for the trimmed AuthorRef
// shape. Nested parents and replies are trimmed the same way as they
// marshal recursively.
func (c Comment) MarshalJSON() ([]byte, error) {
	type alias Comment
	return json.Marshal(struct {
		alias
		User AuthorRef `json:"user"`
	}{alias(c), c.User.Ref()})
}

// TopLevel reports whether the comment anchors directly to its post.
func (c *Comment) TopLevel() bool {
	return c.ParentID == nil
}
