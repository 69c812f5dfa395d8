// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListTopLevel(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error)
	CountTopLevel(ctx context.Context, postID uint) (int64, error)
	ListReplies(ctx context.Context, parentID uint) ([]*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	SoftDelete(ctx context.Context, comment *models.Comment) error
	HardDeleteByPost(ctx context.Context, postID uint) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Parent").
		Preload("Parent.User").
		First(&comment, id).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListTopLevel returns one page of live root comments for a post, newest
// first. Soft-deleted roots are excluded; their replies drop out of the
// listing with them.
func (r *commentRepository) ListTopLevel(
	ctx context.Context,
	postID uint,
	limit, offset int,
) ([]*models.Comment, error) {
	defer observability.TrackQuery("list_top_level", "comments")()

	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ? AND parent_id IS NULL AND is_deleted = ?", postID, false).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	return comments, err
}

// CountTopLevel counts live roots only, so pagination totals match what
// ListTopLevel actually returns.
func (r *commentRepository) CountTopLevel(ctx context.Context, postID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("post_id = ? AND parent_id IS NULL AND is_deleted = ?", postID, false).
		Count(&count).Error
	return count, err
}

// ListReplies returns all live replies under a root comment, oldest first
// and without pagination.
func (r *commentRepository) ListReplies(ctx context.Context, parentID uint) ([]*models.Comment, error) {
	var replies []*models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("parent_id = ? AND is_deleted = ?", parentID, false).
		Order("created_at ASC").
		Find(&replies).Error
	return replies, err
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Save(comment).Error
}

// SoftDelete blanks the comment in place rather than removing the row, so
// threads never lose structure under a deleted root.
func (r *commentRepository) SoftDelete(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).
		Model(comment).
		Updates(map[string]interface{}{
			"content":    models.DeletedCommentPlaceholder,
			"is_deleted": true,
		}).Error
}

// HardDeleteByPost removes every comment belonging to a post, replies
// included. Used by the post-delete cascade only.
func (r *commentRepository) HardDeleteByPost(ctx context.Context, postID uint) error {
	return r.db.WithContext(ctx).
		Unscoped().
		Where("post_id = ?", postID).
		Delete(&models.Comment{}).Error
}
