package service

import (
	"context"
	"errors"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/repository"

	"gorm.io/gorm"
)

const maxCommentLen = 10000

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	isAdmin     func(ctx context.Context, userID uint) (bool, error)
}

type CreateCommentInput struct {
	UserID   uint
	PostID   uint
	ParentID *uint
	Content  string
}

type ListCommentsInput struct {
	PostID uint
	Page   int
	Limit  int
}

type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	Content   string
}

type DeleteCommentInput struct {
	UserID    uint
	CommentID uint
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		isAdmin:     isAdmin,
	}
}

// CreateComment adds a top-level comment or a reply. Threads are exactly one
// level deep: replying to a reply is rejected outright. A parent belonging
// to a different post is treated as nonexistent.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, in.PostID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundMessageError("Blog not found")
		}
		return nil, models.NewInternalError(err)
	}

	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	if in.ParentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *in.ParentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.NewNotFoundMessageError("Parent comment not found")
			}
			return nil, models.NewInternalError(err)
		}
		if parent.PostID != in.PostID {
			return nil, models.NewNotFoundMessageError("Parent comment not found")
		}
		if !parent.TopLevel() {
			return nil, models.NewValidationError("Replies to replies are not allowed")
		}
	}

	comment := &models.Comment{
		Content:  in.Content,
		UserID:   in.UserID,
		PostID:   in.PostID,
		ParentID: in.ParentID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, models.NewInternalError(err)
	}

	created, err := s.commentRepo.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	cache.InvalidateComments(ctx, in.PostID)
	return created, nil
}

// ListComments returns one page of top-level comments, newest first, each
// carrying its full reply list oldest first. Only roots paginate.
func (s *CommentService) ListComments(ctx context.Context, in ListCommentsInput) ([]*models.Comment, models.Pagination, error) {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Limit < 1 || in.Limit > 100 {
		in.Limit = 10
	}

	if _, err := s.postRepo.GetByID(ctx, in.PostID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.Pagination{}, models.NewNotFoundMessageError("Blog not found")
		}
		return nil, models.Pagination{}, models.NewInternalError(err)
	}

	type commentPage struct {
		Roots []*models.Comment `json:"roots"`
		Total int64             `json:"total"`
	}

	var page commentPage
	fetch := func() error {
		var fetchErr error
		page.Total, fetchErr = s.commentRepo.CountTopLevel(ctx, in.PostID)
		if fetchErr != nil {
			return fetchErr
		}
		page.Roots, fetchErr = s.commentRepo.ListTopLevel(ctx, in.PostID, in.Limit, (in.Page-1)*in.Limit)
		if fetchErr != nil {
			return fetchErr
		}
		for _, root := range page.Roots {
			replies, repliesErr := s.commentRepo.ListReplies(ctx, root.ID)
			if repliesErr != nil {
				return repliesErr
			}
			root.Replies = make([]models.Comment, 0, len(replies))
			for _, reply := range replies {
				root.Replies = append(root.Replies, *reply)
			}
		}
		return nil
	}

	// Only the default first page is cached; mutations invalidate it.
	var err error
	if in.Page == 1 && in.Limit == 10 {
		err = cache.Aside(ctx, cache.CommentsPageKey(in.PostID, 1), &page, cache.CommentsTTL, fetch)
	} else {
		err = fetch()
	}
	if err != nil {
		return nil, models.Pagination{}, models.NewInternalError(err)
	}

	return page.Roots, models.NewPagination(in.Page, in.Limit, page.Total), nil
}

// UpdateComment edits the content. Only the author may edit; admins have no
// override here.
func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundMessageError("Comment not found")
		}
		return nil, models.NewInternalError(err)
	}
	if comment.IsDeleted {
		return nil, models.NewNotFoundMessageError("Comment not found")
	}

	if comment.UserID != in.UserID {
		return nil, models.NewForbiddenError("You can only edit your own comments")
	}
	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	comment.Content = in.Content
	comment.IsEdited = true
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, models.NewInternalError(err)
	}

	updated, err := s.commentRepo.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	cache.InvalidateComments(ctx, comment.PostID)
	return updated, nil
}

// DeleteComment soft-deletes: the row stays, its content becomes a fixed
// placeholder. The author or an admin may delete.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundMessageError("Comment not found")
		}
		return nil, models.NewInternalError(err)
	}

	if comment.UserID != in.UserID {
		if s.isAdmin == nil {
			return nil, models.NewForbiddenError("You can only delete your own comments")
		}
		admin, err := s.isAdmin(ctx, in.UserID)
		if err != nil {
			return nil, err
		}
		if !admin {
			return nil, models.NewForbiddenError("You can only delete your own comments")
		}
	}

	if err := s.commentRepo.SoftDelete(ctx, comment); err != nil {
		return nil, models.NewInternalError(err)
	}
	comment.Content = models.DeletedCommentPlaceholder
	comment.IsDeleted = true
	cache.InvalidateComments(ctx, comment.PostID)
	return comment, nil
}
