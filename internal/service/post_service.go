package service

import (
	"context"
	"errors"
	"strings"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/validation"

	"gorm.io/gorm"
)

const (
	maxTitleLen   = 300
	maxContentLen = 100000
	maxExcerptLen = 500
)

// CoverReleaser detaches a stored cover asset by content hash. Satisfied by
// AssetService; injected so the post service never touches the filesystem.
type CoverReleaser interface {
	Release(ctx context.Context, hash string) error
}

type PostService struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	covers      CoverReleaser
}

type CreatePostInput struct {
	AuthorID  uint
	Title     string
	Content   string
	Excerpt   string
	Category  string
	Tags      interface{}
	Status    string
	Featured  bool
	MetaTitle string
	MetaDesc  string
	CoverURL  string
	CoverID   string
}

type ListPostsInput struct {
	Page     int
	Limit    int
	Status   string
	Category string
	Featured *bool
	Search   string
	SortBy   string
	SortDir  string
	IsAdmin  bool
}

// UpdatePostInput uses pointers so absent fields are left untouched.
type UpdatePostInput struct {
	PostID    uint
	Title     *string
	Content   *string
	Excerpt   *string
	Category  *string
	Tags      interface{}
	Featured  *bool
	MetaTitle *string
	MetaDesc  *string
	CoverURL  *string
	CoverID   *string
}

func NewPostService(
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	covers CoverReleaser,
) *PostService {
	return &PostService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		covers:      covers,
	}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if len(title) > maxTitleLen {
		return nil, models.NewValidationError("Title too long (max 300 characters)")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxContentLen {
		return nil, models.NewValidationError("Content too long")
	}
	if len(in.Excerpt) > maxExcerptLen {
		return nil, models.NewValidationError("Excerpt too long (max 500 characters)")
	}

	status := in.Status
	if status == "" {
		status = models.PostStatusDraft
	}
	if status != models.PostStatusDraft && status != models.PostStatusPublished {
		return nil, models.NewValidationError("Status must be draft or published")
	}

	slug := validation.Slugify(title)
	if err := validation.ValidateSlug(slug); err != nil {
		return nil, models.NewValidationError("Title does not produce a usable URL slug")
	}
	taken, err := s.postRepo.SlugExists(ctx, slug, 0)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if taken {
		return nil, models.NewValidationError("A post with this title already exists")
	}

	post := &models.Post{
		Slug:         slug,
		Title:        title,
		Content:      in.Content,
		Excerpt:      in.Excerpt,
		CoverURL:     in.CoverURL,
		CoverAssetID: in.CoverID,
		AuthorID:     in.AuthorID,
		Category:     strings.TrimSpace(in.Category),
		Tags:         models.TagList(validation.NormalizeTags(in.Tags)),
		Status:       status,
		Featured:     in.Featured,
		MetaTitle:    in.MetaTitle,
		MetaDesc:     in.MetaDesc,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.postRepo.GetByID(ctx, post.ID)
}

// ListPosts returns one page of posts plus pagination metadata. Readers
// without admin rights only ever see published posts, whatever filter they
// ask for.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]*models.Post, models.Pagination, error) {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Limit < 1 || in.Limit > 100 {
		in.Limit = 10
	}
	if !in.IsAdmin {
		in.Status = models.PostStatusPublished
	}

	query := repository.ListPostsQuery{
		Status:   in.Status,
		Category: in.Category,
		Featured: in.Featured,
		Search:   strings.TrimSpace(in.Search),
		SortBy:   in.SortBy,
		SortDir:  in.SortDir,
		Limit:    in.Limit,
		Offset:   (in.Page - 1) * in.Limit,
	}

	type listPage struct {
		Posts []*models.Post `json:"posts"`
		Total int64          `json:"total"`
	}

	var page listPage
	if cacheable := in.Page == 1 && in.Category == "" && in.Featured == nil && query.Search == "" && in.SortBy == ""; cacheable {
		class := "public"
		if in.IsAdmin {
			class = "admin"
		}
		err := cache.Aside(ctx, cache.PostListKey(class), &page, cache.PostListTTL, func() error {
			var fetchErr error
			page.Posts, page.Total, fetchErr = s.postRepo.List(ctx, query)
			return fetchErr
		})
		if err != nil {
			return nil, models.Pagination{}, models.NewInternalError(err)
		}
	} else {
		var err error
		page.Posts, page.Total, err = s.postRepo.List(ctx, query)
		if err != nil {
			return nil, models.Pagination{}, models.NewInternalError(err)
		}
	}

	return page.Posts, models.NewPagination(in.Page, in.Limit, page.Total), nil
}

// GetPostBySlug resolves a post for reading. Draft posts are invisible to
// unprivileged readers: they get a 403, not the post. A successful read
// counts one view.
func (s *PostService) GetPostBySlug(ctx context.Context, slug string, isAdmin bool) (*models.Post, error) {
	post, err := s.postRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundMessageError("Blog not found")
		}
		return nil, models.NewInternalError(err)
	}
	if !post.Published() && !isAdmin {
		return nil, models.NewForbiddenError("This blog is not published")
	}

	if err := s.postRepo.IncrementViews(ctx, post.ID); err != nil {
		return nil, models.NewInternalError(err)
	}
	post.ViewsCount++
	return post, nil
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundMessageError("Blog not found")
		}
		return nil, models.NewInternalError(err)
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, models.NewValidationError("Title is required")
		}
		if len(title) > maxTitleLen {
			return nil, models.NewValidationError("Title too long (max 300 characters)")
		}
		if title != post.Title {
			slug := validation.Slugify(title)
			taken, err := s.postRepo.SlugExists(ctx, slug, post.ID)
			if err != nil {
				return nil, models.NewInternalError(err)
			}
			if taken {
				return nil, models.NewValidationError("A post with this title already exists")
			}
			post.Slug = slug
		}
		post.Title = title
	}
	if in.Content != nil {
		if strings.TrimSpace(*in.Content) == "" {
			return nil, models.NewValidationError("Content is required")
		}
		post.Content = *in.Content
	}
	if in.Excerpt != nil {
		if len(*in.Excerpt) > maxExcerptLen {
			return nil, models.NewValidationError("Excerpt too long (max 500 characters)")
		}
		post.Excerpt = *in.Excerpt
	}
	if in.Category != nil {
		post.Category = strings.TrimSpace(*in.Category)
	}
	if in.Tags != nil {
		post.Tags = models.TagList(validation.NormalizeTags(in.Tags))
	}
	if in.Featured != nil {
		post.Featured = *in.Featured
	}
	if in.MetaTitle != nil {
		post.MetaTitle = *in.MetaTitle
	}
	if in.MetaDesc != nil {
		post.MetaDesc = *in.MetaDesc
	}

	if in.CoverID != nil && *in.CoverID != post.CoverAssetID {
		// The previous cover is released before the new one is attached.
		if post.CoverAssetID != "" && s.covers != nil {
			if err := s.covers.Release(ctx, post.CoverAssetID); err != nil {
				return nil, err
			}
		}
		post.CoverAssetID = *in.CoverID
	}
	if in.CoverURL != nil {
		post.CoverURL = *in.CoverURL
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.postRepo.GetByID(ctx, post.ID)
}

// TogglePublish flips the post between draft and published. No other
// transitions exist.
func (s *PostService) TogglePublish(ctx context.Context, postID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundMessageError("Blog not found")
		}
		return nil, models.NewInternalError(err)
	}

	if post.Published() {
		post.Status = models.PostStatusDraft
	} else {
		post.Status = models.PostStatusPublished
	}
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, models.NewInternalError(err)
	}
	return post, nil
}

// DeletePost releases the cover asset, hard-deletes the post's entire
// comment tree, then removes the post row. The sequence is not transactional:
// a failure mid-way leaves earlier steps applied. Asset-store errors surface
// to the caller rather than being swallowed.
func (s *PostService) DeletePost(ctx context.Context, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundMessageError("Blog not found")
		}
		return models.NewInternalError(err)
	}

	if post.CoverAssetID != "" && s.covers != nil {
		if err := s.covers.Release(ctx, post.CoverAssetID); err != nil {
			return err
		}
	}
	if err := s.commentRepo.HardDeleteByPost(ctx, post.ID); err != nil {
		return models.NewInternalError(err)
	}
	if err := s.postRepo.Delete(ctx, post.ID); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// LikePost is an unconditional increment; there is no per-user like state
// and no unlike.
func (s *PostService) LikePost(ctx context.Context, postID uint) (int64, error) {
	count, err := s.postRepo.IncrementLikes(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, models.NewNotFoundMessageError("Blog not found")
		}
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// GetStats returns the admin aggregate view, cached briefly.
func (s *PostService) GetStats(ctx context.Context) (*models.BlogStats, error) {
	var stats models.BlogStats
	err := cache.Aside(ctx, cache.BlogStatsKey, &stats, cache.StatsTTL, func() error {
		fresh, fetchErr := s.postRepo.Stats(ctx)
		if fetchErr != nil {
			return fetchErr
		}
		stats = *fresh
		return nil
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &stats, nil
}
