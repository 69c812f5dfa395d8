// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/observability"

	"gorm.io/gorm"
)

// ListPostsQuery carries the filter, sort, and page window for post listings.
// An empty Status means "any"; the service layer forces "published" for
// unprivileged callers before the query ever reaches here.
type ListPostsQuery struct {
	Status   string
	Category string
	Featured *bool
	Search   string
	SortBy   string
	SortDir  string
	Limit    int
	Offset   int
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	List(ctx context.Context, q ListPostsQuery) ([]*models.Post, int64, error)
	SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	IncrementViews(ctx context.Context, id uint) error
	IncrementLikes(ctx context.Context, id uint) (int64, error)
	Stats(ctx context.Context) (*models.BlogStats, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Create(post).Error
	if err == nil {
		cache.InvalidatePostLists(ctx)
	}
	return err
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.applyPostDetails(r.db.WithContext(ctx)).
		Preload("Author").
		First(&post, id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post models.Post
	err := r.applyPostDetails(r.db.WithContext(ctx)).
		Preload("Author").
		Where("slug = ?", slug).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, q ListPostsQuery) ([]*models.Post, int64, error) {
	defer observability.TrackQuery("list", "posts")()

	filtered := r.applyFilters(r.db.WithContext(ctx).Model(&models.Post{}), q)

	var total int64
	if err := filtered.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []*models.Post
	err := r.applyPostDetails(r.applyFilters(r.db.WithContext(ctx), q)).
		Preload("Author").
		Order(orderClause(q.SortBy, q.SortDir)).
		Limit(q.Limit).
		Offset(q.Offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *postRepository) applyFilters(db *gorm.DB, q ListPostsQuery) *gorm.DB {
	if q.Status != "" {
		db = db.Where("posts.status = ?", q.Status)
	}
	if q.Category != "" {
		db = db.Where("posts.category = ?", q.Category)
	}
	if q.Featured != nil {
		db = db.Where("posts.featured = ?", *q.Featured)
	}
	if q.Search != "" {
		like := "%" + q.Search + "%"
		db = db.Where(
			"posts.title ILIKE ? OR posts.content ILIKE ? OR posts.excerpt ILIKE ? OR posts.tags ILIKE ?",
			like, like, like, like,
		)
	}
	return db
}

// orderClause whitelists sortable columns so client input never reaches the
// ORDER BY raw.
func orderClause(sortBy, sortDir string) string {
	column := "posts.created_at"
	switch sortBy {
	case "title":
		column = "posts.title"
	case "views":
		column = "posts.views_count"
	case "likes":
		column = "posts.likes_count"
	case "updated":
		column = "posts.updated_at"
	}
	dir := "DESC"
	if sortDir == "asc" {
		dir = "ASC"
	}
	return column + " " + dir
}

// applyPostDetails adds a subquery to fetch the live comment count in the
// same query. Comment membership is derived, never stored on the post.
func (r *postRepository) applyPostDetails(db *gorm.DB) *gorm.DB {
	return db.Select("posts.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id AND comments.is_deleted = FALSE AND comments.deleted_at IS NULL) as comments_count")
}

func (r *postRepository) SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	var count int64
	db := r.db.WithContext(ctx).Model(&models.Post{}).Where("slug = ?", slug)
	if excludeID != 0 {
		db = db.Where("id <> ?", excludeID)
	}
	if err := db.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Save(post).Error; err != nil {
		return err
	}
	cache.InvalidatePost(ctx)
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Post{}, id).Error; err != nil {
		return err
	}
	cache.InvalidatePost(ctx)
	return nil
}

func (r *postRepository) IncrementViews(ctx context.Context, id uint) error {
	// Single atomic UPDATE so concurrent reads never lose an increment.
	return r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("views_count", gorm.Expr("views_count + 1")).Error
}

func (r *postRepository) IncrementLikes(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("likes_count", gorm.Expr("likes_count + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		Pluck("likes_count", &count).Error
	if err != nil {
		return 0, err
	}
	cache.Invalidate(ctx, cache.BlogStatsKey)
	return count, nil
}

func (r *postRepository) Stats(ctx context.Context) (*models.BlogStats, error) {
	defer observability.TrackQuery("stats", "posts")()

	stats := &models.BlogStats{}
	db := r.db.WithContext(ctx).Model(&models.Post{})

	type totals struct {
		TotalBlogs     int64
		PublishedBlogs int64
		DraftBlogs     int64
		FeaturedBlogs  int64
		TotalViews     int64
		TotalLikes     int64
	}
	var t totals
	err := db.Select(
		"COUNT(*) as total_blogs, " +
			"COUNT(*) FILTER (WHERE status = 'published') as published_blogs, " +
			"COUNT(*) FILTER (WHERE status = 'draft') as draft_blogs, " +
			"COUNT(*) FILTER (WHERE featured) as featured_blogs, " +
			"COALESCE(SUM(views_count), 0) as total_views, " +
			"COALESCE(SUM(likes_count), 0) as total_likes").
		Scan(&t).Error
	if err != nil {
		return nil, err
	}

	stats.TotalBlogs = t.TotalBlogs
	stats.PublishedBlogs = t.PublishedBlogs
	stats.DraftBlogs = t.DraftBlogs
	stats.FeaturedBlogs = t.FeaturedBlogs
	stats.TotalViews = t.TotalViews
	stats.TotalLikes = t.TotalLikes
	if t.TotalBlogs > 0 {
		stats.AvgViews = float64(t.TotalViews) / float64(t.TotalBlogs)
		stats.AvgLikes = float64(t.TotalLikes) / float64(t.TotalBlogs)
	}

	var categories []models.CategoryCount
	err = r.db.WithContext(ctx).Model(&models.Post{}).
		Select("category, COUNT(*) as count").
		Where("category <> ''").
		Group("category").
		Order("count DESC").
		Scan(&categories).Error
	if err != nil {
		return nil, err
	}
	stats.Categories = categories

	return stats, nil
}
