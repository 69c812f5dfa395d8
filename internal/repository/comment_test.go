package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository_TopLevelPagination(t *testing.T) {
	db := newRepoDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "alice")
	post := createTestPost(t, db, author)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		require.NoError(t, db.Create(&models.Comment{
			Content:   fmt.Sprintf("root %d", i),
			UserID:    author.ID,
			PostID:    post.ID,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}
	// A reply must never show up among the roots.
	var first models.Comment
	require.NoError(t, db.Where("content = ?", "root 0").First(&first).Error)
	require.NoError(t, db.Create(&models.Comment{
		Content: "a reply", UserID: author.ID, PostID: post.ID, ParentID: &first.ID,
	}).Error)

	total, err := repo.CountTopLevel(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)

	page, err := repo.ListTopLevel(ctx, post.ID, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "root 4", page[0].Content)
	assert.Equal(t, "root 3", page[1].Content)

	page, err = repo.ListTopLevel(ctx, post.ID, 2, 4)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "root 0", page[0].Content)
}

func TestCommentRepository_RepliesOrderAndVisibility(t *testing.T) {
	db := newRepoDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "bob")
	post := createTestPost(t, db, author)

	parent := &models.Comment{Content: "root", UserID: author.ID, PostID: post.ID}
	require.NoError(t, db.Create(parent).Error)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&models.Comment{
			Content:   fmt.Sprintf("reply %d", i),
			UserID:    author.ID,
			PostID:    post.ID,
			ParentID:  &parent.ID,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	replies, err := repo.ListReplies(ctx, parent.ID)
	require.NoError(t, err)
	require.Len(t, replies, 3)
	assert.Equal(t, "reply 0", replies[0].Content)
	assert.Equal(t, "reply 2", replies[2].Content)

	// Deleted replies vanish from the thread entirely.
	require.NoError(t, repo.SoftDelete(ctx, replies[1]))
	replies, err = repo.ListReplies(ctx, parent.ID)
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, "reply 0", replies[0].Content)
	assert.Equal(t, "reply 2", replies[1].Content)
}

func TestCommentRepository_SoftDelete(t *testing.T) {
	db := newRepoDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "carla")
	post := createTestPost(t, db, author)

	keeper := &models.Comment{Content: "still here", UserID: author.ID, PostID: post.ID}
	require.NoError(t, db.Create(keeper).Error)
	comment := &models.Comment{Content: "so long", UserID: author.ID, PostID: post.ID}
	require.NoError(t, db.Create(comment).Error)

	require.NoError(t, repo.SoftDelete(ctx, comment))

	got, err := repo.GetByID(ctx, comment.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)
	assert.Equal(t, models.DeletedCommentPlaceholder, got.Content)

	// Deleted roots vanish from default listings and from pagination totals.
	total, err := repo.CountTopLevel(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	roots, err := repo.ListTopLevel(ctx, post.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, "still here", roots[0].Content)
}

func TestCommentRepository_HardDeleteByPost(t *testing.T) {
	db := newRepoDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "dana")
	post := createTestPost(t, db, author)
	other := createTestPost(t, db, author, func(p *models.Post) { p.Slug = "other-post" })

	parent := &models.Comment{Content: "root", UserID: author.ID, PostID: post.ID}
	require.NoError(t, db.Create(parent).Error)
	require.NoError(t, db.Create(&models.Comment{
		Content: "reply", UserID: author.ID, PostID: post.ID, ParentID: &parent.ID,
	}).Error)
	require.NoError(t, db.Create(&models.Comment{
		Content: "unrelated", UserID: author.ID, PostID: other.ID,
	}).Error)

	require.NoError(t, repo.HardDeleteByPost(ctx, post.ID))

	var remaining int64
	require.NoError(t, db.Unscoped().Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&remaining).Error)
	assert.Equal(t, int64(0), remaining)

	require.NoError(t, db.Model(&models.Comment{}).Where("post_id = ?", other.ID).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)
}

func TestCommentRepository_GetByIDPreloadsParent(t *testing.T) {
	db := newRepoDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "eve")
	post := createTestPost(t, db, author)

	parent := &models.Comment{Content: "root", UserID: author.ID, PostID: post.ID}
	require.NoError(t, db.Create(parent).Error)
	reply := &models.Comment{Content: "reply", UserID: author.ID, PostID: post.ID, ParentID: &parent.ID}
	require.NoError(t, db.Create(reply).Error)

	got, err := repo.GetByID(ctx, reply.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Parent)
	assert.Equal(t, "root", got.Parent.Content)
	assert.Equal(t, "eve", got.User.Name)
}
