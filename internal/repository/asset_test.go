package repository

import (
	"context"
	"strings"
	"testing"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetRepository_CountCoverReferences(t *testing.T) {
	db := newRepoDB(t)
	repo := NewAssetRepository(db)
	ctx := context.Background()

	hash := strings.Repeat("ab", 32)
	require.NoError(t, repo.Create(ctx, &models.Asset{
		Hash:         hash,
		OriginalPath: hash + ".jpg",
		WebPPath:     hash + ".webp",
		ContentType:  "image/jpeg",
	}))

	author := createTestUser(t, db, "frank")
	createTestPost(t, db, author, func(p *models.Post) { p.CoverAssetID = hash })
	createTestPost(t, db, author, func(p *models.Post) {
		p.Slug = "second-post"
		p.CoverAssetID = hash
	})
	createTestPost(t, db, author, func(p *models.Post) { p.Slug = "coverless-post" })

	count, err := repo.CountCoverReferences(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = repo.CountCoverReferences(ctx, strings.Repeat("cd", 32))
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
