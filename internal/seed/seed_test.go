package seed

import (
	"testing"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSeedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Post{}, &models.Comment{}))
	return db
}

func TestFactoryCreateUser(t *testing.T) {
	db := newSeedDB(t)
	factory := NewFactory(db, SeedOptions{SkipBcrypt: true})

	user, err := factory.CreateUser(func(u *models.User) { u.IsAdmin = true })
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.True(t, user.IsAdmin)
	assert.NotEmpty(t, user.Email)
}

func TestFactoryCreatePost(t *testing.T) {
	db := newSeedDB(t)
	factory := NewFactory(db, SeedOptions{SkipBcrypt: true})

	author, err := factory.CreateUser()
	require.NoError(t, err)

	post, err := factory.CreatePost(author)
	require.NoError(t, err)
	assert.NotZero(t, post.ID)
	assert.NotEmpty(t, post.Slug)
	assert.Contains(t, []string{models.PostStatusDraft, models.PostStatusPublished}, post.Status)
	assert.NotEmpty(t, post.Tags)
}

func TestFactoryReplyKeepsPostScope(t *testing.T) {
	db := newSeedDB(t)
	factory := NewFactory(db, SeedOptions{SkipBcrypt: true})

	author, err := factory.CreateUser()
	require.NoError(t, err)
	post, err := factory.CreatePost(author, func(p *models.Post) { p.Status = models.PostStatusPublished })
	require.NoError(t, err)

	parent, err := factory.CreateComment(author, post)
	require.NoError(t, err)
	reply, err := factory.CreateReply(author, parent)
	require.NoError(t, err)

	assert.Equal(t, post.ID, reply.PostID)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, parent.ID, *reply.ParentID)
}

func TestFactoryDryRun(t *testing.T) {
	factory := NewFactory(nil, SeedOptions{DryRun: true, SkipBcrypt: true})

	user, err := factory.CreateUser()
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	post, err := factory.CreatePost(user)
	require.NoError(t, err)
	assert.NotZero(t, post.ID)
	assert.NotEmpty(t, post.Slug)
}

func TestSeedPopulates(t *testing.T) {
	db := newSeedDB(t)

	require.NoError(t, Seed(db, Options{NumUsers: 4, NumPosts: 6}))

	var userCount, postCount int64
	db.Model(&models.User{}).Count(&userCount)
	db.Model(&models.Post{}).Count(&postCount)
	// NumUsers regular users plus the admin account. Random emails can
	// collide, in which case the seeder skips the user and keeps going.
	assert.GreaterOrEqual(t, userCount, int64(4))
	assert.LessOrEqual(t, userCount, int64(5))
	assert.Equal(t, int64(6), postCount)

	var admin models.User
	require.NoError(t, db.Where("is_admin = ?", true).First(&admin).Error)
	assert.Equal(t, "editor@example.com", admin.Email)
}
