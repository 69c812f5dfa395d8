// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedOptions tunes factory behavior.
type SeedOptions struct {
	// MaxDays spreads generated created_at timestamps over this many days.
	MaxDays int
	// SkipBcrypt stores a plain-text password for faster bulk seeding.
	SkipBcrypt bool
	// DryRun logs what would be created without touching the database.
	DryRun bool
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by seed presets and tests.
type Factory struct {
	db   *gorm.DB
	opts SeedOptions
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts SeedOptions) *Factory {
	// seed gofakeit for richer content
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{db: db, opts: opts, nextID: 1000}
}

var seedCategories = []string{
	"engineering", "design", "product", "devops", "opinion", "tutorials",
}

var seedTagPool = []string{
	"go", "web", "databases", "testing", "cloud", "performance",
	"api", "career", "tooling", "architecture",
}

// CreateUser constructs and persists a sample `models.User`.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Name:  gofakeit.Name(),
		Email: gofakeit.Email(),
	}

	// Password handling: allow skipping bcrypt in dev fast mode
	if f.opts.SkipBcrypt {
		user.Password = "password123"
	} else {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user.Password = string(hashedPassword)
	}

	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		log.Printf("[dry-run] CreateUser: %s <%s>", user.Name, user.Email)
		return user, nil
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePost constructs and persists a sample `models.Post` authored by the
// given user. The slug is derived from the generated title the same way the
// service layer derives it.
func (f *Factory) CreatePost(author *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	//nolint:gosec // Weak random number generator is fine for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	title := gofakeit.Sentence(r.Intn(5) + 3)
	post := &models.Post{
		Title:    title,
		Content:  gofakeit.Paragraph(2, 4, 8, "\n\n"),
		Excerpt:  gofakeit.Sentence(12),
		AuthorID: author.ID,
		Category: seedCategories[r.Intn(len(seedCategories))],
		Tags:     randomTags(r),
		Status:   models.PostStatusPublished,
		Featured: r.Float32() < 0.15,
		CoverURL: fmt.Sprintf("https://picsum.photos/seed/%s/1280/720", gofakeit.UUID()),
	}
	if r.Float32() < 0.25 {
		post.Status = models.PostStatusDraft
	}
	post.MetaTitle = post.Title
	post.MetaDesc = post.Excerpt

	// realistic created_at spread
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	daysBack := r.Intn(maxDays)
	hoursBack := r.Intn(24)
	post.CreatedAt = time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour)

	if post.Published() {
		post.ViewsCount = int64(r.Intn(5000))
		post.LikesCount = int64(r.Intn(400))
	}

	for _, override := range overrides {
		override(post)
	}

	if post.Slug == "" {
		post.Slug = validation.Slugify(post.Title)
	}
	// gofakeit can repeat sentences; suffix the slug on collision instead of
	// failing the whole run.
	if !f.opts.DryRun {
		var count int64
		f.db.Model(&models.Post{}).Where("slug = ?", post.Slug).Count(&count)
		if count > 0 {
			post.Slug = fmt.Sprintf("%s-%d", post.Slug, r.Intn(100000))
		}
	}

	if f.opts.DryRun {
		f.nextID++
		post.ID = f.nextID
		log.Printf("[dry-run] CreatePost: author=%d slug=%q status=%s", post.AuthorID, post.Slug, post.Status)
		return post, nil
	}

	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment constructs and persists a top-level comment on the provided
// post authored by the provided user.
func (f *Factory) CreateComment(user *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		Content: gofakeit.Sentence(8),
		UserID:  user.ID,
		PostID:  post.ID,
	}

	for _, override := range overrides {
		override(comment)
	}

	if f.opts.DryRun {
		f.nextID++
		comment.ID = f.nextID
		log.Printf("[dry-run] CreateComment: post=%d user=%d", comment.PostID, comment.UserID)
		return comment, nil
	}

	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateReply persists a reply to an existing top-level comment.
func (f *Factory) CreateReply(user *models.User, parent *models.Comment, overrides ...func(*models.Comment)) (*models.Comment, error) {
	return f.CreateComment(user, &models.Post{ID: parent.PostID}, append([]func(*models.Comment){
		func(c *models.Comment) {
			c.ParentID = &parent.ID
			c.Content = gofakeit.Sentence(6)
		},
	}, overrides...)...)
}

func randomTags(r *rand.Rand) models.TagList {
	n := r.Intn(3) + 1
	picked := make([]string, 0, n)
	seen := map[string]bool{}
	for len(picked) < n {
		tag := seedTagPool[r.Intn(len(seedTagPool))]
		if !seen[tag] {
			seen[tag] = true
			picked = append(picked, tag)
		}
	}
	return models.TagList(picked)
}
