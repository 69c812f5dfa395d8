// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"inkwell/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
}

// Seed populates the database with demo data: an admin account, regular
// readers, a mix of published and draft posts, and comment threads with
// one level of replies.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Starting database seeding with %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway...")
		}
	}

	factory := NewFactory(db, SeedOptions{MaxDays: 120})

	admin, err := createAdmin(db)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	users, err := createUsers(factory, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("%d users created", len(users))

	posts, err := createPosts(factory, admin, opts.NumPosts)
	if err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("%d posts created", len(posts))

	if err := createCommentThreads(factory, users, posts); err != nil {
		return fmt.Errorf("failed to create comments: %w", err)
	}

	log.Println("Database seeding completed successfully")
	return nil
}

func clearData(db *gorm.DB) error {
	log.Println("Clearing existing data...")
	sql := `TRUNCATE TABLE comments, posts, users RESTART IDENTITY CASCADE;`
	return db.Exec(sql).Error
}

func createAdmin(db *gorm.DB) (*models.User, error) {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

	admin := models.User{
		Name:     "Editor",
		Email:    "editor@example.com",
		Password: string(hashedPassword),
		IsAdmin:  true,
	}
	if err := db.Where(models.User{Email: admin.Email}).FirstOrCreate(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func createUsers(factory *Factory, count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)
	for i := 0; i < count; i++ {
		user, err := factory.CreateUser()
		if err != nil {
			log.Printf("Failed to create user %d: %v", i, err)
			continue
		}
		users = append(users, user)

		if i > 0 && i%100 == 0 {
			log.Printf("Created %d users...", i)
		}
	}
	if len(users) == 0 && count > 0 {
		return nil, fmt.Errorf("no users could be created")
	}
	return users, nil
}

func createPosts(factory *Factory, admin *models.User, count int) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, count)
	for i := 0; i < count; i++ {
		post, err := factory.CreatePost(admin)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)

		if i > 0 && i%100 == 0 {
			log.Printf("Created %d posts...", i)
		}
	}
	return posts, nil
}

func createCommentThreads(factory *Factory, users []*models.User, posts []*models.Post) error {
	if len(users) == 0 {
		return nil
	}

	//nolint:gosec // Weak random number generator is fine for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, post := range posts {
		if !post.Published() {
			continue
		}
		topLevel := r.Intn(6)
		for i := 0; i < topLevel; i++ {
			author := users[r.Intn(len(users))]
			comment, err := factory.CreateComment(author, post)
			if err != nil {
				return err
			}

			replies := r.Intn(3)
			for j := 0; j < replies; j++ {
				replier := users[r.Intn(len(users))]
				if _, err := factory.CreateReply(replier, comment); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
