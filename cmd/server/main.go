// Command server is the entry point for the Inkwell blog backend.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/seed"
	"inkwell/internal/server"
)

func main() {
	seedDB := flag.Bool("seed", false, "seed the database with demo data and exit")
	seedUsers := flag.Int("seed-users", 8, "number of demo users to create with -seed")
	seedPosts := flag.Int("seed-posts", 20, "number of demo posts to create with -seed")
	seedClean := flag.Bool("seed-clean", false, "wipe existing rows before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *seedDB {
		if err := seed.Seed(db, seed.Options{
			NumUsers:    *seedUsers,
			NumPosts:    *seedPosts,
			ShouldClean: *seedClean,
		}); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
		return
	}

	cache.InitRedis(cfg.RedisURL)

	srv, err := server.NewServerWithDeps(cfg, db, cache.GetClient())
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
