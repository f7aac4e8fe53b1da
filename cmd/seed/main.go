// Command seed fills the configured store with demo data.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"aperture/internal/bootstrap"
	"aperture/internal/config"
	"aperture/internal/seed"
	"aperture/internal/service"
)

func main() {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.NumUsers, "Number of users to create")
	postsPerUser := flag.Int("posts", defaults.PostsPerUser, "Posts per user")
	followsPerUser := flag.Int("follows", defaults.FollowsPerUser, "Follow attempts per user")
	commentsPerPost := flag.Int("comments", defaults.CommentsPerPost, "Comments per post")
	likeChance := flag.Float64("like-chance", defaults.LikeChance, "Probability that a user likes a post")
	imageSize := flag.Int("image-size", defaults.ImageSize, "Edge length of generated images in pixels")
	randSeed := flag.Int64("seed", 0, "Random seed (0 picks one)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.StoreDriver == config.StoreMemory {
		log.Fatal("Seeding the memory store has no lasting effect; pick a persistent STORE_DRIVER")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	store, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer func() { _ = store.Close(context.Background()) }()

	seeder := seed.NewSeeder(store, service.NewImageService(cfg), seed.Options{
		NumUsers:        *numUsers,
		PostsPerUser:    *postsPerUser,
		FollowsPerUser:  *followsPerUser,
		CommentsPerPost: *commentsPerPost,
		LikeChance:      *likeChance,
		ImageSize:       *imageSize,
		RandSeed:        *randSeed,
	})

	summary, err := seeder.Run(ctx)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d follows, %d posts, %d comments, %d likes",
		summary.Users, summary.Follows, summary.Posts, summary.Comments, summary.Likes)
	log.Println("All seeded users have the password: password123")
}
