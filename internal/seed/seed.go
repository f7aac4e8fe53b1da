// Package seed fills a store with demo accounts, follows, posts, comments and likes.
// Everything goes through the services so hashing, images and counters behave as in production.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"aperture/internal/middleware"
	"aperture/internal/models"
	"aperture/internal/repository"
	"aperture/internal/service"
)

// Options configuration for the seeder
type Options struct {
	NumUsers        int
	PostsPerUser    int
	FollowsPerUser  int
	CommentsPerPost int
	// LikeChance is the probability that an account likes a given post.
	LikeChance float64
	ImageSize  int
	Password   string
	// RandSeed makes a run reproducible. Zero picks a random seed.
	RandSeed int64
}

// DefaultOptions seeds a small but lively network.
func DefaultOptions() Options {
	return Options{
		NumUsers:        20,
		PostsPerUser:    3,
		FollowsPerUser:  5,
		CommentsPerPost: 2,
		LikeChance:      0.3,
		ImageSize:       480,
	}
}

// Summary counts what a run created.
type Summary struct {
	Users    int
	Follows  int
	Posts    int
	Comments int
	Likes    int
}

// Seeder drives the services with generated data.
type Seeder struct {
	users    *service.UserService
	follows  *service.FollowService
	posts    *service.PostService
	comments *service.CommentService
	factory  *Factory
	opts     Options
}

// NewSeeder wires services over store. Seeding never sends notifications.
func NewSeeder(store *repository.Store, images service.ImageStore, opts Options) *Seeder {
	if opts.ImageSize <= 0 {
		opts.ImageSize = DefaultOptions().ImageSize
	}
	return &Seeder{
		users:    service.NewUserService(store.Users, store.Follows),
		follows:  service.NewFollowService(store.Users, store.Follows, nil),
		posts:    service.NewPostService(store.Posts, store.Users, images, nil),
		comments: service.NewCommentService(store.Comments, store.Posts, store.Users, nil),
		factory:  NewFactory(opts.RandSeed, opts.Password),
		opts:     opts,
	}
}

// Run seeds the store and reports what it created.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	log := middleware.Logger
	log.InfoContext(ctx, "Starting seeding", slog.Int("users", s.opts.NumUsers), slog.Int("posts_per_user", s.opts.PostsPerUser))

	summary := &Summary{}

	users, err := s.seedUsers(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to create users: %w", err)
	}
	summary.Users = len(users)

	if summary.Follows, err = s.seedFollows(ctx, users); err != nil {
		return summary, fmt.Errorf("failed to create follows: %w", err)
	}

	posts, err := s.seedPosts(ctx, users)
	if err != nil {
		return summary, fmt.Errorf("failed to create posts: %w", err)
	}
	summary.Posts = len(posts)

	if summary.Comments, summary.Likes, err = s.seedEngagement(ctx, users, posts); err != nil {
		return summary, fmt.Errorf("failed to create engagement: %w", err)
	}

	log.InfoContext(ctx, "Seeding completed",
		slog.Int("users", summary.Users),
		slog.Int("follows", summary.Follows),
		slog.Int("posts", summary.Posts),
		slog.Int("comments", summary.Comments),
		slog.Int("likes", summary.Likes),
	)
	return summary, nil
}

func (s *Seeder) seedUsers(ctx context.Context) ([]*models.User, error) {
	users := make([]*models.User, 0, s.opts.NumUsers)
	for i := 0; i < s.opts.NumUsers; i++ {
		user, err := s.users.Register(ctx, s.factory.RegisterInput(i+1))
		if err != nil {
			return nil, err
		}
		bio := s.factory.Bio()
		if user, err = s.users.UpdateProfile(ctx, service.UpdateProfileInput{UserID: user.ID, Bio: &bio}); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedFollows(ctx context.Context, users []*models.User) (int, error) {
	if len(users) < 2 {
		return 0, nil
	}
	created := 0
	for _, follower := range users {
		for i := 0; i < s.opts.FollowsPerUser; i++ {
			target := users[s.factory.Pick(len(users))]
			if target.ID == follower.ID {
				continue
			}
			_, err := s.follows.Follow(ctx, follower.ID, target.ID)
			if models.HasCode(err, models.CodeAlreadyFollowing) {
				continue
			}
			if err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}

func (s *Seeder) seedPosts(ctx context.Context, users []*models.User) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, len(users)*s.opts.PostsPerUser)
	for _, user := range users {
		for i := 0; i < s.opts.PostsPerUser; i++ {
			img, err := s.factory.Image(s.opts.ImageSize, s.opts.ImageSize)
			if err != nil {
				return nil, err
			}
			post, err := s.posts.CreatePost(ctx, s.factory.PostInput(user.ID, img))
			if err != nil {
				return nil, err
			}
			posts = append(posts, post)
		}
	}
	return posts, nil
}

func (s *Seeder) seedEngagement(ctx context.Context, users []*models.User, posts []*models.Post) (comments, likes int, err error) {
	if len(users) == 0 {
		return 0, 0, nil
	}
	for _, post := range posts {
		for i := 0; i < s.opts.CommentsPerPost; i++ {
			author := users[s.factory.Pick(len(users))]
			if _, err := s.comments.CreateComment(ctx, post.ID, author.ID, s.factory.CommentText()); err != nil {
				return comments, likes, err
			}
			comments++
		}
		for _, user := range users {
			if !s.factory.Chance(s.opts.LikeChance) {
				continue
			}
			if _, err := s.posts.LikePost(ctx, post.ID, user.ID); err != nil {
				return comments, likes, err
			}
			likes++
		}
	}
	return comments, likes, nil
}
