// Package repository defines the persistence contracts of the application and their GORM implementation.
// The memstore and mongostore subpackages provide alternative implementations of the same contracts.
package repository

import (
	"context"

	"aperture/internal/models"
)

// UserRepository defines persistence operations for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	// GetByID returns the account with its follower, following and post counts.
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// GetByEmail matches the already-normalized email. It returns a NotFound error when absent.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// ExistsByUsernameOrEmail answers both uniqueness questions with one lookup.
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	// EmailTaken reports whether another account already uses email.
	EmailTaken(ctx context.Context, email string, exceptUserID uint) (bool, error)
	// UpdateProfile persists FullName, Bio, Email and ProfilePicture.
	UpdateProfile(ctx context.Context, user *models.User) error
	// Search matches query case-insensitively against username or full name,
	// ordered by username then id.
	Search(ctx context.Context, query string, limit int) ([]models.UserSummary, error)
	// Summaries returns the current summaries of ids keyed by id. Unknown ids are omitted.
	Summaries(ctx context.Context, ids []uint) (map[uint]models.UserSummary, error)
}

// FollowRepository manages directed follow edges.
type FollowRepository interface {
	// Follow inserts the edge; AlreadyFollowing when it exists.
	Follow(ctx context.Context, followerID, followeeID uint) error
	// Unfollow removes the edge; NotFollowing when it is absent.
	Unfollow(ctx context.Context, followerID, followeeID uint) error
	IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error)
	// Counts returns the follower's following count and the followee's follower count.
	Counts(ctx context.Context, followerID, followeeID uint) (models.FollowCounts, error)
	Followers(ctx context.Context, userID uint) ([]models.UserSummary, error)
	Following(ctx context.Context, userID uint) ([]models.UserSummary, error)
	FollowingIDs(ctx context.Context, userID uint) ([]uint, error)
}

// PostRepository defines persistence operations for posts and their likes.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	// GetByID returns the post with author, counts, liked flag for viewerID and all comments oldest first.
	GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error)
	// ListByAuthors returns one page of posts by any of authorIDs, newest first, with the total match count.
	ListByAuthors(ctx context.Context, authorIDs []uint, page models.Page, viewerID uint) ([]*models.Post, int64, error)
	// Delete removes the post, its likes, its comments and their likes atomically.
	Delete(ctx context.Context, id uint) error
	Like(ctx context.Context, postID, userID uint) (*models.LikeResult, error)
	Unlike(ctx context.Context, postID, userID uint) (*models.LikeResult, error)
}

// CommentRepository defines persistence operations for comments and their likes.
type CommentRepository interface {
	// Create inserts the comment; NotFound when the post does not exist.
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint, viewerID uint) (*models.Comment, error)
	// ListByPost returns one page of comments, newest first.
	ListByPost(ctx context.Context, postID uint, page models.Page, viewerID uint) ([]*models.Comment, int64, error)
	// Delete removes the comment and its likes.
	Delete(ctx context.Context, id uint) error
	Like(ctx context.Context, commentID, userID uint) (*models.LikeResult, error)
	Unlike(ctx context.Context, commentID, userID uint) (*models.LikeResult, error)
}

// Store bundles the repositories of one backend.
type Store struct {
	Driver   string
	Users    UserRepository
	Follows  FollowRepository
	Posts    PostRepository
	Comments CommentRepository

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

// StoreHooks are the lifecycle functions of a Store backend. Either may be nil.
type StoreHooks struct {
	Ping  func(ctx context.Context) error
	Close func(ctx context.Context) error
}

// NewStore assembles a Store from repositories and lifecycle hooks.
func NewStore(driver string, users UserRepository, follows FollowRepository, posts PostRepository, comments CommentRepository, hooks StoreHooks) *Store {
	return &Store{
		Driver:   driver,
		Users:    users,
		Follows:  follows,
		Posts:    posts,
		Comments: comments,
		ping:     hooks.Ping,
		close:    hooks.Close,
	}
}

// Ping checks that the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// Close releases the backend's connections.
func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}
