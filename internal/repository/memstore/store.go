// Package memstore implements the repository contracts in process memory.
// It backs demo mode and tests; state is lost when the process exits.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"aperture/internal/config"
	"aperture/internal/models"
	"aperture/internal/repository"
)

type edge struct {
	follower uint
	followee uint
}

type edgeRecord struct {
	seq       uint64
	createdAt time.Time
}

type postRecord struct {
	post  models.Post
	likes map[uint]struct{}
}

type commentRecord struct {
	comment models.Comment
	likes   map[uint]struct{}
}

// DB is the shared state behind every memstore repository.
type DB struct {
	mu sync.RWMutex

	users    map[uint]*models.User
	follows  map[edge]edgeRecord
	posts    map[uint]*postRecord
	comments map[uint]*commentRecord

	nextUserID    uint
	nextPostID    uint
	nextCommentID uint
	seq           uint64

	now func() time.Time
}

// NewDB returns an empty database.
func NewDB() *DB {
	return &DB{
		users:    make(map[uint]*models.User),
		follows:  make(map[edge]edgeRecord),
		posts:    make(map[uint]*postRecord),
		comments: make(map[uint]*commentRecord),
		now:      time.Now,
	}
}

// Store wires the database into a repository.Store.
func (db *DB) Store() *repository.Store {
	return repository.NewStore(config.StoreMemory,
		&userRepository{db: db},
		&followRepository{db: db},
		&postRepository{db: db},
		&commentRepository{db: db},
		repository.StoreHooks{},
	)
}

// NewStore returns a Store over an empty database.
func NewStore() *repository.Store {
	return NewDB().Store()
}

func (db *DB) timestamp() time.Time {
	return db.now().UTC()
}

// summary must be called with the lock held.
func (db *DB) summary(id uint) *models.UserSummary {
	u, ok := db.users[id]
	if !ok {
		return &models.UserSummary{ID: id}
	}
	s := u.Summary()
	return &s
}

// userView must be called with the lock held.
func (db *DB) userView(u *models.User) *models.User {
	out := *u
	out.FollowersCount, out.FollowingCount, out.PostsCount = 0, 0, 0
	for e := range db.follows {
		if e.followee == u.ID {
			out.FollowersCount++
		}
		if e.follower == u.ID {
			out.FollowingCount++
		}
	}
	for _, p := range db.posts {
		if p.post.UserID == u.ID {
			out.PostsCount++
		}
	}
	return &out
}

// commentView must be called with the lock held.
func (db *DB) commentView(rec *commentRecord, viewerID uint) *models.Comment {
	out := rec.comment
	out.Author = db.summary(out.UserID)
	out.LikesCount = int64(len(rec.likes))
	_, out.Liked = rec.likes[viewerID]
	return &out
}

// postComments must be called with the lock held.
func (db *DB) postComments(postID uint) []*commentRecord {
	recs := make([]*commentRecord, 0)
	for _, c := range db.comments {
		if c.comment.PostID == postID {
			recs = append(recs, c)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i].comment, recs[j].comment
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return recs
}

// postView must be called with the lock held.
func (db *DB) postView(rec *postRecord, viewerID uint) *models.Post {
	out := rec.post
	out.Tags = append(models.Tags{}, rec.post.Tags...)
	out.Author = db.summary(out.UserID)
	out.LikesCount = int64(len(rec.likes))
	_, out.Liked = rec.likes[viewerID]

	recs := db.postComments(out.ID)
	out.CommentsCount = int64(len(recs))
	out.Comments = make([]*models.Comment, 0, len(recs))
	for _, c := range recs {
		out.Comments = append(out.Comments, db.commentView(c, viewerID))
	}
	return &out
}

func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), sub)
}
