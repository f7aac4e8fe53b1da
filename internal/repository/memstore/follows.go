package memstore

import (
	"context"
	"sort"

	"aperture/internal/models"
)

type followRepository struct {
	db *DB
}

func (r *followRepository) Follow(ctx context.Context, followerID, followeeID uint) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	e := edge{follower: followerID, followee: followeeID}
	if _, ok := r.db.follows[e]; ok {
		return models.NewAlreadyFollowingError()
	}
	r.db.seq++
	r.db.follows[e] = edgeRecord{seq: r.db.seq, createdAt: r.db.timestamp()}
	return nil
}

func (r *followRepository) Unfollow(ctx context.Context, followerID, followeeID uint) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	e := edge{follower: followerID, followee: followeeID}
	if _, ok := r.db.follows[e]; !ok {
		return models.NewNotFollowingError()
	}
	delete(r.db.follows, e)
	return nil
}

func (r *followRepository) IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error) {
	if err := checkContext(ctx); err != nil {
		return false, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	_, ok := r.db.follows[edge{follower: followerID, followee: followeeID}]
	return ok, nil
}

func (r *followRepository) Counts(ctx context.Context, followerID, followeeID uint) (models.FollowCounts, error) {
	var counts models.FollowCounts
	if err := checkContext(ctx); err != nil {
		return counts, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for e := range r.db.follows {
		if e.follower == followerID {
			counts.FollowingCount++
		}
		if e.followee == followeeID {
			counts.FollowerCount++
		}
	}
	return counts, nil
}

// edgesOf returns the far end of every edge whose near end is userID, oldest edge first.
func (r *followRepository) edgesOf(userID uint, followers bool) []uint {
	type hit struct {
		id  uint
		seq uint64
	}
	hits := make([]hit, 0)
	for e, rec := range r.db.follows {
		switch {
		case followers && e.followee == userID:
			hits = append(hits, hit{id: e.follower, seq: rec.seq})
		case !followers && e.follower == userID:
			hits = append(hits, hit{id: e.followee, seq: rec.seq})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].seq < hits[j].seq })

	ids := make([]uint, len(hits))
	for i, h := range hits {
		ids[i] = h.id
	}
	return ids
}

func (r *followRepository) summaries(ctx context.Context, userID uint, followers bool) ([]models.UserSummary, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	ids := r.edgesOf(userID, followers)
	out := make([]models.UserSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, *r.db.summary(id))
	}
	return out, nil
}

func (r *followRepository) Followers(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	return r.summaries(ctx, userID, true)
}

func (r *followRepository) Following(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	return r.summaries(ctx, userID, false)
}

func (r *followRepository) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.edgesOf(userID, false), nil
}
