package mongostore

import (
	"context"

	"aperture/internal/models"
	"aperture/internal/observability"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type followRepository struct {
	db *DB
}

func (r *followRepository) Follow(ctx context.Context, followerID, followeeID uint) (err error) {
	ctx, span := startSpan(ctx, "insert", followsCollection)
	defer func() { observability.EndSpan(span, err) }()

	_, err = r.db.follows.InsertOne(ctx, followDoc{
		FollowerID: followerID,
		FolloweeID: followeeID,
		CreatedAt:  r.db.timestamp(),
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.NewAlreadyFollowingError()
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *followRepository) Unfollow(ctx context.Context, followerID, followeeID uint) (err error) {
	ctx, span := startSpan(ctx, "delete", followsCollection)
	defer func() { observability.EndSpan(span, err) }()

	res, err := r.db.follows.DeleteOne(ctx, bson.M{"follower_id": followerID, "followee_id": followeeID})
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.DeletedCount == 0 {
		return models.NewNotFollowingError()
	}
	return nil
}

func (r *followRepository) IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error) {
	n, err := r.db.follows.CountDocuments(ctx,
		bson.M{"follower_id": followerID, "followee_id": followeeID},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

func (r *followRepository) Counts(ctx context.Context, followerID, followeeID uint) (models.FollowCounts, error) {
	var counts models.FollowCounts
	var err error
	if counts.FollowingCount, err = r.db.follows.CountDocuments(ctx, bson.M{"follower_id": followerID}); err != nil {
		return counts, models.NewInternalError(err)
	}
	if counts.FollowerCount, err = r.db.follows.CountDocuments(ctx, bson.M{"followee_id": followeeID}); err != nil {
		return counts, models.NewInternalError(err)
	}
	return counts, nil
}

// edges returns the far-end ids of userID's edges, oldest edge first.
func (r *followRepository) edges(ctx context.Context, userID uint, followers bool) ([]uint, error) {
	near, far := "follower_id", "followee_id"
	if followers {
		near, far = far, near
	}
	cur, err := r.db.follows.Find(ctx, bson.M{near: userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []followDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(docs))
	for _, d := range docs {
		if far == "followee_id" {
			ids = append(ids, d.FolloweeID)
		} else {
			ids = append(ids, d.FollowerID)
		}
	}
	return ids, nil
}

func (r *followRepository) list(ctx context.Context, userID uint, followers bool) (out []models.UserSummary, err error) {
	ctx, span := startSpan(ctx, "find", followsCollection)
	defer func() { observability.EndSpan(span, err) }()

	ids, err := r.edges(ctx, userID, followers)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	byID, err := r.db.summaries(ctx, ids)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	out = make([]models.UserSummary, 0, len(ids))
	for _, id := range ids {
		if s, ok := byID[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *followRepository) Followers(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	return r.list(ctx, userID, true)
}

func (r *followRepository) Following(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	return r.list(ctx, userID, false)
}

func (r *followRepository) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	ids, err := r.edges(ctx, userID, false)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}
