package mongostore

import (
	"context"
	"errors"
	"regexp"

	"aperture/internal/models"
	"aperture/internal/observability"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userRepository struct {
	db *DB
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (err error) {
	ctx, span := startSpan(ctx, "insert", usersCollection)
	defer func() { observability.EndSpan(span, err) }()

	id, err := r.db.nextID(ctx, usersCollection)
	if err != nil {
		return models.NewInternalError(err)
	}
	now := r.db.timestamp()
	doc := userDoc{
		ID:             id,
		Username:       user.Username,
		Email:          user.Email,
		Password:       user.Password,
		FullName:       user.FullName,
		Bio:            user.Bio,
		ProfilePicture: user.ProfilePicture,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := r.db.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.NewConflictError("Username or email already exists")
		}
		return models.NewInternalError(err)
	}
	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// findOne loads a user matching filter and attaches its derived counts.
func (r *userRepository) findOne(ctx context.Context, filter bson.M, notFound *models.AppError) (user *models.User, err error) {
	ctx, span := startSpan(ctx, "find", usersCollection)
	defer func() { observability.EndSpan(span, err) }()

	var doc userDoc
	if err := r.db.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound
		}
		return nil, models.NewInternalError(err)
	}
	user = doc.model()

	if user.FollowersCount, err = r.db.follows.CountDocuments(ctx, bson.M{"followee_id": doc.ID}); err != nil {
		return nil, models.NewInternalError(err)
	}
	if user.FollowingCount, err = r.db.follows.CountDocuments(ctx, bson.M{"follower_id": doc.ID}); err != nil {
		return nil, models.NewInternalError(err)
	}
	if user.PostsCount, err = r.db.posts.CountDocuments(ctx, bson.M{"user_id": doc.ID}); err != nil {
		return nil, models.NewInternalError(err)
	}
	return user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id}, models.NewNotFoundError("User", id))
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"username": username}, models.NewNotFoundError("User", username))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email}, models.NewNotFoundError("User", email))
}

func (r *userRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	n, err := r.db.users.CountDocuments(ctx,
		bson.M{"$or": bson.A{bson.M{"username": username}, bson.M{"email": email}}},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

func (r *userRepository) EmailTaken(ctx context.Context, email string, exceptUserID uint) (bool, error) {
	n, err := r.db.users.CountDocuments(ctx,
		bson.M{"email": email, "_id": bson.M{"$ne": exceptUserID}},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, user *models.User) (err error) {
	ctx, span := startSpan(ctx, "update", usersCollection)
	defer func() { observability.EndSpan(span, err) }()

	now := r.db.timestamp()
	res, err := r.db.users.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{
		"full_name":       user.FullName,
		"bio":             user.Bio,
		"email":           user.Email,
		"profile_picture": user.ProfilePicture,
		"updated_at":      now,
	}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.NewConflictError("Email already in use")
		}
		return models.NewInternalError(err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundError("User", user.ID)
	}
	user.UpdatedAt = now
	return nil
}

func (r *userRepository) Search(ctx context.Context, query string, limit int) (out []models.UserSummary, err error) {
	ctx, span := startSpan(ctx, "find", usersCollection)
	defer func() { observability.EndSpan(span, err) }()

	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	opts := options.Find().
		SetSort(bson.D{{Key: "username", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))
	cur, err := r.db.users.Find(ctx, bson.M{"$or": bson.A{
		bson.M{"username": pattern},
		bson.M{"full_name": pattern},
	}}, opts)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, models.NewInternalError(err)
	}

	out = make([]models.UserSummary, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].summary())
	}
	return out, nil
}

func (r *userRepository) Summaries(ctx context.Context, ids []uint) (out map[uint]models.UserSummary, err error) {
	ctx, span := startSpan(ctx, "find", usersCollection)
	defer func() { observability.EndSpan(span, err) }()

	out, err = r.db.summaries(ctx, ids)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

// summaries loads user summaries for ids, keyed by id.
func (db *DB) summaries(ctx context.Context, ids []uint) (map[uint]models.UserSummary, error) {
	out := make(map[uint]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := db.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"username": 1, "full_name": 1, "profile_picture": 1}))
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	for i := range docs {
		out[docs[i].ID] = docs[i].summary()
	}
	return out, nil
}
