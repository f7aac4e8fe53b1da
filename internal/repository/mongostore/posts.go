package mongostore

import (
	"context"
	"errors"

	"aperture/internal/models"
	"aperture/internal/observability"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type postRepository struct {
	db *DB
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) (err error) {
	ctx, span := startSpan(ctx, "insert", postsCollection)
	defer func() { observability.EndSpan(span, err) }()

	id, err := r.db.nextID(ctx, postsCollection)
	if err != nil {
		return models.NewInternalError(err)
	}
	now := r.db.timestamp()
	createdAt := post.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	tags := []string(post.Tags)
	if tags == nil {
		tags = []string{}
	}
	doc := postDoc{
		ID:        id,
		UserID:    post.UserID,
		ImageURL:  post.ImageURL,
		ImageKey:  post.ImageKey,
		Caption:   post.Caption,
		Location:  post.Location,
		Tags:      tags,
		Likes:     []uint{},
		CreatedAt: createdAt,
		UpdatedAt: now,
	}
	if _, err := r.db.posts.InsertOne(ctx, doc); err != nil {
		return models.NewInternalError(err)
	}
	post.ID = id
	post.Tags = models.Tags(tags)
	post.CreatedAt = createdAt
	post.UpdatedAt = now
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint, viewerID uint) (post *models.Post, err error) {
	ctx, span := startSpan(ctx, "find", postsCollection)
	defer func() { observability.EndSpan(span, err) }()

	var doc postDoc
	if err := r.db.posts.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	posts, err := r.hydrate(ctx, []postDoc{doc}, viewerID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts[0], nil
}

func (r *postRepository) ListByAuthors(ctx context.Context, authorIDs []uint, page models.Page, viewerID uint) (posts []*models.Post, total int64, err error) {
	ctx, span := startSpan(ctx, "find", postsCollection)
	defer func() { observability.EndSpan(span, err) }()

	posts = make([]*models.Post, 0)
	if len(authorIDs) == 0 {
		return posts, 0, nil
	}
	filter := bson.M{"user_id": bson.M{"$in": authorIDs}}

	total, err = r.db.posts.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	if total == 0 || int64(page.Offset()) >= total {
		return posts, total, nil
	}

	cur, err := r.db.posts.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(page.Offset())).
		SetLimit(int64(page.Limit)))
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	var docs []postDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	posts, err = r.hydrate(ctx, docs, viewerID)
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return posts, total, nil
}

// hydrate converts docs and attaches authors and comments, oldest comment first.
func (r *postRepository) hydrate(ctx context.Context, docs []postDoc, viewerID uint) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, len(docs))
	byID := make(map[uint]*models.Post, len(docs))
	postIDs := make([]uint, 0, len(docs))
	authorIDs := make([]uint, 0, len(docs))
	for i := range docs {
		p := docs[i].model(viewerID)
		posts = append(posts, p)
		byID[p.ID] = p
		postIDs = append(postIDs, p.ID)
		authorIDs = append(authorIDs, p.UserID)
	}
	if len(docs) == 0 {
		return posts, nil
	}

	cur, err := r.db.comments.Find(ctx, bson.M{"post_id": bson.M{"$in": postIDs}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var comments []commentDoc
	if err := cur.All(ctx, &comments); err != nil {
		return nil, err
	}
	for i := range comments {
		authorIDs = append(authorIDs, comments[i].UserID)
	}

	authors, err := r.db.summaries(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		p.Author = summaryFor(authors, p.UserID)
	}
	for i := range comments {
		c := comments[i].model(viewerID)
		c.Author = summaryFor(authors, c.UserID)
		if p, ok := byID[c.PostID]; ok {
			p.Comments = append(p.Comments, c)
		}
	}
	return posts, nil
}

func summaryFor(authors map[uint]models.UserSummary, id uint) *models.UserSummary {
	s, ok := authors[id]
	if !ok {
		s = models.UserSummary{ID: id}
	}
	return &s
}

func (r *postRepository) Delete(ctx context.Context, id uint) (err error) {
	ctx, span := startSpan(ctx, "delete", postsCollection)
	defer func() { observability.EndSpan(span, err) }()

	err = r.db.withTransaction(ctx, func(ctx context.Context) error {
		res, err := r.db.posts.DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return models.NewNotFoundError("Post", id)
		}
		_, err = r.db.comments.DeleteMany(ctx, bson.M{"post_id": id})
		return err
	})
	return wrap(err)
}

func (r *postRepository) Like(ctx context.Context, postID, userID uint) (*models.LikeResult, error) {
	return r.db.toggleLike(ctx, r.db.posts, "Post", postID, userID, true)
}

func (r *postRepository) Unlike(ctx context.Context, postID, userID uint) (*models.LikeResult, error) {
	return r.db.toggleLike(ctx, r.db.posts, "Post", postID, userID, false)
}

// toggleLike moves userID into or out of the likes array and the counter in one conditional update.
// The membership filter makes a repeated like or unlike match nothing.
func (db *DB) toggleLike(ctx context.Context, coll *mongo.Collection, resource string, id, userID uint, like bool) (result *models.LikeResult, err error) {
	ctx, span := startSpan(ctx, "update", coll.Name())
	defer func() { observability.EndSpan(span, err) }()

	filter := bson.M{"_id": id, "likes": bson.M{"$ne": userID}}
	update := bson.M{"$addToSet": bson.M{"likes": userID}, "$inc": bson.M{"likes_count": 1}}
	if !like {
		filter = bson.M{"_id": id, "likes": userID}
		update = bson.M{"$pull": bson.M{"likes": userID}, "$inc": bson.M{"likes_count": -1}}
	}

	var doc likeDoc
	err = coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.M{"likes_count": 1}),
	).Decode(&doc)
	if err == nil {
		return &models.LikeResult{Liked: like, LikesCount: doc.LikesCount}, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.NewInternalError(err)
	}

	found, err := exists(ctx, coll, id)
	switch {
	case err != nil:
		return nil, models.NewInternalError(err)
	case !found:
		return nil, models.NewNotFoundError(resource, id)
	case like:
		return nil, models.NewAlreadyLikedError(resource)
	default:
		return nil, models.NewNotLikedError(resource)
	}
}
