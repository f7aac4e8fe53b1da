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

type commentRepository struct {
	db *DB
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) (err error) {
	ctx, span := startSpan(ctx, "insert", commentsCollection)
	defer func() { observability.EndSpan(span, err) }()

	id, err := r.db.nextID(ctx, commentsCollection)
	if err != nil {
		return models.NewInternalError(err)
	}
	createdAt := comment.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.db.timestamp()
	}

	err = r.db.withTransaction(ctx, func(ctx context.Context) error {
		res, err := r.db.posts.UpdateOne(ctx, bson.M{"_id": comment.PostID}, bson.M{"$inc": bson.M{"comments_count": 1}})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return models.NewNotFoundError("Post", comment.PostID)
		}
		_, err = r.db.comments.InsertOne(ctx, commentDoc{
			ID:        id,
			PostID:    comment.PostID,
			UserID:    comment.UserID,
			Text:      comment.Text,
			Likes:     []uint{},
			CreatedAt: createdAt,
		})
		return err
	})
	if err != nil {
		return wrap(err)
	}
	comment.ID = id
	comment.CreatedAt = createdAt
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint, viewerID uint) (comment *models.Comment, err error) {
	ctx, span := startSpan(ctx, "find", commentsCollection)
	defer func() { observability.EndSpan(span, err) }()

	var doc commentDoc
	if err := r.db.comments.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		return nil, models.NewInternalError(err)
	}
	authors, err := r.db.summaries(ctx, []uint{doc.UserID})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	comment = doc.model(viewerID)
	comment.Author = summaryFor(authors, doc.UserID)
	return comment, nil
}

func (r *commentRepository) ListByPost(ctx context.Context, postID uint, page models.Page, viewerID uint) (comments []*models.Comment, total int64, err error) {
	ctx, span := startSpan(ctx, "find", commentsCollection)
	defer func() { observability.EndSpan(span, err) }()

	comments = make([]*models.Comment, 0)
	filter := bson.M{"post_id": postID}
	total, err = r.db.comments.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	if total == 0 || int64(page.Offset()) >= total {
		return comments, total, nil
	}

	cur, err := r.db.comments.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(page.Offset())).
		SetLimit(int64(page.Limit)))
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	var docs []commentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	authorIDs := make([]uint, 0, len(docs))
	for i := range docs {
		authorIDs = append(authorIDs, docs[i].UserID)
	}
	authors, err := r.db.summaries(ctx, authorIDs)
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	for i := range docs {
		c := docs[i].model(viewerID)
		c.Author = summaryFor(authors, c.UserID)
		comments = append(comments, c)
	}
	return comments, total, nil
}

func (r *commentRepository) Delete(ctx context.Context, id uint) (err error) {
	ctx, span := startSpan(ctx, "delete", commentsCollection)
	defer func() { observability.EndSpan(span, err) }()

	err = r.db.withTransaction(ctx, func(ctx context.Context) error {
		var doc commentDoc
		err := r.db.comments.FindOneAndDelete(ctx, bson.M{"_id": id},
			options.FindOneAndDelete().SetProjection(bson.M{"post_id": 1})).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.NewNotFoundError("Comment", id)
		}
		if err != nil {
			return err
		}
		_, err = r.db.posts.UpdateOne(ctx, bson.M{"_id": doc.PostID}, bson.M{"$inc": bson.M{"comments_count": -1}})
		return err
	})
	return wrap(err)
}

func (r *commentRepository) Like(ctx context.Context, commentID, userID uint) (*models.LikeResult, error) {
	return r.db.toggleLike(ctx, r.db.comments, "Comment", commentID, userID, true)
}

func (r *commentRepository) Unlike(ctx context.Context, commentID, userID uint) (*models.LikeResult, error) {
	return r.db.toggleLike(ctx, r.db.comments, "Comment", commentID, userID, false)
}
