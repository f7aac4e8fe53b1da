// Package mongostore implements the repository contracts on MongoDB.
//
// Likes live in an array on the liked document next to a counter; both move in one
// conditional update so the counter always equals the set size. Follow edges live in
// their own collection behind a unique index. Numeric ids come from a counters collection.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aperture/internal/config"
	"aperture/internal/middleware"
	"aperture/internal/models"
	"aperture/internal/observability"
	"aperture/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/trace"
)

const (
	usersCollection    = "users"
	followsCollection  = "follows"
	postsCollection    = "posts"
	commentsCollection = "comments"
	countersCollection = "counters"
)

// DB holds the collections shared by the mongo repositories.
type DB struct {
	db           *mongo.Database
	users        *mongo.Collection
	follows      *mongo.Collection
	posts        *mongo.Collection
	comments     *mongo.Collection
	counters     *mongo.Collection
	transactions bool
	now          func() time.Time
}

// NewDB wraps database. Transactions are used only when supportsTransactions is set.
func NewDB(database *mongo.Database, supportsTransactions bool) *DB {
	return &DB{
		db:           database,
		users:        database.Collection(usersCollection),
		follows:      database.Collection(followsCollection),
		posts:        database.Collection(postsCollection),
		comments:     database.Collection(commentsCollection),
		counters:     database.Collection(countersCollection),
		transactions: supportsTransactions,
		now:          time.Now,
	}
}

// Connect dials uri, ensures indexes and returns a Store over the named database.
func Connect(ctx context.Context, uri, database string) (*repository.Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("error connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb cannot be reached after connecting: %w", err)
	}

	db := NewDB(client.Database(database), supportsTransactions(ctx, client))
	if err := db.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	middleware.Logger.Info("MongoDB connected",
		"database", database,
		"transactions", db.transactions,
	)

	return repository.NewStore(config.StoreMongo,
		&userRepository{db: db},
		&followRepository{db: db},
		&postRepository{db: db},
		&commentRepository{db: db},
		repository.StoreHooks{
			Ping:  func(ctx context.Context) error { return client.Ping(ctx, nil) },
			Close: client.Disconnect,
		},
	), nil
}

// Store wires db into a repository.Store without lifecycle hooks.
func (db *DB) Store() *repository.Store {
	return repository.NewStore(config.StoreMongo,
		&userRepository{db: db},
		&followRepository{db: db},
		&postRepository{db: db},
		&commentRepository{db: db},
		repository.StoreHooks{},
	)
}

// supportsTransactions reports whether the deployment is a replica set or sharded cluster.
func supportsTransactions(ctx context.Context, client *mongo.Client) bool {
	var hello bson.M
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
		return false
	}
	if _, ok := hello["setName"]; ok {
		return true
	}
	return hello["msg"] == "isdbgrid"
}

// EnsureIndexes creates the unique and query indexes the repositories rely on.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	specs := map[*mongo.Collection][]mongo.IndexModel{
		db.users: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		db.follows: {
			{Keys: bson.D{{Key: "follower_id", Value: 1}, {Key: "followee_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "followee_id", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		db.posts: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		},
		db.comments: {
			{Keys: bson.D{{Key: "post_id", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}},
		},
	}
	for coll, indexes := range specs {
		if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

type counterDoc struct {
	ID  string `bson:"_id"`
	Seq uint   `bson:"seq"`
}

// nextID atomically increments and returns the sequence for name.
func (db *DB) nextID(ctx context.Context, name string) (uint, error) {
	var counter counterDoc
	err := db.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", name, err)
	}
	return counter.Seq, nil
}

// withTransaction runs fn inside a session transaction when the deployment supports one.
func (db *DB) withTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !db.transactions {
		return fn(ctx)
	}
	session, err := db.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (db *DB) timestamp() time.Time {
	return db.now().UTC().Truncate(time.Millisecond)
}

func startSpan(ctx context.Context, op, collection string) (context.Context, trace.Span) {
	return observability.StartStoreSpan(ctx, "mongodb", op, collection)
}

// wrap passes AppErrors through and wraps driver errors as internal.
func wrap(err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return models.NewInternalError(err)
}

// exists reports whether coll holds a document with the given _id.
func exists(ctx context.Context, coll *mongo.Collection, id uint) (bool, error) {
	n, err := coll.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
