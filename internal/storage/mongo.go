package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"social-go/internal/config"
)

const (
	postsCollection    = "posts"
	commentsCollection = "comments"
)

// MongoStore 持有文档数据库的连接，posts 和 comments 两个集合存放在这里。
type MongoStore struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// ConnectMongo connects and pings the server within cfg.ConnectTimeout.
func ConnectMongo(ctx context.Context, cfg config.MongoConfig) (*MongoStore, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return &MongoStore{Client: client, DB: client.Database(cfg.Database)}, nil
}

// EnsureIndexes creates the indexes the feed and comment queries rely on.
func (m *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := m.DB.Collection(postsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "_id", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create posts index: %w", err)
	}
	_, err = m.DB.Collection(commentsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "postId", Value: 1}, {Key: "_id", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create comments index: %w", err)
	}
	return nil
}

func (m *MongoStore) Disconnect(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

// toggleMembership builds an aggregation expression over the array at path
// ("$likes", "$$r.likes") that removes member when present and appends it otherwise.
// Evaluated server side inside one update, so concurrent toggles by different
// actors never overwrite each other.
func toggleMembership(path string, member interface{}) bson.D {
	current := bson.D{{Key: "$ifNull", Value: bson.A{path, bson.A{}}}}
	return bson.D{{Key: "$cond", Value: bson.A{
		bson.D{{Key: "$in", Value: bson.A{member, current}}},
		bson.D{{Key: "$filter", Value: bson.D{
			{Key: "input", Value: current},
			{Key: "cond", Value: bson.D{{Key: "$ne", Value: bson.A{"$$this", member}}}},
		}}},
		bson.D{{Key: "$concatArrays", Value: bson.A{current, bson.A{member}}}},
	}}}
}

func returnAfter() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
}
