package storage

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"social-go/internal/models"
)

// PostRepository defines the interface for post documents.
// List methods return posts newest first.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	List(ctx context.Context, search string) ([]*models.Post, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.Post, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	ToggleLike(ctx context.Context, id primitive.ObjectID, userID uint) (*models.Post, error)
	AppendComment(ctx context.Context, postID, commentID primitive.ObjectID) error
}

type mongoPostRepository struct {
	coll *mongo.Collection
}

func NewMongoPostRepository(store *MongoStore) PostRepository {
	return &mongoPostRepository{coll: store.DB.Collection(postsCollection)}
}

func (r *mongoPostRepository) Create(ctx context.Context, post *models.Post) error {
	now := time.Now().UTC()
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	if post.Likes == nil {
		post.Likes = []uint{}
	}
	if post.Comments == nil {
		post.Comments = []primitive.ObjectID{}
	}
	post.CreatedAt, post.UpdatedAt = now, now
	_, err := r.coll.InsertOne(ctx, post)
	return err
}

func (r *mongoPostRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		return nil, err
	}
	return &post, nil
}

// List returns every post, or those whose description contains search
// case-insensitively. search is matched literally.
func (r *mongoPostRepository) List(ctx context.Context, search string) ([]*models.Post, error) {
	filter := bson.M{}
	if search != "" {
		filter["description"] = primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	}
	return r.find(ctx, filter)
}

func (r *mongoPostRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Post, error) {
	return r.find(ctx, bson.M{"userId": userID})
}

func (r *mongoPostRepository) find(ctx context.Context, filter bson.M) ([]*models.Post, error) {
	cur, err := r.coll.Find(ctx, filter, newestFirst())
	if err != nil {
		return nil, err
	}
	posts := []*models.Post{}
	if err := cur.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *mongoPostRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *mongoPostRepository) ToggleLike(ctx context.Context, id primitive.ObjectID, userID uint) (*models.Post, error) {
	update := mongo.Pipeline{{{Key: "$set", Value: bson.D{
		{Key: "likes", Value: toggleMembership("$likes", userID)},
		{Key: "updatedAt", Value: "$$NOW"},
	}}}}

	var post models.Post
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, returnAfter()).Decode(&post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *mongoPostRepository) AppendComment(ctx context.Context, postID, commentID primitive.ObjectID) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": postID}, bson.M{
		"$push": bson.M{"comments": commentID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
