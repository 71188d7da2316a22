package storage

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"social-go/internal/models"
)

// CommentRepository defines the interface for comment documents and their embedded replies.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error)
	ListByPost(ctx context.Context, postID primitive.ObjectID) ([]*models.Comment, error)
	DeleteByPost(ctx context.Context, postID primitive.ObjectID) (int64, error)
	ToggleLike(ctx context.Context, id primitive.ObjectID, userID uint) (*models.Comment, error)
	ToggleReplyLike(ctx context.Context, id, replyID primitive.ObjectID, userID uint) (*models.Comment, error)
	AppendReply(ctx context.Context, id primitive.ObjectID, reply models.Reply) (*models.Comment, error)
}

type mongoCommentRepository struct {
	coll *mongo.Collection
}

func NewMongoCommentRepository(store *MongoStore) CommentRepository {
	return &mongoCommentRepository{coll: store.DB.Collection(commentsCollection)}
}

func (r *mongoCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	now := time.Now().UTC()
	if comment.ID.IsZero() {
		comment.ID = primitive.NewObjectID()
	}
	if comment.Likes == nil {
		comment.Likes = []uint{}
	}
	if comment.Replies == nil {
		comment.Replies = []models.Reply{}
	}
	comment.CreatedAt, comment.UpdatedAt = now, now
	_, err := r.coll.InsertOne(ctx, comment)
	return err
}

func (r *mongoCommentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	var c models.Comment
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByPost returns comments newest first. Replies keep their append order.
func (r *mongoCommentRepository) ListByPost(ctx context.Context, postID primitive.ObjectID) ([]*models.Comment, error) {
	cur, err := r.coll.Find(ctx, bson.M{"postId": postID}, newestFirst())
	if err != nil {
		return nil, err
	}
	comments := []*models.Comment{}
	if err := cur.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *mongoCommentRepository) DeleteByPost(ctx context.Context, postID primitive.ObjectID) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"postId": postID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *mongoCommentRepository) ToggleLike(ctx context.Context, id primitive.ObjectID, userID uint) (*models.Comment, error) {
	update := mongo.Pipeline{{{Key: "$set", Value: bson.D{
		{Key: "likes", Value: toggleMembership("$likes", userID)},
		{Key: "updatedAt", Value: "$$NOW"},
	}}}}
	return r.findOneAndUpdate(ctx, bson.M{"_id": id}, update)
}

// ToggleReplyLike flips userID in the likes of the reply replyID inside comment id.
// A missing comment or reply yields mongo.ErrNoDocuments.
func (r *mongoCommentRepository) ToggleReplyLike(ctx context.Context, id, replyID primitive.ObjectID, userID uint) (*models.Comment, error) {
	replies := bson.D{{Key: "$map", Value: bson.D{
		{Key: "input", Value: "$replies"},
		{Key: "as", Value: "r"},
		{Key: "in", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$eq", Value: bson.A{"$$r._id", replyID}}},
			bson.D{{Key: "$mergeObjects", Value: bson.A{
				"$$r",
				bson.D{{Key: "likes", Value: toggleMembership("$$r.likes", userID)}},
			}}},
			"$$r",
		}}}},
	}}}
	update := mongo.Pipeline{{{Key: "$set", Value: bson.D{
		{Key: "replies", Value: replies},
		{Key: "updatedAt", Value: "$$NOW"},
	}}}}
	return r.findOneAndUpdate(ctx, bson.M{"_id": id, "replies._id": replyID}, update)
}

// AppendReply pushes reply onto the comment's replies and returns the updated comment.
func (r *mongoCommentRepository) AppendReply(ctx context.Context, id primitive.ObjectID, reply models.Reply) (*models.Comment, error) {
	if reply.ID.IsZero() {
		reply.ID = primitive.NewObjectID()
	}
	if reply.Likes == nil {
		reply.Likes = []uint{}
	}
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = time.Now().UTC()
	}
	update := bson.M{
		"$push": bson.M{"replies": reply},
		"$set":  bson.M{"updatedAt": reply.CreatedAt},
	}
	return r.findOneAndUpdate(ctx, bson.M{"_id": id}, update)
}

func (r *mongoCommentRepository) findOneAndUpdate(ctx context.Context, filter bson.M, update interface{}) (*models.Comment, error) {
	var c models.Comment
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, returnAfter()).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
