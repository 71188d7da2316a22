package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post 是存放在 posts 集合中的动态。按 _id 倒序即按创建时间倒序。
type Post struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID      uint                 `bson:"userId" json:"userId"`
	Description string               `bson:"description" json:"description"`
	Image       string               `bson:"image,omitempty" json:"image,omitempty"`
	Likes       []uint               `bson:"likes" json:"likes"`
	Comments    []primitive.ObjectID `bson:"comments" json:"comments"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`

	Author *UserBasicInfo `bson:"-" json:"user,omitempty"`
}

// Comment 存放在 comments 集合中，回复以值的形式内嵌。
// From 是评论时作者显示名的快照，不会随用户资料更新。
type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PostID    primitive.ObjectID `bson:"postId" json:"postId"`
	UserID    uint               `bson:"userId" json:"userId"`
	Comment   string             `bson:"comment" json:"comment"`
	From      string             `bson:"from" json:"from"`
	Likes     []uint             `bson:"likes" json:"likes"`
	Replies   []Reply            `bson:"replies" json:"replies"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`

	Author *UserBasicInfo `bson:"-" json:"user,omitempty"`
}

// Reply is embedded in its parent Comment. Its ID is only unique within that comment.
type Reply struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	UserID    uint               `bson:"userId" json:"userId"`
	From      string             `bson:"from" json:"from"`
	ReplyAt   string             `bson:"replyAt" json:"replyAt"`
	Comment   string             `bson:"comment" json:"comment"`
	Likes     []uint             `bson:"likes" json:"likes"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`

	Author *UserBasicInfo `bson:"-" json:"user,omitempty"`
}

// LikeTarget names the three kinds of document a like can be toggled on.
type LikeTarget string

const (
	LikeTargetPost    LikeTarget = "post"
	LikeTargetComment LikeTarget = "comment"
	LikeTargetReply   LikeTarget = "reply"
)

// HasLike 判断 userID 是否在点赞集合中
func HasLike(likes []uint, userID uint) bool {
	for _, id := range likes {
		if id == userID {
			return true
		}
	}
	return false
}
