package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"social-go/internal/models"
	"social-go/internal/storage"
)

var (
	ErrCommentRequired = newError(ErrValidation, "Comment is required.")
	ErrCommentNotFound = newError(ErrNotFound, "Comment not found")
	ErrReplyNotFound   = newError(ErrNotFound, "Reply not found")
	ErrUnknownLikeKind = newError(ErrValidation, "Unknown like target")
)

// CommentService 定义了评论、回复与点赞相关的接口。
type CommentService interface {
	AddComment(ctx context.Context, actorID uint, postID primitive.ObjectID, text, from string) (*models.Comment, error)
	AddReply(ctx context.Context, actorID uint, commentID primitive.ObjectID, text, from, replyAt string) (*models.Comment, error)
	ListComments(ctx context.Context, postID primitive.ObjectID) ([]*models.Comment, error)
	ToggleLike(ctx context.Context, target LikeTarget) (*LikeResult, error)
}

// LikeTarget names the document whose like set is toggled.
// ReplyID is only used when Kind is models.LikeTargetReply; ID is then the parent comment.
type LikeTarget struct {
	Kind    models.LikeTarget
	ID      primitive.ObjectID
	ReplyID primitive.ObjectID
	ActorID uint
}

// LikeResult carries the updated document: Post for post likes, Comment otherwise.
type LikeResult struct {
	Post    *models.Post
	Comment *models.Comment
}

type commentService struct {
	postRepo    storage.PostRepository
	commentRepo storage.CommentRepository
	userRepo    storage.UserRepository
	log         *logrus.Logger
	now         func() time.Time
}

func NewCommentService(
	postRepo storage.PostRepository,
	commentRepo storage.CommentRepository,
	userRepo storage.UserRepository,
	log *logrus.Logger,
) CommentService {
	return &commentService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		userRepo:    userRepo,
		log:         log,
		now:         time.Now,
	}
}

// AddComment stores the comment and appends its id to the post.
// from is the display name snapshot; when empty the actor's current name is used.
func (s *commentService) AddComment(ctx context.Context, actorID uint, postID primitive.ObjectID, text, from string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrCommentRequired
	}
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		if storage.IsNotFound(err) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("获取动态失败: %w", err)
	}
	from, err := s.displayName(ctx, actorID, from)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:  postID,
		UserID:  actorID,
		Comment: text,
		From:    from,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("创建评论失败: %w", err)
	}
	if err := s.postRepo.AppendComment(ctx, postID, comment.ID); err != nil {
		// the comment document stays, unreferenced by the post
		s.log.WithError(err).WithFields(logrus.Fields{"postID": postID.Hex(), "commentID": comment.ID.Hex()}).Error("comment saved but not linked to post")
		if storage.IsNotFound(err) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("关联评论失败: %w", err)
	}

	if err := s.attachAuthors(ctx, []*models.Comment{comment}); err != nil {
		return nil, err
	}
	return comment, nil
}

// AddReply appends a reply with a fresh id and the current time to the comment.
func (s *commentService) AddReply(ctx context.Context, actorID uint, commentID primitive.ObjectID, text, from, replyAt string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrCommentRequired
	}
	from, err := s.displayName(ctx, actorID, from)
	if err != nil {
		return nil, err
	}

	reply := models.Reply{
		ID:        primitive.NewObjectID(),
		UserID:    actorID,
		From:      from,
		ReplyAt:   strings.TrimSpace(replyAt),
		Comment:   text,
		Likes:     []uint{},
		CreatedAt: s.now().UTC(),
	}
	comment, err := s.commentRepo.AppendReply(ctx, commentID, reply)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("回复评论失败: %w", err)
	}
	if err := s.attachAuthors(ctx, []*models.Comment{comment}); err != nil {
		return nil, err
	}
	return comment, nil
}

// ListComments returns the post's comments newest first, replies oldest first.
func (s *commentService) ListComments(ctx context.Context, postID primitive.ObjectID) ([]*models.Comment, error) {
	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("获取评论失败: %w", err)
	}
	if err := s.attachAuthors(ctx, comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// ToggleLike adds the actor to the target's likes, or removes them if already present.
func (s *commentService) ToggleLike(ctx context.Context, target LikeTarget) (*LikeResult, error) {
	switch target.Kind {
	case models.LikeTargetPost:
		post, err := s.postRepo.ToggleLike(ctx, target.ID, target.ActorID)
		if err != nil {
			if storage.IsNotFound(err) {
				return nil, ErrPostNotFound
			}
			return nil, fmt.Errorf("点赞失败: %w", err)
		}
		return &LikeResult{Post: post}, nil

	case models.LikeTargetComment:
		comment, err := s.commentRepo.ToggleLike(ctx, target.ID, target.ActorID)
		if err != nil {
			if storage.IsNotFound(err) {
				return nil, ErrCommentNotFound
			}
			return nil, fmt.Errorf("点赞失败: %w", err)
		}
		return &LikeResult{Comment: comment}, nil

	case models.LikeTargetReply:
		comment, err := s.commentRepo.ToggleReplyLike(ctx, target.ID, target.ReplyID, target.ActorID)
		if err != nil {
			if storage.IsNotFound(err) {
				return nil, ErrReplyNotFound
			}
			return nil, fmt.Errorf("点赞失败: %w", err)
		}
		return &LikeResult{Comment: comment}, nil
	}
	return nil, ErrUnknownLikeKind
}

func (s *commentService) displayName(ctx context.Context, actorID uint, from string) (string, error) {
	if from = strings.TrimSpace(from); from != "" {
		return from, nil
	}
	user, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		if storage.IsNotFound(err) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("获取用户失败: %w", err)
	}
	return user.DisplayName(), nil
}

// attachAuthors fills Author on comments and their replies with one user lookup.
func (s *commentService) attachAuthors(ctx context.Context, comments []*models.Comment) error {
	var ids []uint
	for _, c := range comments {
		ids = append(ids, c.UserID)
		for _, r := range c.Replies {
			ids = append(ids, r.UserID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	infos, err := s.userRepo.GetMultipleBasicInfoByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return fmt.Errorf("获取作者信息失败: %w", err)
	}
	byID := indexBasicInfo(infos)
	for _, c := range comments {
		c.Author = byID[c.UserID]
		for i := range c.Replies {
			c.Replies[i].Author = byID[c.Replies[i].UserID]
		}
	}
	return nil
}
