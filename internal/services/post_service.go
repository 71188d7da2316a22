package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"social-go/internal/models"
	"social-go/internal/storage"
)

var (
	ErrDescriptionRequired = newError(ErrValidation, "You must provide a description")
	ErrPostNotFound        = newError(ErrNotFound, "Post not found")
	ErrNotPostOwner        = newError(ErrForbidden, "You can only delete your own posts")
)

// PostService 定义了动态相关的接口。
type PostService interface {
	CreatePost(ctx context.Context, actorID uint, description, image string) (*models.Post, error)
	GetPost(ctx context.Context, postID primitive.ObjectID) (*models.Post, error)
	ListFeed(ctx context.Context, requesterID uint, search string) ([]*models.Post, error)
	ListUserPosts(ctx context.Context, userID uint) ([]*models.Post, error)
	DeletePost(ctx context.Context, actorID uint, postID primitive.ObjectID) error
}

type postService struct {
	postRepo       storage.PostRepository
	commentRepo    storage.CommentRepository
	userRepo       storage.UserRepository
	friendshipRepo storage.FriendshipRepository
	log            *logrus.Logger
}

func NewPostService(
	postRepo storage.PostRepository,
	commentRepo storage.CommentRepository,
	userRepo storage.UserRepository,
	friendshipRepo storage.FriendshipRepository,
	log *logrus.Logger,
) PostService {
	return &postService{
		postRepo:       postRepo,
		commentRepo:    commentRepo,
		userRepo:       userRepo,
		friendshipRepo: friendshipRepo,
		log:            log,
	}
}

func (s *postService) CreatePost(ctx context.Context, actorID uint, description, image string) (*models.Post, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, ErrDescriptionRequired
	}
	post := &models.Post{
		UserID:      actorID,
		Description: description,
		Image:       strings.TrimSpace(image),
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("创建动态失败: %w", err)
	}
	if err := s.attachAuthors(ctx, []*models.Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postService) GetPost(ctx context.Context, postID primitive.ObjectID) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("获取动态失败: %w", err)
	}
	if err := s.attachAuthors(ctx, []*models.Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

// ListFeed ranks all posts, or those matching search, friends first. See RankFeed.
func (s *postService) ListFeed(ctx context.Context, requesterID uint, search string) ([]*models.Post, error) {
	search = strings.TrimSpace(search)

	friendIDs, err := s.friendshipRepo.GetFriendIDs(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("获取好友列表失败: %w", err)
	}
	candidates, err := s.postRepo.List(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("获取动态失败: %w", err)
	}

	feed := RankFeed(candidates, networkOf(requesterID, friendIDs), search)
	if err := s.attachAuthors(ctx, feed); err != nil {
		return nil, err
	}
	return feed, nil
}

func (s *postService) ListUserPosts(ctx context.Context, userID uint) ([]*models.Post, error) {
	posts, err := s.postRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("获取用户动态失败: %w", err)
	}
	if err := s.attachAuthors(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// DeletePost removes the actor's own post and then its comments.
// If the comment cleanup fails the post is already gone and the comments stay orphaned.
func (s *postService) DeletePost(ctx context.Context, actorID uint, postID primitive.ObjectID) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		if storage.IsNotFound(err) {
			return ErrPostNotFound
		}
		return fmt.Errorf("获取动态失败: %w", err)
	}
	if post.UserID != actorID {
		return ErrNotPostOwner
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		if storage.IsNotFound(err) {
			return ErrPostNotFound
		}
		return fmt.Errorf("删除动态失败: %w", err)
	}

	n, err := s.commentRepo.DeleteByPost(ctx, postID)
	if err != nil {
		s.log.WithError(err).WithField("postID", postID.Hex()).Error("post deleted but its comments were not")
		return nil
	}
	s.log.WithFields(logrus.Fields{"postID": postID.Hex(), "comments": n}).Info("post deleted")
	return nil
}

func (s *postService) attachAuthors(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.UserID)
	}
	infos, err := s.userRepo.GetMultipleBasicInfoByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return fmt.Errorf("获取作者信息失败: %w", err)
	}
	byID := indexBasicInfo(infos)
	for _, p := range posts {
		p.Author = byID[p.UserID]
	}
	return nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
