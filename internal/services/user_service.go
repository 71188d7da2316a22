package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"social-go/internal/auth"
	"social-go/internal/config"
	"social-go/internal/models"
	"social-go/internal/storage"
)

// DefaultSuggestionLimit caps the friend suggestion list.
const DefaultSuggestionLimit = 15

var (
	ErrUserNotFound     = newError(ErrNotFound, "User Not Found")
	ErrNoUpdateFields   = newError(ErrValidation, "Please provide all required fields")
	ErrViewSubjectEmpty = newError(ErrValidation, "Profile id is required")
)

// UpdateUserInput carries profile fields; empty strings leave a field unchanged.
type UpdateUserInput struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Location   string `json:"location"`
	Profession string `json:"profession"`
	ProfileURL string `json:"profileUrl"`
}

func (in UpdateUserInput) columns() map[string]interface{} {
	fields := map[string]interface{}{}
	set := func(col, v string) {
		if v = strings.TrimSpace(v); v != "" {
			fields[col] = v
		}
	}
	set("first_name", in.FirstName)
	set("last_name", in.LastName)
	set("location", in.Location)
	set("profession", in.Profession)
	set("profile_url", in.ProfileURL)
	return fields
}

// UserService 定义了用户资料与社交图谱查询相关的接口。
type UserService interface {
	GetUser(ctx context.Context, userID uint) (*models.User, error)
	UpdateUser(ctx context.Context, userID uint, in UpdateUserInput) (*models.User, string, error)
	RecordProfileView(ctx context.Context, viewerID, subjectID uint) error
	SuggestFriends(ctx context.Context, userID uint, limit int) ([]*models.UserBasicInfo, error)
}

type userService struct {
	userRepo       storage.UserRepository
	friendshipRepo storage.FriendshipRepository
	viewRepo       storage.ProfileViewRepository
	authCfg        config.AuthConfig
	log            *logrus.Logger
}

// NewUserService creates a new UserService.
func NewUserService(
	userRepo storage.UserRepository,
	friendshipRepo storage.FriendshipRepository,
	viewRepo storage.ProfileViewRepository,
	authCfg config.AuthConfig,
	log *logrus.Logger,
) UserService {
	return &userService{
		userRepo:       userRepo,
		friendshipRepo: friendshipRepo,
		viewRepo:       viewRepo,
		authCfg:        authCfg,
		log:            log,
	}
}

// GetUser returns the profile with friends (basic info) and the view log.
func (s *userService) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("获取用户失败: %w", err)
	}
	if err := hydrateUser(ctx, user, s.userRepo, s.friendshipRepo, s.viewRepo); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser applies the non-empty fields and issues a fresh token for the updated profile.
func (s *userService) UpdateUser(ctx context.Context, userID uint, in UpdateUserInput) (*models.User, string, error) {
	fields := in.columns()
	if len(fields) == 0 {
		return nil, "", ErrNoUpdateFields
	}
	if err := s.userRepo.UpdateFields(ctx, userID, fields); err != nil {
		if storage.IsNotFound(err) {
			return nil, "", ErrUserNotFound
		}
		return nil, "", fmt.Errorf("更新用户失败: %w", err)
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	token, err := auth.GenerateToken(user.ID, user.Email, s.authCfg)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// RecordProfileView appends viewerID to the subject's view log. Repeat views are kept.
func (s *userService) RecordProfileView(ctx context.Context, viewerID, subjectID uint) error {
	if subjectID == 0 {
		return ErrViewSubjectEmpty
	}
	if _, err := s.userRepo.GetByID(ctx, subjectID); err != nil {
		if storage.IsNotFound(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("获取用户失败: %w", err)
	}
	if err := s.viewRepo.Append(ctx, subjectID, viewerID); err != nil {
		return fmt.Errorf("记录访问失败: %w", err)
	}
	return nil
}

// SuggestFriends lists users who are neither the caller nor already friends, in store order.
func (s *userService) SuggestFriends(ctx context.Context, userID uint, limit int) ([]*models.UserBasicInfo, error) {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	friendIDs, err := s.friendshipRepo.GetFriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("获取好友列表失败: %w", err)
	}
	exclude := append(friendIDs, userID)

	suggestions, err := s.userRepo.ListExcluding(ctx, exclude, limit)
	if err != nil {
		return nil, fmt.Errorf("获取推荐好友失败: %w", err)
	}
	return suggestions, nil
}

// hydrateUser fills the derived Friends and Views fields.
func hydrateUser(
	ctx context.Context,
	user *models.User,
	userRepo storage.UserRepository,
	friendshipRepo storage.FriendshipRepository,
	viewRepo storage.ProfileViewRepository,
) error {
	friendIDs, err := friendshipRepo.GetFriendIDs(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("获取好友列表失败: %w", err)
	}
	friends, err := userRepo.GetMultipleBasicInfoByIDs(ctx, friendIDs)
	if err != nil {
		return fmt.Errorf("获取好友信息失败: %w", err)
	}
	views, err := viewRepo.ListViewerIDs(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("获取访问记录失败: %w", err)
	}
	user.Friends = friends
	user.Views = views
	return nil
}
