package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"social-go/internal/models"
	"social-go/internal/storage"
)

// PendingRequestLimit caps the pending request list.
const PendingRequestLimit = 10

var (
	ErrFriendRequestSelf     = newError(ErrValidation, "You cannot send a friend request to yourself")
	ErrRecipientNotFound     = newError(ErrNotFound, "User Not Found")
	ErrAlreadyFriends        = newError(ErrConflict, "You are already friends")
	ErrFriendRequestExists   = newError(ErrConflict, "Friend Request already sent.")
	ErrFriendRequestNotFound = newError(ErrNotFound, "No Friend Request Found.")
	ErrInvalidRequestStatus  = newError(ErrValidation, "Status must be Accepted or Declined")
	ErrNotRecipientOfRequest = newError(ErrForbidden, "You are not the recipient of this friend request")
	ErrRequestNotPending     = newError(ErrConflict, "Friend request has already been answered")
)

// FriendRequestService defines the interface for friend request operations.
type FriendRequestService interface {
	SendFriendRequest(ctx context.Context, requesterID, recipientID uint) (*models.FriendRequest, error)
	RespondToRequest(ctx context.Context, actorID, requestID uint, status models.FriendRequestStatus) (*models.FriendRequest, error)
	ListPendingRequests(ctx context.Context, userID uint) ([]*models.FriendRequestWithRequester, error)
	GetFriendsList(ctx context.Context, userID uint) ([]*models.UserBasicInfo, error)
}

type friendRequestService struct {
	db             *gorm.DB
	userRepo       storage.UserRepository
	friendRepo     storage.FriendRequestRepository
	friendshipRepo storage.FriendshipRepository
	log            *logrus.Logger
}

// NewFriendRequestService creates a new FriendRequestService instance.
// db is used to open the transaction that accepts a request.
func NewFriendRequestService(
	db *gorm.DB,
	userRepo storage.UserRepository,
	friendRepo storage.FriendRequestRepository,
	friendshipRepo storage.FriendshipRepository,
	log *logrus.Logger,
) FriendRequestService {
	return &friendRequestService{
		db:             db,
		userRepo:       userRepo,
		friendRepo:     friendRepo,
		friendshipRepo: friendshipRepo,
		log:            log,
	}
}

// SendFriendRequest validates the pair and stores a Pending request.
func (s *friendRequestService) SendFriendRequest(ctx context.Context, requesterID, recipientID uint) (*models.FriendRequest, error) {
	if requesterID == recipientID {
		return nil, ErrFriendRequestSelf
	}

	if _, err := s.userRepo.GetByID(ctx, recipientID); err != nil {
		if storage.IsNotFound(err) {
			return nil, ErrRecipientNotFound
		}
		return nil, fmt.Errorf("检查接收用户时出错: %w", err)
	}

	areFriends, err := s.friendshipRepo.AreUsersFriends(ctx, requesterID, recipientID)
	if err != nil {
		return nil, fmt.Errorf("检查好友关系时出错: %w", err)
	}
	if areFriends {
		return nil, ErrAlreadyFriends
	}

	// either direction counts
	existing, err := s.friendRepo.FindPendingRequest(ctx, requesterID, recipientID)
	if err != nil {
		return nil, fmt.Errorf("检查现有请求时出错: %w", err)
	}
	if existing != nil {
		return nil, ErrFriendRequestExists
	}

	request := &models.FriendRequest{
		RequestFrom:   requesterID,
		RequestTo:     recipientID,
		RequestStatus: models.FriendRequestStatusPending,
	}
	if err := s.friendRepo.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("保存好友请求失败: %w", err)
	}

	s.log.WithFields(logrus.Fields{"requestID": request.ID, "from": requesterID, "to": recipientID}).Info("friend request sent")
	return request, nil
}

// RespondToRequest records the recipient's answer. Accepting inserts the
// friendship in the same transaction. Repeating the current answer is a no-op.
func (s *friendRequestService) RespondToRequest(ctx context.Context, actorID, requestID uint, status models.FriendRequestStatus) (*models.FriendRequest, error) {
	if !status.IsResponse() {
		return nil, ErrInvalidRequestStatus
	}

	var result *models.FriendRequest
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txFriendRepo := storage.NewGormFriendRequestRepository(tx)
		txFriendshipRepo := storage.NewGormFriendshipRepository(tx)

		request, err := txFriendRepo.GetRequestByID(ctx, requestID)
		if err != nil {
			if storage.IsNotFound(err) {
				return ErrFriendRequestNotFound
			}
			return fmt.Errorf("检索好友请求失败: %w", err)
		}
		if request.RequestTo != actorID {
			return ErrNotRecipientOfRequest
		}

		switch request.RequestStatus {
		case status:
			// same answer again
		case models.FriendRequestStatusPending:
			if err := txFriendRepo.UpdateRequestStatus(ctx, requestID, status); err != nil {
				return fmt.Errorf("更新好友请求状态失败: %w", err)
			}
			request.RequestStatus = status
		default:
			return ErrRequestNotPending
		}

		if status == models.FriendRequestStatusAccepted {
			if err := txFriendshipRepo.Create(ctx, models.NewFriendship(request.RequestFrom, request.RequestTo)); err != nil {
				return fmt.Errorf("创建好友关系失败: %w", err)
			}
		}
		result = request
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.log.WithFields(logrus.Fields{"requestID": requestID, "status": status}).Info("friend request answered")
	return result, nil
}

// ListPendingRequests returns the newest pending requests addressed to the user, with requester info.
func (s *friendRequestService) ListPendingRequests(ctx context.Context, userID uint) ([]*models.FriendRequestWithRequester, error) {
	pendingRequests, err := s.friendRepo.GetPendingRequestsForUser(ctx, userID, PendingRequestLimit)
	if err != nil {
		return nil, fmt.Errorf("获取待处理好友请求失败: %w", err)
	}

	result := []*models.FriendRequestWithRequester{}
	if len(pendingRequests) == 0 {
		return result, nil
	}

	ids := make([]uint, 0, len(pendingRequests))
	for _, req := range pendingRequests {
		ids = append(ids, req.RequestFrom)
	}
	infos, err := s.userRepo.GetMultipleBasicInfoByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("获取请求者信息失败: %w", err)
	}
	byID := indexBasicInfo(infos)

	for _, req := range pendingRequests {
		requester, ok := byID[req.RequestFrom]
		if !ok {
			s.log.WithFields(logrus.Fields{"requestID": req.ID, "from": req.RequestFrom}).Warn("requester no longer exists")
			continue
		}
		result = append(result, &models.FriendRequestWithRequester{FriendRequest: req, Requester: requester})
	}
	return result, nil
}

// GetFriendsList retrieves the basic info for all friends of the given user.
func (s *friendRequestService) GetFriendsList(ctx context.Context, userID uint) ([]*models.UserBasicInfo, error) {
	friendIDs, err := s.friendshipRepo.GetFriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("获取好友列表失败: %w", err)
	}
	if len(friendIDs) == 0 {
		return []*models.UserBasicInfo{}, nil
	}

	friendsInfo, err := s.userRepo.GetMultipleBasicInfoByIDs(ctx, friendIDs)
	if err != nil {
		return nil, fmt.Errorf("获取好友信息失败: %w", err)
	}
	return friendsInfo, nil
}

func indexBasicInfo(infos []*models.UserBasicInfo) map[uint]*models.UserBasicInfo {
	byID := make(map[uint]*models.UserBasicInfo, len(infos))
	for _, info := range infos {
		byID[info.ID] = info
	}
	return byID
}
