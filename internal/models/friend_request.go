package models

// FriendRequestStatus 定义好友请求的状态
type FriendRequestStatus string

const (
	FriendRequestStatusPending  FriendRequestStatus = "Pending"
	FriendRequestStatusAccepted FriendRequestStatus = "Accepted"
	FriendRequestStatusDeclined FriendRequestStatus = "Declined"
)

// IsResponse reports whether s is a status a recipient may answer with.
func (s FriendRequestStatus) IsResponse() bool {
	return s == FriendRequestStatusAccepted || s == FriendRequestStatusDeclined
}

// FriendRequest 代表一个好友请求记录，请求永不删除
type FriendRequest struct {
	BaseModel
	RequestFrom   uint                `gorm:"not null;index:idx_friend_request_users" json:"requestFrom"`       // 请求发送者
	RequestTo     uint                `gorm:"not null;index:idx_friend_request_users" json:"requestTo"`         // 请求接收者
	RequestStatus FriendRequestStatus `gorm:"type:varchar(20);not null;default:'Pending'" json:"requestStatus"` // 请求状态
}

// FriendRequestWithRequester is a DTO that includes friend request details
// along with basic information about the user who sent the request.
type FriendRequestWithRequester struct {
	FriendRequest
	Requester *UserBasicInfo `json:"requester"`
}
