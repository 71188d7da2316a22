package models

import "strings"

// User 代表系统中的用户。
// friends 与 views 不是列，而是由 Friendship 和 ProfileView 表派生出来的。
type User struct {
	BaseModel
	FirstName    string `gorm:"type:varchar(100);not null" json:"firstName"`
	LastName     string `gorm:"type:varchar(100);not null" json:"lastName"`
	Email        string `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"` // 不暴露密码哈希
	Verified     bool   `gorm:"not null;default:false" json:"verified"`
	Location     string `gorm:"type:varchar(100)" json:"location,omitempty"`
	Profession   string `gorm:"type:varchar(100)" json:"profession,omitempty"`
	ProfileURL   string `gorm:"type:varchar(255)" json:"profileUrl,omitempty"`

	Friends []*UserBasicInfo `gorm:"-" json:"friends"`
	Views   []uint           `gorm:"-" json:"views"`
}

// UserBasicInfo holds minimal public information about a user.
// Used for post authors, comment authors, friend lists and pending requests.
type UserBasicInfo struct {
	ID         uint   `json:"id"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Location   string `json:"location,omitempty"`
	Profession string `json:"profession,omitempty"`
	ProfileURL string `json:"profileUrl,omitempty"`
}

// BasicInfo projects the user onto its public fields.
func (u *User) BasicInfo() *UserBasicInfo {
	return &UserBasicInfo{
		ID:         u.ID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Location:   u.Location,
		Profession: u.Profession,
		ProfileURL: u.ProfileURL,
	}
}

// DisplayName is the name shown next to content the user writes.
func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// TableName 指定 User 模型的表名。
func (User) TableName() string {
	return "users"
}
