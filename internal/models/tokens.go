package models

import "time"

// EmailVerification holds the hashed token mailed to a newly registered user.
type EmailVerification struct {
	UserID    uint   `gorm:"primarykey;autoIncrement:false"`
	TokenHash string `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"not null;index"`
}

// Expired 判断令牌在 now 时刻是否已过期
func (v *EmailVerification) Expired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}

// PasswordReset holds the hashed token of an outstanding password reset request.
type PasswordReset struct {
	UserID    uint   `gorm:"primarykey;autoIncrement:false"`
	Email     string `gorm:"type:varchar(100);not null"`
	TokenHash string `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"not null"`
}

func (r *PasswordReset) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
