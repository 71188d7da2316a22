package models

import "time"

// ProfileView is one entry of a user's append-only view log. Repeat views are kept.
type ProfileView struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	SubjectID uint      `gorm:"not null;index" json:"subjectId"`
	ViewerID  uint      `gorm:"not null" json:"viewerId"`
	CreatedAt time.Time `json:"createdAt"`
}
