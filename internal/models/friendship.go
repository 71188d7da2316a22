package models

// Friendship represents a friendship relationship between two users.
// To avoid duplicates and simplify queries, UserID1 should always be less than UserID2,
// so a single row encodes both directions of the relationship.
type Friendship struct {
	BaseModel
	UserID1 uint `gorm:"not null;uniqueIndex:idx_friendship_users"`
	UserID2 uint `gorm:"not null;uniqueIndex:idx_friendship_users"`
}

// NewFriendship returns the canonical friendship row for two users.
func NewFriendship(a, b uint) *Friendship {
	f := &Friendship{UserID1: a, UserID2: b}
	f.EnsureCanonicalOrder()
	return f
}

// EnsureCanonicalOrder sets UserID1 to the smaller ID and UserID2 to the larger ID.
// This should be called before creating a Friendship record.
func (f *Friendship) EnsureCanonicalOrder() {
	if f.UserID1 > f.UserID2 {
		f.UserID1, f.UserID2 = f.UserID2, f.UserID1
	}
}

// Other returns the friend of userID in this pair.
func (f *Friendship) Other(userID uint) uint {
	if f.UserID1 == userID {
		return f.UserID2
	}
	return f.UserID1
}
