package services

import (
	"testing"

	"social-go/internal/models"
)

func postsBy(authors ...uint) []*models.Post {
	posts := make([]*models.Post, len(authors))
	for i, a := range authors {
		posts[i] = &models.Post{UserID: a, Description: "p"}
	}
	return posts
}

func authorsOf(posts []*models.Post) []uint {
	out := make([]uint, len(posts))
	for i, p := range posts {
		out[i] = p.UserID
	}
	return out
}

func equalIDs(a, b []uint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRankFeed(t *testing.T) {
	tests := []struct {
		name    string
		authors []uint
		friends []uint
		search  string
		want    []uint
	}{
		{
			name:    "friends first, order kept inside buckets",
			authors: []uint{9, 2, 8, 1, 2},
			friends: []uint{2},
			want:    []uint{2, 1, 2, 9, 8},
		},
		{
			name:    "no in-network posts keeps candidates",
			authors: []uint{9, 8, 7},
			friends: []uint{2},
			want:    []uint{9, 8, 7},
		},
		{
			name:    "search keeps in-network only",
			authors: []uint{9, 2, 1},
			friends: []uint{2},
			search:  "x",
			want:    []uint{2, 1},
		},
		{
			name:    "search with nothing in network is empty",
			authors: []uint{9, 8},
			search:  "x",
			want:    []uint{},
		},
		{
			name: "empty",
			want: []uint{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RankFeed(postsBy(tt.authors...), networkOf(1, tt.friends), tt.search)
			if !equalIDs(authorsOf(got), tt.want) {
				t.Fatalf("got %v, want %v", authorsOf(got), tt.want)
			}
		})
	}
}

// U1 与 U2 是好友，U3 是陌生人；按 P1(U2) P2(U3) P3(U1) 的顺序发布。
func TestRankFeedFriendExample(t *testing.T) {
	p1 := &models.Post{UserID: 2, Description: "P1"}
	p2 := &models.Post{UserID: 3, Description: "P2"}
	p3 := &models.Post{UserID: 1, Description: "P3"}
	newestFirst := []*models.Post{p3, p2, p1}

	got := RankFeed(newestFirst, networkOf(1, []uint{2}), "")
	want := []*models.Post{p3, p1, p2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d = %s, want %s", i, got[i].Description, want[i].Description)
		}
	}
}
