package services

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"social-go/internal/models"
)

func TestAddCommentAndReplies(t *testing.T) {
	f := newPostFixture(t)
	ctx := t.Context()
	owner := seedUser(t, f.db, "Owner", "o@example.com")
	u := seedUser(t, f.db, "Ada", "a@example.com")
	p := f.post(t, owner.ID, "post")

	if _, err := f.comment.AddComment(ctx, u.ID, p.ID, " ", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty comment: %v", err)
	}
	if _, err := f.comment.AddComment(ctx, u.ID, primitive.NewObjectID(), "hi", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing post: %v", err)
	}

	c, err := f.comment.AddComment(ctx, u.ID, p.ID, "hi", "")
	if err != nil {
		t.Fatalf("comment: %v", err)
	}
	if c.From != "Ada Test" {
		t.Fatalf("from = %q, want display name", c.From)
	}
	stored, _ := f.posts.GetByID(ctx, p.ID)
	if len(stored.Comments) != 1 || stored.Comments[0] != c.ID {
		t.Fatalf("post comments = %v", stored.Comments)
	}

	for _, text := range []string{"r1", "r2", "r3"} {
		if _, err := f.comment.AddReply(ctx, owner.ID, c.ID, text, "Owner", "Ada"); err != nil {
			t.Fatalf("reply: %v", err)
		}
	}
	if _, err := f.comment.AddReply(ctx, owner.ID, primitive.NewObjectID(), "r", "", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing comment: %v", err)
	}

	comments, err := f.comment.ListComments(ctx, p.ID)
	if err != nil || len(comments) != 1 {
		t.Fatalf("list: %v %d", err, len(comments))
	}
	replies := comments[0].Replies
	if len(replies) != 3 || replies[0].Comment != "r1" || replies[2].Comment != "r3" {
		t.Fatalf("replies out of order: %+v", replies)
	}
	seen := map[primitive.ObjectID]bool{}
	for _, r := range replies {
		if seen[r.ID] {
			t.Fatalf("duplicate reply id %s", r.ID.Hex())
		}
		seen[r.ID] = true
		if r.Author == nil || r.Author.ID != owner.ID || r.ReplyAt != "Ada" {
			t.Fatalf("reply = %+v", r)
		}
	}
	if comments[0].Author == nil || comments[0].Author.ID != u.ID {
		t.Fatalf("comment author = %+v", comments[0].Author)
	}
}

func TestListCommentsNewestFirst(t *testing.T) {
	f := newPostFixture(t)
	ctx := t.Context()
	u := seedUser(t, f.db, "A", "a@example.com")
	p := f.post(t, u.ID, "post")
	for _, text := range []string{"c1", "c2"} {
		if _, err := f.comment.AddComment(ctx, u.ID, p.ID, text, "A"); err != nil {
			t.Fatal(err)
		}
	}
	comments, _ := f.comment.ListComments(ctx, p.ID)
	if len(comments) != 2 || comments[0].Comment != "c2" {
		t.Fatalf("comments = %+v", comments)
	}
}

func TestToggleLikeTwiceRestoresState(t *testing.T) {
	f := newPostFixture(t)
	ctx := t.Context()
	u := seedUser(t, f.db, "A", "a@example.com")
	v := seedUser(t, f.db, "B", "b@example.com")
	p := f.post(t, u.ID, "post")
	c, _ := f.comment.AddComment(ctx, u.ID, p.ID, "c", "")
	withReply, _ := f.comment.AddReply(ctx, u.ID, c.ID, "r", "", "")
	replyID := withReply.Replies[0].ID

	like := func(target LikeTarget) *LikeResult {
		t.Helper()
		res, err := f.comment.ToggleLike(ctx, target)
		if err != nil {
			t.Fatalf("toggle %s: %v", target.Kind, err)
		}
		return res
	}

	postTarget := LikeTarget{Kind: models.LikeTargetPost, ID: p.ID, ActorID: v.ID}
	if res := like(postTarget); !models.HasLike(res.Post.Likes, v.ID) {
		t.Fatalf("post like not added: %v", res.Post.Likes)
	}
	if res := like(postTarget); len(res.Post.Likes) != 0 {
		t.Fatalf("post like not removed: %v", res.Post.Likes)
	}

	commentTarget := LikeTarget{Kind: models.LikeTargetComment, ID: c.ID, ActorID: v.ID}
	if res := like(commentTarget); !models.HasLike(res.Comment.Likes, v.ID) {
		t.Fatalf("comment like not added: %v", res.Comment.Likes)
	}
	if res := like(commentTarget); len(res.Comment.Likes) != 0 {
		t.Fatalf("comment like not removed: %v", res.Comment.Likes)
	}

	replyTarget := LikeTarget{Kind: models.LikeTargetReply, ID: c.ID, ReplyID: replyID, ActorID: v.ID}
	if res := like(replyTarget); !models.HasLike(res.Comment.Replies[0].Likes, v.ID) {
		t.Fatalf("reply like not added: %+v", res.Comment.Replies[0])
	}
	if res := like(replyTarget); len(res.Comment.Replies[0].Likes) != 0 {
		t.Fatalf("reply like not removed: %+v", res.Comment.Replies[0])
	}
}

func TestToggleLikeMissingTarget(t *testing.T) {
	f := newPostFixture(t)
	ctx := t.Context()
	missing := primitive.NewObjectID()

	for _, kind := range []models.LikeTarget{models.LikeTargetPost, models.LikeTargetComment, models.LikeTargetReply} {
		_, err := f.comment.ToggleLike(ctx, LikeTarget{Kind: kind, ID: missing, ReplyID: missing, ActorID: 1})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("%s: err = %v, want not found", kind, err)
		}
	}
	if _, err := f.comment.ToggleLike(ctx, LikeTarget{Kind: "share", ID: missing}); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown kind: %v", err)
	}
}
