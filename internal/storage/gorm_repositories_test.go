package storage

import (
	"context"
	"testing"
	"time"

	"social-go/internal/models"
)

func TestUserRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	ada := createUser(t, repo, "Ada", "ada@example.com")
	bob := createUser(t, repo, "Bob", "bob@example.com")
	cy := createUser(t, repo, "Cy", "cy@example.com")

	got, err := repo.GetByEmail(ctx, "bob@example.com")
	if err != nil || got.ID != bob.ID {
		t.Fatalf("GetByEmail = %+v, %v", got, err)
	}

	if _, err := repo.GetByID(ctx, 999); !IsNotFound(err) {
		t.Errorf("GetByID missing: err = %v, want not found", err)
	}

	if err := repo.UpdateFields(ctx, ada.ID, map[string]interface{}{"location": "London"}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	info, err := repo.GetBasicInfoByID(ctx, ada.ID)
	if err != nil || info.Location != "London" || info.FirstName != "Ada" {
		t.Errorf("basic info = %+v, %v", info, err)
	}

	infos, err := repo.ListExcluding(ctx, []uint{ada.ID, cy.ID}, 15)
	if err != nil || len(infos) != 1 || infos[0].ID != bob.ID {
		t.Errorf("ListExcluding = %+v, %v", infos, err)
	}

	many, err := repo.GetMultipleBasicInfoByIDs(ctx, []uint{ada.ID, bob.ID})
	if err != nil || len(many) != 2 {
		t.Errorf("GetMultipleBasicInfoByIDs = %d, %v", len(many), err)
	}

	if err := repo.Delete(ctx, cy.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, cy.ID); !IsNotFound(err) {
		t.Errorf("deleted user still found: %v", err)
	}
}

func TestFriendRequestRepository(t *testing.T) {
	db := newTestDB(t)
	users := NewGormUserRepository(db)
	repo := NewGormFriendRequestRepository(db)
	ctx := context.Background()

	a := createUser(t, users, "A", "a@example.com")
	b := createUser(t, users, "B", "b@example.com")

	if req, err := repo.FindPendingRequest(ctx, a.ID, b.ID); err != nil || req != nil {
		t.Fatalf("FindPendingRequest on empty table = %+v, %v", req, err)
	}

	req := &models.FriendRequest{RequestFrom: a.ID, RequestTo: b.ID, RequestStatus: models.FriendRequestStatusPending}
	if err := repo.Create(ctx, req); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// either direction
	found, err := repo.FindPendingRequest(ctx, b.ID, a.ID)
	if err != nil || found == nil || found.ID != req.ID {
		t.Fatalf("reverse lookup = %+v, %v", found, err)
	}

	pending, err := repo.GetPendingRequestsForUser(ctx, b.ID, 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("pending = %+v, %v", pending, err)
	}

	if err := repo.UpdateRequestStatus(ctx, req.ID, models.FriendRequestStatusDeclined); err != nil {
		t.Fatalf("UpdateRequestStatus: %v", err)
	}
	got, _ := repo.GetRequestByID(ctx, req.ID)
	if got.RequestStatus != models.FriendRequestStatusDeclined {
		t.Errorf("status = %s", got.RequestStatus)
	}
	if found, _ := repo.FindPendingRequest(ctx, a.ID, b.ID); found != nil {
		t.Error("declined request still reported pending")
	}
}

func TestPendingRequestsNewestFirstAndLimited(t *testing.T) {
	db := newTestDB(t)
	users := NewGormUserRepository(db)
	repo := NewGormFriendRequestRepository(db)
	ctx := context.Background()

	to := createUser(t, users, "To", "to@example.com")
	var last uint
	for i := 0; i < 12; i++ {
		from := createUser(t, users, "F", "f"+string(rune('a'+i))+"@example.com")
		req := &models.FriendRequest{RequestFrom: from.ID, RequestTo: to.ID, RequestStatus: models.FriendRequestStatusPending}
		if err := repo.Create(ctx, req); err != nil {
			t.Fatal(err)
		}
		last = req.ID
	}

	pending, err := repo.GetPendingRequestsForUser(ctx, to.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 10 {
		t.Fatalf("len = %d, want 10", len(pending))
	}
	if pending[0].ID != last {
		t.Errorf("first = %d, want newest %d", pending[0].ID, last)
	}
}

func TestFriendshipRepositoryIdempotentCreate(t *testing.T) {
	db := newTestDB(t)
	users := NewGormUserRepository(db)
	repo := NewGormFriendshipRepository(db)
	ctx := context.Background()

	a := createUser(t, users, "A", "a@example.com")
	b := createUser(t, users, "B", "b@example.com")

	if err := repo.Create(ctx, &models.Friendship{UserID1: b.ID, UserID2: a.ID}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, &models.Friendship{UserID1: a.ID, UserID2: b.ID}); err != nil {
		t.Fatalf("second Create should be a no-op, got %v", err)
	}

	var count int64
	db.Model(&models.Friendship{}).Count(&count)
	if count != 1 {
		t.Errorf("friendship rows = %d, want 1", count)
	}

	for _, pair := range [][2]uint{{a.ID, b.ID}, {b.ID, a.ID}} {
		ok, err := repo.AreUsersFriends(ctx, pair[0], pair[1])
		if err != nil || !ok {
			t.Errorf("AreUsersFriends(%d,%d) = %v, %v", pair[0], pair[1], ok, err)
		}
	}

	aFriends, _ := repo.GetFriendIDs(ctx, a.ID)
	bFriends, _ := repo.GetFriendIDs(ctx, b.ID)
	if len(aFriends) != 1 || aFriends[0] != b.ID || len(bFriends) != 1 || bFriends[0] != a.ID {
		t.Errorf("friends: a=%v b=%v", aFriends, bFriends)
	}
}

func TestProfileViewRepositoryKeepsDuplicates(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProfileViewRepository(db)
	ctx := context.Background()

	for _, viewer := range []uint{3, 5, 3} {
		if err := repo.Append(ctx, 1, viewer); err != nil {
			t.Fatal(err)
		}
	}
	ids, err := repo.ListViewerIDs(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	want := []uint{3, 5, 3}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
}

func TestTokenRepositoriesUpsert(t *testing.T) {
	db := newTestDB(t)
	ver := NewGormVerificationRepository(db)
	resets := NewGormPasswordResetRepository(db)
	ctx := context.Background()
	now := time.Now()

	if err := ver.Upsert(ctx, &models.EmailVerification{UserID: 1, TokenHash: "h1", ExpiresAt: now.Add(-time.Minute)}); err != nil {
		t.Fatal(err)
	}
	if err := ver.Upsert(ctx, &models.EmailVerification{UserID: 2, TokenHash: "h2", ExpiresAt: now.Add(time.Hour)}); err != nil {
		t.Fatal(err)
	}
	expired, err := ver.ListExpired(ctx, now)
	if err != nil || len(expired) != 1 || expired[0].UserID != 1 {
		t.Errorf("ListExpired = %+v, %v", expired, err)
	}

	if err := resets.Upsert(ctx, &models.PasswordReset{UserID: 7, Email: "r@example.com", TokenHash: "old", ExpiresAt: now}); err != nil {
		t.Fatal(err)
	}
	if err := resets.Upsert(ctx, &models.PasswordReset{UserID: 7, Email: "r@example.com", TokenHash: "new", ExpiresAt: now.Add(time.Hour)}); err != nil {
		t.Fatal(err)
	}
	pr, err := resets.GetByEmail(ctx, "r@example.com")
	if err != nil || pr.TokenHash != "new" {
		t.Errorf("reset = %+v, %v", pr, err)
	}

	if err := resets.Delete(ctx, 7); err != nil {
		t.Fatal(err)
	}
	if _, err := resets.GetByUserID(ctx, 7); !IsNotFound(err) {
		t.Errorf("deleted reset still found: %v", err)
	}
}
