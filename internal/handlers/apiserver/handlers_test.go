package apiserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"social-go/internal/auth"
	"social-go/internal/config"
	"social-go/internal/logging"
	"social-go/internal/middleware"
	"social-go/internal/models"
	"social-go/internal/services"
	"social-go/internal/storage"
)

const testSecret = "handler-secret"

// stub services; unimplemented methods panic through the nil embedded interface.
type stubAuth struct {
	services.AuthService
	login  func(email, password string) (string, *models.User, error)
	verify func(userID uint, token string) error
	reset  func(userID uint, token string) error
	change func(userID uint, password string) error
}

func (s *stubAuth) Login(_ context.Context, email, password string) (string, *models.User, error) {
	return s.login(email, password)
}

func (s *stubAuth) VerifyEmail(_ context.Context, userID uint, token string) error {
	return s.verify(userID, token)
}

func (s *stubAuth) ResetPassword(_ context.Context, userID uint, token string) error {
	return s.reset(userID, token)
}

func (s *stubAuth) ChangePassword(_ context.Context, userID uint, password string) error {
	return s.change(userID, password)
}

type stubPosts struct {
	services.PostService
	create func(actorID uint, description string) (*models.Post, error)
	feed   func(actorID uint, search string) ([]*models.Post, error)
	del    func(actorID uint, id primitive.ObjectID) error
}

func (s *stubPosts) CreatePost(_ context.Context, actorID uint, description, _ string) (*models.Post, error) {
	return s.create(actorID, description)
}

func (s *stubPosts) ListFeed(_ context.Context, actorID uint, search string) ([]*models.Post, error) {
	return s.feed(actorID, search)
}

func (s *stubPosts) DeletePost(_ context.Context, actorID uint, id primitive.ObjectID) error {
	return s.del(actorID, id)
}

type stubComments struct {
	services.CommentService
	like func(target services.LikeTarget) (*services.LikeResult, error)
}

func (s *stubComments) ToggleLike(_ context.Context, target services.LikeTarget) (*services.LikeResult, error) {
	return s.like(target)
}

type testServer struct {
	router *mux.Router
	token  string
}

func newTestServer(t *testing.T, authSvc services.AuthService, posts services.PostService, comments services.CommentService, upload *UploadHandler) *testServer {
	t.Helper()
	log := logging.Discard()
	bl := auth.NewMemoryBlacklist()
	token, err := auth.GenerateToken(7, "seven@example.com", config.AuthConfig{JWTSecretKey: testSecret, JWTExpiry: time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	r := mux.NewRouter()
	RegisterRoutes(r, Handlers{
		Auth:   NewAuthHandler(authSvc, nil, log),
		User:   NewUserHandler(nil, log),
		Friend: NewFriendRequestHandler(nil, nil, log),
		Post:   NewPostHandler(posts, comments, nil, log),
		Upload: upload,
		AuthMW: middleware.AuthMiddleware(testSecret, bl),
	})
	return &testServer{router: r, token: token}
}

func (s *testServer) do(t *testing.T, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{services.ErrMissingFields, http.StatusBadRequest},
		{services.ErrEmailTaken, http.StatusConflict},
		{services.ErrPostNotFound, http.StatusNotFound},
		{services.ErrNotPostOwner, http.StatusForbidden},
		{services.ErrNotRecipientOfRequest, http.StatusForbidden},
		{services.ErrUnverified, http.StatusUnauthorized},
		{services.ErrVerificationExpired, http.StatusGone},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestLoginHidesWhichCredentialWasWrong(t *testing.T) {
	for _, svcErr := range []error{services.ErrUnknownEmail, services.ErrWrongPassword} {
		authSvc := &stubAuth{login: func(string, string) (string, *models.User, error) { return "", nil, svcErr }}
		srv := newTestServer(t, authSvc, nil, nil, nil)

		rec := srv.do(t, http.MethodPost, "/auth/login", `{"email":"a@example.com","password":"x"}`, false)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", rec.Code)
		}
		if resp := decodeEnvelope(t, rec); resp.Success || resp.Message != "Invalid email or password" {
			t.Fatalf("resp = %+v", resp)
		}
	}
}

func TestLoginSuccessEnvelope(t *testing.T) {
	authSvc := &stubAuth{login: func(email, _ string) (string, *models.User, error) {
		return "jwt", &models.User{Email: email, PasswordHash: "hash"}, nil
	}}
	srv := newTestServer(t, authSvc, nil, nil, nil)

	rec := srv.do(t, http.MethodPost, "/auth/login", `{"email":"a@example.com","password":"x"}`, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "hash") {
		t.Fatalf("password hash leaked: %s", rec.Body.String())
	}
	if resp := decodeEnvelope(t, rec); !resp.Success {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestVerifyEmailRedirects(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus string
	}{
		{"success", nil, "success"},
		{"expired", services.ErrVerificationExpired, "error"},
		{"internal", errors.New("db down"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID uint
			var gotToken string
			authSvc := &stubAuth{verify: func(id uint, token string) error {
				gotID, gotToken = id, token
				return tt.err
			}}
			srv := newTestServer(t, authSvc, nil, nil, nil)

			rec := srv.do(t, http.MethodGet, "/users/verify-email/12/abc-def", "", false)
			if rec.Code != http.StatusFound {
				t.Fatalf("status = %d", rec.Code)
			}
			loc, err := url.Parse(rec.Header().Get("Location"))
			if err != nil {
				t.Fatal(err)
			}
			if loc.Path != "/users/verified" || loc.Query().Get("status") != tt.wantStatus {
				t.Fatalf("location = %s", loc)
			}
			if tt.err != nil && strings.Contains(loc.Query().Get("message"), "db down") {
				t.Fatalf("internal error leaked: %s", loc)
			}
			if gotID != 12 || gotToken != "abc-def" {
				t.Fatalf("service got %d %q", gotID, gotToken)
			}
		})
	}
}

func TestResetPasswordLinkAndForm(t *testing.T) {
	var changed string
	authSvc := &stubAuth{
		reset:  func(uint, string) error { return nil },
		change: func(_ uint, password string) error { changed = password; return nil },
	}
	srv := newTestServer(t, authSvc, nil, nil, nil)

	rec := srv.do(t, http.MethodGet, "/users/reset-password/3/tok", "", false)
	loc := rec.Header().Get("Location")
	if rec.Code != http.StatusFound || !strings.HasPrefix(loc, "/users/resetpassword?") || !strings.Contains(loc, "type=reset") || !strings.Contains(loc, "id=3") {
		t.Fatalf("redirect = %d %s", rec.Code, loc)
	}

	rec = srv.do(t, http.MethodPost, "/users/reset-password/3/tok", `{"password":"new"}`, false)
	if rec.Code != http.StatusOK || changed != "new" {
		t.Fatalf("status = %d changed = %q", rec.Code, changed)
	}

	authSvc.reset = func(uint, string) error { return services.ErrResetExpired }
	rec = srv.do(t, http.MethodPost, "/users/reset-password/3/tok", `{"password":"other"}`, false)
	if rec.Code != http.StatusGone || changed != "new" {
		t.Fatalf("expired link: status = %d changed = %q", rec.Code, changed)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t, &stubAuth{}, &stubPosts{}, &stubComments{}, nil)
	for _, path := range []string{"/posts", "/posts/create-post", "/users/get-user"} {
		rec := srv.do(t, http.MethodPost, path, `{}`, false)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d", path, rec.Code)
		}
	}
}

func TestCreatePostAndFeed(t *testing.T) {
	posts := &stubPosts{
		create: func(actorID uint, description string) (*models.Post, error) {
			if description == "" {
				return nil, services.ErrDescriptionRequired
			}
			return &models.Post{ID: primitive.NewObjectID(), UserID: actorID, Description: description}, nil
		},
		feed: func(actorID uint, search string) ([]*models.Post, error) {
			return []*models.Post{{UserID: actorID, Description: "search=" + search}}, nil
		},
	}
	srv := newTestServer(t, &stubAuth{}, posts, &stubComments{}, nil)

	rec := srv.do(t, http.MethodPost, "/posts/create-post", `{"description":"hi"}`, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(t, http.MethodPost, "/posts/create-post", `{}`, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty description status = %d", rec.Code)
	}

	// 没有请求体也可以
	rec = srv.do(t, http.MethodPost, "/posts", "", true)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"search="`) {
		t.Fatalf("feed = %d %s", rec.Code, rec.Body.String())
	}
	rec = srv.do(t, http.MethodPost, "/posts", `{"search":"cat"}`, true)
	if !strings.Contains(rec.Body.String(), "search=cat") {
		t.Fatalf("feed with search = %s", rec.Body.String())
	}
}

func TestDeletePostForbidden(t *testing.T) {
	posts := &stubPosts{del: func(uint, primitive.ObjectID) error { return services.ErrNotPostOwner }}
	srv := newTestServer(t, &stubAuth{}, posts, &stubComments{}, nil)

	rec := srv.do(t, http.MethodDelete, "/posts/"+primitive.NewObjectID().Hex(), "", true)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}
	rec = srv.do(t, http.MethodDelete, "/posts/not-an-id", "", true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid id status = %d", rec.Code)
	}
}

func TestLikeRoutesDispatchByTarget(t *testing.T) {
	var got services.LikeTarget
	comments := &stubComments{like: func(target services.LikeTarget) (*services.LikeResult, error) {
		got = target
		if target.Kind == models.LikeTargetPost {
			return &services.LikeResult{Post: &models.Post{Likes: []uint{target.ActorID}}}, nil
		}
		return &services.LikeResult{Comment: &models.Comment{Likes: []uint{target.ActorID}}}, nil
	}}
	srv := newTestServer(t, &stubAuth{}, &stubPosts{}, comments, nil)
	id, replyID := primitive.NewObjectID(), primitive.NewObjectID()

	srv.do(t, http.MethodPost, "/posts/like/"+id.Hex(), "", true)
	if got.Kind != models.LikeTargetPost || got.ID != id || got.ActorID != 7 {
		t.Fatalf("post like target = %+v", got)
	}
	srv.do(t, http.MethodPost, "/posts/like-comment/"+id.Hex(), "", true)
	if got.Kind != models.LikeTargetComment || got.ID != id {
		t.Fatalf("comment like target = %+v", got)
	}
	rec := srv.do(t, http.MethodPost, "/posts/like-comment/"+id.Hex()+"/"+replyID.Hex(), "", true)
	if rec.Code != http.StatusOK || got.Kind != models.LikeTargetReply || got.ReplyID != replyID {
		t.Fatalf("reply like target = %+v (status %d)", got, rec.Code)
	}
}

func TestFlexID(t *testing.T) {
	var body struct {
		A flexID `json:"a"`
		B flexID `json:"b"`
		C flexID `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":5,"b":"6","c":null}`), &body); err != nil {
		t.Fatal(err)
	}
	if body.A != 5 || body.B != 6 || body.C != 0 {
		t.Fatalf("body = %+v", body)
	}
	if err := json.Unmarshal([]byte(`{"a":"x1"}`), &body); err == nil {
		t.Fatal("expected error for non-numeric id")
	}
}

func multipartBody(t *testing.T, contentType, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="pic.png"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte(content))
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestUploadFile(t *testing.T) {
	cfg := config.StorageConfig{LocalPath: t.TempDir(), BaseURL: "/uploads", MaxFileSizeMB: 1}
	store, err := storage.NewLocalStorageService(cfg)
	if err != nil {
		t.Fatal(err)
	}
	srv := newTestServer(t, &stubAuth{}, &stubPosts{}, &stubComments{}, NewUploadHandler(store, cfg, logging.Discard()))

	send := func(contentType string) *httptest.ResponseRecorder {
		body, ct := multipartBody(t, contentType, "png bytes")
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", ct)
		req.Header.Set("Authorization", "Bearer "+srv.token)
		rec := httptest.NewRecorder()
		srv.router.ServeHTTP(rec, req)
		return rec
	}

	if rec := send("text/plain"); rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("non-image status = %d", rec.Code)
	}
	rec := send("image/png")
	if rec.Code != http.StatusCreated || !strings.Contains(rec.Body.String(), "/uploads/") {
		t.Fatalf("upload = %d %s", rec.Code, rec.Body.String())
	}
}
