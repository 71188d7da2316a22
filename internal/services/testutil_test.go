package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"social-go/internal/config"
	"social-go/internal/logging"
	"social-go/internal/mailer"
	"social-go/internal/models"
	"social-go/internal/storage"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// 事务与普通查询共用一个连接，避免共享缓存下的表锁
	sqlDB.SetMaxOpenConns(1)
	if err := storage.AutoMigrateTables(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func testConfig() config.Config {
	return config.Config{
		APIServer: config.APIServerConfig{PublicURL: "http://localhost:8080"},
		Auth: config.AuthConfig{
			JWTSecretKey:    "test-secret",
			JWTExpiry:       time.Hour,
			JWTIssuer:       "social-go-test",
			VerificationTTL: time.Hour,
			ResetTTL:        10 * time.Minute,
		},
	}
}

func seedUser(t *testing.T, db *gorm.DB, first, email string) *models.User {
	t.Helper()
	u := &models.User{FirstName: first, LastName: "Test", Email: email, PasswordHash: "x", Verified: true}
	if err := storage.NewGormUserRepository(db).Create(t.Context(), u); err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

// fakeMailer 记录发送的邮件，fail 非空时返回该错误。
type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	fail error
}

func (m *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, msg)
	return nil
}

var linkPattern = regexp.MustCompile(`/users/(?:verify-email|reset-password)/(\d+)/([0-9a-f-]+)`)

// lastLink extracts the user id and raw token from the newest mail.
func (m *fakeMailer) lastLink(t *testing.T) (uint, string) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatal("no mail sent")
	}
	match := linkPattern.FindStringSubmatch(m.sent[len(m.sent)-1].HTML)
	if match == nil {
		t.Fatalf("no link in mail: %s", m.sent[len(m.sent)-1].HTML)
	}
	id, _ := strconv.ParseUint(match[1], 10, 64)
	return uint(id), match[2]
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// fakePostRepo keeps posts in insertion order; listing walks it backwards.
type fakePostRepo struct {
	mu    sync.Mutex
	posts []*models.Post
}

func (r *fakePostRepo) Create(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post.ID = primitive.NewObjectID()
	post.Likes = []uint{}
	post.Comments = []primitive.ObjectID{}
	post.CreatedAt = time.Now()
	r.posts = append(r.posts, post)
	return nil
}

func (r *fakePostRepo) find(id primitive.ObjectID) (int, *models.Post) {
	for i, p := range r.posts {
		if p.ID == id {
			return i, p
		}
	}
	return -1, nil
}

func (r *fakePostRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, p := r.find(id); p != nil {
		cp := *p
		return &cp, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakePostRepo) List(_ context.Context, search string) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Post
	for i := len(r.posts) - 1; i >= 0; i-- {
		p := r.posts[i]
		if search != "" && !strings.Contains(strings.ToLower(p.Description), strings.ToLower(search)) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakePostRepo) ListByUser(_ context.Context, userID uint) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Post
	for i := len(r.posts) - 1; i >= 0; i-- {
		if r.posts[i].UserID == userID {
			cp := *r.posts[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakePostRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, p := r.find(id)
	if p == nil {
		return mongo.ErrNoDocuments
	}
	r.posts = append(r.posts[:i], r.posts[i+1:]...)
	return nil
}

func (r *fakePostRepo) ToggleLike(_ context.Context, id primitive.ObjectID, userID uint) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, p := r.find(id)
	if p == nil {
		return nil, mongo.ErrNoDocuments
	}
	p.Likes = toggle(p.Likes, userID)
	cp := *p
	return &cp, nil
}

func (r *fakePostRepo) AppendComment(_ context.Context, postID, commentID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, p := r.find(postID)
	if p == nil {
		return mongo.ErrNoDocuments
	}
	p.Comments = append(p.Comments, commentID)
	return nil
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	comments []*models.Comment
}

func (r *fakeCommentRepo) find(id primitive.ObjectID) *models.Comment {
	for _, c := range r.comments {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func cloneComment(c *models.Comment) *models.Comment {
	cp := *c
	cp.Likes = append([]uint{}, c.Likes...)
	cp.Replies = append([]models.Reply{}, c.Replies...)
	return &cp
}

func (r *fakeCommentRepo) Create(_ context.Context, c *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = primitive.NewObjectID()
	c.Likes = []uint{}
	c.Replies = []models.Reply{}
	c.CreatedAt = time.Now()
	r.comments = append(r.comments, c)
	return nil
}

func (r *fakeCommentRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c := r.find(id); c != nil {
		return cloneComment(c), nil
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeCommentRepo) ListByPost(_ context.Context, postID primitive.ObjectID) ([]*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Comment
	for i := len(r.comments) - 1; i >= 0; i-- {
		if r.comments[i].PostID == postID {
			out = append(out, cloneComment(r.comments[i]))
		}
	}
	return out, nil
}

func (r *fakeCommentRepo) DeleteByPost(_ context.Context, postID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.comments[:0]
	var n int64
	for _, c := range r.comments {
		if c.PostID == postID {
			n++
			continue
		}
		kept = append(kept, c)
	}
	r.comments = kept
	return n, nil
}

func (r *fakeCommentRepo) ToggleLike(_ context.Context, id primitive.ObjectID, userID uint) (*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.find(id)
	if c == nil {
		return nil, mongo.ErrNoDocuments
	}
	c.Likes = toggle(c.Likes, userID)
	return cloneComment(c), nil
}

func (r *fakeCommentRepo) ToggleReplyLike(_ context.Context, id, replyID primitive.ObjectID, userID uint) (*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.find(id)
	if c == nil {
		return nil, mongo.ErrNoDocuments
	}
	for i := range c.Replies {
		if c.Replies[i].ID == replyID {
			c.Replies[i].Likes = toggle(c.Replies[i].Likes, userID)
			return cloneComment(c), nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeCommentRepo) AppendReply(_ context.Context, id primitive.ObjectID, reply models.Reply) (*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.find(id)
	if c == nil {
		return nil, mongo.ErrNoDocuments
	}
	c.Replies = append(c.Replies, reply)
	return cloneComment(c), nil
}

func toggle(likes []uint, userID uint) []uint {
	out := make([]uint, 0, len(likes)+1)
	for _, id := range likes {
		if id != userID {
			out = append(out, id)
		}
	}
	if len(out) == len(likes) {
		out = append(out, userID)
	}
	return out
}

var testLogger = logging.Discard()
