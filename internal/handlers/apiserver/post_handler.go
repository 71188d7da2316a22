package apiserver

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"social-go/internal/metrics"
	"social-go/internal/models"
	"social-go/internal/services"
)

// PostHandler 封装了动态、评论和点赞相关的 HTTP 处理器方法。
type PostHandler struct {
	postService    services.PostService
	commentService services.CommentService
	metrics        *metrics.Metrics
	log            *logrus.Logger
}

func NewPostHandler(ps services.PostService, cs services.CommentService, m *metrics.Metrics, log *logrus.Logger) *PostHandler {
	return &PostHandler{postService: ps, commentService: cs, metrics: m, log: log}
}

type CreatePostRequest struct {
	Description string `json:"description"`
	Image       string `json:"image"`
}

type FeedRequest struct {
	Search string `json:"search"`
}

type CommentRequest struct {
	Comment string `json:"comment"`
	From    string `json:"from"`
	ReplyAt string `json:"replyAt"`
}

// CreatePost handles POST /posts/create-post
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	var req CreatePostRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	post, err := h.postService.CreatePost(r.Context(), userID, req.Description, req.Image)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	h.metrics.IncPost()
	writeJSONResponse(w, http.StatusCreated, "Post created successfully", post)
}

// ListFeed handles POST /posts. The body is optional.
func (h *PostHandler) ListFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	var req FeedRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	posts, err := h.postService.ListFeed(r.Context(), userID, req.Search)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, "", posts)
}

// GetPost handles POST /posts/{id}
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	postID, err := pathObjectID(r, "id")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	post, err := h.postService.GetPost(r.Context(), postID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, "", post)
}

// ListUserPosts handles POST /posts/get-user-post/{id}
func (h *PostHandler) ListUserPosts(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUint(r, "id")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	posts, err := h.postService.ListUserPosts(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, "", posts)
}

// DeletePost handles DELETE /posts/{id}
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	postID, err := pathObjectID(r, "id")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	if err := h.postService.DeletePost(r.Context(), userID, postID); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, "Deleted successfully", nil)
}

// LikePost handles POST /posts/like/{id}
func (h *PostHandler) LikePost(w http.ResponseWriter, r *http.Request) {
	postID, err := pathObjectID(r, "id")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	h.toggleLike(w, r, services.LikeTarget{Kind: models.LikeTargetPost, ID: postID})
}

// LikeComment handles POST /posts/like-comment/{id} and /posts/like-comment/{id}/{replyId}.
func (h *PostHandler) LikeComment(w http.ResponseWriter, r *http.Request) {
	commentID, err := pathObjectID(r, "id")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	target := services.LikeTarget{Kind: models.LikeTargetComment, ID: commentID}
	if _, ok := mux.Vars(r)["replyId"]; ok {
		replyID, err := pathObjectID(r, "replyId")
		if err != nil {
			writeServiceError(w, r, h.log, err)
			return
		}
		target.Kind = models.LikeTargetReply
		target.ReplyID = replyID
	}
	h.toggleLike(w, r, target)
}

func (h *PostHandler) toggleLike(w http.ResponseWriter, r *http.Request, target services.LikeTarget) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	target.ActorID = userID

	res, err := h.commentService.ToggleLike(r.Context(), target)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	h.metrics.IncLike(string(target.Kind))
	if res.Post != nil {
		writeJSONResponse(w, http.StatusOK, "", res.Post)
		return
	}
	writeJSONResponse(w, http.StatusOK, "", res.Comment)
}

// AddComment handles POST /posts/comment/{id}
func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	h.comment(w, r, func(userID uint, id primitive.ObjectID, req CommentRequest) (*models.Comment, error) {
		return h.commentService.AddComment(r.Context(), userID, id, req.Comment, req.From)
	}, "comment")
}

// AddReply handles POST /posts/reply-comment/{id}
func (h *PostHandler) AddReply(w http.ResponseWriter, r *http.Request) {
	h.comment(w, r, func(userID uint, id primitive.ObjectID, req CommentRequest) (*models.Comment, error) {
		return h.commentService.AddReply(r.Context(), userID, id, req.Comment, req.From, req.ReplyAt)
	}, "reply")
}

func (h *PostHandler) comment(
	w http.ResponseWriter,
	r *http.Request,
	add func(userID uint, id primitive.ObjectID, req CommentRequest) (*models.Comment, error),
	kind string,
) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	id, err := pathObjectID(r, "id")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	var req CommentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	comment, err := add(userID, id, req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	h.metrics.IncComment(kind)
	writeJSONResponse(w, http.StatusCreated, "", comment)
}

// ListComments handles GET /posts/comments/{postId}
func (h *PostHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	postID, err := pathObjectID(r, "postId")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	comments, err := h.commentService.ListComments(r.Context(), postID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, "", comments)
}
