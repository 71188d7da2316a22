package apiserver

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Handlers groups everything RegisterRoutes mounts.
type Handlers struct {
	Auth   *AuthHandler
	User   *UserHandler
	Friend *FriendRequestHandler
	Post   *PostHandler
	Upload *UploadHandler // nil disables /upload
	AuthMW mux.MiddlewareFunc
	Extra  func(r *mux.Router) // health, metrics and other infrastructure routes
}

// RegisterRoutes 注册全部 API 路由。公开路由直接挂在 r 上，其余路由经过认证中间件。
func RegisterRoutes(r *mux.Router, h Handlers) {
	// 公开路由
	r.HandleFunc("/auth/register", h.Auth.Register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", h.Auth.Login).Methods(http.MethodPost)
	r.HandleFunc("/users/verify-email/{userId:[0-9]+}/{token}", h.Auth.VerifyEmail).Methods(http.MethodGet)
	r.HandleFunc("/users/request-password-reset", h.Auth.RequestPasswordReset).Methods(http.MethodPost)
	r.HandleFunc("/users/reset-password/{userId:[0-9]+}/{token}", h.Auth.ResetPasswordLink).Methods(http.MethodGet)
	r.HandleFunc("/users/reset-password/{userId:[0-9]+}/{token}", h.Auth.ResetPassword).Methods(http.MethodPost)
	r.HandleFunc("/posts/comments/{postId}", h.Post.ListComments).Methods(http.MethodGet)
	if h.Extra != nil {
		h.Extra(r)
	}

	// 需要认证的路由
	api := r.NewRoute().Subrouter()
	if h.AuthMW != nil {
		api.Use(h.AuthMW)
	}

	api.HandleFunc("/auth/logout", h.Auth.Logout).Methods(http.MethodPost)

	api.HandleFunc("/users/get-user", h.User.GetUser).Methods(http.MethodPost)
	api.HandleFunc("/users/get-user/{id:[0-9]+}", h.User.GetUser).Methods(http.MethodPost)
	api.HandleFunc("/users/update-user", h.User.UpdateUser).Methods(http.MethodPut)
	api.HandleFunc("/users/profile-view", h.User.ProfileView).Methods(http.MethodPost)
	api.HandleFunc("/users/suggested-friends", h.User.SuggestedFriends).Methods(http.MethodGet)

	api.HandleFunc("/users/friend-request", h.Friend.SendFriendRequest).Methods(http.MethodPost)
	api.HandleFunc("/users/get-friend-request", h.Friend.ListPendingRequests).Methods(http.MethodGet)
	api.HandleFunc("/users/accept-request", h.Friend.RespondToRequest).Methods(http.MethodPost)
	api.HandleFunc("/users/friends", h.Friend.ListFriends).Methods(http.MethodGet)

	api.HandleFunc("/posts", h.Post.ListFeed).Methods(http.MethodPost)
	api.HandleFunc("/posts/create-post", h.Post.CreatePost).Methods(http.MethodPost)
	api.HandleFunc("/posts/get-user-post/{id:[0-9]+}", h.Post.ListUserPosts).Methods(http.MethodPost)
	api.HandleFunc("/posts/like/{id}", h.Post.LikePost).Methods(http.MethodPost)
	api.HandleFunc("/posts/like-comment/{id}", h.Post.LikeComment).Methods(http.MethodPost)
	api.HandleFunc("/posts/like-comment/{id}/{replyId}", h.Post.LikeComment).Methods(http.MethodPost)
	api.HandleFunc("/posts/comment/{id}", h.Post.AddComment).Methods(http.MethodPost)
	api.HandleFunc("/posts/reply-comment/{id}", h.Post.AddReply).Methods(http.MethodPost)
	// 放在固定前缀路由之后，避免 /posts/create-post 之类被当作 id
	api.HandleFunc("/posts/{id}", h.Post.GetPost).Methods(http.MethodPost)
	api.HandleFunc("/posts/{id}", h.Post.DeletePost).Methods(http.MethodDelete)

	if h.Upload != nil {
		api.HandleFunc("/upload", h.Upload.UploadFile).Methods(http.MethodPost)
	}
}
