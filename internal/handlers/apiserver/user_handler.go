package apiserver

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"social-go/internal/models"
	"social-go/internal/services"
)

// UserHandler 封装了用户相关的 HTTP 处理器方法。
type UserHandler struct {
	userService services.UserService
	log         *logrus.Logger
}

// NewUserHandler 创建一个新的 UserHandler 实例。
func NewUserHandler(userService services.UserService, log *logrus.Logger) *UserHandler {
	return &UserHandler{userService: userService, log: log}
}

// UpdateUserResponse carries the refreshed profile and its new token.
type UpdateUserResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// GetUser 返回指定用户的资料；路径中没有 id 时返回当前用户。
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	if _, hasID := mux.Vars(r)["id"]; hasID {
		id, err := pathUint(r, "id")
		if err != nil {
			writeServiceError(w, r, h.log, err)
			return
		}
		userID = id
	}

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, "", user)
}

// UpdateUser 更新当前用户资料。
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	var req services.UpdateUserInput
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, token, err := h.userService.UpdateUser(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, "User updated successfully", UpdateUserResponse{Token: token, User: user})
}

// ProfileView records that the caller viewed the profile in the body.
func (h *UserHandler) ProfileView(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := actorID(w, r)
	if !ok {
		return
	}
	var req struct {
		ID flexID `json:"id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.userService.RecordProfileView(r.Context(), viewerID, uint(req.ID)); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, "Profile view recorded", nil)
}

// SuggestedFriends lists users the caller is not yet friends with.
func (h *UserHandler) SuggestedFriends(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	users, err := h.userService.SuggestFriends(r.Context(), userID, services.DefaultSuggestionLimit)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, "", users)
}
