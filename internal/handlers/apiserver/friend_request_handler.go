package apiserver

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"social-go/internal/metrics"
	"social-go/internal/models"
	"social-go/internal/services"
)

// FriendRequestHandler handles HTTP requests related to friend requests.
type FriendRequestHandler struct {
	friendService services.FriendRequestService
	metrics       *metrics.Metrics
	log           *logrus.Logger
}

// NewFriendRequestHandler creates a new FriendRequestHandler.
func NewFriendRequestHandler(fs services.FriendRequestService, m *metrics.Metrics, log *logrus.Logger) *FriendRequestHandler {
	return &FriendRequestHandler{friendService: fs, metrics: m, log: log}
}

// SendFriendRequestPayload defines the expected JSON body for sending a friend request.
type SendFriendRequestPayload struct {
	RequestTo flexID `json:"requestTo"`
}

// RespondPayload is the body of /users/accept-request.
type RespondPayload struct {
	RequestID flexID                     `json:"rid"`
	Status    models.FriendRequestStatus `json:"status"`
}

// SendFriendRequest handles POST /users/friend-request
func (h *FriendRequestHandler) SendFriendRequest(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := actorID(w, r)
	if !ok {
		return
	}
	var payload SendFriendRequestPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if payload.RequestTo == 0 {
		writeServiceError(w, r, h.log, services.ErrMissingFields)
		return
	}

	req, err := h.friendService.SendFriendRequest(r.Context(), requesterID, uint(payload.RequestTo))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	h.metrics.IncFriendRequest(string(models.FriendRequestStatusPending))
	writeJSONResponse(w, http.StatusCreated, "Friend Request sent successfully", req)
}

// ListPendingRequests handles GET /users/get-friend-request
func (h *FriendRequestHandler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	requests, err := h.friendService.ListPendingRequests(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, "", requests)
}

// RespondToRequest handles POST /users/accept-request
func (h *FriendRequestHandler) RespondToRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	var payload RespondPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if payload.RequestID == 0 {
		writeServiceError(w, r, h.log, services.ErrMissingFields)
		return
	}

	req, err := h.friendService.RespondToRequest(r.Context(), userID, uint(payload.RequestID), payload.Status)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	h.metrics.IncFriendRequest(string(payload.Status))
	writeJSONResponse(w, http.StatusOK, "Friend Request "+string(payload.Status), req)
}

// ListFriends handles GET /users/friends
func (h *FriendRequestHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	friends, err := h.friendService.GetFriendsList(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, "", friends)
}
