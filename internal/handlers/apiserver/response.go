package apiserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"social-go/internal/middleware"
	"social-go/internal/services"
	"social-go/internal/storage"
)

// Response 是所有 JSON 响应的统一信封。
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// writeJSONResponse 是一个辅助函数，用于发送成功的 JSON 响应。
func writeJSONResponse(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	writeEnvelope(w, statusCode, Response{Success: true, Message: message, Data: data})
}

// writeJSONError 是一个辅助函数，用于发送 JSON 格式的错误响应。
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeEnvelope(w, statusCode, Response{Success: false, Message: message})
}

func writeEnvelope(w http.ResponseWriter, statusCode int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	// 头部已发送，编码失败时无法再返回错误
	_ = json.NewEncoder(w).Encode(body)
}

// statusFor maps a service error kind to an HTTP status. ErrForbidden is checked before ErrAuth.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrExpired):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError 把服务层错误写成响应。未知错误只记录日志，不向客户端暴露细节。
func writeServiceError(w http.ResponseWriter, r *http.Request, log *logrus.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path}).Error("request failed")
		writeJSONError(w, "Something went wrong. Please try again later.", status)
		return
	}
	writeJSONError(w, err.Error(), status)
}

// decodeJSON reads the request body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// actorID 从上下文中读取认证中间件写入的用户 ID。
func actorID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "Authentication failed", http.StatusUnauthorized)
	}
	return userID, ok
}

// pathUint parses a numeric path variable.
func pathUint(r *http.Request, name string) (uint, error) {
	v, ok := mux.Vars(r)[name]
	if !ok || v == "" {
		return 0, services.ErrInvalidID
	}
	id, err := storage.StrToUint(v)
	if err != nil {
		return 0, services.ErrInvalidID
	}
	return id, nil
}

// pathObjectID parses a hex document id path variable.
func pathObjectID(r *http.Request, name string) (primitive.ObjectID, error) {
	return services.ParseID(mux.Vars(r)[name])
}

// flexID accepts a user id sent as a JSON number or a numeric string.
type flexID uint

func (id *flexID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", s)
	}
	*id = flexID(n)
	return nil
}
