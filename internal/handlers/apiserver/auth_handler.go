package apiserver

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"social-go/internal/metrics"
	"social-go/internal/middleware"
	"social-go/internal/models"
	"social-go/internal/services"
)

// AuthHandler 封装了认证相关的 HTTP 处理器方法。
type AuthHandler struct {
	authService services.AuthService
	metrics     *metrics.Metrics
	log         *logrus.Logger
}

// NewAuthHandler 创建一个新的 AuthHandler 实例。
func NewAuthHandler(authService services.AuthService, m *metrics.Metrics, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, metrics: m, log: log}
}

// LoginRequest 是用户登录请求的结构体。
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse 是成功登录后返回的结构体。
type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// PasswordRequest carries the new password for the reset form.
type PasswordRequest struct {
	Password string `json:"password"`
}

// Register 处理用户注册请求。
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterInput
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.authService.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	h.metrics.IncRegistration()
	writeJSONResponse(w, http.StatusCreated,
		"Account created successfully. A verification email has been sent to your email address.",
		map[string]interface{}{"id": user.ID, "email": user.Email, "verified": user.Verified})
}

// Login 处理用户登录请求。未知邮箱和错误密码返回相同的消息。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	token, user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrUnknownEmail) || errors.Is(err, services.ErrWrongPassword) {
			writeJSONError(w, "Invalid email or password", http.StatusUnauthorized)
			return
		}
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, "Login successful", LoginResponse{Token: token, User: user})
}

// Logout 将当前 Token 加入黑名单。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok {
		writeJSONError(w, "Authentication failed", http.StatusUnauthorized)
		return
	}
	if err := h.authService.Logout(r.Context(), claims); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, "Logged out", nil)
}

// VerifyEmail 处理邮件中的验证链接，结果通过重定向带给前端页面。
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUint(r, "userId")
	if err != nil {
		redirectVerified(w, r, "error", "Invalid verification link. Try again later.")
		return
	}

	if err := h.authService.VerifyEmail(r.Context(), userID, mux.Vars(r)["token"]); err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			h.log.WithError(err).WithField("userID", userID).Error("email verification failed")
			redirectVerified(w, r, "error", "Verification failed. Try again later.")
			return
		}
		redirectVerified(w, r, "error", err.Error())
		return
	}
	redirectVerified(w, r, "success", "Email verified successfully")
}

func redirectVerified(w http.ResponseWriter, r *http.Request, status, message string) {
	q := url.Values{}
	q.Set("status", status)
	q.Set("message", message)
	http.Redirect(w, r, "/users/verified?"+q.Encode(), http.StatusFound)
}

// RequestPasswordReset 发送重置密码邮件；已有未过期的请求时不重复发送。
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	status, err := h.authService.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	msg := "Reset Password Link has been sent to your email address."
	if status == services.ResetStatusPending {
		msg = "Reset Password Link has already been sent to your email."
	}
	writeJSONResponse(w, http.StatusCreated, msg, map[string]services.ResetStatus{"status": status})
}

// ResetPasswordLink 校验重置链接并重定向到重置表单页面。
func (h *AuthHandler) ResetPasswordLink(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUint(r, "userId")
	if err == nil {
		err = h.authService.ResetPassword(r.Context(), userID, mux.Vars(r)["token"])
	}
	q := url.Values{}
	if err != nil {
		msg := err.Error()
		if statusFor(err) == http.StatusInternalServerError {
			h.log.WithError(err).Error("password reset link check failed")
			msg = "Reset password failed. Try again later."
		}
		q.Set("status", "error")
		q.Set("message", msg)
	} else {
		q.Set("type", "reset")
		q.Set("id", strconv.FormatUint(uint64(userID), 10))
	}
	http.Redirect(w, r, "/users/resetpassword?"+q.Encode(), http.StatusFound)
}

// ResetPassword 校验链接后修改密码。
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUint(r, "userId")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	var req PasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.authService.ResetPassword(r.Context(), userID, mux.Vars(r)["token"]); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	if err := h.authService.ChangePassword(r.Context(), userID, req.Password); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, "Password successfully reset", nil)
}
