package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"social-go/internal/auth"
	"social-go/internal/config"
	"social-go/internal/mailer"
	"social-go/internal/models"
	"social-go/internal/storage"
)

var (
	ErrEmailTaken            = newError(ErrConflict, "Email Address already exists")
	ErrMissingCredentials    = newError(ErrValidation, "Please Provide User Credentials")
	ErrUnknownEmail          = newError(ErrAuth, "No account is registered with this email")
	ErrWrongPassword         = newError(ErrAuth, "Invalid email or password")
	ErrUnverified            = newError(ErrAuth, "User email is not verified. Check your email account and verify your email")
	ErrVerificationNotFound  = newError(ErrNotFound, "Invalid verification link. Try again later.")
	ErrVerificationExpired   = newError(ErrExpired, "Verification token has expired.")
	ErrVerificationMismatch  = newError(ErrAuth, "Verification failed or link is invalid")
	ErrResetEmailNotFound    = newError(ErrNotFound, "Email address not found.")
	ErrResetLinkInvalid      = newError(ErrNotFound, "Invalid password reset link. Try again")
	ErrResetExpired          = newError(ErrExpired, "Reset Password link has expired. Please try again")
	ErrResetMismatch         = newError(ErrAuth, "Invalid reset password link. Please try again")
	ErrPasswordRequired      = newError(ErrValidation, "Password is required")
	ErrLogoutWithoutTokenJTI = newError(ErrAuth, "Token cannot be revoked")
)

// ResetStatus reports what RequestPasswordReset did.
type ResetStatus string

const (
	ResetStatusPending ResetStatus = "PENDING" // a live request already exists; nothing was sent
	ResetStatusSent    ResetStatus = "SENT"
)

// RegisterInput holds the registration form.
type RegisterInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// AuthService 定义了用户认证服务的接口。
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (token string, user *models.User, err error)
	VerifyEmail(ctx context.Context, userID uint, rawToken string) error
	RequestPasswordReset(ctx context.Context, email string) (ResetStatus, error)
	ResetPassword(ctx context.Context, userID uint, rawToken string) error
	ChangePassword(ctx context.Context, userID uint, newPassword string) error
	Logout(ctx context.Context, claims *auth.Claims) error
	PurgeExpiredRegistrations(ctx context.Context) (int, error)
}

// authService 是 AuthService 的实现。
type authService struct {
	db             *gorm.DB
	userRepo       storage.UserRepository
	friendshipRepo storage.FriendshipRepository
	viewRepo       storage.ProfileViewRepository
	verRepo        storage.VerificationRepository
	resetRepo      storage.PasswordResetRepository
	mail           mailer.Sender
	blacklist      auth.TokenBlacklist
	cfg            config.Config
	log            *logrus.Logger
	now            func() time.Time
}

// NewAuthService 创建一个新的 AuthService 实例。
// 所有仓库都基于同一个 db，验证邮件时的删除与更新在事务内完成。
func NewAuthService(
	db *gorm.DB,
	mail mailer.Sender,
	blacklist auth.TokenBlacklist,
	cfg config.Config,
	log *logrus.Logger,
) AuthService {
	return &authService{
		db:             db,
		userRepo:       storage.NewGormUserRepository(db),
		friendshipRepo: storage.NewGormFriendshipRepository(db),
		viewRepo:       storage.NewGormProfileViewRepository(db),
		verRepo:        storage.NewGormVerificationRepository(db),
		resetRepo:      storage.NewGormPasswordResetRepository(db),
		mail:           mail,
		blacklist:      blacklist,
		cfg:            cfg,
		log:            log,
		now:            time.Now,
	}
}

// Register 创建未验证的用户并发送验证邮件。
// 邮件发送失败时回滚注册，用户可以用同一邮箱重新注册。
func (s *authService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" || in.Email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}

	_, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err == nil {
		return nil, ErrEmailTaken
	} else if !storage.IsNotFound(err) {
		return nil, fmt.Errorf("检查邮箱时出错: %w", err)
	}

	hashedPassword, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("密码哈希失败: %w", err)
	}

	user := &models.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        in.Email,
		PasswordHash: hashedPassword,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}

	if err := s.sendVerification(ctx, user); err != nil {
		s.log.WithError(err).WithField("userID", user.ID).Error("sending verification mail failed, rolling back registration")
		_ = s.verRepo.Delete(ctx, user.ID)
		_ = s.userRepo.Delete(ctx, user.ID)
		return nil, err
	}

	s.log.WithField("userID", user.ID).Info("user registered, verification pending")
	return user, nil
}

func (s *authService) sendVerification(ctx context.Context, user *models.User) error {
	rawToken := auth.NewRawToken(user.ID)
	tokenHash, err := auth.HashPassword(rawToken)
	if err != nil {
		return fmt.Errorf("令牌哈希失败: %w", err)
	}

	now := s.now()
	if err := s.verRepo.Upsert(ctx, &models.EmailVerification{
		UserID:    user.ID,
		TokenHash: tokenHash,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.Auth.VerificationTTL),
	}); err != nil {
		return fmt.Errorf("保存验证令牌失败: %w", err)
	}

	link := fmt.Sprintf("%s/users/verify-email/%d/%s", strings.TrimSuffix(s.cfg.APIServer.PublicURL, "/"), user.ID, rawToken)
	msg, err := mailer.VerificationEmail(user.Email, user.FirstName, link, humanDuration(s.cfg.Auth.VerificationTTL))
	if err != nil {
		return err
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		return fmt.Errorf("发送验证邮件失败: %w", err)
	}
	return nil
}

// Login 验证凭据，密码校验先于验证状态检查。
func (s *authService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return "", nil, ErrMissingCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if storage.IsNotFound(err) {
			return "", nil, ErrUnknownEmail
		}
		return "", nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return "", nil, ErrWrongPassword
	}
	if !user.Verified {
		return "", nil, ErrUnverified
	}

	if err := hydrateUser(ctx, user, s.userRepo, s.friendshipRepo, s.viewRepo); err != nil {
		return "", nil, err
	}
	token, err := auth.GenerateToken(user.ID, user.Email, s.cfg.Auth)
	if err != nil {
		return "", nil, fmt.Errorf("生成令牌失败: %w", err)
	}
	return token, user, nil
}

// VerifyEmail 校验邮件中的令牌。
// 过期时删除验证记录和未验证的用户；令牌不匹配时什么都不删除，用户可以在过期前重试。
func (s *authService) VerifyEmail(ctx context.Context, userID uint, rawToken string) error {
	ver, err := s.verRepo.GetByUserID(ctx, userID)
	if err != nil {
		if storage.IsNotFound(err) {
			return ErrVerificationNotFound
		}
		return fmt.Errorf("查询验证记录失败: %w", err)
	}

	if ver.Expired(s.now()) {
		if err := s.purgeRegistration(ctx, userID); err != nil {
			return err
		}
		s.log.WithField("userID", userID).Info("expired registration purged")
		return ErrVerificationExpired
	}

	if !auth.CheckPasswordHash(rawToken, ver.TokenHash) {
		return ErrVerificationMismatch
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := storage.NewGormUserRepository(tx).UpdateFields(ctx, userID, map[string]interface{}{"verified": true}); err != nil {
			return err
		}
		return storage.NewGormVerificationRepository(tx).Delete(ctx, userID)
	})
	if txErr != nil {
		if storage.IsNotFound(txErr) {
			return ErrVerificationNotFound
		}
		return fmt.Errorf("更新验证状态失败: %w", txErr)
	}
	return nil
}

// purgeRegistration deletes the verification record and, if still unverified, the user.
func (s *authService) purgeRegistration(ctx context.Context, userID uint) error {
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := storage.NewGormVerificationRepository(tx).Delete(ctx, userID); err != nil {
			return err
		}
		user, err := storage.NewGormUserRepository(tx).GetByID(ctx, userID)
		if err != nil {
			if storage.IsNotFound(err) {
				return nil
			}
			return err
		}
		if user.Verified {
			return nil
		}
		return storage.NewGormUserRepository(tx).Delete(ctx, userID)
	})
	if txErr != nil {
		return fmt.Errorf("清理过期注册失败: %w", txErr)
	}
	return nil
}

// PurgeExpiredRegistrations removes every registration whose verification link has expired.
func (s *authService) PurgeExpiredRegistrations(ctx context.Context) (int, error) {
	expired, err := s.verRepo.ListExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("查询过期验证记录失败: %w", err)
	}
	purged := 0
	for _, ver := range expired {
		if err := s.purgeRegistration(ctx, ver.UserID); err != nil {
			return purged, err
		}
		purged++
	}
	if purged > 0 {
		s.log.WithField("count", purged).Info("expired registrations purged")
	}
	return purged, nil
}

// RequestPasswordReset mails a reset link unless a live request already exists.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) (ResetStatus, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return "", ErrMissingFields
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if storage.IsNotFound(err) {
			return "", ErrResetEmailNotFound
		}
		return "", fmt.Errorf("查询用户失败: %w", err)
	}

	now := s.now()
	existing, err := s.resetRepo.GetByUserID(ctx, user.ID)
	switch {
	case err == nil && !existing.Expired(now):
		return ResetStatusPending, nil
	case err != nil && !storage.IsNotFound(err):
		return "", fmt.Errorf("查询重置记录失败: %w", err)
	}

	rawToken := auth.NewRawToken(user.ID)
	tokenHash, err := auth.HashPassword(rawToken)
	if err != nil {
		return "", fmt.Errorf("令牌哈希失败: %w", err)
	}
	// 过期的旧记录在这里被覆盖
	if err := s.resetRepo.Upsert(ctx, &models.PasswordReset{
		UserID:    user.ID,
		Email:     user.Email,
		TokenHash: tokenHash,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.Auth.ResetTTL),
	}); err != nil {
		return "", fmt.Errorf("保存重置令牌失败: %w", err)
	}

	link := fmt.Sprintf("%s/users/reset-password/%d/%s", strings.TrimSuffix(s.cfg.APIServer.PublicURL, "/"), user.ID, rawToken)
	msg, err := mailer.PasswordResetEmail(user.Email, link, humanDuration(s.cfg.Auth.ResetTTL))
	if err != nil {
		return "", err
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		_ = s.resetRepo.Delete(ctx, user.ID)
		return "", fmt.Errorf("发送重置邮件失败: %w", err)
	}
	return ResetStatusSent, nil
}

// ResetPassword only validates the link; ChangePassword performs the change.
func (s *authService) ResetPassword(ctx context.Context, userID uint, rawToken string) error {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if storage.IsNotFound(err) {
			return ErrResetLinkInvalid
		}
		return fmt.Errorf("查询用户失败: %w", err)
	}

	reset, err := s.resetRepo.GetByUserID(ctx, userID)
	if err != nil {
		if storage.IsNotFound(err) {
			return ErrResetLinkInvalid
		}
		return fmt.Errorf("查询重置记录失败: %w", err)
	}
	if reset.Expired(s.now()) {
		return ErrResetExpired
	}
	if !auth.CheckPasswordHash(rawToken, reset.TokenHash) {
		return ErrResetMismatch
	}
	return nil
}

func (s *authService) ChangePassword(ctx context.Context, userID uint, newPassword string) error {
	if newPassword == "" {
		return ErrPasswordRequired
	}
	hashed, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("密码哈希失败: %w", err)
	}
	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{"password_hash": hashed}); err != nil {
		if storage.IsNotFound(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("更新密码失败: %w", err)
	}
	if err := s.resetRepo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("删除重置记录失败: %w", err)
	}
	return nil
}

// Logout revokes the token until its own expiry.
func (s *authService) Logout(ctx context.Context, claims *auth.Claims) error {
	if s.blacklist == nil {
		return nil
	}
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return ErrLogoutWithoutTokenJTI
	}
	if err := s.blacklist.Add(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("注销失败: %w", err)
	}
	return nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		if d == time.Hour {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", d/time.Hour)
	case d >= time.Minute && d%time.Minute == 0:
		if d == time.Minute {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", d/time.Minute)
	default:
		return d.String()
	}
}
