package storage

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"social-go/internal/models"
)

// VerificationRepository stores pending email verifications, one per user.
type VerificationRepository interface {
	Upsert(ctx context.Context, v *models.EmailVerification) error
	GetByUserID(ctx context.Context, userID uint) (*models.EmailVerification, error)
	Delete(ctx context.Context, userID uint) error
	ListExpired(ctx context.Context, now time.Time) ([]models.EmailVerification, error)
}

type gormVerificationRepository struct {
	db *gorm.DB
}

func NewGormVerificationRepository(db *gorm.DB) VerificationRepository {
	return &gormVerificationRepository{db: db}
}

func (r *gormVerificationRepository) Upsert(ctx context.Context, v *models.EmailVerification) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"token_hash", "created_at", "expires_at"}),
		}).
		Create(v).Error
}

func (r *gormVerificationRepository) GetByUserID(ctx context.Context, userID uint) (*models.EmailVerification, error) {
	var v models.EmailVerification
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *gormVerificationRepository) Delete(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.EmailVerification{}).Error
}

func (r *gormVerificationRepository) ListExpired(ctx context.Context, now time.Time) ([]models.EmailVerification, error) {
	var rows []models.EmailVerification
	err := r.db.WithContext(ctx).Where("expires_at <= ?", now).Find(&rows).Error
	return rows, err
}

// PasswordResetRepository stores outstanding password reset requests, one per user.
type PasswordResetRepository interface {
	Upsert(ctx context.Context, pr *models.PasswordReset) error
	GetByUserID(ctx context.Context, userID uint) (*models.PasswordReset, error)
	GetByEmail(ctx context.Context, email string) (*models.PasswordReset, error)
	Delete(ctx context.Context, userID uint) error
}

type gormPasswordResetRepository struct {
	db *gorm.DB
}

func NewGormPasswordResetRepository(db *gorm.DB) PasswordResetRepository {
	return &gormPasswordResetRepository{db: db}
}

func (r *gormPasswordResetRepository) Upsert(ctx context.Context, pr *models.PasswordReset) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "token_hash", "created_at", "expires_at"}),
		}).
		Create(pr).Error
}

func (r *gormPasswordResetRepository) GetByUserID(ctx context.Context, userID uint) (*models.PasswordReset, error) {
	var pr models.PasswordReset
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&pr).Error; err != nil {
		return nil, err
	}
	return &pr, nil
}

func (r *gormPasswordResetRepository) GetByEmail(ctx context.Context, email string) (*models.PasswordReset, error) {
	var pr models.PasswordReset
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&pr).Error; err != nil {
		return nil, err
	}
	return &pr, nil
}

func (r *gormPasswordResetRepository) Delete(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.PasswordReset{}).Error
}
