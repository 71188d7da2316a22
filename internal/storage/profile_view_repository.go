package storage

import (
	"context"

	"gorm.io/gorm"

	"social-go/internal/models"
)

// ProfileViewRepository stores the append-only profile view log.
type ProfileViewRepository interface {
	Append(ctx context.Context, subjectID, viewerID uint) error
	ListViewerIDs(ctx context.Context, subjectID uint) ([]uint, error)
}

type gormProfileViewRepository struct {
	db *gorm.DB
}

func NewGormProfileViewRepository(db *gorm.DB) ProfileViewRepository {
	return &gormProfileViewRepository{db: db}
}

func (r *gormProfileViewRepository) Append(ctx context.Context, subjectID, viewerID uint) error {
	return r.db.WithContext(ctx).Create(&models.ProfileView{SubjectID: subjectID, ViewerID: viewerID}).Error
}

// ListViewerIDs returns viewer ids in insertion order, duplicates included.
func (r *gormProfileViewRepository) ListViewerIDs(ctx context.Context, subjectID uint) ([]uint, error) {
	ids := []uint{}
	err := r.db.WithContext(ctx).Model(&models.ProfileView{}).
		Where("subject_id = ?", subjectID).
		Order("id").
		Pluck("viewer_id", &ids).Error
	return ids, err
}
