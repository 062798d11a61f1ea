package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"telros.ru/usersvc/internal/model"
)

type PhotoRepository interface {
	Transaction(ctx context.Context, fn func(repo PhotoRepository) error) error
	ProfileExists(ctx context.Context, profileID uint) (bool, error)
	FindByProfileID(ctx context.Context, profileID uint) (*model.Photo, error)
	Upsert(ctx context.Context, photo *model.Photo) error
	DeleteByProfileID(ctx context.Context, profileID uint) (int64, error)
}

type photoRepository struct {
	db *gorm.DB
}

func NewPhotoRepository(db *gorm.DB) PhotoRepository {
	return &photoRepository{db: db}
}

func (r *photoRepository) Transaction(ctx context.Context, fn func(repo PhotoRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&photoRepository{db: tx})
	})
}

func (r *photoRepository) ProfileExists(ctx context.Context, profileID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Profile{}).Where("id = ?", profileID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *photoRepository) FindByProfileID(ctx context.Context, profileID uint) (*model.Photo, error) {
	var photo model.Photo
	if err := r.db.WithContext(ctx).Where("profile_id = ?", profileID).First(&photo).Error; err != nil {
		return nil, err
	}
	return &photo, nil
}

// Upsert writes the photo keyed by profile_id: the first upload inserts a
// row, later uploads overwrite the content of that same row.
func (r *photoRepository) Upsert(ctx context.Context, photo *model.Photo) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "profile_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "file_name", "file_type", "file_size", "upload_date"}),
	}).Create(photo).Error
}

func (r *photoRepository) DeleteByProfileID(ctx context.Context, profileID uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("profile_id = ?", profileID).Delete(&model.Photo{})
	return result.RowsAffected, result.Error
}
