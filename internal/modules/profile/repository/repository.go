package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"telros.ru/usersvc/internal/model"
)

type ProfileRepository interface {
	// Transaction runs fn against a repository bound to a single transaction.
	Transaction(ctx context.Context, fn func(repo ProfileRepository) error) error

	FindByID(ctx context.Context, id uint) (*model.Profile, error)
	FindByUserID(ctx context.Context, userID uint) (*model.Profile, error)
	FindByIDs(ctx context.Context, ids []uint) ([]*model.Profile, error)
	FindUserByID(ctx context.Context, userID uint) (*model.User, error)
	FindUserByUsername(ctx context.Context, username string) (*model.User, error)
	EmailsByUserIDs(ctx context.Context, userIDs []uint) (map[uint]string, error)
	Save(ctx context.Context, profile *model.Profile) error
	DeleteAggregate(ctx context.Context, profile *model.Profile) error
	Search(ctx context.Context, query string, limit int) ([]*model.Profile, error)
}

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Transaction(ctx context.Context, fn func(repo ProfileRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&profileRepository{db: tx})
	})
}

func withPhotoFlag(db *gorm.DB) *gorm.DB {
	return db.Preload("Photo", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "profile_id")
	})
}

func (r *profileRepository) FindByID(ctx context.Context, id uint) (*model.Profile, error) {
	var profile model.Profile
	if err := withPhotoFlag(r.db.WithContext(ctx)).First(&profile, id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) FindByUserID(ctx context.Context, userID uint) (*model.Profile, error) {
	var profile model.Profile
	if err := withPhotoFlag(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) FindByIDs(ctx context.Context, ids []uint) ([]*model.Profile, error) {
	var profiles []*model.Profile
	if len(ids) == 0 {
		return profiles, nil
	}
	if err := withPhotoFlag(r.db.WithContext(ctx)).
		Where("id IN ?", ids).
		Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *profileRepository) FindUserByID(ctx context.Context, userID uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).
		Select("id", "username", "email").
		First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *profileRepository) FindUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).
		Select("id", "username", "email").
		Where("username = ?", username).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *profileRepository) EmailsByUserIDs(ctx context.Context, userIDs []uint) (map[uint]string, error) {
	emails := make(map[uint]string, len(userIDs))
	if len(userIDs) == 0 {
		return emails, nil
	}

	var users []model.User
	if err := r.db.WithContext(ctx).
		Select("id", "email").
		Where("id IN ?", userIDs).
		Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		emails[u.ID] = u.Email
	}
	return emails, nil
}

// Save inserts or updates the profile columns. The photo slot is untouched.
// A new profile whose user already got one from a concurrent save overwrites
// that row, and profile is reloaded from it.
func (r *profileRepository) Save(ctx context.Context, profile *model.Profile) error {
	db := r.db.WithContext(ctx)
	if profile.ID != 0 || profile.UserID == nil {
		return db.Omit("Photo").Save(profile).Error
	}

	if err := db.Omit("Photo").Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(profile).Error; err != nil {
		return err
	}

	var stored model.Profile
	if err := withPhotoFlag(db).Where("user_id = ?", *profile.UserID).First(&stored).Error; err != nil {
		return err
	}
	*profile = stored
	return nil
}

// DeleteAggregate removes the profile, its photo and, when linked, the owning
// user with its role links. Children go first so the result does not depend
// on the engine enforcing ON DELETE CASCADE.
func (r *profileRepository) DeleteAggregate(ctx context.Context, profile *model.Profile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("profile_id = ?", profile.ID).Delete(&model.Photo{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.Profile{}, profile.ID).Error; err != nil {
			return err
		}
		if profile.UserID == nil {
			return nil
		}

		user := &model.User{ID: *profile.UserID}
		if err := tx.Model(user).Association("Roles").Clear(); err != nil {
			return err
		}
		return tx.Delete(user).Error
	})
}

// Search matches names, phone and the owner's email, case-insensitively.
func (r *profileRepository) Search(ctx context.Context, query string, limit int) ([]*model.Profile, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"

	var profiles []*model.Profile
	err := withPhotoFlag(r.db.WithContext(ctx)).
		Select("user_details.*").
		Joins("LEFT JOIN users ON users.id = user_details.user_id").
		Where(`LOWER(user_details.last_name) LIKE ? ESCAPE '!'
			OR LOWER(user_details.first_name) LIKE ? ESCAPE '!'
			OR LOWER(COALESCE(user_details.middle_name, '')) LIKE ? ESCAPE '!'
			OR LOWER(COALESCE(user_details.phone_number, '')) LIKE ? ESCAPE '!'
			OR LOWER(users.email) LIKE ? ESCAPE '!'`,
			pattern, pattern, pattern, pattern, pattern).
		Order("user_details.id").
		Limit(limit).
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
