package bootstrap

import (
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"telros.ru/usersvc/internal/model"
)

type AdminAccount struct {
	Username string
	Email    string
	Password string
}

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Role{},
		&model.User{},
		&model.Profile{},
		&model.Photo{},
	)
}

// SeedRoles creates ROLE_USER and ROLE_ADMIN when the roles table is empty.
func SeedRoles(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.Role{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaultRoles := []model.Role{
		{Name: model.RoleUser},
		{Name: model.RoleAdmin},
	}
	for _, role := range defaultRoles {
		if err := db.Create(&role).Error; err != nil {
			return err
		}
	}

	log.Println("✅ Roles seeded successfully")
	return nil
}

// SeedAdminUser creates the bootstrap administrator together with its
// profile unless a user with that username already exists.
func SeedAdminUser(db *gorm.DB, hasher PasswordHasher, admin AdminAccount) error {
	var count int64
	if err := db.Model(&model.User{}).
		Where("username = ?", admin.Username).
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Debugf("Admin user %s already exists, skipping seed", admin.Username)
		return nil
	}

	var adminRole model.Role
	if err := db.Where("name = ?", model.RoleAdmin).First(&adminRole).Error; err != nil {
		return err
	}

	hashed, err := hasher.Hash(admin.Password)
	if err != nil {
		return err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		adminUser := model.User{
			Username:     admin.Username,
			Email:        admin.Email,
			PasswordHash: hashed,
			Roles:        []model.Role{adminRole},
		}
		if err := tx.Create(&adminUser).Error; err != nil {
			return err
		}

		adminProfile := model.Profile{
			UserID:    &adminUser.ID,
			FirstName: "Админ",
			LastName:  "Админ",
		}
		return tx.Create(&adminProfile).Error
	})
	if err != nil {
		return err
	}

	log.Println("✅ Admin user seeded successfully")
	log.Printf("   Username: %s", admin.Username)
	return nil
}

// Run migrates the schema and seeds roles and the admin account.
func Run(db *gorm.DB, hasher PasswordHasher, admin AdminAccount) error {
	if err := Migrate(db); err != nil {
		return err
	}
	if err := SeedRoles(db); err != nil {
		return err
	}
	return SeedAdminUser(db, hasher, admin)
}
