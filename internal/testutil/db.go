// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"telros.ru/usersvc/internal/bootstrap"
	"telros.ru/usersvc/internal/model"
	"telros.ru/usersvc/pkg/password"
)

var testDBSeq int64

// Hasher uses the minimum bcrypt cost to keep tests fast.
var Hasher = password.NewHasher(bcrypt.MinCost)

// SetupDB opens a unique in-memory SQLite database with foreign keys on,
// migrates the schema and seeds both roles.
func SetupDB(t *testing.T) *gorm.DB {
	t.Helper()

	seq := atomic.AddInt64(&testDBSeq, 1)
	dsn := fmt.Sprintf("file:usersvc_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", seq)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := bootstrap.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := bootstrap.SeedRoles(gdb); err != nil {
		t.Fatalf("seed roles: %v", err)
	}
	return gdb
}

// CreateUser inserts a user with a profile and returns both.
func CreateUser(t *testing.T, db *gorm.DB, username, plain string, roles ...string) (*model.User, *model.Profile) {
	t.Helper()

	if len(roles) == 0 {
		roles = []string{model.RoleUser}
	}
	var roleRows []model.Role
	if err := db.Where("name IN ?", roles).Find(&roleRows).Error; err != nil {
		t.Fatalf("find roles: %v", err)
	}

	hashed, err := Hasher.Hash(plain)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	user := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hashed,
		Roles:        roleRows,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	profile := &model.Profile{UserID: &user.ID, FirstName: "Имя", LastName: "Фамилия"}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("create profile: %v", err)
	}
	return user, profile
}

func Count(t *testing.T, db *gorm.DB, table string, where string, args ...any) int64 {
	t.Helper()

	var n int64
	q := db.Table(table)
	if where != "" {
		q = q.Where(where, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
