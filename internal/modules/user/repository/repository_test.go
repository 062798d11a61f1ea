package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"telros.ru/usersvc/internal/model"
	"telros.ru/usersvc/internal/modules/user/repository"
	"telros.ru/usersvc/internal/testutil"
)

func TestUserRepository_CreateWithProfile(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupDB(t)
	repo := repository.NewUserRepository(db)

	roles, err := repo.FindRolesByNames(ctx, []string{model.RoleUser})
	require.NoError(t, err)
	require.Len(t, roles, 1)

	user := &model.User{Username: "ivan", Email: "ivan@example.com", PasswordHash: "x", Roles: roles}
	profile := &model.Profile{FirstName: "Иван", LastName: "Иванов"}
	require.NoError(t, repo.Create(ctx, user, profile))

	assert.NotZero(t, user.ID)
	require.NotNil(t, profile.UserID)
	assert.Equal(t, user.ID, *profile.UserID)

	loaded, err := repo.FindByUsername(ctx, "ivan")
	require.NoError(t, err)
	assert.Equal(t, []string{model.RoleUser}, loaded.RoleNames())

	// existing roles are linked, not duplicated
	assert.EqualValues(t, 2, testutil.Count(t, db, "roles", ""))
}

func TestUserRepository_CreateDuplicateRollsBack(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupDB(t)
	repo := repository.NewUserRepository(db)
	testutil.CreateUser(t, db, "ivan", "secret1")

	user := &model.User{Username: "ivan", Email: "other@example.com", PasswordHash: "x"}
	err := repo.Create(ctx, user, &model.Profile{FirstName: "A", LastName: "B"})
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	assert.EqualValues(t, 1, testutil.Count(t, db, "users", ""))
	assert.EqualValues(t, 1, testutil.Count(t, db, "user_details", ""))
}

func TestUserRepository_Exists(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupDB(t)
	repo := repository.NewUserRepository(db)
	testutil.CreateUser(t, db, "ivan", "secret1")

	ok, err := repo.ExistsByUsername(ctx, "ivan")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ExistsByEmail(ctx, "ivan@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ExistsByUsername(ctx, "petr")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserRepository_FindMissing(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(testutil.SetupDB(t))

	_, err := repo.FindByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.FindByID(ctx, 42)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_FindAll(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupDB(t)
	repo := repository.NewUserRepository(db)

	testutil.CreateUser(t, db, "ivan", "secret1")
	_, petrProfile := testutil.CreateUser(t, db, "petr", "secret1", model.RoleAdmin)
	require.NoError(t, db.Create(&model.Photo{Data: []byte{1, 2, 3}, FileSize: 3, ProfileID: petrProfile.ID}).Error)

	users, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	assert.Equal(t, "ivan", users[0].Username)
	require.NotNil(t, users[0].Profile)
	assert.Nil(t, users[0].Profile.Photo)

	assert.Equal(t, []string{model.RoleAdmin}, users[1].RoleNames())
	require.NotNil(t, users[1].Profile)
	require.NotNil(t, users[1].Profile.Photo)
	assert.Empty(t, users[1].Profile.Photo.Data)
}
