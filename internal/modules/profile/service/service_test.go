package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"telros.ru/usersvc/internal/model"
	"telros.ru/usersvc/internal/modules/profile/dto"
	"telros.ru/usersvc/internal/modules/profile/repository"
	"telros.ru/usersvc/internal/modules/profile/service"
	userRepo "telros.ru/usersvc/internal/modules/user/repository"
	"telros.ru/usersvc/internal/testutil"
	"telros.ru/usersvc/pkg/apperror"
)

type fakeIndex struct {
	enabled bool
	ids     []uint
	err     error

	indexed []uint
	deleted []uint
}

func (f *fakeIndex) Enabled() bool { return f.enabled }

func (f *fakeIndex) IndexProfile(_ context.Context, p *model.Profile, _ string) {
	f.indexed = append(f.indexed, p.ID)
}

func (f *fakeIndex) DeleteProfile(_ context.Context, id uint) {
	f.deleted = append(f.deleted, id)
}

func (f *fakeIndex) SearchProfileIDs(context.Context, string, int) ([]uint, error) {
	return f.ids, f.err
}

type fakeEvicter struct {
	evicted []string
}

func (f *fakeEvicter) Evict(_ context.Context, username string) {
	f.evicted = append(f.evicted, username)
}

type fixture struct {
	db      *gorm.DB
	svc     service.ProfileService
	index   *fakeIndex
	evicter *fakeEvicter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupDB(t)
	index := &fakeIndex{}
	evicter := &fakeEvicter{}
	return &fixture{
		db:      db,
		svc:     service.NewProfileService(repository.NewProfileRepository(db), userRepo.NewUserRepository(db), index, evicter),
		index:   index,
		evicter: evicter,
	}
}

func strPtr(s string) *string { return &s }

func TestGetByID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, profile := testutil.CreateUser(t, f.db, "ivan", "secret1")

	res, err := f.svc.GetByID(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, res.ID)
	assert.Equal(t, "ivan@example.com", res.Email)
	assert.False(t, res.HasPhoto)
	assert.Nil(t, res.PhotoURL)

	require.NoError(t, f.db.Create(&model.Photo{Data: []byte("x"), FileSize: 1, ProfileID: profile.ID}).Error)
	res, err = f.svc.GetByID(ctx, profile.ID)
	require.NoError(t, err)
	assert.True(t, res.HasPhoto)
	require.NotNil(t, res.PhotoURL)
	assert.Equal(t, dto.PhotoURL(profile.ID), *res.PhotoURL)

	_, err = f.svc.GetByID(ctx, 999)
	require.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, "Пользователь с ID 999 не найден", apperror.Message(err))
}

func TestGetByUsername_NoProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user, profile := testutil.CreateUser(t, f.db, "ivan", "secret1")
	require.NoError(t, f.db.Delete(&model.Profile{}, profile.ID).Error)

	_, err := f.svc.GetByUsername(ctx, user.Username)
	require.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, "Детальная информация не найдена для пользователя: ivan", apperror.Message(err))
}

func TestCreateOrUpdateByUsername(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user, profile := testutil.CreateUser(t, f.db, "ivan", "secret1")
	require.NoError(t, f.db.Delete(&model.Profile{}, profile.ID).Error)

	birth := model.NewDate(1995, 5, 15)
	input := dto.ProfileRequest{
		LastName:    "  Иванов ",
		FirstName:   "Иван\t",
		MiddleName:  strPtr("Иванович"),
		BirthDate:   &birth,
		PhoneNumber: strPtr("+7 (999) 987-65-43"),
	}

	created, err := f.svc.CreateOrUpdateByUsername(ctx, "ivan", input)
	require.NoError(t, err)
	assert.Equal(t, "Иванов", created.LastName)
	assert.Equal(t, "Иван", created.FirstName)
	assert.Equal(t, "ivan@example.com", created.Email)
	assert.Equal(t, "1995-05-15", created.BirthDate.String())

	again, err := f.svc.CreateOrUpdateByUsername(ctx, "ivan", input)
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.EqualValues(t, 1, testutil.Count(t, f.db, "user_details", "user_id = ?", user.ID))
	assert.Equal(t, []uint{created.ID, created.ID}, f.index.indexed)

	input.MiddleName = nil
	updated, err := f.svc.CreateOrUpdateByUsername(ctx, "ivan", input)
	require.NoError(t, err)
	assert.Nil(t, updated.MiddleName)
}

func TestCreateOrUpdateByUsername_BlankNames(t *testing.T) {
	f := newFixture(t)
	testutil.CreateUser(t, f.db, "ivan", "secret1")

	_, err := f.svc.CreateOrUpdateByUsername(context.Background(), "ivan", dto.ProfileRequest{
		LastName:  " \n ",
		FirstName: "Иван",
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestCreateOrUpdateByUsername_KeepsTextAsSent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user, _ := testutil.CreateUser(t, f.db, "ivan", "secret1")

	for _, lastName := range []string{"a<b", "Smith <Jr>", "<b>Иванов</b>", "O&apos;Neil"} {
		t.Run(lastName, func(t *testing.T) {
			res, err := f.svc.CreateOrUpdateByUsername(ctx, "ivan", dto.ProfileRequest{
				LastName:   lastName,
				FirstName:  "Иван",
				MiddleName: strPtr("<i>"),
			})
			require.NoError(t, err)
			assert.Equal(t, lastName, res.LastName)
			require.NotNil(t, res.MiddleName)
			assert.Equal(t, "<i>", *res.MiddleName)

			var stored model.Profile
			require.NoError(t, f.db.Where("user_id = ?", user.ID).First(&stored).Error)
			assert.Equal(t, lastName, stored.LastName)
		})
	}
}

func TestUpdateByID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, profile := testutil.CreateUser(t, f.db, "ivan", "secret1")

	res, err := f.svc.UpdateByID(ctx, profile.ID, dto.ProfileRequest{LastName: "Петров", FirstName: "Пётр"})
	require.NoError(t, err)
	assert.Equal(t, "Петров", res.LastName)
	assert.Equal(t, "ivan@example.com", res.Email)

	var stored model.Profile
	require.NoError(t, f.db.First(&stored, profile.ID).Error)
	assert.Equal(t, "Пётр", stored.FirstName)

	_, err = f.svc.UpdateByID(ctx, 999, dto.ProfileRequest{LastName: "A", FirstName: "B"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUpdateByID_Unowned(t *testing.T) {
	f := newFixture(t)
	orphan := &model.Profile{FirstName: "Имя", LastName: "Фамилия"}
	require.NoError(t, f.db.Create(orphan).Error)

	_, err := f.svc.UpdateByID(context.Background(), orphan.ID, dto.ProfileRequest{LastName: "A", FirstName: "B"})
	require.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Contains(t, apperror.Message(err), "не найдена основная информация")
}

func TestDeleteByID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user, profile := testutil.CreateUser(t, f.db, "ivan", "secret1")
	require.NoError(t, f.db.Create(&model.Photo{Data: []byte("x"), FileSize: 1, ProfileID: profile.ID}).Error)

	require.NoError(t, f.svc.DeleteByID(ctx, profile.ID))

	assert.Zero(t, testutil.Count(t, f.db, "users", "id = ?", user.ID))
	assert.Zero(t, testutil.Count(t, f.db, "user_details", ""))
	assert.Zero(t, testutil.Count(t, f.db, "user_photos", ""))
	assert.Equal(t, []string{"ivan"}, f.evicter.evicted)
	assert.Equal(t, []uint{profile.ID}, f.index.deleted)

	err := f.svc.DeleteByID(ctx, profile.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListUsers(t *testing.T) {
	f := newFixture(t)
	testutil.CreateUser(t, f.db, "ivan", "secret1")
	testutil.CreateUser(t, f.db, "petr", "secret1", model.RoleAdmin)

	users, err := f.svc.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "ivan", users[0].Username)
	require.NotNil(t, users[1].UserDetails)
	assert.Equal(t, "petr@example.com", users[1].UserDetails.Email)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("blank query", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Search(ctx, "   ")
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})

	t.Run("database", func(t *testing.T) {
		f := newFixture(t)
		_, profile := testutil.CreateUser(t, f.db, "ivan", "secret1")
		testutil.CreateUser(t, f.db, "petr", "secret1")

		res, err := f.svc.Search(ctx, "IVAN@")
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, profile.ID, res[0].ID)
		assert.Equal(t, "ivan@example.com", res[0].Email)
	})

	t.Run("index keeps relevance order", func(t *testing.T) {
		f := newFixture(t)
		_, ivan := testutil.CreateUser(t, f.db, "ivan", "secret1")
		_, petr := testutil.CreateUser(t, f.db, "petr", "secret1")
		f.index.enabled = true
		f.index.ids = []uint{petr.ID, 999, ivan.ID}

		res, err := f.svc.Search(ctx, "anything")
		require.NoError(t, err)
		require.Len(t, res, 2)
		assert.Equal(t, petr.ID, res[0].ID)
		assert.Equal(t, ivan.ID, res[1].ID)
	})

	t.Run("index failure falls back to database", func(t *testing.T) {
		f := newFixture(t)
		_, ivan := testutil.CreateUser(t, f.db, "ivan", "secret1")
		f.index.enabled = true
		f.index.err = errors.New("connection refused")

		res, err := f.svc.Search(ctx, "ivan")
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, ivan.ID, res[0].ID)
	})
}
