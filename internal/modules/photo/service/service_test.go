package service_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"telros.ru/usersvc/internal/model"
	"telros.ru/usersvc/internal/modules/photo/dto"
	"telros.ru/usersvc/internal/modules/photo/repository"
	"telros.ru/usersvc/internal/modules/photo/service"
	"telros.ru/usersvc/internal/testutil"
	"telros.ru/usersvc/pkg/apperror"
)

const maxSize = 16

func newService(t *testing.T) (service.PhotoService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupDB(t)
	return service.NewPhotoService(repository.NewPhotoRepository(db), maxSize), db
}

func upload(data string, name string) dto.UploadFile {
	return dto.UploadFile{Reader: strings.NewReader(data), FileName: name, ContentType: "image/png"}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestUploadAndGet(t *testing.T) {
	ctx := context.Background()
	svc, db := newService(t)
	_, profile := testutil.CreateUser(t, db, "ivan", "secret1")

	require.NoError(t, svc.Upload(ctx, profile.ID, upload("first", "a.png")))
	require.NoError(t, svc.Upload(ctx, profile.ID, upload("second", "b.png")))

	content, err := svc.Get(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), content.Data)
	assert.Equal(t, "b.png", content.FileName)
	assert.Equal(t, "image/png", content.FileType)

	var photo model.Photo
	require.NoError(t, db.Where("profile_id = ?", profile.ID).First(&photo).Error)
	assert.EqualValues(t, 6, photo.FileSize)
	assert.False(t, photo.UploadDate.IsZero())
	assert.EqualValues(t, 1, testutil.Count(t, db, "user_photos", ""))
}

func TestUpload_Rejected(t *testing.T) {
	ctx := context.Background()
	svc, db := newService(t)
	_, profile := testutil.CreateUser(t, db, "ivan", "secret1")

	tests := []struct {
		name   string
		id     uint
		file   dto.UploadFile
		target error
		status int
	}{
		{"empty file", profile.ID, upload("", "a.png"), apperror.ErrValidation, http.StatusBadRequest},
		{"no reader", profile.ID, dto.UploadFile{}, apperror.ErrValidation, http.StatusBadRequest},
		{"over limit", profile.ID, upload(strings.Repeat("x", maxSize+1), "a.png"), apperror.ErrOversize, http.StatusExpectationFailed},
		{"read failure", profile.ID, dto.UploadFile{Reader: failingReader{}}, apperror.ErrIO, http.StatusBadRequest},
		{"unknown profile", profile.ID + 100, upload("img", "a.png"), apperror.ErrNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Upload(ctx, tt.id, tt.file)
			require.ErrorIs(t, err, tt.target)
			assert.Equal(t, tt.status, apperror.MapErrorToStatus(err))
		})
	}

	assert.Zero(t, testutil.Count(t, db, "user_photos", ""))
}

func TestUpload_MaxBytesReader(t *testing.T) {
	svc, db := newService(t)
	_, profile := testutil.CreateUser(t, db, "ivan", "secret1")

	body := http.MaxBytesReader(httptest.NewRecorder(), io.NopCloser(bytes.NewReader(make([]byte, 64))), 8)
	err := svc.Upload(context.Background(), profile.ID, dto.UploadFile{Reader: body, FileName: "big.png"})
	assert.ErrorIs(t, err, apperror.ErrOversize)
}

func TestUpload_ExactLimit(t *testing.T) {
	svc, db := newService(t)
	_, profile := testutil.CreateUser(t, db, "ivan", "secret1")

	require.NoError(t, svc.Upload(context.Background(), profile.ID, upload(strings.Repeat("x", maxSize), "a.png")))
}

func TestGet_NoPhoto(t *testing.T) {
	ctx := context.Background()
	svc, db := newService(t)
	_, profile := testutil.CreateUser(t, db, "ivan", "secret1")

	_, err := svc.Get(ctx, profile.ID)
	require.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Contains(t, apperror.Message(err), "Фотография")

	_, err = svc.Get(ctx, profile.ID+100)
	require.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Contains(t, apperror.Message(err), "Пользователь")
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc, db := newService(t)
	_, profile := testutil.CreateUser(t, db, "ivan", "secret1")
	require.NoError(t, svc.Upload(ctx, profile.ID, upload("img", "a.png")))

	require.NoError(t, svc.Delete(ctx, profile.ID))
	assert.Zero(t, testutil.Count(t, db, "user_photos", ""))

	// deleting an empty slot succeeds
	require.NoError(t, svc.Delete(ctx, profile.ID))

	assert.ErrorIs(t, svc.Delete(ctx, profile.ID+100), apperror.ErrNotFound)
}
