package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"telros.ru/usersvc/internal/model"
	"telros.ru/usersvc/internal/modules/photo/dto"
	"telros.ru/usersvc/internal/modules/photo/repository"
	"telros.ru/usersvc/pkg/apperror"
)

const (
	MsgEmptyFile = "Файл не выбран или он пустой"
	MsgOversize  = "Превышен максимальный размер файла!"
)

type PhotoService interface {
	Get(ctx context.Context, profileID uint) (*dto.PhotoContent, error)
	Upload(ctx context.Context, profileID uint, file dto.UploadFile) error
	Delete(ctx context.Context, profileID uint) error
}

type photoService struct {
	repo    repository.PhotoRepository
	maxSize int64
	now     func() time.Time
}

func NewPhotoService(repo repository.PhotoRepository, maxSize int64) PhotoService {
	return &photoService{
		repo:    repo,
		maxSize: maxSize,
		now:     time.Now,
	}
}

func Oversize() error {
	return apperror.New(http.StatusExpectationFailed, MsgOversize, apperror.ErrOversize)
}

func profileNotFound(id uint) error {
	return apperror.NotFound("Пользователь с ID %d не найден", id)
}

func (s *photoService) requireProfile(ctx context.Context, repo repository.PhotoRepository, profileID uint) error {
	exists, err := repo.ProfileExists(ctx, profileID)
	if err != nil {
		return err
	}
	if !exists {
		return profileNotFound(profileID)
	}
	return nil
}

func (s *photoService) Get(ctx context.Context, profileID uint) (*dto.PhotoContent, error) {
	if err := s.requireProfile(ctx, s.repo, profileID); err != nil {
		return nil, err
	}

	photo, err := s.repo.FindByProfileID(ctx, profileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Фотография для пользователя с ID %d не найдена", profileID)
		}
		return nil, err
	}

	return &dto.PhotoContent{
		Data:     photo.Data,
		FileName: photo.FileName,
		FileType: photo.FileType,
	}, nil
}

// Upload stores the file in the profile's photo slot, replacing any previous
// content in place.
func (s *photoService) Upload(ctx context.Context, profileID uint, file dto.UploadFile) error {
	data, err := s.read(file.Reader)
	if err != nil {
		return err
	}

	err = s.repo.Transaction(ctx, func(repo repository.PhotoRepository) error {
		if err := s.requireProfile(ctx, repo, profileID); err != nil {
			return err
		}

		return repo.Upsert(ctx, &model.Photo{
			Data:       data,
			FileName:   file.FileName,
			FileType:   file.ContentType,
			FileSize:   int64(len(data)),
			UploadDate: s.now().UTC(),
			ProfileID:  profileID,
		})
	})
	if err != nil {
		return err
	}

	log.Infof("Фотография для пользователя с ID %d сохранена (%s, %d байт)", profileID, file.FileName, len(data))
	return nil
}

func (s *photoService) read(r io.Reader) ([]byte, error) {
	if r == nil {
		return nil, apperror.Validation(MsgEmptyFile)
	}

	limited := r
	if s.maxSize > 0 {
		limited = io.LimitReader(r, s.maxSize+1)
	}

	data, err := io.ReadAll(limited)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, Oversize()
		}
		return nil, apperror.IO(fmt.Sprintf("Ошибка при загрузке файла: %v", err), err)
	}
	if len(data) == 0 {
		return nil, apperror.Validation(MsgEmptyFile)
	}
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return nil, Oversize()
	}
	return data, nil
}

// Delete empties the photo slot. An already empty slot is not an error.
func (s *photoService) Delete(ctx context.Context, profileID uint) error {
	return s.repo.Transaction(ctx, func(repo repository.PhotoRepository) error {
		if err := s.requireProfile(ctx, repo, profileID); err != nil {
			return err
		}

		deleted, err := repo.DeleteByProfileID(ctx, profileID)
		if err != nil {
			return err
		}
		if deleted == 0 {
			log.Warnf("Фотография для пользователя с ID %d отсутствует, удалять нечего", profileID)
		}
		return nil
	})
}
