package service

import (
	"context"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"telros.ru/usersvc/internal/model"
	"telros.ru/usersvc/internal/modules/profile/dto"
	"telros.ru/usersvc/internal/modules/profile/repository"
	search "telros.ru/usersvc/internal/modules/search/service"
	userRepo "telros.ru/usersvc/internal/modules/user/repository"
	"telros.ru/usersvc/pkg/apperror"
)

const defaultSearchLimit = 50

// PrincipalEvicter forgets cached identities of deleted users.
type PrincipalEvicter interface {
	Evict(ctx context.Context, username string)
}

type ProfileService interface {
	GetByID(ctx context.Context, id uint) (*dto.ProfileResponse, error)
	GetByUsername(ctx context.Context, username string) (*dto.ProfileResponse, error)
	CreateOrUpdateByUsername(ctx context.Context, username string, input dto.ProfileRequest) (*dto.ProfileResponse, error)
	UpdateByID(ctx context.Context, id uint, input dto.ProfileRequest) (*dto.ProfileResponse, error)
	DeleteByID(ctx context.Context, id uint) error
	ListUsers(ctx context.Context) ([]dto.UserResponse, error)
	Search(ctx context.Context, query string) ([]*dto.ProfileResponse, error)
}

type profileService struct {
	repo    repository.ProfileRepository
	users   userRepo.UserRepository
	index   search.ProfileIndex
	evicter PrincipalEvicter
}

func NewProfileService(repo repository.ProfileRepository, users userRepo.UserRepository, index search.ProfileIndex, evicter PrincipalEvicter) ProfileService {
	if index == nil {
		index = search.NewNoopProfileIndex()
	}
	return &profileService{
		repo:    repo,
		users:   users,
		index:   index,
		evicter: evicter,
	}
}

func profileNotFound(id uint) error {
	return apperror.NotFound("Пользователь с ID %d не найден", id)
}

func (s *profileService) GetByID(ctx context.Context, id uint) (*dto.ProfileResponse, error) {
	profile, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, profileNotFound(id)
		}
		return nil, err
	}

	return s.toResponse(ctx, s.repo, profile)
}

func (s *profileService) GetByUsername(ctx context.Context, username string) (*dto.ProfileResponse, error) {
	user, err := s.repo.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Пользователь не найден: %s", username)
		}
		return nil, err
	}

	profile, err := s.repo.FindByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Детальная информация не найдена для пользователя: %s", username)
		}
		return nil, err
	}

	return dto.NewProfileResponse(profile, user.Email), nil
}

func (s *profileService) CreateOrUpdateByUsername(ctx context.Context, username string, input dto.ProfileRequest) (*dto.ProfileResponse, error) {
	if err := normalize(&input); err != nil {
		return nil, err
	}

	var (
		profile *model.Profile
		email   string
	)
	err := s.repo.Transaction(ctx, func(repo repository.ProfileRepository) error {
		user, err := repo.FindUserByUsername(ctx, username)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("Пользователь не найден: %s", username)
			}
			return err
		}
		email = user.Email

		profile, err = repo.FindByUserID(ctx, user.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Infof("Создание детальной информации для пользователя %s", username)
			profile = &model.Profile{UserID: &user.ID}
		} else if err != nil {
			return err
		}

		applyRequest(profile, input)
		return repo.Save(ctx, profile)
	})
	if err != nil {
		return nil, err
	}

	s.index.IndexProfile(ctx, profile, email)
	return dto.NewProfileResponse(profile, email), nil
}

func (s *profileService) UpdateByID(ctx context.Context, id uint, input dto.ProfileRequest) (*dto.ProfileResponse, error) {
	if err := normalize(&input); err != nil {
		return nil, err
	}

	var res *dto.ProfileResponse
	var profile *model.Profile
	err := s.repo.Transaction(ctx, func(repo repository.ProfileRepository) error {
		var err error
		profile, err = repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return profileNotFound(id)
			}
			return err
		}
		if profile.UserID == nil {
			return apperror.NotFound("Для пользователя с ID %d не найдена основная информация", id)
		}

		applyRequest(profile, input)
		if err := repo.Save(ctx, profile); err != nil {
			return err
		}

		res, err = s.toResponse(ctx, repo, profile)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.index.IndexProfile(ctx, profile, res.Email)
	return res, nil
}

// DeleteByID removes the profile together with its photo and owning user.
func (s *profileService) DeleteByID(ctx context.Context, id uint) error {
	var username string
	err := s.repo.Transaction(ctx, func(repo repository.ProfileRepository) error {
		profile, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return profileNotFound(id)
			}
			return err
		}

		if profile.UserID != nil {
			user, err := repo.FindUserByID(ctx, *profile.UserID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if user != nil {
				username = user.Username
			}
		}

		return repo.DeleteAggregate(ctx, profile)
	})
	if err != nil {
		return err
	}

	s.index.DeleteProfile(ctx, id)
	if username != "" && s.evicter != nil {
		s.evicter.Evict(ctx, username)
	}
	log.Infof("Пользователь с ID %d удален", id)
	return nil
}

func (s *profileService) ListUsers(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		res = append(res, dto.NewUserResponse(u))
	}
	return res, nil
}

// Search looks profiles up in the search index when one is configured and
// in the database otherwise.
func (s *profileService) Search(ctx context.Context, query string) ([]*dto.ProfileResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperror.Validation("Параметр поиска q не должен быть пустым")
	}

	var (
		profiles []*model.Profile
		err      error
	)
	if s.index.Enabled() {
		profiles, err = s.searchIndex(ctx, query)
	} else {
		profiles, err = s.repo.Search(ctx, query, defaultSearchLimit)
	}
	if err != nil {
		return nil, err
	}

	return s.toResponses(ctx, profiles)
}

func (s *profileService) searchIndex(ctx context.Context, query string) ([]*model.Profile, error) {
	ids, err := s.index.SearchProfileIDs(ctx, query, defaultSearchLimit)
	if err != nil {
		log.Errorf("Поиск в индексе не удался, используется база данных: %v", err)
		return s.repo.Search(ctx, query, defaultSearchLimit)
	}

	found, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]*model.Profile, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	// keep relevance order, skip ids the index still has but the store does not
	profiles := make([]*model.Profile, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			profiles = append(profiles, p)
		}
	}
	return profiles, nil
}

func (s *profileService) toResponse(ctx context.Context, repo repository.ProfileRepository, profile *model.Profile) (*dto.ProfileResponse, error) {
	var email string
	if profile.UserID != nil {
		user, err := repo.FindUserByID(ctx, *profile.UserID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if user != nil {
			email = user.Email
		}
	}
	return dto.NewProfileResponse(profile, email), nil
}

func (s *profileService) toResponses(ctx context.Context, profiles []*model.Profile) ([]*dto.ProfileResponse, error) {
	userIDs := make([]uint, 0, len(profiles))
	for _, p := range profiles {
		if p.UserID != nil {
			userIDs = append(userIDs, *p.UserID)
		}
	}

	emails, err := s.repo.EmailsByUserIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ProfileResponse, 0, len(profiles))
	for _, p := range profiles {
		var email string
		if p.UserID != nil {
			email = emails[*p.UserID]
		}
		res = append(res, dto.NewProfileResponse(p, email))
	}
	return res, nil
}

// normalize trims surrounding blanks. Blank optional attributes are cleared.
func normalize(input *dto.ProfileRequest) error {
	input.LastName = strings.TrimSpace(input.LastName)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.MiddleName = trimOptional(input.MiddleName)
	input.PhoneNumber = trimOptional(input.PhoneNumber)

	if input.LastName == "" || input.FirstName == "" {
		return apperror.Validation("Ошибка валидации: имя и фамилия не должны быть пустыми")
	}
	return nil
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func applyRequest(profile *model.Profile, input dto.ProfileRequest) {
	profile.LastName = input.LastName
	profile.FirstName = input.FirstName
	profile.MiddleName = input.MiddleName
	profile.BirthDate = input.BirthDate
	profile.PhoneNumber = input.PhoneNumber
}
