package service

import (
	"context"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"telros.ru/usersvc/internal/model"
	"telros.ru/usersvc/internal/modules/auth/dto"
	userRepo "telros.ru/usersvc/internal/modules/user/repository"
	"telros.ru/usersvc/pkg/apperror"
	"telros.ru/usersvc/pkg/password"
)

const (
	MsgUsernameTaken = "Ошибка: Имя пользователя уже занято!"
	MsgEmailTaken    = "Ошибка: Email уже используется!"
	MsgBadCreds      = "Неверное имя пользователя или пароль"
	MsgPasswordLong  = "Ошибка валидации: пароль слишком длинный"
)

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, stored string) bool
}

type TokenIssuer interface {
	Issue(username string) (string, error)
}

// ProfileIndexer is notified about profiles created during registration.
type ProfileIndexer interface {
	IndexProfile(ctx context.Context, profile *model.Profile, email string)
}

type AuthService interface {
	SignIn(ctx context.Context, input dto.SigninRequest) (*dto.JwtResponse, error)
	Register(ctx context.Context, input dto.SignupRequest) error
}

type authService struct {
	repo    userRepo.UserRepository
	loader  PrincipalLoader
	hasher  PasswordHasher
	tokens  TokenIssuer
	indexer ProfileIndexer
}

func NewAuthService(repo userRepo.UserRepository, loader PrincipalLoader, hasher PasswordHasher, tokens TokenIssuer, indexer ProfileIndexer) AuthService {
	return &authService{
		repo:    repo,
		loader:  loader,
		hasher:  hasher,
		tokens:  tokens,
		indexer: indexer,
	}
}

func badCredentials() error {
	return apperror.New(http.StatusUnauthorized, MsgBadCreds, apperror.ErrBadCredentials)
}

func (s *authService) SignIn(ctx context.Context, input dto.SigninRequest) (*dto.JwtResponse, error) {
	principal, err := s.loader.Load(ctx, input.Username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, badCredentials()
		}
		return nil, err
	}

	if !s.hasher.Verify(input.Password, principal.PasswordHash) {
		return nil, badCredentials()
	}

	token, err := s.tokens.Issue(principal.Username)
	if err != nil {
		return nil, err
	}

	log.Infof("Пользователь %s успешно аутентифицирован", principal.Username)
	return &dto.JwtResponse{
		Token:    token,
		Type:     "Bearer",
		ID:       principal.ID,
		Username: principal.Username,
		Email:    principal.Email,
		Roles:    principal.Authorities,
	}, nil
}

func (s *authService) Register(ctx context.Context, input dto.SignupRequest) error {
	taken, err := s.repo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return err
	}
	if taken {
		log.Warnf("Регистрация не удалась: имя пользователя %s уже занято", input.Username)
		return apperror.Validation(MsgUsernameTaken)
	}

	taken, err = s.repo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return err
	}
	if taken {
		log.Warnf("Регистрация не удалась: email %s уже используется", input.Email)
		return apperror.Validation(MsgEmailTaken)
	}

	roles, err := s.resolveRoles(ctx, input.Role)
	if err != nil {
		return err
	}

	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			return apperror.Validation(MsgPasswordLong)
		}
		return err
	}

	user := &model.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hashed,
		Roles:        roles,
	}
	profile := &model.Profile{
		FirstName: input.FirstName,
		LastName:  input.LastName,
	}

	if err := s.repo.Create(ctx, user, profile); err != nil {
		// lost a race against a concurrent signup
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.raceConflict(ctx, input.Email)
		}
		return err
	}

	if s.indexer != nil {
		s.indexer.IndexProfile(ctx, profile, user.Email)
	}

	log.Infof("Пользователь %s успешно зарегистрирован", user.Username)
	return nil
}

// raceConflict names the column a concurrent signup claimed between the
// availability checks and the insert.
func (s *authService) raceConflict(ctx context.Context, email string) error {
	if taken, err := s.repo.ExistsByEmail(ctx, email); err == nil && taken {
		return apperror.Conflict(MsgEmailTaken)
	}
	return apperror.Conflict(MsgUsernameTaken)
}

// resolveRoles maps requested role strings to stored roles: "admin" is
// ROLE_ADMIN, anything else ROLE_USER, no request means ROLE_USER.
func (s *authService) resolveRoles(ctx context.Context, requested []string) ([]model.Role, error) {
	names := map[string]struct{}{}
	for _, r := range requested {
		names[roleFor(r)] = struct{}{}
	}
	if len(names) == 0 {
		names[model.RoleUser] = struct{}{}
	}

	wanted := make([]string, 0, len(names))
	for name := range names {
		wanted = append(wanted, name)
	}

	roles, err := s.repo.FindRolesByNames(ctx, wanted)
	if err != nil {
		return nil, err
	}
	if len(roles) != len(wanted) {
		log.Errorf("Роли %v не найдены в базе данных", wanted)
		return nil, errors.New("ошибка: роль не найдена")
	}
	return roles, nil
}

func roleFor(requested string) string {
	if requested == "admin" {
		return model.RoleAdmin
	}
	return model.RoleUser
}
