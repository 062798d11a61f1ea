package service

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	userRepo "telros.ru/usersvc/internal/modules/user/repository"
	"telros.ru/usersvc/pkg/apperror"
	"telros.ru/usersvc/pkg/cache"
)

// Principal is the authenticated identity attached to a request.
type Principal struct {
	ID           uint     `json:"id"`
	Username     string   `json:"username"`
	Email        string   `json:"email"`
	PasswordHash string   `json:"-"`
	Authorities  []string `json:"authorities"`
}

func (p *Principal) HasAnyRole(roles ...string) bool {
	for _, have := range p.Authorities {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

type PrincipalLoader interface {
	Load(ctx context.Context, username string) (*Principal, error)
}

type principalLoader struct {
	repo userRepo.UserRepository
}

func NewPrincipalLoader(repo userRepo.UserRepository) PrincipalLoader {
	return &principalLoader{repo: repo}
}

func (l *principalLoader) Load(ctx context.Context, username string) (*Principal, error) {
	user, err := l.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Пользователь не найден: %s", username)
		}
		return nil, err
	}

	return &Principal{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Authorities:  user.RoleNames(),
	}, nil
}

// CachingPrincipalLoader reads principals through a cache. Cached entries
// never contain the password hash, so it must not back the Authenticator.
type CachingPrincipalLoader struct {
	next  PrincipalLoader
	cache *cache.Cache
}

func NewCachingPrincipalLoader(next PrincipalLoader, c *cache.Cache) *CachingPrincipalLoader {
	return &CachingPrincipalLoader{next: next, cache: c}
}

func (l *CachingPrincipalLoader) Load(ctx context.Context, username string) (*Principal, error) {
	var cached Principal
	found, err := l.cache.Get(ctx, username, &cached)
	if err != nil {
		log.Warnf("principal cache read failed for %s: %v", username, err)
	}
	if found {
		return &cached, nil
	}

	principal, err := l.next.Load(ctx, username)
	if err != nil {
		return nil, err
	}

	if err := l.cache.Set(ctx, username, principal); err != nil {
		log.Warnf("principal cache write failed for %s: %v", username, err)
	}
	return principal, nil
}

func (l *CachingPrincipalLoader) Evict(ctx context.Context, username string) {
	if err := l.cache.Delete(ctx, username); err != nil {
		log.Warnf("principal cache evict failed for %s: %v", username, err)
	}
}
