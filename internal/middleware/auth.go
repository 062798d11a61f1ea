package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	auth "telros.ru/usersvc/internal/modules/auth/service"
	"telros.ru/usersvc/pkg/response"
)

const (
	principalKey = "principal"

	msgUnauthenticated = "Требуется аутентификация"
	msgForbidden       = "Доступ запрещен"
)

type TokenValidator interface {
	Validate(token string) (string, error)
}

type AuthMiddleware struct {
	tokens TokenValidator
	loader auth.PrincipalLoader
}

func NewAuthMiddleware(tokens TokenValidator, loader auth.PrincipalLoader) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
		loader: loader,
	}
}

// Authenticate resolves a bearer token into a principal and stores it on the
// context. It never rejects: routes decide through RequireRoles.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, done := c.Get(principalKey); done {
			c.Next()
			return
		}

		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}

		logger := log.WithField("request_id", c.GetString(RequestIDKey))

		username, err := m.tokens.Validate(tokenString)
		if err != nil {
			logger.Errorf("Недействительный JWT токен: %v", err)
			c.Next()
			return
		}

		principal, err := m.loader.Load(c.Request.Context(), username)
		if err != nil {
			logger.Errorf("Не удалось установить аутентификацию пользователя %s: %v", username, err)
			c.Next()
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	return header[len(prefix):], true
}

// RequireRoles admits requests whose principal holds at least one of roles.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := CurrentPrincipal(c)
		if !ok {
			response.Abort(c, http.StatusUnauthorized, msgUnauthenticated)
			return
		}

		if !principal.HasAnyRole(roles...) {
			log.WithField("request_id", c.GetString(RequestIDKey)).
				Warnf("Доступ запрещен для %s к %s %s", principal.Username, c.Request.Method, c.FullPath())
			response.Abort(c, http.StatusForbidden, msgForbidden)
			return
		}

		c.Next()
	}
}

func CurrentPrincipal(c *gin.Context) (*auth.Principal, bool) {
	value, exists := c.Get(principalKey)
	if !exists {
		return nil, false
	}
	principal, ok := value.(*auth.Principal)
	return principal, ok
}
