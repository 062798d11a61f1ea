package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"telros.ru/usersvc/internal/modules/auth/dto"
	auth "telros.ru/usersvc/internal/modules/auth/service"
	"telros.ru/usersvc/pkg/response"
)

const msgSignedUp = "Пользователь успешно зарегистрирован!"

type AuthHandler struct {
	authService auth.AuthService
}

func NewAuthHandler(authService auth.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// SignIn godoc
// @Summary      Аутентификация пользователя
// @Tags         Аутентификация
// @Accept       json
// @Produce      json
// @Param        request body dto.SigninRequest true "Учетные данные"
// @Success      200 {object} dto.JwtResponse
// @Failure      401 {object} response.Message
// @Router       /api/auth/signin [post]
func (h *AuthHandler) SignIn(c *gin.Context) {
	var input dto.SigninRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.authService.SignIn(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// SignUp godoc
// @Summary      Регистрация пользователя
// @Tags         Аутентификация
// @Accept       json
// @Produce      json
// @Param        request body dto.SignupRequest true "Данные для регистрации"
// @Success      200 {object} response.Message
// @Failure      400 {object} response.Message
// @Failure      409 {object} response.Message
// @Router       /api/auth/signup [post]
func (h *AuthHandler) SignUp(c *gin.Context) {
	var input dto.SignupRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	if err := h.authService.Register(c.Request.Context(), input); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, msgSignedUp)
}
