package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"telros.ru/usersvc/internal/middleware"
	"telros.ru/usersvc/internal/modules/profile/dto"
	profile "telros.ru/usersvc/internal/modules/profile/service"
	"telros.ru/usersvc/pkg/apperror"
	"telros.ru/usersvc/pkg/response"
)

const msgUserDeleted = "Пользователь успешно удален"

type ProfileHandler struct {
	profileService profile.ProfileService
}

func NewProfileHandler(profileService profile.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
	}
}

// ParseID reads a positive numeric path parameter.
func ParseID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Validation("Некорректный идентификатор: " + c.Param(name))
	}
	return uint(id), nil
}

// ListUsers godoc
// @Summary      Список пользователей
// @Tags         Пользователи
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.UserResponse
// @Failure      401 {object} response.Message
// @Failure      403 {object} response.Message
// @Router       /api/users [get]
func (h *ProfileHandler) ListUsers(c *gin.Context) {
	users, err := h.profileService.ListUsers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

// Search godoc
// @Summary      Поиск профилей
// @Tags         Пользователи
// @Produce      json
// @Security     BearerAuth
// @Param        q query string true "Строка поиска"
// @Success      200 {array} dto.ProfileResponse
// @Failure      400 {object} response.Message
// @Router       /api/users/search [get]
func (h *ProfileHandler) Search(c *gin.Context) {
	profiles, err := h.profileService.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, profiles)
}

// GetByID godoc
// @Summary      Профиль по ID
// @Tags         Пользователи
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "ID профиля"
// @Success      200 {object} dto.ProfileResponse
// @Failure      404 {object} response.Message
// @Router       /api/users/{id} [get]
func (h *ProfileHandler) GetByID(c *gin.Context) {
	id, err := ParseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.profileService.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// Update godoc
// @Summary      Обновление профиля
// @Tags         Пользователи
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "ID профиля"
// @Param        request body dto.ProfileRequest true "Данные профиля"
// @Success      200 {object} dto.ProfileResponse
// @Failure      400 {object} response.Message
// @Failure      404 {object} response.Message
// @Router       /api/users/{id} [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	id, err := ParseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var input dto.ProfileRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.profileService.UpdateByID(c.Request.Context(), id, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// Delete godoc
// @Summary      Удаление пользователя
// @Tags         Пользователи
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "ID профиля"
// @Success      200 {object} response.Message
// @Failure      404 {object} response.Message
// @Router       /api/users/{id} [delete]
func (h *ProfileHandler) Delete(c *gin.Context) {
	id, err := ParseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.profileService.DeleteByID(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, msgUserDeleted)
}

// GetCurrent godoc
// @Summary      Профиль текущего пользователя
// @Tags         Пользователи
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.ProfileResponse
// @Failure      404 {object} response.Message
// @Router       /api/users/me [get]
func (h *ProfileHandler) GetCurrent(c *gin.Context) {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		response.Error(c, apperror.ErrUnauthorized)
		return
	}

	res, err := h.profileService.GetByUsername(c.Request.Context(), principal.Username)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// UpsertCurrent godoc
// @Summary      Создание или обновление профиля текущего пользователя
// @Tags         Пользователи
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.ProfileRequest true "Данные профиля"
// @Success      200 {object} dto.ProfileResponse
// @Failure      400 {object} response.Message
// @Router       /api/users/me [post]
func (h *ProfileHandler) UpsertCurrent(c *gin.Context) {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		response.Error(c, apperror.ErrUnauthorized)
		return
	}

	var input dto.ProfileRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.profileService.CreateOrUpdateByUsername(c.Request.Context(), principal.Username, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
