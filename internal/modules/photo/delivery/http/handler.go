package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"telros.ru/usersvc/internal/middleware"
	"telros.ru/usersvc/internal/modules/photo/dto"
	photo "telros.ru/usersvc/internal/modules/photo/service"
	profileHttp "telros.ru/usersvc/internal/modules/profile/delivery/http"
	profileDto "telros.ru/usersvc/internal/modules/profile/dto"
	"telros.ru/usersvc/pkg/apperror"
	"telros.ru/usersvc/pkg/response"
)

const (
	msgUploaded     = "Фотография успешно загружена"
	msgPhotoDeleted = "Фотография успешно удалена"

	formField = "file"
)

// ProfileResolver finds the profile of the calling user.
type ProfileResolver interface {
	GetByUsername(ctx context.Context, username string) (*profileDto.ProfileResponse, error)
}

type PhotoHandler struct {
	photoService photo.PhotoService
	profiles     ProfileResolver
}

func NewPhotoHandler(photoService photo.PhotoService, profiles ProfileResolver) *PhotoHandler {
	return &PhotoHandler{
		photoService: photoService,
		profiles:     profiles,
	}
}

// Get godoc
// @Summary      Фотография профиля
// @Tags         Фотографии
// @Produce      octet-stream
// @Security     BearerAuth
// @Param        id path int true "ID профиля"
// @Success      200 {file} binary
// @Failure      404 {object} response.Message
// @Router       /api/users/{id}/photo [get]
func (h *PhotoHandler) Get(c *gin.Context) {
	id, err := profileHttp.ParseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	content, err := h.photoService.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	contentType := content.FileType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, strings.ReplaceAll(content.FileName, `"`, "")))
	c.Data(http.StatusOK, contentType, content.Data)
}

// Upload godoc
// @Summary      Загрузка фотографии профиля
// @Tags         Фотографии
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "ID профиля"
// @Param        file formData file true "Изображение"
// @Success      200 {object} response.Message
// @Failure      400 {object} response.Message
// @Failure      417 {object} response.Message
// @Router       /api/users/{id}/photo [post]
func (h *PhotoHandler) Upload(c *gin.Context) {
	id, err := profileHttp.ParseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	h.upload(c, id)
}

// Delete godoc
// @Summary      Удаление фотографии профиля
// @Tags         Фотографии
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "ID профиля"
// @Success      200 {object} response.Message
// @Failure      404 {object} response.Message
// @Router       /api/users/{id}/photo [delete]
func (h *PhotoHandler) Delete(c *gin.Context) {
	id, err := profileHttp.ParseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	h.delete(c, id)
}

// UploadCurrent godoc
// @Summary      Загрузка фотографии текущего пользователя
// @Tags         Фотографии
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file formData file true "Изображение"
// @Success      200 {object} response.Message
// @Failure      400 {object} response.Message
// @Failure      417 {object} response.Message
// @Router       /api/users/me/photo [post]
func (h *PhotoHandler) UploadCurrent(c *gin.Context) {
	id, ok := h.currentProfileID(c)
	if !ok {
		return
	}
	h.upload(c, id)
}

// DeleteCurrent godoc
// @Summary      Удаление фотографии текущего пользователя
// @Tags         Фотографии
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Message
// @Failure      404 {object} response.Message
// @Router       /api/users/me/photo [delete]
func (h *PhotoHandler) DeleteCurrent(c *gin.Context) {
	id, ok := h.currentProfileID(c)
	if !ok {
		return
	}
	h.delete(c, id)
}

func (h *PhotoHandler) currentProfileID(c *gin.Context) (uint, bool) {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		response.Error(c, apperror.ErrUnauthorized)
		return 0, false
	}

	profile, err := h.profiles.GetByUsername(c.Request.Context(), principal.Username)
	if err != nil {
		response.Error(c, err)
		return 0, false
	}
	return profile.ID, true
}

func (h *PhotoHandler) upload(c *gin.Context, profileID uint) {
	fileHeader, err := c.FormFile(formField)
	if err != nil {
		response.Error(c, formFileError(err))
		return
	}
	if fileHeader.Size == 0 {
		response.Error(c, apperror.Validation(photo.MsgEmptyFile))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, apperror.IO("Ошибка при загрузке файла: "+err.Error(), err))
		return
	}
	defer file.Close()

	err = h.photoService.Upload(c.Request.Context(), profileID, dto.UploadFile{
		Reader:      file,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, msgUploaded)
}

func (h *PhotoHandler) delete(c *gin.Context, profileID uint) {
	if err := h.photoService.Delete(c.Request.Context(), profileID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, msgPhotoDeleted)
}

func formFileError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) || strings.Contains(err.Error(), "request body too large") {
		return photo.Oversize()
	}
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return apperror.Validation(photo.MsgEmptyFile)
	}
	return apperror.IO("Ошибка при загрузке файла: "+err.Error(), err)
}
