package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"telros.ru/usersvc/pkg/apperror"
	"telros.ru/usersvc/pkg/validator"
)

const internalErrorMessage = "Произошла внутренняя ошибка сервера"

// Message is the envelope for every non-binary reply that is not a resource.
type Message struct {
	Message string `json:"message" example:"Пользователь успешно удален"`
}

func OK(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Message{Message: message})
}

func Abort(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, Message{Message: message})
}

// Error maps err to a status code and writes the message envelope.
func Error(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	msg := apperror.Message(err)
	if code == http.StatusInternalServerError {
		log.WithField("request_id", c.GetString("request_id")).Errorf("[Internal Error]: %v", err)
		msg = internalErrorMessage
	}
	if msg == "" {
		msg = http.StatusText(code)
	}

	c.JSON(code, Message{Message: msg})
}

// BindError answers a failed ShouldBind: field-keyed map for rule
// violations, a single message for anything else (e.g. malformed JSON).
func BindError(c *gin.Context, err error) {
	if fields := validator.FieldErrors(err); fields != nil {
		c.JSON(http.StatusBadRequest, fields)
		return
	}
	c.JSON(http.StatusBadRequest, Message{Message: validator.FormatValidationError(err)})
}
