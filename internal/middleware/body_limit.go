package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"telros.ru/usersvc/pkg/response"
)

const (
	MsgOversize = "Превышен максимальный размер файла!"

	// room for multipart boundaries and part headers around the file
	multipartOverhead = 64 << 10
)

// UploadBodyLimit rejects uploads whose declared length is over maxBytes and
// caps the body reader for the rest.
func UploadBodyLimit(maxBytes int64) gin.HandlerFunc {
	limit := maxBytes + multipartOverhead

	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			response.Abort(c, http.StatusExpectationFailed, MsgOversize)
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
