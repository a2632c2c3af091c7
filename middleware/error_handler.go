package middleware

import (
	"log"

	"github.com/gin-gonic/gin"

	"wellness-platform/apperrors"
	"wellness-platform/utils"
)

// ErrorHandler превращает ошибки обработчиков в единый JSON-конверт.
// Сырые внутренности наружу не протекают: неопознанные ошибки дают generic 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next() // Сначала выполняем все обработчики

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		appErr := apperrors.Classify(err)
		status, envelope := apperrors.ToEnvelope(err)

		log.Printf("Error [%s] %s %s from %s: %v",
			appErr.Kind, c.Request.Method, c.Request.URL.Path, c.ClientIP(), err)

		utils.CaptureError(err, map[string]interface{}{
			"error_type": appErr.Kind.String(),
			"method":     c.Request.Method,
			"url":        c.Request.URL.String(),
			"client_ip":  c.ClientIP(),
			"status":     status,
		})

		if !c.Writer.Written() {
			c.JSON(status, envelope)
		}
	}
}
