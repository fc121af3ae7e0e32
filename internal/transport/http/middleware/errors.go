package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/phamyourfam/blissbite/internal/transport/http/apierror"
)

// ErrorHandler renders the last error pushed with c.Error as
// {"status":"failed","message":...}. Server errors are logged with their cause.
func ErrorHandler(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		apiErr := apierror.From(c.Errors.Last().Err)
		if apiErr.Status >= http.StatusInternalServerError {
			log.Error("request error",
				zap.String("request_id", requestIDFromContext(c.Request.Context())),
				zap.String("trace_id", GetTraceID(c)),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Error(apiErr.Err),
			)
		}

		if c.Writer.Written() {
			return
		}
		c.JSON(apiErr.Status, apierror.NewBody(apiErr.Message))
	}
}

// Fail records err for ErrorHandler and stops the chain.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// NotFound answers unmatched routes through ErrorHandler.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		Fail(c, apierror.New(http.StatusNotFound, "Route not found"))
	}
}
