package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/phamyourfam/blissbite/internal/transport/http/apierror"
	"github.com/phamyourfam/blissbite/internal/transport/http/middleware"
)

// ErrorCase maps a sentinel error to an HTTP status code and response message.
type ErrorCase struct {
	Err     error
	Status  int
	Message string
}

// RespondWithMappedError resolves err against cases and hands the result to
// the error middleware. Unmatched errors surface as 500.
func RespondWithMappedError(c *gin.Context, err error, cases []ErrorCase) {
	for _, cs := range cases {
		if cs.Err != nil && errors.Is(err, cs.Err) {
			middleware.Fail(c, apierror.Wrap(cs.Status, cs.Message, err))
			return
		}
	}
	middleware.Fail(c, apierror.Wrap(http.StatusInternalServerError, apierror.InternalMessage, err))
}

func respondError(c *gin.Context, status int, message string) {
	middleware.Fail(c, apierror.New(status, message))
}
