package apperr

import (
	"errors"

	"github.com/gin-gonic/gin"
)

type errorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// Respond renders err as the uniform JSON error body. Untagged errors
// become a generic 500 so internal messages never leak to clients.
func Respond(c *gin.Context, err error) {
	var e *Error
	if errors.As(err, &e) && e != nil {
		c.JSON(HTTPStatus(e.Kind), errorBody{Error: e.Message, Details: e.Details})
		return
	}
	_ = c.Error(err)
	c.JSON(HTTPStatus(KindInternal), errorBody{Error: "internal server error"})
}
