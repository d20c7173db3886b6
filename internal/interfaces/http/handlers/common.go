// Package handlers implements the HTTP API over the analysis services.
// Handlers translate transport concerns only; all business rules live in
// the application layer.
package handlers

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edgarlens/edgarlens/pkg/errors"
)

// ErrorBody is the JSON error envelope every endpoint returns on failure.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// ErrorResponse wraps ErrorBody under an "error" key.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// respondError maps an error to its HTTP status and writes the envelope.
// Unknown error types are reported as internal without leaking details.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	body := ErrorBody{
		Code:    string(code),
		Message: errors.DefaultMessageForCode(code),
	}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		body.Message = appErr.Message
		body.Detail = appErr.Detail
	}

	c.AbortWithStatusJSON(errors.HTTPStatusForCode(code), ErrorResponse{Error: body})
}

// intQuery parses an integer query parameter, returning def when absent
// and an error when present but malformed.
func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Newf(errors.CodeInvalidParam, "query parameter %q must be an integer", name)
	}
	return v, nil
}

// ok writes a 200 response with the given payload.
func ok(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}
