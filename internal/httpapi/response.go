// Package httpapi exposes the procurement services over HTTP using gin.
// Responses use a uniform envelope; domain errors map onto HTTP statuses.
package httpapi

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"

	"procurecore/pkg/domain"
)

// envelope is the uniform response body.
type envelope struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Details any    `json:"details,omitempty"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, envelope{Code: "ok", Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, envelope{Code: "created", Data: data})
}

func respondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// respondError maps domain error types onto HTTP statuses:
// not found 404, conflict 409, validation and bad request 400, rule
// violations 422, everything else 500.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	body := envelope{Code: "internal_error", Message: "internal server error"}

	var notFound domain.NotFoundError
	var conflict domain.ConflictError
	var validation domain.ValidationError
	var badRequest domain.BadRequestError
	var violation domain.RuleViolationError

	switch {
	case errors.Is(err, fs.ErrNotExist):
		status = http.StatusNotFound
		body = envelope{Code: "not_found", Message: "not found"}
	case errors.As(err, &notFound):
		status = http.StatusNotFound
		body = envelope{Code: "not_found", Message: notFound.Error()}
	case errors.As(err, &conflict):
		status = http.StatusConflict
		body = envelope{Code: "conflict", Message: conflict.Error()}
	case errors.As(err, &validation):
		status = http.StatusBadRequest
		body = envelope{Code: "validation_error", Message: validation.Message, Details: validation.Details}
	case errors.As(err, &badRequest):
		status = http.StatusBadRequest
		body = envelope{Code: "bad_request", Message: badRequest.Error()}
	case errors.As(err, &violation):
		status = http.StatusUnprocessableEntity
		body = envelope{Code: "rule_violation", Message: violation.Error(), Details: violation.Result.Violations}
	}

	c.JSON(status, body)
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, envelope{Code: "bad_request", Message: "invalid request body: " + err.Error()})
}
