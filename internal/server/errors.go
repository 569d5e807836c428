package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/statboard/statboard/internal/auth/domain"
	"github.com/statboard/statboard/internal/authorization"
	centerdomain "github.com/statboard/statboard/internal/center/domain"
	districtdomain "github.com/statboard/statboard/internal/district/domain"
	evaluationtypedomain "github.com/statboard/statboard/internal/evaluationtype/domain"
	indicatordomain "github.com/statboard/statboard/internal/indicator/domain"
	"github.com/statboard/statboard/internal/ingest"
	majordomain "github.com/statboard/statboard/internal/major/domain"
	observationdomain "github.com/statboard/statboard/internal/observation/domain"
	rbacdomain "github.com/statboard/statboard/internal/rbac/domain"
	userdomain "github.com/statboard/statboard/internal/user/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

// uploadError carries the row-level findings of a rejected bulk upload.
type uploadError struct {
	Errors []ValidationError
}

func (u uploadError) Error() string {
	return "data validation failed"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

// newUploadError converts ingest row findings to the bounded error body
// returned on a rejected batch.
func newUploadError(rowErrs []ingest.RowError) error {
	out := make([]ValidationError, 0, len(rowErrs))
	for _, re := range rowErrs {
		out = append(out, ValidationError{
			Field:   "row",
			Code:    fmt.Sprintf("row_%d", re.Row),
			Message: re.Message,
		})
	}
	return &uploadError{Errors: out}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	var upErr *uploadError
	if errors.As(err, &upErr) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "data validation failed",
			Errors:  upErr.Errors,
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrInternal):
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	default:
		// Unexpected failures keep their message so callers can report
		// something actionable.
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: err.Error(),
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, authdomain.ErrWeakPassword),
		errors.Is(err, authdomain.ErrInvalidUsername),
		errors.Is(err, userdomain.ErrInvalidUsername),
		errors.Is(err, userdomain.ErrInvalidID),
		errors.Is(err, rbacdomain.ErrInvalidCode),
		errors.Is(err, rbacdomain.ErrInvalidName),
		errors.Is(err, rbacdomain.ErrInvalidID),
		errors.Is(err, districtdomain.ErrInvalidName),
		errors.Is(err, districtdomain.ErrInvalidID),
		errors.Is(err, centerdomain.ErrInvalidName),
		errors.Is(err, centerdomain.ErrInvalidID),
		errors.Is(err, majordomain.ErrInvalidName),
		errors.Is(err, majordomain.ErrInvalidID),
		errors.Is(err, evaluationtypedomain.ErrInvalidName),
		errors.Is(err, evaluationtypedomain.ErrInvalidID),
		errors.Is(err, indicatordomain.ErrInvalidName),
		errors.Is(err, indicatordomain.ErrInvalidPolarity),
		errors.Is(err, indicatordomain.ErrInvalidID),
		errors.Is(err, observationdomain.ErrInvalidID),
		errors.Is(err, observationdomain.ErrInvalidDate),
		errors.Is(err, observationdomain.ErrTypeMismatch),
		errors.Is(err, observationdomain.ErrMissingConstraint),
		errors.Is(err, observationdomain.ErrMissingSelector):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, authdomain.ErrUserExists),
		errors.Is(err, userdomain.ErrUserExists),
		errors.Is(err, rbacdomain.ErrDuplicate),
		errors.Is(err, districtdomain.ErrDuplicate),
		errors.Is(err, centerdomain.ErrDuplicate),
		errors.Is(err, evaluationtypedomain.ErrDuplicate):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, authdomain.ErrNotFound),
		errors.Is(err, userdomain.ErrNotFound),
		errors.Is(err, rbacdomain.ErrNotFound),
		errors.Is(err, districtdomain.ErrNotFound),
		errors.Is(err, centerdomain.ErrNotFound),
		errors.Is(err, majordomain.ErrNotFound),
		errors.Is(err, evaluationtypedomain.ErrNotFound),
		errors.Is(err, indicatordomain.ErrNotFound),
		errors.Is(err, observationdomain.ErrNotFound),
		errors.Is(err, observationdomain.ErrNoData),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	if strings.HasPrefix(code, "missing_") {
		return strings.TrimPrefix(code, "missing_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "missing_constraint":
		return "delete requires ids or a filter"
	case "missing_selector":
		return "id or name is required"
	case "type_mismatch":
		return "type does not match the indicator definition"
	default:
		return "invalid value"
	}
}
