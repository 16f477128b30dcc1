// Package respond writes JSON responses and maps service errors onto HTTP
// statuses.
package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/MrJamesThe3rd/invoicer/internal/apperr"
)

const unexpectedMessage = "An unexpected error occurred."

type errorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Error writes err with the status of its kind. Errors without a kind are
// logged and reported with a generic message.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classify(err)

	traceID := middleware.GetReqID(r.Context())

	if status == http.StatusInternalServerError {
		slog.Error("request failed", "trace_id", traceID, "method", r.Method, "path", r.URL.Path, "error", err)
	}

	JSON(w, status, errorResponse{Error: msg, TraceID: traceID})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, apperr.Message(err)
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest, apperr.Message(err)
	case errors.Is(err, apperr.ErrDuplicateEmail):
		return http.StatusConflict, apperr.Message(err)
	case errors.Is(err, apperr.ErrAuthentication):
		return http.StatusUnauthorized, apperr.Message(err)
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden, apperr.Message(err)
	case errors.Is(err, apperr.ErrPrecondition):
		return http.StatusUnprocessableEntity, apperr.Message(err)
	}

	return http.StatusInternalServerError, unexpectedMessage
}

var validate = newValidator()

// newValidator reports fields under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}

// Decode reads a JSON body into dst and runs its validate tags. Problems
// come back as validation errors.
func Decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("Invalid request body: %v", err)
	}

	if err := validate.Struct(dst); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			msgs := make([]string, 0, len(ve))
			for _, fe := range ve {
				msgs = append(msgs, fieldError(fe))
			}

			return apperr.Validation("%s", strings.Join(msgs, "; "))
		}

		return err
	}

	return nil
}

func fieldError(fe validator.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
