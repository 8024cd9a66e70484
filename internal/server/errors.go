package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/rshade/boqlca/internal/config"
	"github.com/rshade/boqlca/internal/engine"
	"github.com/rshade/boqlca/internal/impact"
	"github.com/rshade/boqlca/internal/inventory"
	"github.com/rshade/boqlca/internal/logging"
	"github.com/rshade/boqlca/internal/lookup"
)

type constError string

func (e constError) Error() string { return string(e) }

var (
	// ErrSessionNotFound is returned for unknown or evicted session ids.
	ErrSessionNotFound = constError("session not found")

	// ErrTooManySessions is returned when the store is full.
	ErrTooManySessions = constError("too many active sessions")

	// ErrUnsupportedMediaType is returned for uploads that are neither JSON
	// nor delimited text.
	ErrUnsupportedMediaType = constError("unsupported media type")
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var (
		verrs  validator.ValidationErrors
		syntax *json.SyntaxError
		typed  *json.UnmarshalTypeError
		tooBig *http.MaxBytesError
	)
	switch {
	case errors.As(err, &verrs), errors.As(err, &syntax), errors.As(err, &typed),
		errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return http.StatusBadRequest
	case errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, engine.ErrRowNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrStaleResult):
		return http.StatusConflict
	case errors.Is(err, engine.ErrEntryNotFound), errors.Is(err, engine.ErrReinforcementNotFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrInvalidArgument), errors.Is(err, inventory.ErrInvalidShape),
		errors.Is(err, impact.ErrInvalidUnit), errors.Is(err, config.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnsupportedMediaType), errors.Is(err, inventory.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, lookup.ErrUnavailable), errors.Is(err, lookup.ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, ErrTooManySessions):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes err as JSON with its mapped status. Server errors
// are logged and their details hidden from the client.
func abortWithError(c *gin.Context, operation string, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		resp.Error = "invalid request"
		resp.Fields = formatValidationErrors(verrs)
	}

	log := logging.FromContext(c.Request.Context())
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway && status != http.StatusServiceUnavailable {
		log.Error().
			Str("component", "server").
			Str("operation", operation).
			Err(err).
			Msg("request failed")
		resp.Error = http.StatusText(status)
	} else {
		log.Debug().
			Str("component", "server").
			Str("operation", operation).
			Int("status", status).
			Err(err).
			Msg("request rejected")
	}

	c.AbortWithStatusJSON(status, resp)
}

// formatValidationErrors turns validator errors into field -> message.
func formatValidationErrors(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		if field == "" {
			field = "body"
		}
		out[field] = validationMessage(fe)
	}
	return out
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at most %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case unitTag:
		return "must be one of kg, m3, m2"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
