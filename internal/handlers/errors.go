package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"retail-catalog/internal/apperr"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeError maps the error taxonomy onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	var verr *apperr.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: verr.Message, Field: verr.Field})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: apperr.ErrNotFound.Error()})
	case apperr.IsTransient(err):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: apperr.ErrStore.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

// bindError turns a gin binding failure into a ValidationError naming the field.
func bindError(err error) error {
	var (
		verrs  validator.ValidationErrors
		syntax *json.SyntaxError
		typed  *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &verrs) && len(verrs) > 0:
		fe := verrs[0]
		return &apperr.ValidationError{
			Field:   fe.Field(),
			Message: fmt.Sprintf("%s failed %q validation", fe.Field(), fe.Tag()),
		}
	case errors.As(err, &typed):
		return &apperr.ValidationError{
			Field:   typed.Field,
			Message: fmt.Sprintf("%s must be a %s", typed.Field, typed.Type),
		}
	case errors.As(err, &syntax):
		return &apperr.ValidationError{Message: "malformed JSON body"}
	default:
		return &apperr.ValidationError{Message: err.Error()}
	}
}
