package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/shinyyama/centace-backend/internal/service"
)

// Validator plugs go-playground/validator into echo's c.Validate.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (cv *Validator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}

// decodeBody binds and validates the request body. A nil result means the
// body is usable.
func decodeBody(c echo.Context, dst interface{}) *ErrorResponse {
	if err := c.Bind(dst); err != nil {
		resp := NewErrorResponse(codeBadRequest, "invalid request body")
		return &resp
	}
	if err := c.Validate(dst); err != nil {
		resp := NewErrorResponse(codeValidation, describeValidation(err))
		return &resp
	}
	return nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

func writeServiceError(c echo.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, NewErrorResponse(codeNotFound, "resource not found"))
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, NewErrorResponse(codeForbidden, "not allowed"))
	case errors.Is(err, service.ErrInvalidType):
		return c.JSON(http.StatusBadRequest, NewErrorResponse(codeInvalidType, err.Error()))
	case errors.Is(err, service.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, NewErrorResponse(codeBadRequest, err.Error()))
	case errors.Is(err, service.ErrInvalidState):
		return c.JSON(http.StatusConflict, NewErrorResponse(codeInvalidState, err.Error()))
	default:
		return c.JSON(http.StatusInternalServerError, NewErrorResponse(codeInternal, fallback))
	}
}

func requireUID(c echo.Context) (string, bool) {
	uid, _ := c.Get("uid").(string)
	return uid, uid != ""
}
