package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Error codes returned in the envelope. Clients switch on these, not on
// the message text.
const (
	codeBadRequest   = "bad_request"
	codeValidation   = "validation_error"
	codeUnauthorized = "unauthorized"
	codeForbidden    = "forbidden"
	codeNotFound     = "not_found"
	codeInvalidType  = "invalid_type"
	codeInvalidState = "invalid_state"
	codeInternal     = "internal_error"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx API answer:
//
//	{"error": {"code": "not_found", "message": "resource not found"}}
type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, NewErrorResponse(codeUnauthorized, "missing uid"))
}
