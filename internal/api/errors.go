package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/psp-tools/psp-packer/pkg/packerr"
)

var ErrInvalidRequest = errors.New("invalid_request")

type invalidRequestError struct {
	msg string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(msg string) error {
	return invalidRequestError{msg: msg}
}

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error ResponseError `json:"error"`
}

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	// Code is the packer exit code for the failure.
	Code int `json:"code,omitempty"`
}

func writeError(c *echo.Context, status int, errType, msg string, code int) error {
	return writeJSON(c, status, ErrorBody{Error: ResponseError{
		Message: msg,
		Type:    errType,
		Code:    code,
	}})
}

func writeBadRequest(c *echo.Context, err error) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", err.Error(), 0)
}

// writePackError maps a pipeline failure to 422 with its code, or to 500
// when the failure is not an input problem.
func writePackError(c *echo.Context, err error) error {
	code := packerr.Code(err)
	if code == packerr.CodeUnknown || code == packerr.CodeIO {
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), code)
	}
	return writeError(c, http.StatusUnprocessableEntity, packerr.Kind(err), err.Error(), code)
}
