package http

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/idkeeper/internal/common"
)

const (
	msgForbidden      = "Forbidden"
	msgInternal       = "Something went wrong"
	msgBadBody        = "Invalid request body"
	msgRegisterFields = "Name, email, and password are required"
)

// statusFor maps a service error to an HTTP status and a fixed client
// message. Internal detail never reaches the response.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrMissingField):
		return http.StatusBadRequest, "Missing required fields"
	case errors.Is(err, common.ErrSecretTooLong):
		return http.StatusBadRequest, "Password must be at most 72 bytes"
	case errors.Is(err, common.ErrInvalidID):
		return http.StatusBadRequest, "Invalid user id"
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, common.ErrForbidden),
		errors.Is(err, common.ErrMissingToken),
		errors.Is(err, common.ErrTokenMalformed),
		errors.Is(err, common.ErrTokenInvalidSignature),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusForbidden, msgForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, common.ErrDuplicateIdentifier):
		return http.StatusConflict, "Email already registered"
	default:
		return http.StatusInternalServerError, msgInternal
	}
}
