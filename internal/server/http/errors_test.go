package http

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/idkeeper/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
		msg    string
	}{
		{common.ErrMissingField, http.StatusBadRequest, "Missing required fields"},
		{common.ErrSecretTooLong, http.StatusBadRequest, "Password must be at most 72 bytes"},
		{common.ErrInvalidID, http.StatusBadRequest, "Invalid user id"},
		{common.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
		{common.ErrForbidden, http.StatusForbidden, "Forbidden"},
		{common.ErrMissingToken, http.StatusForbidden, "Forbidden"},
		{common.ErrTokenMalformed, http.StatusForbidden, "Forbidden"},
		{common.ErrTokenInvalidSignature, http.StatusForbidden, "Forbidden"},
		{common.ErrTokenExpired, http.StatusForbidden, "Forbidden"},
		{common.ErrorNotFound, http.StatusNotFound, "User not found"},
		{fmt.Errorf("wrapped: %w", common.ErrDuplicateIdentifier), http.StatusConflict, "Email already registered"},
		{common.ErrStoreUnavailable, http.StatusInternalServerError, "Something went wrong"},
		{errors.New("pq: connection refused at 10.0.0.5"), http.StatusInternalServerError, "Something went wrong"},
	}

	for _, tt := range tests {
		status, msg := statusFor(tt.err)
		assert.Equal(t, tt.status, status, "%v", tt.err)
		assert.Equal(t, tt.msg, msg, "%v", tt.err)
	}
}

func TestParseID(t *testing.T) {
	for _, ok := range []struct {
		in   string
		want int64
	}{{"1", 1}, {"42", 42}, {"9223372036854775807", 9223372036854775807}} {
		got, err := parseID(ok.in)
		assert.NoError(t, err, ok.in)
		assert.Equal(t, ok.want, got)
	}

	for _, bad := range []string{"", "0", "-1", "+1", "1.5", "12abc", " 1", "0x10", "9223372036854775808"} {
		_, err := parseID(bad)
		assert.ErrorIs(t, err, common.ErrInvalidID, bad)
	}
}
