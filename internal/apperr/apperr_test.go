package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublicMapsKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
		msg    string
	}{
		{NotFound("loan not found"), http.StatusNotFound, "not_found", "loan not found"},
		{Validation("only pending applications can be cancelled"), http.StatusBadRequest, "validation_failed", "only pending applications can be cancelled"},
		{Unauthorized("unauthorized"), http.StatusUnauthorized, "unauthorized", "unauthorized"},
		{Forbidden("forbidden"), http.StatusForbidden, "forbidden", "forbidden"},
		{Upstream("insert loan", errors.New("connection reset")), http.StatusInternalServerError, "internal_error", "internal error"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error", "internal error"},
	}
	for _, tc := range cases {
		status, code, msg := Public(tc.err)
		require.Equal(t, tc.status, status)
		require.Equal(t, tc.code, code)
		require.Equal(t, tc.msg, msg)
	}
}

func TestKindOfSeesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("get application: %w", NotFound("loan application not found"))
	require.True(t, Is(err, KindNotFound))
	require.False(t, Is(err, KindValidation))
	require.Equal(t, KindUpstream, KindOf(errors.New("plain")))
	require.False(t, Is(nil, KindUpstream))
}

func TestUpstreamUnwraps(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Upstream("find user", cause)
	require.ErrorIs(t, err, cause)
	require.Equal(t, "find user: dial tcp: refused", err.Error())
}
