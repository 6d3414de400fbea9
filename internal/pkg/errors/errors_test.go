package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/photoshare/internal/pkg/errcode"
)

func TestKinds(t *testing.T) {
	cases := []struct {
		err    error
		kind   errcode.Kind
		status int
	}{
		{ClientInput(MsgMissingFields), errcode.KindClientInput, http.StatusBadRequest},
		{Auth(MsgIncorrectPassword), errcode.KindAuth, http.StatusUnauthorized},
		{NotFound(MsgUserNotFound), errcode.KindNotFound, http.StatusUnauthorized},
		{Infrastructure(errors.New("boom")), errcode.KindInfrastructure, http.StatusInternalServerError},
		{errors.New("plain"), errcode.KindInfrastructure, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		require.Equal(t, tc.kind, KindOf(tc.err), tc.err.Error())
		require.Equal(t, tc.status, KindOf(tc.err).HTTPStatus())
	}
}

func TestInfrastructureKeepsMessageAndKind(t *testing.T) {
	cause := errors.New("table not found")
	err := Infrastructure(cause)
	require.EqualError(t, err, "table not found")
	require.ErrorIs(t, err, cause)

	wrapped := Infrastructure(fmt.Errorf("lookup: %w", NotFound(MsgUserNotFound)))
	require.Equal(t, errcode.KindNotFound, KindOf(wrapped))
	require.True(t, IsNotFound(wrapped))
	require.Nil(t, Infrastructure(nil))
}
