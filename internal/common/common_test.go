package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteErrorUsesAppError(t *testing.T) {
	base := errors.New("boom")
	appErr := NewAppError("UNKNOWN_PLAY", "unknown play: macbeth", http.StatusUnprocessableEntity, base).
		WithDetails(map[string]string{"playID": "macbeth"})

	rec := httptest.NewRecorder()
	WriteError(rec, fmt.Errorf("wrapped: %w", appErr))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Error ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "UNKNOWN_PLAY", body.Error.Code)
	require.Equal(t, "unknown play: macbeth", body.Error.Message)
	require.ErrorIs(t, appErr, base)
}

func TestWriteErrorDefaultsToInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("redis timeout"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "redis timeout")
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:4312"
	require.Equal(t, "192.0.2.7", ClientIP(req))

	req.RemoteAddr = "192.0.2.8"
	require.Equal(t, "192.0.2.8", ClientIP(req))
	require.Empty(t, ClientIP(nil))
}

func TestSha256Hex(t *testing.T) {
	require.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Sha256Hex(""))
}

func TestAppErrorConstructors(t *testing.T) {
	require.Equal(t, http.StatusBadRequest, BadRequest("INVALID_JSON", "bad", nil).HTTPStatus)
	require.Equal(t, http.StatusUnprocessableEntity, Unprocessable("UNKNOWN_PLAY_TYPE", "unknown type: opera", nil).HTTPStatus)

	cause := errors.New("cause")
	require.Equal(t, "cause", NewAppError("X", "", http.StatusTeapot, cause).Error())
	require.Equal(t, http.StatusText(http.StatusTeapot), NewAppError("X", "", http.StatusTeapot, nil).Error())
}
