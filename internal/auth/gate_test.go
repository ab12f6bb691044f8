// internal/auth/gate_test.go
package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGate(t *testing.T) *Gate {
	t.Helper()
	gate, err := NewGate("loan123", []byte("test-signing-key"))
	require.NoError(t, err)
	return gate
}

func TestLoginAndVerify(t *testing.T) {
	gate := newTestGate(t)

	token, err := gate.Login("loan123")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.NoError(t, gate.Verify(token))
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	gate := newTestGate(t)

	_, err := gate.Login("hunter2")
	assert.ErrorIs(t, err, ErrBadPassword)
}

func TestLoginRateLimited(t *testing.T) {
	gate := newTestGate(t)

	for i := 0; i < 5; i++ {
		_, err := gate.Login("wrong")
		assert.ErrorIs(t, err, ErrBadPassword)
	}
	_, err := gate.Login("loan123")
	assert.ErrorIs(t, err, ErrBadPassword, "burst exhausted, even the right password is refused")
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	gate := newTestGate(t)
	other, err := NewGate("loan123", []byte("different-key"))
	require.NoError(t, err)

	token, err := other.Login("loan123")
	require.NoError(t, err)
	assert.ErrorIs(t, gate.Verify(token), ErrBadToken)
	assert.ErrorIs(t, gate.Verify("not-a-token"), ErrBadToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	gate := newTestGate(t)

	issued := time.Now().Add(-13 * time.Hour)
	gate.now = func() time.Time { return issued }
	token, err := gate.Login("loan123")
	require.NoError(t, err)

	gate.now = time.Now
	assert.ErrorIs(t, gate.Verify(token), ErrBadToken)
}

func TestHandleLogin(t *testing.T) {
	gate := newTestGate(t)

	body, _ := json.Marshal(map[string]string{"password": "loan123"})
	recorder := httptest.NewRecorder()
	gate.HandleLogin(recorder, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, recorder.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.NoError(t, gate.Verify(resp.Token))

	body, _ = json.Marshal(map[string]string{"password": "nope"})
	recorder = httptest.NewRecorder()
	gate.HandleLogin(recorder, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestMiddleware(t *testing.T) {
	gate := newTestGate(t)
	protected := gate.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	recorder := httptest.NewRecorder()
	protected.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/books", nil))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	token, err := gate.Login("loan123")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/books", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	recorder = httptest.NewRecorder()
	protected.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusNoContent, recorder.Code)

	req = httptest.NewRequest(http.MethodPost, "/books", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	recorder = httptest.NewRecorder()
	protected.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}
