package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gartstein/placement/internal/placement/auth"
	e "github.com/gartstein/placement/internal/placement/errors"
	"github.com/gartstein/placement/internal/placement/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

type stubUsers map[string]*models.User

func (s stubUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := s[email]; ok {
		return u, nil
	}
	return nil, e.ErrUserNotFound
}

func newTestHandler(t *testing.T) *tokenHandler {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	return &tokenHandler{
		users: stubUsers{
			"pm@example.com": {ID: 7, Email: "pm@example.com", PasswordHash: string(hash), Role: models.RoleProgramManager},
		},
		secret: "test-secret",
		ttl:    time.Hour,
		logger: zaptest.NewLogger(t),
	}
}

func postToken(h http.Handler, body interface{}) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/token", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestTokenHandler_ValidCredentials(t *testing.T) {
	h := newTestHandler(t)

	rec := postToken(h, TokenRequest{Email: " PM@example.com ", Password: "s3cret"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(7), resp.UserID)
	assert.Equal(t, models.RoleProgramManager, resp.Role)

	id, err := auth.ResolveIdentity(resp.Token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, models.Identity{UserID: 7, Role: models.RoleProgramManager}, id)
}

func TestTokenHandler_Rejections(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		body interface{}
		code int
	}{
		{name: "wrong password", body: TokenRequest{Email: "pm@example.com", Password: "nope"}, code: http.StatusUnauthorized},
		{name: "unknown user", body: TokenRequest{Email: "ghost@example.com", Password: "s3cret"}, code: http.StatusUnauthorized},
		{name: "empty credentials", body: TokenRequest{}, code: http.StatusUnauthorized},
		{name: "malformed body", body: "not an object", code: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postToken(h, tt.body)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestTokenHandler_MethodNotAllowed(t *testing.T) {
	h := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/token", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
