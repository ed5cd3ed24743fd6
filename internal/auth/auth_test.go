package auth

import (
	"ShortLink-Backend/internal/config"
	"ShortLink-Backend/internal/domain"
	"ShortLink-Backend/internal/repository/memory"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type authFixture struct {
	store      *memory.MemStorage
	jwt        *JWTService
	middleware *Middleware
	handlers   *AuthHandlers
}

func newAuthFixture() *authFixture {
	store := memory.New()
	jwtSvc := newTestJWT(time.Hour)
	cfg := config.Auth{CookieName: "token", AdminEmails: []string{" Admin@Example.com "}}
	return &authFixture{
		store:      store,
		jwt:        jwtSvc,
		middleware: NewMiddleware(jwtSvc, store, "token", zap.NewNop()),
		handlers:   NewAuthHandlers(store, jwtSvc, NewPasswordService(bcrypt.MinCost), cfg, zap.NewNop()),
	}
}

func postJSON(h http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(b))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestRegister(t *testing.T) {
	f := newAuthFixture()

	rec := postJSON(f.handlers.Register, map[string]string{"email": "User@Example.com", "password": "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "user@example.com", resp.User.Email)
	assert.NotZero(t, resp.User.ID)
	assert.NotEmpty(t, resp.Token)
	assert.False(t, resp.User.IsAdmin)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "token", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, resp.Token, cookies[0].Value)

	rec = postJSON(f.handlers.Register, map[string]string{"email": "user@example.com", "password": "secret2"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegister_Validation(t *testing.T) {
	f := newAuthFixture()

	tests := []struct {
		name string
		body map[string]string
	}{
		{"bad email", map[string]string{"email": "nope", "password": "secret1"}},
		{"short password", map[string]string{"email": "a@example.com", "password": "12345"}},
		{"missing password", map[string]string{"email": "a@example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(f.handlers.Register, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestRegister_AdminEmail(t *testing.T) {
	f := newAuthFixture()

	rec := postJSON(f.handlers.Register, map[string]string{"email": "admin@example.com", "password": "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code)

	user, err := f.store.GetUserByEmail(context.Background(), "admin@example.com")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)
}

func TestLogin(t *testing.T) {
	f := newAuthFixture()
	require.Equal(t, http.StatusCreated, postJSON(f.handlers.Register, map[string]string{"email": "a@example.com", "password": "secret1"}).Code)

	rec := postJSON(f.handlers.Login, map[string]string{"email": "A@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	_, err := f.jwt.ValidateToken(resp.Token)
	require.NoError(t, err)

	user, err := f.store.GetUserByEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.NotNil(t, user.LastLoginAt)

	rec = postJSON(f.handlers.Login, map[string]string{"email": "a@example.com", "password": "wrong12"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email or password")

	rec = postJSON(f.handlers.Login, map[string]string{"email": "ghost@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout(t *testing.T) {
	f := newAuthFixture()
	rec := httptest.NewRecorder()
	f.handlers.Logout(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.True(t, cookies[0].MaxAge < 0)
}

func TestMiddleware_RequireAuth(t *testing.T) {
	f := newAuthFixture()
	token, err := f.jwt.GenerateToken(&domain.User{ID: 9, Email: "x@example.com"})
	require.NoError(t, err)

	var seen int64
	h := f.middleware.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	// no token
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// bearer
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(9), seen)

	// cookie
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// garbage
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_OptionalAuth(t *testing.T) {
	f := newAuthFixture()

	var authed bool
	h := f.middleware.OptionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, authed = GetUserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.False(t, authed)

	token, err := f.jwt.GenerateToken(&domain.User{ID: 3})
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, authed)
}

func TestMiddleware_RequireAdmin(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	admin := &domain.User{Email: "admin@example.com", PasswordHash: "x", IsAdmin: true}
	plain := &domain.User{Email: "plain@example.com", PasswordHash: "x"}
	require.NoError(t, f.store.CreateUser(ctx, admin))
	require.NoError(t, f.store.CreateUser(ctx, plain))

	h := f.middleware.RequireAuth(f.middleware.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	call := func(u *domain.User) int {
		token, err := f.jwt.GenerateToken(u)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call(admin))
	assert.Equal(t, http.StatusForbidden, call(plain))
	// a forged admin claim for a non-admin account is still refused
	assert.Equal(t, http.StatusForbidden, call(&domain.User{ID: plain.ID, Email: plain.Email, IsAdmin: true}))
	// deleted or unknown account
	assert.Equal(t, http.StatusUnauthorized, call(&domain.User{ID: 999, IsAdmin: true}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMe(t *testing.T) {
	f := newAuthFixture()
	rec := postJSON(f.handlers.Register, map[string]string{"email": "admin@example.com", "password": "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var reg AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reg))

	h := f.middleware.RequireAuth(http.HandlerFunc(f.handlers.Me))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: reg.Token})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var me MeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "admin@example.com", me.User.Email)
	assert.True(t, me.User.IsAdmin)
}
