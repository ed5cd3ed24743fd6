package auth

import (
	"ShortLink-Backend/internal/repository"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// ContextKey тип для ключей контекста
type ContextKey string

const (
	// UserIDKey ключ для получения ID пользователя из контекста
	UserIDKey ContextKey = "user_id"
	// UserEmailKey ключ для получения email пользователя из контекста
	UserEmailKey ContextKey = "user_email"
	// IsAdminKey хранит admin claim токена
	IsAdminKey ContextKey = "is_admin"
)

// Middleware JWT middleware для HTTP обработчиков
type Middleware struct {
	jwtService *JWTService
	users      repository.UserStore
	cookieName string
	log        *zap.Logger
}

// NewMiddleware создает новый JWT middleware
func NewMiddleware(jwtService *JWTService, users repository.UserStore, cookieName string, log *zap.Logger) *Middleware {
	if cookieName == "" {
		cookieName = "token"
	}
	return &Middleware{
		jwtService: jwtService,
		users:      users,
		cookieName: cookieName,
		log:        log,
	}
}

// TokenFromRequest reads the session token from the cookie, then from the Authorization header.
func (m *Middleware) TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(m.cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return ExtractTokenFromBearer(r.Header.Get("Authorization"))
}

func (m *Middleware) authenticate(r *http.Request) (*Claims, error) {
	token := m.TokenFromRequest(r)
	if token == "" {
		return nil, ErrInvalidToken
	}
	return m.jwtService.ValidateToken(token)
}

func withClaims(ctx context.Context, claims *Claims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	ctx = context.WithValue(ctx, UserEmailKey, claims.Email)
	return context.WithValue(ctx, IsAdminKey, claims.IsAdmin)
}

// RequireAuth rejects requests without a valid session token with 401.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.authenticate(r)
		if err != nil {
			m.log.Debug("unauthenticated request", zap.String("path", r.URL.Path), zap.Error(err))
			if errors.Is(err, ErrExpiredToken) {
				writeError(w, "Token expired", http.StatusUnauthorized)
			} else {
				writeError(w, "Authentication required", http.StatusUnauthorized)
			}
			return
		}

		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

// OptionalAuth middleware для опциональной проверки JWT токена
func (m *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.authenticate(r)
		if err != nil {
			// для опционального middleware это не критично
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

// RequireAdmin must run after RequireAuth. It also checks that the account still exists.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserIDFromContext(r.Context())
		if !ok {
			writeError(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		user, err := m.users.GetUserByID(r.Context(), userID)
		if errors.Is(err, repository.ErrUserNotFound) {
			writeError(w, "Authentication required", http.StatusUnauthorized)
			return
		}
		if err != nil {
			m.log.Error("failed to load user for admin check", zap.Int64("user_id", userID), zap.Error(err))
			writeError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if !IsAdminFromContext(r.Context()) || !user.IsAdmin {
			m.log.Warn("admin access denied", zap.Int64("user_id", userID), zap.String("path", r.URL.Path))
			writeError(w, "Admin access required", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetUserIDFromContext извлекает ID пользователя из контекста
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok
}

// GetUserEmailFromContext извлекает email пользователя из контекста
func GetUserEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(UserEmailKey).(string)
	return email, ok
}

// IsAdminFromContext reports the admin claim of the authenticated user.
func IsAdminFromContext(ctx context.Context) bool {
	isAdmin, _ := ctx.Value(IsAdminKey).(bool)
	return isAdmin
}

// ErrorResponse структура ошибки
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, ErrorResponse{Error: message}, statusCode)
}
