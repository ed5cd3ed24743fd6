package auth

import (
	"ShortLink-Backend/internal/config"
	"ShortLink-Backend/internal/domain"
	"ShortLink-Backend/internal/repository"
	"ShortLink-Backend/pkg/validation"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// AuthHandlers обработчики аутентификации
type AuthHandlers struct {
	users           repository.UserStore
	jwtService      *JWTService
	passwordService *PasswordService
	cfg             config.Auth
	adminEmails     map[string]struct{}
	log             *zap.Logger
}

// NewAuthHandlers создает новые обработчики аутентификации
func NewAuthHandlers(users repository.UserStore, jwtService *JWTService, passwordService *PasswordService, cfg config.Auth, log *zap.Logger) *AuthHandlers {
	admins := make(map[string]struct{}, len(cfg.AdminEmails))
	for _, email := range cfg.AdminEmails {
		if email = normalizeEmail(email); email != "" {
			admins[email] = struct{}{}
		}
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "token"
	}

	return &AuthHandlers{
		users:           users,
		jwtService:      jwtService,
		passwordService: passwordService,
		cfg:             cfg,
		adminEmails:     admins,
		log:             log,
	}
}

// CredentialsRequest is the body of register and login.
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// AuthResponse структура ответа аутентификации
type AuthResponse struct {
	Message string   `json:"message"`
	Token   string   `json:"token"`
	User    UserInfo `json:"user"`
}

// UserInfo информация о пользователе
type UserInfo struct {
	ID      int64  `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin,omitempty"`
}

// MeResponse is returned by Me.
type MeResponse struct {
	User UserInfo `json:"user"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// Register обработчик регистрации
//
//	@Summary		Register a new user
//	@Description	Create an account and start a session. Emails listed in ADMIN_EMAILS become admins.
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CredentialsRequest	true	"Registration request"
//	@Success		201		{object}	AuthResponse		"User registered successfully"
//	@Failure		400		{object}	ErrorResponse		"Invalid request data"
//	@Failure		409		{object}	ErrorResponse		"User already exists"
//	@Router			/api/auth/register [post]
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	hashedPassword, err := h.passwordService.HashPassword(req.Password)
	if err != nil {
		h.log.Error("failed to hash password", zap.Error(err))
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	_, isAdmin := h.adminEmails[req.Email]
	user := &domain.User{
		Email:        req.Email,
		PasswordHash: hashedPassword,
		IsAdmin:      isAdmin,
	}

	if err := h.users.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			writeError(w, "User with this email already exists", http.StatusConflict)
			return
		}
		h.log.Error("failed to create user", zap.Error(err))
		writeError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	h.log.Info("user registered", zap.Int64("user_id", user.ID), zap.Bool("is_admin", user.IsAdmin))
	h.startSession(w, user, "User registered successfully", http.StatusCreated)
}

// Login обработчик входа
//
//	@Summary		Login user
//	@Description	Authenticate with email and password and receive a session token
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CredentialsRequest	true	"Login request"
//	@Success		200		{object}	AuthResponse		"Login successful"
//	@Failure		400		{object}	ErrorResponse		"Invalid request data"
//	@Failure		401		{object}	ErrorResponse		"Invalid credentials"
//	@Router			/api/auth/login [post]
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			h.log.Error("failed to load user for login", zap.Error(err))
			writeError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		writeError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	if err := h.passwordService.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		h.log.Debug("invalid password", zap.Int64("user_id", user.ID))
		writeError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	if err := h.users.UpdateLastLogin(r.Context(), user.ID, time.Now()); err != nil {
		h.log.Warn("failed to update last login time", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	h.log.Info("user logged in", zap.Int64("user_id", user.ID))
	h.startSession(w, user, "Login successful", http.StatusOK)
}

// Logout clears the session cookie.
//
//	@Summary	Logout
//	@Tags		Authentication
//	@Produce	json
//	@Success	200	{object}	MessageResponse
//	@Router		/api/auth/logout [post]
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, MessageResponse{Message: "Logged out successfully"}, http.StatusOK)
}

// Me returns the authenticated user.
//
//	@Summary	Current user
//	@Tags		Authentication
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	MeResponse
//	@Failure	401	{object}	ErrorResponse
//	@Router		/api/auth/me [get]
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	user, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			writeError(w, "Authentication required", http.StatusUnauthorized)
			return
		}
		h.log.Error("failed to load current user", zap.Int64("user_id", userID), zap.Error(err))
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, MeResponse{User: UserInfo{ID: user.ID, Email: user.Email, IsAdmin: user.IsAdmin}}, http.StatusOK)
}

func (h *AuthHandlers) decodeCredentials(w http.ResponseWriter, r *http.Request) (*CredentialsRequest, bool) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid credentials body", zap.Error(err))
		writeError(w, "Invalid request format", http.StatusBadRequest)
		return nil, false
	}

	req.Email = normalizeEmail(req.Email)
	if err := validation.ValidateStruct(&req); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}

func (h *AuthHandlers) startSession(w http.ResponseWriter, user *domain.User, message string, status int) {
	token, err := h.jwtService.GenerateToken(user)
	if err != nil {
		h.log.Error("failed to generate token", zap.Error(err))
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.jwtService.TokenDuration().Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, AuthResponse{
		Message: message,
		Token:   token,
		User:    UserInfo{ID: user.ID, Email: user.Email, IsAdmin: user.IsAdmin},
	}, status)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
