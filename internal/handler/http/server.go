package http

import (
	"ShortLink-Backend/internal/analytics"
	"ShortLink-Backend/internal/auth"
	"ShortLink-Backend/internal/config"
	"ShortLink-Backend/internal/repository"
	"ShortLink-Backend/internal/service"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// Dependencies собирает все, что нужно HTTP слою
type Dependencies struct {
	Storage   repository.Storage
	Shortener *service.URLShortenerService
	Resolver  *service.Resolver
	Admin     *service.AdminService
	Recorder  *analytics.ClickRecorder
	Tracker   *analytics.Tracker
	JWT       *auth.JWTService
	Passwords *auth.PasswordService
	Config    *config.Config
	Log       *zap.Logger
}

// Server HTTP сервер с обработчиками
type Server struct {
	authHandlers    *auth.AuthHandlers
	linksHandler    *LinksHandler
	redirectHandler *RedirectHandler
	adminHandler    *AdminHandler
	healthHandler   *HealthHandler
	authMiddleware  *auth.Middleware
	cfg             *config.Config
	log             *zap.Logger
}

// NewServer создает новый HTTP сервер
func NewServer(deps Dependencies) *Server {
	cfg := deps.Config
	log := deps.Log

	return &Server{
		authHandlers:    auth.NewAuthHandlers(deps.Storage, deps.JWT, deps.Passwords, cfg.Auth, log),
		linksHandler:    NewLinksHandler(deps.Shortener, log, cfg.URLShortener.BaseURL),
		redirectHandler: NewRedirectHandler(deps.Resolver, deps.Recorder, deps.Tracker, log),
		adminHandler:    NewAdminHandler(deps.Admin, log),
		healthHandler:   NewHealthHandler(deps.Storage, log),
		authMiddleware:  auth.NewMiddleware(deps.JWT, deps.Storage, cfg.Auth.CookieName, log),
		cfg:             cfg,
		log:             log,
	}
}

// SetupRoutes настраивает маршруты
func (s *Server) SetupRoutes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health checks (без аутентификации)
	r.Get("/health", s.healthHandler.Health)
	r.Get("/ready", s.healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	// Swagger документация
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Redirect endpoint (без аутентификации)
	r.Get("/r", s.redirectHandler.MissingShortID)
	r.Get("/r/", s.redirectHandler.MissingShortID)
	r.Get("/r/{shortId}", s.redirectHandler.HandleRedirect)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.authHandlers.Register)
			r.Post("/login", s.authHandlers.Login)
			r.Post("/logout", s.authHandlers.Logout)
			r.With(s.authMiddleware.RequireAuth).Get("/me", s.authHandlers.Me)
		})

		r.Route("/shorten", func(r chi.Router) {
			r.With(s.shortenLimiter(), s.authMiddleware.OptionalAuth).Post("/", s.linksHandler.CreateLink)
			r.With(s.authMiddleware.RequireAuth).Get("/history", s.linksHandler.History)
			r.Get("/{shortId}/stats", s.linksHandler.Stats)
			r.With(s.authMiddleware.RequireAuth).Delete("/{shortId}", s.linksHandler.DeleteLink)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.authMiddleware.RequireAuth)
			r.Use(s.authMiddleware.RequireAdmin)
			r.Get("/stats", s.adminHandler.Stats)
			r.Get("/export-logs", s.adminHandler.ExportLogs)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, "Not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	return r
}

// shortenLimiter ограничивает создание ссылок по IP клиента
func (s *Server) shortenLimiter() func(http.Handler) http.Handler {
	limit := s.cfg.URLShortener.ShortenLimit
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return httprate.Limit(
		limit,
		s.cfg.URLShortener.ShortenWindow,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return clientIP(r), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			s.log.Warn("shorten rate limit exceeded", zap.String("ip", clientIP(r)))
			writeError(w, "Too many requests, please try again later", http.StatusTooManyRequests)
		}),
	)
}
