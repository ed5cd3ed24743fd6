package http

import (
	"ShortLink-Backend/internal/analytics"
	"ShortLink-Backend/internal/metrics"
	"ShortLink-Backend/internal/repository"
	"ShortLink-Backend/internal/service"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RedirectHandler обработчик редиректов
type RedirectHandler struct {
	resolver *service.Resolver
	recorder *analytics.ClickRecorder
	tracker  *analytics.Tracker
	log      *zap.Logger
	now      func() time.Time
}

// NewRedirectHandler создает новый обработчик редиректов
func NewRedirectHandler(resolver *service.Resolver, recorder *analytics.ClickRecorder, tracker *analytics.Tracker, log *zap.Logger) *RedirectHandler {
	return &RedirectHandler{
		resolver: resolver,
		recorder: recorder,
		tracker:  tracker,
		log:      log,
		now:      time.Now,
	}
}

// HandleRedirect отвечает 302 и только после этого запускает учет клика
//
//	@Summary		Follow a short link
//	@Description	Redirects to the original URL. Click counting, logging and notification happen after the response.
//	@Tags			Redirect
//	@Param			shortId	path	string	true	"Short ID"
//	@Success		302
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		410	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/r/{shortId} [get]
func (h *RedirectHandler) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	shortID := chi.URLParam(r, "shortId")

	link, err := h.resolver.Resolve(r.Context(), shortID)
	if err != nil {
		metrics.RecordRedirect(redirectOutcome(err))
		if errors.Is(err, service.ErrExpired) {
			h.log.Debug("expired link requested", zap.String("short_id", shortID))
		}
		writeServiceError(w, h.log, err, "Short link not found")
		return
	}

	http.Redirect(w, r, link.OriginalURL, http.StatusFound)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	metrics.RecordRedirect("found")

	ev := analytics.ClickEvent{
		ShortID:     link.ShortID,
		OriginalURL: link.OriginalURL,
		IP:          clientIP(r),
		UserAgent:   r.UserAgent(),
		Referer:     r.Referer(),
		At:          h.now(),
	}
	if !h.recorder.Submit(h.tracker, ev) {
		h.log.Warn("click dropped, tracker is shutting down", zap.String("short_id", link.ShortID))
	}
}

// MissingShortID handles /r and /r/ without a code.
func (h *RedirectHandler) MissingShortID(w http.ResponseWriter, r *http.Request) {
	metrics.RecordRedirect("invalid")
	writeError(w, "Short ID is required", http.StatusBadRequest)
}

func redirectOutcome(err error) string {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return "invalid"
	case errors.Is(err, repository.ErrLinkNotFound):
		return "not_found"
	case errors.Is(err, service.ErrExpired):
		return "expired"
	default:
		return "error"
	}
}
