package http

import (
	"ShortLink-Backend/internal/auth"
	"ShortLink-Backend/internal/domain"
	"ShortLink-Backend/internal/metrics"
	"ShortLink-Backend/internal/service"
	"ShortLink-Backend/pkg/validation"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// LinksHandler обработчик для работы со ссылками
type LinksHandler struct {
	shortener *service.URLShortenerService
	log       *zap.Logger
	baseURL   string
}

// NewLinksHandler создает новый обработчик ссылок. An empty baseURL means
// short URLs are built from the request's scheme and host.
func NewLinksHandler(shortener *service.URLShortenerService, log *zap.Logger, baseURL string) *LinksHandler {
	return &LinksHandler{
		shortener: shortener,
		log:       log,
		baseURL:   baseURL,
	}
}

// CreateLinkRequest структура запроса создания ссылки
type CreateLinkRequest struct {
	URL       string     `json:"url" validate:"required"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// CreateLinkResponse структура ответа создания ссылки
type CreateLinkResponse struct {
	ShortURL    string     `json:"shortUrl"`
	ShortID     string     `json:"shortId"`
	OriginalURL string     `json:"originalUrl"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

// LinkInfo информация о ссылке
type LinkInfo struct {
	ID          int64      `json:"id"`
	ShortID     string     `json:"shortId"`
	ShortURL    string     `json:"shortUrl"`
	OriginalURL string     `json:"originalUrl"`
	Clicks      int64      `json:"clicks"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   *time.Time `json:"expiresAt"`
}

// HistoryResponse структура ответа списка ссылок
type HistoryResponse struct {
	Links []LinkInfo `json:"links"`
}

// StatsResponse структура ответа статистики
type StatsResponse struct {
	ShortID     string           `json:"shortId"`
	OriginalURL string           `json:"originalUrl"`
	Clicks      int64            `json:"clicks"`
	CreatedAt   time.Time        `json:"createdAt"`
	ExpiresAt   *time.Time       `json:"expiresAt"`
	Devices     map[string]int64 `json:"devices"`
}

// CreateLink создает новую короткую ссылку
//
//	@Summary		Create a short link
//	@Description	Shorten an http(s) URL. Authenticated callers become the owner; anonymous links have none.
//	@Tags			Links
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateLinkRequest	true	"Link to shorten"
//	@Success		201		{object}	CreateLinkResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		429		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/shorten [post]
func (h *LinksHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid create link body", zap.Error(err))
		writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		writeError(w, "URL is required", http.StatusBadRequest)
		return
	}

	in := service.CreateLinkInput{OriginalURL: req.URL, ExpiresAt: req.ExpiresAt}
	if userID, ok := auth.GetUserIDFromContext(r.Context()); ok {
		in.OwnerID = &userID
	}

	link, err := h.shortener.Shorten(r.Context(), in)
	if err != nil {
		writeServiceError(w, h.log, err, "Link not found")
		return
	}

	metrics.LinksCreated.Inc()
	h.log.Info("link created", zap.String("short_id", link.ShortID), zap.Bool("owned", link.OwnerID != nil))

	writeJSON(w, CreateLinkResponse{
		ShortURL:    service.BuildShortURL(h.base(r), link.ShortID),
		ShortID:     link.ShortID,
		OriginalURL: link.OriginalURL,
		ExpiresAt:   link.ExpiresAt,
	}, http.StatusCreated)
}

// History возвращает последние ссылки пользователя
//
//	@Summary		Link history
//	@Description	The caller's newest links, at most 50
//	@Tags			Links
//	@Produce		json
//	@Security		BearerAuth
//	@Param			limit	query		int	false	"Maximum number of links (1-50)"
//	@Success		200		{object}	HistoryResponse
//	@Failure		401		{object}	ErrorResponse
//	@Router			/api/shorten/history [get]
func (h *LinksHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	links, err := h.shortener.History(r.Context(), userID, limit)
	if err != nil {
		writeServiceError(w, h.log, err, "Link not found")
		return
	}

	base := h.base(r)
	resp := HistoryResponse{Links: make([]LinkInfo, 0, len(links))}
	for _, link := range links {
		resp.Links = append(resp.Links, h.toLinkInfo(base, link))
	}

	writeJSON(w, resp, http.StatusOK)
}

// Stats возвращает статистику ссылки
//
//	@Summary		Link statistics
//	@Description	Click counter and device breakdown of a link
//	@Tags			Links
//	@Produce		json
//	@Param			shortId	path		string	true	"Short ID"
//	@Success		200		{object}	StatsResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/shorten/{shortId}/stats [get]
func (h *LinksHandler) Stats(w http.ResponseWriter, r *http.Request) {
	shortID := chi.URLParam(r, "shortId")

	stats, err := h.shortener.Stats(r.Context(), shortID)
	if err != nil {
		writeServiceError(w, h.log, err, "Short link not found")
		return
	}

	writeJSON(w, StatsResponse{
		ShortID:     stats.Link.ShortID,
		OriginalURL: stats.Link.OriginalURL,
		Clicks:      stats.Link.Clicks,
		CreatedAt:   stats.Link.CreatedAt,
		ExpiresAt:   stats.Link.ExpiresAt,
		Devices:     stats.Devices,
	}, http.StatusOK)
}

// DeleteLink удаляет ссылку владельца
//
//	@Summary		Delete a link
//	@Description	Only the owner can delete a link; other callers get 404
//	@Tags			Links
//	@Produce		json
//	@Security		BearerAuth
//	@Param			shortId	path		string	true	"Short ID"
//	@Success		200		{object}	MessageResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/shorten/{shortId} [delete]
func (h *LinksHandler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	shortID := chi.URLParam(r, "shortId")
	if err := h.shortener.Delete(r.Context(), shortID, userID); err != nil {
		writeServiceError(w, h.log, err, "Link not found or you don't have permission")
		return
	}

	writeJSON(w, MessageResponse{Message: "Link deleted successfully"}, http.StatusOK)
}

func (h *LinksHandler) base(r *http.Request) string {
	if h.baseURL != "" {
		return h.baseURL
	}
	return requestBaseURL(r)
}

func (h *LinksHandler) toLinkInfo(base string, link *domain.ShortLink) LinkInfo {
	return LinkInfo{
		ID:          link.ID,
		ShortID:     link.ShortID,
		ShortURL:    service.BuildShortURL(base, link.ShortID),
		OriginalURL: link.OriginalURL,
		Clicks:      link.Clicks,
		CreatedAt:   link.CreatedAt,
		ExpiresAt:   link.ExpiresAt,
	}
}
