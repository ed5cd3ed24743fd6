package service

import (
	"ShortLink-Backend/internal/config"
	"ShortLink-Backend/internal/domain"
	"ShortLink-Backend/internal/repository"
	"ShortLink-Backend/pkg/random"
	"ShortLink-Backend/pkg/useragent"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// LinkRepository is the storage surface the link service needs.
type LinkRepository interface {
	repository.LinkStore
	ClicksByUserAgent(ctx context.Context, shortID string) (map[string]int64, error)
}

// CreateLinkInput describes a link to shorten. OwnerID is nil for anonymous links.
type CreateLinkInput struct {
	OriginalURL string
	OwnerID     *int64
	ExpiresAt   *time.Time
}

// LinkStats is a link with its per-device click breakdown.
type LinkStats struct {
	Link    *domain.ShortLink
	Devices map[string]int64
}

type URLShortenerService struct {
	links    LinkRepository
	config   *config.URLShortener
	uaParser *useragent.Parser
	log      *zap.Logger
	generate func() (string, error)
	now      func() time.Time
}

func NewURLShortener(links LinkRepository, cfg *config.URLShortener, uaParser *useragent.Parser, log *zap.Logger) *URLShortenerService {
	return &URLShortenerService{
		links:    links,
		config:   cfg,
		uaParser: uaParser,
		log:      log,
		generate: func() (string, error) {
			return random.NewRandomString(cfg.AliasLength)
		},
		now: time.Now,
	}
}

// Shorten validates the input and stores it under a fresh short id.
// A taken id is re-drawn up to MaxAliasAttempts times before ErrCodeGeneration.
func (s *URLShortenerService) Shorten(ctx context.Context, in CreateLinkInput) (*domain.ShortLink, error) {
	if err := ValidateURL(in.OriginalURL); err != nil {
		return nil, err
	}
	if err := ValidateExpiry(in.ExpiresAt, s.now()); err != nil {
		return nil, err
	}

	attempts := s.config.MaxAliasAttempts
	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		shortID, err := s.generate()
		if err != nil {
			return nil, fmt.Errorf("failed to generate short id: %w", err)
		}

		link := &domain.ShortLink{
			ShortID:     shortID,
			OriginalURL: in.OriginalURL,
			OwnerID:     in.OwnerID,
			ExpiresAt:   in.ExpiresAt,
		}

		err = s.links.CreateLink(ctx, link)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, repository.ErrLinkExists) {
			return nil, fmt.Errorf("failed to save link: %w", err)
		}

		s.log.Warn("short id collision, retrying",
			zap.String("short_id", shortID),
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", attempts))
	}

	return nil, ErrCodeGeneration
}

// History returns the owner's newest links. limit is clamped to [1, HistoryLimit].
func (s *URLShortenerService) History(ctx context.Context, ownerID int64, limit int) ([]*domain.ShortLink, error) {
	maxLimit := s.config.HistoryLimit
	if maxLimit <= 0 {
		maxLimit = 50
	}
	if limit <= 0 || limit > maxLimit {
		limit = maxLimit
	}

	links, err := s.links.ListByOwner(ctx, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return links, nil
}

// Stats returns a link with clicks grouped by device type.
func (s *URLShortenerService) Stats(ctx context.Context, shortID string) (*LinkStats, error) {
	link, err := s.links.FindByCode(ctx, shortID)
	if err != nil {
		return nil, err
	}

	stats := &LinkStats{Link: link, Devices: map[string]int64{}}
	if s.uaParser == nil {
		return stats, nil
	}

	byAgent, err := s.links.ClicksByUserAgent(ctx, shortID)
	if err != nil {
		// the counter is authoritative; the breakdown is best effort
		s.log.Warn("failed to load device breakdown", zap.String("short_id", shortID), zap.Error(err))
		return stats, nil
	}
	stats.Devices = s.uaParser.DeviceBreakdown(byAgent)
	return stats, nil
}

// Delete removes a link owned by ownerID. Someone else's link reads as not found.
func (s *URLShortenerService) Delete(ctx context.Context, shortID string, ownerID int64) error {
	return s.links.DeleteByCodeAndOwner(ctx, shortID, ownerID)
}

// BuildShortURL joins the public base and the redirect path for shortID.
func BuildShortURL(baseURL, shortID string) string {
	return strings.TrimRight(baseURL, "/") + "/r/" + shortID
}
