package service

import (
	"ShortLink-Backend/internal/domain"
	"ShortLink-Backend/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"
)

// Resolver turns a short id into the link to redirect to.
type Resolver struct {
	links repository.LinkStore
	now   func() time.Time
}

func NewResolver(links repository.LinkStore) *Resolver {
	return &Resolver{links: links, now: time.Now}
}

// Resolve returns the link for code, or a ValidationError for an empty code,
// repository.ErrLinkNotFound, or ErrExpired. Expired links are returned
// alongside ErrExpired and are not modified.
func (r *Resolver) Resolve(ctx context.Context, code string) (*domain.ShortLink, error) {
	if code == "" {
		return nil, invalid("shortId", "short id is required")
	}

	link, err := r.links.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to resolve %q: %w", code, err)
	}

	if link.IsExpired(r.now()) {
		return link, ErrExpired
	}
	return link, nil
}
