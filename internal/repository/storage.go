package repository

import (
	"ShortLink-Backend/internal/domain"
	"context"
	"errors"
	"time"
)

var (
	ErrLinkNotFound = errors.New("short link not found")
	ErrLinkExists   = errors.New("short id already exists")
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// LinkStore persists short links.
type LinkStore interface {
	// CreateLink inserts a new link. Returns ErrLinkExists if the short id is taken.
	CreateLink(ctx context.Context, link *domain.ShortLink) error
	// FindByCode returns ErrLinkNotFound when no link has the given short id.
	FindByCode(ctx context.Context, shortID string) (*domain.ShortLink, error)
	// IncrementClicks atomically adds one to the click counter.
	IncrementClicks(ctx context.Context, shortID string) error
	// ListByOwner returns at most limit links of the owner, newest first.
	ListByOwner(ctx context.Context, ownerID int64, limit int) ([]*domain.ShortLink, error)
	// DeleteByCodeAndOwner removes the link only if it belongs to ownerID.
	DeleteByCodeAndOwner(ctx context.Context, shortID string, ownerID int64) error
	CountLinks(ctx context.Context) (int64, error)
	SumClicks(ctx context.Context) (int64, error)
}

// ClickLogFilter bounds a click log query; nil bounds are open. Both bounds are inclusive.
type ClickLogFilter struct {
	From *time.Time
	To   *time.Time
}

// Contains reports whether at falls inside the filter.
func (f ClickLogFilter) Contains(at time.Time) bool {
	if f.From != nil && at.Before(*f.From) {
		return false
	}
	if f.To != nil && at.After(*f.To) {
		return false
	}
	return true
}

// ClickLogSink is the append-only click log.
type ClickLogSink interface {
	AppendClick(ctx context.Context, entry *domain.ClickLog) error
	// StreamClickLogs calls fn for every entry matching the filter, newest first.
	// Iteration stops at the first error returned by fn.
	StreamClickLogs(ctx context.Context, filter ClickLogFilter, fn func(*domain.ClickLog) error) error
	CountClickLogs(ctx context.Context) (int64, error)
	// ClicksByUserAgent groups the logs of one link by raw user agent ("" for missing).
	ClicksByUserAgent(ctx context.Context, shortID string) (map[string]int64, error)
}

// ClickLogPurger removes click logs older than a cutoff. Only the retention janitor uses it.
type ClickLogPurger interface {
	PurgeClickLogs(ctx context.Context, before time.Time) (int64, error)
}

// UserStore persists accounts.
type UserStore interface {
	// CreateUser returns ErrUserExists if the email is already registered.
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}

// Storage is the full storage surface implemented by the postgres and memory backends.
type Storage interface {
	LinkStore
	ClickLogSink
	ClickLogPurger
	UserStore
	Ping(ctx context.Context) error
}
