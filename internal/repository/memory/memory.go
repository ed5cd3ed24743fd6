package memory

import (
	"ShortLink-Backend/internal/domain"
	"ShortLink-Backend/internal/repository"
	"context"
	"sort"
	"sync"
	"time"
)

// MemStorage keeps everything in process memory. It backs tests and STORAGE_DRIVER=memory.
// Returned values are copies, so callers never share state with the store.
type MemStorage struct {
	mu sync.RWMutex

	links     map[string]*linkEntry
	linkSeq   int64
	clicks    []*domain.ClickLog
	clickSeq  int64
	users     map[int64]*domain.User
	userEmail map[string]int64
	userSeq   int64
}

type linkEntry struct {
	link *domain.ShortLink
	seq  int64
}

var _ repository.Storage = (*MemStorage)(nil)

func New() *MemStorage {
	return &MemStorage{
		links:     make(map[string]*linkEntry),
		users:     make(map[int64]*domain.User),
		userEmail: make(map[string]int64),
	}
}

func (s *MemStorage) Ping(_ context.Context) error { return nil }

// --- Link Methods ---

func (s *MemStorage) CreateLink(_ context.Context, link *domain.ShortLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.links[link.ShortID]; exists {
		return repository.ErrLinkExists
	}

	s.linkSeq++
	link.ID = s.linkSeq
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now()
	}
	s.links[link.ShortID] = &linkEntry{link: cloneLink(link), seq: s.linkSeq}
	return nil
}

func (s *MemStorage) FindByCode(_ context.Context, shortID string) (*domain.ShortLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.links[shortID]
	if !ok {
		return nil, repository.ErrLinkNotFound
	}
	return cloneLink(entry.link), nil
}

func (s *MemStorage) IncrementClicks(_ context.Context, shortID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.links[shortID]
	if !ok {
		return repository.ErrLinkNotFound
	}
	entry.link.Clicks++
	return nil
}

func (s *MemStorage) ListByOwner(_ context.Context, ownerID int64, limit int) ([]*domain.ShortLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var owned []*linkEntry
	for _, entry := range s.links {
		if entry.link.IsOwnedBy(ownerID) {
			owned = append(owned, entry)
		}
	}

	// newest first; seq breaks ties between links created in the same instant
	sort.Slice(owned, func(i, j int) bool {
		a, b := owned[i], owned[j]
		if !a.link.CreatedAt.Equal(b.link.CreatedAt) {
			return a.link.CreatedAt.After(b.link.CreatedAt)
		}
		return a.seq > b.seq
	})

	if limit > 0 && len(owned) > limit {
		owned = owned[:limit]
	}

	result := make([]*domain.ShortLink, 0, len(owned))
	for _, entry := range owned {
		result = append(result, cloneLink(entry.link))
	}
	return result, nil
}

func (s *MemStorage) DeleteByCodeAndOwner(_ context.Context, shortID string, ownerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.links[shortID]
	if !ok || !entry.link.IsOwnedBy(ownerID) {
		return repository.ErrLinkNotFound
	}
	delete(s.links, shortID)
	return nil
}

func (s *MemStorage) CountLinks(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.links)), nil
}

func (s *MemStorage) SumClicks(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, entry := range s.links {
		total += entry.link.Clicks
	}
	return total, nil
}

// --- Click Log Methods ---

func (s *MemStorage) AppendClick(_ context.Context, entry *domain.ClickLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clickSeq++
	entry.ID = s.clickSeq
	if entry.At.IsZero() {
		entry.At = time.Now()
	}
	stored := *entry
	s.clicks = append(s.clicks, &stored)
	return nil
}

func (s *MemStorage) StreamClickLogs(ctx context.Context, filter repository.ClickLogFilter, fn func(*domain.ClickLog) error) error {
	s.mu.RLock()
	matched := make([]domain.ClickLog, 0, len(s.clicks))
	for _, entry := range s.clicks {
		if filter.Contains(entry.At) {
			matched = append(matched, *entry)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].At.Equal(matched[j].At) {
			return matched[i].At.After(matched[j].At)
		}
		return matched[i].ID > matched[j].ID
	})

	for i := range matched {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(&matched[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemStorage) CountClickLogs(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.clicks)), nil
}

func (s *MemStorage) ClicksByUserAgent(_ context.Context, shortID string) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byAgent := make(map[string]int64)
	for _, entry := range s.clicks {
		if entry.ShortID == shortID {
			byAgent[entry.GetUserAgent()]++
		}
	}
	return byAgent, nil
}

func (s *MemStorage) PurgeClickLogs(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.clicks[:0]
	var removed int64
	for _, entry := range s.clicks {
		if entry.At.Before(before) {
			removed++
			continue
		}
		kept = append(kept, entry)
	}
	for i := len(kept); i < len(s.clicks); i++ {
		s.clicks[i] = nil
	}
	s.clicks = kept
	return removed, nil
}

// --- User Methods ---

func (s *MemStorage) CreateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.userEmail[user.Email]; exists {
		return repository.ErrUserExists
	}

	s.userSeq++
	user.ID = s.userSeq
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	stored := *user
	s.users[user.ID] = &stored
	s.userEmail[user.Email] = user.ID
	return nil
}

func (s *MemStorage) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.userEmail[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	user := *s.users[id]
	return &user, nil
}

func (s *MemStorage) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	user := *stored
	return &user, nil
}

func (s *MemStorage) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.LastLoginAt = &at
	return nil
}

func cloneLink(link *domain.ShortLink) *domain.ShortLink {
	c := *link
	if link.OwnerID != nil {
		owner := *link.OwnerID
		c.OwnerID = &owner
	}
	if link.ExpiresAt != nil {
		exp := *link.ExpiresAt
		c.ExpiresAt = &exp
	}
	return &c
}
