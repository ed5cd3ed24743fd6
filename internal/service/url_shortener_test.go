package service

import (
	"ShortLink-Backend/internal/config"
	"ShortLink-Backend/internal/domain"
	"ShortLink-Backend/internal/repository"
	"ShortLink-Backend/internal/repository/memory"
	"ShortLink-Backend/pkg/useragent"
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockLinkRepository is a mock implementation of LinkRepository
type MockLinkRepository struct {
	mock.Mock
}

func (m *MockLinkRepository) CreateLink(ctx context.Context, link *domain.ShortLink) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *MockLinkRepository) FindByCode(ctx context.Context, shortID string) (*domain.ShortLink, error) {
	args := m.Called(ctx, shortID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ShortLink), args.Error(1)
}

func (m *MockLinkRepository) IncrementClicks(ctx context.Context, shortID string) error {
	args := m.Called(ctx, shortID)
	return args.Error(0)
}

func (m *MockLinkRepository) ListByOwner(ctx context.Context, ownerID int64, limit int) ([]*domain.ShortLink, error) {
	args := m.Called(ctx, ownerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ShortLink), args.Error(1)
}

func (m *MockLinkRepository) DeleteByCodeAndOwner(ctx context.Context, shortID string, ownerID int64) error {
	args := m.Called(ctx, shortID, ownerID)
	return args.Error(0)
}

func (m *MockLinkRepository) CountLinks(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLinkRepository) SumClicks(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLinkRepository) ClicksByUserAgent(ctx context.Context, shortID string) (map[string]int64, error) {
	args := m.Called(ctx, shortID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

func testConfig() *config.URLShortener {
	return &config.URLShortener{
		AliasLength:      7,
		MaxAliasAttempts: 5,
		HistoryLimit:     50,
	}
}

func newTestService(t *testing.T, links LinkRepository) *URLShortenerService {
	t.Helper()
	parser, err := useragent.NewParser("", zap.NewNop())
	require.NoError(t, err)
	return NewURLShortener(links, testConfig(), parser, zap.NewNop())
}

// sequence returns a generator that yields codes in order.
func sequence(codes ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		code := codes[i%len(codes)]
		i++
		return code, nil
	}
}

var shortIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{7}$`)

func TestShorten_CreatesLink(t *testing.T) {
	store := memory.New()
	svc := newTestService(t, store)
	owner := int64(42)

	link, err := svc.Shorten(context.Background(), CreateLinkInput{
		OriginalURL: "https://example.com/path?q=1",
		OwnerID:     &owner,
	})
	require.NoError(t, err)
	assert.Regexp(t, shortIDPattern, link.ShortID)
	assert.Equal(t, int64(0), link.Clicks)

	stored, err := store.FindByCode(context.Background(), link.ShortID)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/path?q=1", stored.OriginalURL)
	assert.True(t, stored.IsOwnedBy(42))
}

func TestShorten_Anonymous(t *testing.T) {
	svc := newTestService(t, memory.New())

	link, err := svc.Shorten(context.Background(), CreateLinkInput{OriginalURL: "http://example.com"})
	require.NoError(t, err)
	assert.Nil(t, link.OwnerID)
}

func TestShorten_InvalidInput(t *testing.T) {
	svc := newTestService(t, memory.New())
	past := time.Now().Add(-time.Minute)

	tests := []struct {
		name string
		in   CreateLinkInput
	}{
		{"empty url", CreateLinkInput{OriginalURL: ""}},
		{"not absolute", CreateLinkInput{OriginalURL: "example.com/path"}},
		{"ftp scheme", CreateLinkInput{OriginalURL: "ftp://example.com"}},
		{"javascript", CreateLinkInput{OriginalURL: "javascript:alert(1)"}},
		{"no host", CreateLinkInput{OriginalURL: "https://"}},
		{"past expiry", CreateLinkInput{OriginalURL: "https://example.com", ExpiresAt: &past}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Shorten(context.Background(), tt.in)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestShorten_RetriesOnCollision(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.CreateLink(ctx, &domain.ShortLink{ShortID: "taken01", OriginalURL: "https://a.example"}))

	svc := newTestService(t, store)
	svc.generate = sequence("taken01", "taken01", "fresh01")

	link, err := svc.Shorten(ctx, CreateLinkInput{OriginalURL: "https://b.example"})
	require.NoError(t, err)
	assert.Equal(t, "fresh01", link.ShortID)

	original, err := store.FindByCode(ctx, "taken01")
	require.NoError(t, err)
	assert.Equal(t, "https://a.example", original.OriginalURL, "collision must not overwrite")
}

func TestShorten_GivesUpAfterMaxAttempts(t *testing.T) {
	repo := new(MockLinkRepository)
	repo.On("CreateLink", mock.Anything, mock.Anything).Return(repository.ErrLinkExists)

	svc := newTestService(t, repo)
	svc.generate = sequence("same001")

	_, err := svc.Shorten(context.Background(), CreateLinkInput{OriginalURL: "https://example.com"})
	assert.ErrorIs(t, err, ErrCodeGeneration)
	repo.AssertNumberOfCalls(t, "CreateLink", 5)
}

func TestShorten_StorageError(t *testing.T) {
	repo := new(MockLinkRepository)
	repo.On("CreateLink", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	svc := newTestService(t, repo)
	_, err := svc.Shorten(context.Background(), CreateLinkInput{OriginalURL: "https://example.com"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCodeGeneration)
	repo.AssertNumberOfCalls(t, "CreateLink", 1)
}

func TestHistory_ClampsLimit(t *testing.T) {
	repo := new(MockLinkRepository)
	repo.On("ListByOwner", mock.Anything, int64(1), 50).Return([]*domain.ShortLink{}, nil).Twice()
	repo.On("ListByOwner", mock.Anything, int64(1), 10).Return([]*domain.ShortLink{}, nil).Once()

	svc := newTestService(t, repo)
	ctx := context.Background()

	_, err := svc.History(ctx, 1, 0)
	require.NoError(t, err)
	_, err = svc.History(ctx, 1, 500)
	require.NoError(t, err)
	_, err = svc.History(ctx, 1, 10)
	require.NoError(t, err)

	repo.AssertExpectations(t)
}

func TestHistory_NewestFirst(t *testing.T) {
	store := memory.New()
	svc := newTestService(t, store)
	ctx := context.Background()
	owner := int64(5)

	var ids []string
	for i := 0; i < 3; i++ {
		svc.generate = sequence(fmt.Sprintf("hist00%d", i))
		link, err := svc.Shorten(ctx, CreateLinkInput{OriginalURL: "https://example.com", OwnerID: &owner})
		require.NoError(t, err)
		ids = append(ids, link.ShortID)
	}

	links, err := svc.History(ctx, owner, 50)
	require.NoError(t, err)
	require.Len(t, links, 3)
	assert.Equal(t, ids[2], links[0].ShortID)
	assert.Equal(t, ids[0], links[2].ShortID)
}

func TestStats_DeviceBreakdown(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.CreateLink(ctx, &domain.ShortLink{ShortID: "stat001", OriginalURL: "https://example.com"}))
	require.NoError(t, store.IncrementClicks(ctx, "stat001"))
	require.NoError(t, store.IncrementClicks(ctx, "stat001"))

	win := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	require.NoError(t, store.AppendClick(ctx, &domain.ClickLog{ShortID: "stat001", UserAgent: &win}))
	require.NoError(t, store.AppendClick(ctx, &domain.ClickLog{ShortID: "stat001"}))

	stats, err := newTestService(t, store).Stats(ctx, "stat001")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Link.Clicks)
	assert.Equal(t, map[string]int64{"desktop": 1, "unknown": 1}, stats.Devices)
}

func TestStats_NotFound(t *testing.T) {
	_, err := newTestService(t, memory.New()).Stats(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrLinkNotFound)
}

func TestStats_BreakdownFailureIsTolerated(t *testing.T) {
	repo := new(MockLinkRepository)
	repo.On("FindByCode", mock.Anything, "stat002").Return(&domain.ShortLink{ShortID: "stat002", Clicks: 3}, nil)
	repo.On("ClicksByUserAgent", mock.Anything, "stat002").Return(nil, errors.New("timeout"))

	stats, err := newTestService(t, repo).Stats(context.Background(), "stat002")
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Link.Clicks)
	assert.Empty(t, stats.Devices)
}

func TestDelete_OwnerOnly(t *testing.T) {
	store := memory.New()
	svc := newTestService(t, store)
	ctx := context.Background()
	owner := int64(1)

	link, err := svc.Shorten(ctx, CreateLinkInput{OriginalURL: "https://example.com", OwnerID: &owner})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, link.ShortID, 2), repository.ErrLinkNotFound)
	require.NoError(t, svc.Delete(ctx, link.ShortID, 1))
	_, err = store.FindByCode(ctx, link.ShortID)
	assert.ErrorIs(t, err, repository.ErrLinkNotFound)
}

func TestBuildShortURL(t *testing.T) {
	assert.Equal(t, "https://s.example/r/abc1234", BuildShortURL("https://s.example/", "abc1234"))
	assert.Equal(t, "http://localhost:8080/r/abc1234", BuildShortURL("http://localhost:8080", "abc1234"))
}
