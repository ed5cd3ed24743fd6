// Package repotest holds the behaviour every repository.Storage backend must share.
package repotest

import (
	"ShortLink-Backend/internal/domain"
	"ShortLink-Backend/internal/repository"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty storage for one subtest.
type Factory func(t *testing.T) repository.Storage

// Run exercises a storage backend against the shared contract.
func Run(t *testing.T, newStorage Factory) {
	t.Run("CreateAndFindLink", func(t *testing.T) { testCreateAndFind(t, newStorage(t)) })
	t.Run("DuplicateShortID", func(t *testing.T) { testDuplicate(t, newStorage(t)) })
	t.Run("IncrementClicksConcurrently", func(t *testing.T) { testIncrement(t, newStorage(t)) })
	t.Run("ListByOwner", func(t *testing.T) { testListByOwner(t, newStorage(t)) })
	t.Run("DeleteByCodeAndOwner", func(t *testing.T) { testDelete(t, newStorage(t)) })
	t.Run("Totals", func(t *testing.T) { testTotals(t, newStorage(t)) })
	t.Run("ClickLogs", func(t *testing.T) { testClickLogs(t, newStorage(t)) })
	t.Run("PurgeClickLogs", func(t *testing.T) { testPurge(t, newStorage(t)) })
	t.Run("Users", func(t *testing.T) { testUsers(t, newStorage(t)) })
}

func int64Ptr(v int64) *int64 { return &v }

func testCreateAndFind(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)

	link := &domain.ShortLink{
		ShortID:     "abc1234",
		OriginalURL: "https://example.com/a?b=c",
		OwnerID:     int64Ptr(7),
		ExpiresAt:   &expires,
	}
	require.NoError(t, s.CreateLink(ctx, link))
	assert.NotZero(t, link.ID)

	got, err := s.FindByCode(ctx, "abc1234")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a?b=c", got.OriginalURL)
	assert.Equal(t, int64(0), got.Clicks)
	require.NotNil(t, got.OwnerID)
	assert.Equal(t, int64(7), *got.OwnerID)
	require.NotNil(t, got.ExpiresAt)
	assert.True(t, expires.Equal(*got.ExpiresAt))
	assert.False(t, got.CreatedAt.IsZero())

	_, err = s.FindByCode(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrLinkNotFound)
}

func testDuplicate(t *testing.T, s repository.Storage) {
	ctx := context.Background()

	require.NoError(t, s.CreateLink(ctx, &domain.ShortLink{ShortID: "dup0001", OriginalURL: "https://a.example"}))
	err := s.CreateLink(ctx, &domain.ShortLink{ShortID: "dup0001", OriginalURL: "https://b.example"})
	assert.ErrorIs(t, err, repository.ErrLinkExists)

	got, err := s.FindByCode(ctx, "dup0001")
	require.NoError(t, err)
	assert.Equal(t, "https://a.example", got.OriginalURL)
}

func testIncrement(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	require.NoError(t, s.CreateLink(ctx, &domain.ShortLink{ShortID: "inc0001", OriginalURL: "https://a.example"}))

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.IncrementClicks(ctx, "inc0001")
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := s.FindByCode(ctx, "inc0001")
	require.NoError(t, err)
	assert.Equal(t, int64(n), got.Clicks)

	assert.ErrorIs(t, s.IncrementClicks(ctx, "missing"), repository.ErrLinkNotFound)
}

func testListByOwner(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	base := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)

	for i, id := range []string{"own0001", "own0002", "own0003"} {
		require.NoError(t, s.CreateLink(ctx, &domain.ShortLink{
			ShortID:     id,
			OriginalURL: "https://a.example/" + id,
			OwnerID:     int64Ptr(1),
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, s.CreateLink(ctx, &domain.ShortLink{ShortID: "oth0001", OriginalURL: "https://b.example", OwnerID: int64Ptr(2)}))
	require.NoError(t, s.CreateLink(ctx, &domain.ShortLink{ShortID: "anon001", OriginalURL: "https://c.example"}))

	links, err := s.ListByOwner(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "own0003", links[0].ShortID)
	assert.Equal(t, "own0002", links[1].ShortID)

	links, err = s.ListByOwner(ctx, 1, 50)
	require.NoError(t, err)
	assert.Len(t, links, 3)

	links, err = s.ListByOwner(ctx, 99, 50)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func testDelete(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	require.NoError(t, s.CreateLink(ctx, &domain.ShortLink{ShortID: "del0001", OriginalURL: "https://a.example", OwnerID: int64Ptr(1)}))
	require.NoError(t, s.CreateLink(ctx, &domain.ShortLink{ShortID: "del0002", OriginalURL: "https://a.example"}))
	require.NoError(t, s.AppendClick(ctx, &domain.ClickLog{ShortID: "del0001", At: time.Now()}))

	assert.ErrorIs(t, s.DeleteByCodeAndOwner(ctx, "del0001", 2), repository.ErrLinkNotFound)
	_, err := s.FindByCode(ctx, "del0001")
	require.NoError(t, err, "a foreign delete must not remove the link")

	assert.ErrorIs(t, s.DeleteByCodeAndOwner(ctx, "del0002", 1), repository.ErrLinkNotFound, "anonymous links have no owner")
	assert.ErrorIs(t, s.DeleteByCodeAndOwner(ctx, "missing", 1), repository.ErrLinkNotFound)

	require.NoError(t, s.DeleteByCodeAndOwner(ctx, "del0001", 1))
	_, err = s.FindByCode(ctx, "del0001")
	assert.ErrorIs(t, err, repository.ErrLinkNotFound)

	logs, err := s.CountClickLogs(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), logs, "click logs survive link deletion")
}

func testTotals(t *testing.T, s repository.Storage) {
	ctx := context.Background()

	sum, err := s.SumClicks(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), sum)

	require.NoError(t, s.CreateLink(ctx, &domain.ShortLink{ShortID: "tot0001", OriginalURL: "https://a.example"}))
	require.NoError(t, s.CreateLink(ctx, &domain.ShortLink{ShortID: "tot0002", OriginalURL: "https://b.example"}))
	require.NoError(t, s.IncrementClicks(ctx, "tot0001"))
	require.NoError(t, s.IncrementClicks(ctx, "tot0001"))
	require.NoError(t, s.IncrementClicks(ctx, "tot0002"))

	count, err := s.CountLinks(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	sum, err = s.SumClicks(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), sum)
}

func testClickLogs(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	ua := "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)"
	entries := []*domain.ClickLog{
		{ShortID: "log0001", At: base, IP: domain.StringPtr("1.1.1.1"), UserAgent: &ua},
		{ShortID: "log0001", At: base.Add(time.Hour), IP: domain.StringPtr("2.2.2.2"), UserAgent: &ua, Referer: domain.StringPtr("https://ref.example")},
		{ShortID: "log0001", At: base.Add(2 * time.Hour)},
		{ShortID: "log0002", At: base.Add(3 * time.Hour)},
	}
	for _, e := range entries {
		require.NoError(t, s.AppendClick(ctx, e))
	}

	count, err := s.CountClickLogs(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	var all []string
	require.NoError(t, s.StreamClickLogs(ctx, repository.ClickLogFilter{}, func(e *domain.ClickLog) error {
		all = append(all, e.ShortID+"@"+e.At.UTC().Format("15"))
		return nil
	}))
	assert.Equal(t, []string{"log0002@15", "log0001@14", "log0001@13", "log0001@12"}, all)

	from := base.Add(time.Hour)
	to := base.Add(2 * time.Hour)
	var ranged []*domain.ClickLog
	require.NoError(t, s.StreamClickLogs(ctx, repository.ClickLogFilter{From: &from, To: &to}, func(e *domain.ClickLog) error {
		ranged = append(ranged, e)
		return nil
	}))
	require.Len(t, ranged, 2, "both bounds are inclusive")
	assert.True(t, to.Equal(ranged[0].At))
	assert.True(t, from.Equal(ranged[1].At))
	assert.Equal(t, "2.2.2.2", domain.StringValue(ranged[1].IP))
	assert.Equal(t, "https://ref.example", domain.StringValue(ranged[1].Referer))
	assert.Nil(t, ranged[0].IP)

	byAgent, err := s.ClicksByUserAgent(ctx, "log0001")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{ua: 2, "": 1}, byAgent)
}

func testPurge(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.AppendClick(ctx, &domain.ClickLog{ShortID: "old0001", At: now.Add(-100 * 24 * time.Hour)}))
	require.NoError(t, s.AppendClick(ctx, &domain.ClickLog{ShortID: "old0001", At: now.Add(-91 * 24 * time.Hour)}))
	require.NoError(t, s.AppendClick(ctx, &domain.ClickLog{ShortID: "new0001", At: now.Add(-time.Hour)}))

	removed, err := s.PurgeClickLogs(ctx, now.Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	count, err := s.CountClickLogs(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func testUsers(t *testing.T, s repository.Storage) {
	ctx := context.Background()

	user := &domain.User{Email: "alice@example.com", PasswordHash: "hash"}
	require.NoError(t, s.CreateUser(ctx, user))
	assert.NotZero(t, user.ID)

	err := s.CreateUser(ctx, &domain.User{Email: "alice@example.com", PasswordHash: "other"})
	assert.ErrorIs(t, err, repository.ErrUserExists)

	byEmail, err := s.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, "hash", byEmail.PasswordHash)

	_, err = s.GetUserByEmail(ctx, "bob@example.com")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
	_, err = s.GetUserByID(ctx, user.ID+100)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.UpdateLastLogin(ctx, user.ID, at))
	byID, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, byID.LastLoginAt)
	assert.True(t, at.Equal(*byID.LastLoginAt))
}
