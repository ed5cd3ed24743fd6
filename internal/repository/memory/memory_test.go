package memory

import (
	"ShortLink-Backend/internal/domain"
	"ShortLink-Backend/internal/repository"
	"ShortLink-Backend/internal/repository/repotest"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStorage_Contract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.Storage {
		return New()
	})
}

func TestMemStorage_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()

	owner := int64(3)
	require.NoError(t, s.CreateLink(ctx, &domain.ShortLink{ShortID: "copy001", OriginalURL: "https://a.example", OwnerID: &owner}))

	got, err := s.FindByCode(ctx, "copy001")
	require.NoError(t, err)
	got.OriginalURL = "https://mutated.example"
	*got.OwnerID = 99

	again, err := s.FindByCode(ctx, "copy001")
	require.NoError(t, err)
	assert.Equal(t, "https://a.example", again.OriginalURL)
	assert.Equal(t, int64(3), *again.OwnerID)
}

func TestMemStorage_ListByOwnerSameInstant(t *testing.T) {
	ctx := context.Background()
	s := New()
	owner := int64(1)

	for _, id := range []string{"same001", "same002", "same003"} {
		require.NoError(t, s.CreateLink(ctx, &domain.ShortLink{ShortID: id, OriginalURL: "https://a.example", OwnerID: &owner}))
	}
	// force identical timestamps
	created := s.links["same001"].link.CreatedAt
	for _, e := range s.links {
		e.link.CreatedAt = created
	}

	links, err := s.ListByOwner(ctx, owner, 50)
	require.NoError(t, err)
	require.Len(t, links, 3)
	assert.Equal(t, "same003", links[0].ShortID)
	assert.Equal(t, "same001", links[2].ShortID)
}
