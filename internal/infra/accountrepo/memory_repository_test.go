package accountrepo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/suncare/internal/domain/auth"
)

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	account := auth.Account{ID: "a1", Email: "a@example.com", PasswordHash: "hash", CreatedAt: time.Now().UTC()}

	_, err := repo.Create(ctx, account)
	require.NoError(t, err)

	_, err = repo.Create(ctx, auth.Account{ID: "a2", Email: "a@example.com"})
	require.ErrorIs(t, err, auth.ErrEmailExists)

	byEmail, ok, err := repo.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a1", byEmail.ID)

	_, ok, err = repo.GetByID(ctx, "a2")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, repo.Delete(ctx, "a1"))
	_, ok, err = repo.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.False(t, ok)
	_, err = repo.Create(ctx, auth.Account{ID: "a3", Email: "a@example.com"})
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, "missing"))
}
