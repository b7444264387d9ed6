//go:build integration

package profilerepo

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/yanqian/suncare/internal/domain/profile"
	"github.com/yanqian/suncare/internal/domain/risk"
	"github.com/yanqian/suncare/internal/infra/migrations"
)

func newPostgresRepository(t *testing.T) *PostgresRepository {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("suncare"),
		tcpostgres.WithUsername("suncare"),
		tcpostgres.WithPassword("suncare"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(ctr) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, migrations.Up(ctx, dsn))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return NewPostgresRepository(pool)
}

func TestPostgresRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newPostgresRepository(t)

	created, err := repo.Create(ctx, profile.Profile{
		ID:                "user-1",
		Age:               45,
		SkinToneIndex:     3,
		SkinConditions:    "eczema",
		ConditionSeverity: 2,
		Baseline:          risk.Baseline(3, 45),
		Final:             risk.Final(3, 45, 2),
	})
	require.NoError(t, err)
	require.Equal(t, risk.Baseline(3, 45).Category, created.Baseline.Category)
	require.Nil(t, created.CurrentUV)

	uv := 90
	now := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, repo.UpdateRiskFields(ctx, "user-1", profile.RiskUpdate{
		Final:        risk.FinalWithUV(3, 45, 2, uv),
		CurrentUV:    &uv,
		LastUVUpdate: &now,
	}))

	got, ok, err := repo.Get(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 90, *got.CurrentUV)
	require.True(t, now.Equal(*got.LastUVUpdate))
	require.InDelta(t, risk.FinalScoreWithUV(3, 45, 2, uv), got.Final.Score, 1e-9)

	got.SkinConditions = "none"
	got.ConditionSeverity = 0
	got.Final = risk.Final(3, 45, 0)
	require.NoError(t, repo.UpdateProfile(ctx, got))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "none", all[0].SkinConditions)

	require.ErrorIs(t, repo.UpdateRiskFields(ctx, "missing", profile.RiskUpdate{}), profile.ErrNotFound)
}

func TestPostgresRepositoryLastApplied(t *testing.T) {
	ctx := context.Background()
	repo := newPostgresRepository(t)

	_, ok, err := repo.ReadLastApplied(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	at := time.Date(2024, 7, 1, 1, 30, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastApplied(ctx, at))
	require.NoError(t, repo.UpdateLastApplied(ctx, at.Add(time.Hour)))

	got, ok, err := repo.ReadLastApplied(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, at.Add(time.Hour).Equal(got))
}
