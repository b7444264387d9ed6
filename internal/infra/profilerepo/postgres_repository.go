package profilerepo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/suncare/internal/domain/profile"
	"github.com/yanqian/suncare/internal/domain/risk"
)

const profileColumns = `id, age, skin_tone_index, skin_conditions, condition_severity,
	baseline_score, baseline_category, final_score, final_category,
	current_uv, last_uv_update, created_at, updated_at`

// PostgresRepository persists profiles in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// ListAll returns every profile except the reserved sensor record.
func (r *PostgresRepository) ListAll(ctx context.Context) ([]profile.Profile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		WHERE id <> $1
		ORDER BY id
	`, profile.ReservedID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []profile.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Get fetches by primary key.
func (r *PostgresRepository) Get(ctx context.Context, id string) (profile.Profile, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		WHERE id = $1
	`, id)
	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return profile.Profile{}, false, nil
	}
	if err != nil {
		return profile.Profile{}, false, err
	}
	return p, true, nil
}

// Create inserts or replaces a profile row.
func (r *PostgresRepository) Create(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO profiles (id, age, skin_tone_index, skin_conditions, condition_severity,
			baseline_score, baseline_category, final_score, final_category)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			age = EXCLUDED.age,
			skin_tone_index = EXCLUDED.skin_tone_index,
			skin_conditions = EXCLUDED.skin_conditions,
			condition_severity = EXCLUDED.condition_severity,
			baseline_score = EXCLUDED.baseline_score,
			baseline_category = EXCLUDED.baseline_category,
			final_score = EXCLUDED.final_score,
			final_category = EXCLUDED.final_category,
			updated_at = NOW()
		RETURNING `+profileColumns,
		p.ID, p.Age, p.SkinToneIndex, p.SkinConditions, p.ConditionSeverity,
		p.Baseline.Score, string(p.Baseline.Category), p.Final.Score, string(p.Final.Category))
	return scanProfile(row)
}

// UpdateProfile overwrites attributes and assessments.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, p profile.Profile) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE profiles SET
			age = $2,
			skin_tone_index = $3,
			skin_conditions = $4,
			condition_severity = $5,
			baseline_score = $6,
			baseline_category = $7,
			final_score = $8,
			final_category = $9,
			updated_at = NOW()
		WHERE id = $1
	`, p.ID, p.Age, p.SkinToneIndex, p.SkinConditions, p.ConditionSeverity,
		p.Baseline.Score, string(p.Baseline.Category), p.Final.Score, string(p.Final.Category))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return profile.ErrNotFound
	}
	return nil
}

// UpdateRiskFields writes the monitor owned columns.
func (r *PostgresRepository) UpdateRiskFields(ctx context.Context, id string, update profile.RiskUpdate) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE profiles SET
			final_score = $2,
			final_category = $3,
			current_uv = $4,
			last_uv_update = $5,
			updated_at = NOW()
		WHERE id = $1
	`, id, update.Final.Score, string(update.Final.Category), update.CurrentUV, update.LastUVUpdate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return profile.ErrNotFound
	}
	return nil
}

// UpdateLastApplied upserts the reserved sensor state row.
func (r *PostgresRepository) UpdateLastApplied(ctx context.Context, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sensor_state (id, last_applied_at, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET last_applied_at = EXCLUDED.last_applied_at, updated_at = NOW()
	`, profile.ReservedID, at.UTC())
	return err
}

// ReadLastApplied returns the last applied instant, if recorded.
func (r *PostgresRepository) ReadLastApplied(ctx context.Context) (time.Time, bool, error) {
	var at *time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT last_applied_at FROM sensor_state WHERE id = $1
	`, profile.ReservedID).Scan(&at)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && at == nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return at.UTC(), true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (profile.Profile, error) {
	var (
		p                    profile.Profile
		baselineCat, finalCat string
		lastUV               *time.Time
		created, updated     time.Time
	)
	if err := row.Scan(
		&p.ID, &p.Age, &p.SkinToneIndex, &p.SkinConditions, &p.ConditionSeverity,
		&p.Baseline.Score, &baselineCat, &p.Final.Score, &finalCat,
		&p.CurrentUV, &lastUV, &created, &updated,
	); err != nil {
		return profile.Profile{}, err
	}
	p.Baseline.Category = risk.Category(baselineCat)
	p.Final.Category = risk.Category(finalCat)
	if lastUV != nil {
		utc := lastUV.UTC()
		p.LastUVUpdate = &utc
	}
	p.CreatedAt = created.UTC()
	p.UpdatedAt = updated.UTC()
	return p, nil
}

var _ profile.Store = (*PostgresRepository)(nil)
