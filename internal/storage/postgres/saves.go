package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/delve/internal/game/state"
)

// SaveRepository stores run snapshots and permanent records as JSONB rows
// keyed by profile ID. It implements state.Store.
type SaveRepository struct {
	db *pgxpool.Pool
}

// NewSaveRepository creates a SaveRepository backed by db.
//
// Precondition: db must be a valid, open connection pool with migrations applied.
func NewSaveRepository(db *pgxpool.Pool) *SaveRepository {
	return &SaveRepository{db: db}
}

// SaveRun upserts the run snapshot for profileID.
func (r *SaveRepository) SaveRun(ctx context.Context, profileID string, snap state.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding run snapshot: %w", err)
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO run_saves (profile_id, version, floor, snapshot, updated_at)
		 VALUES ($1, $2, $3, $4::jsonb, NOW())
		 ON CONFLICT (profile_id) DO UPDATE
		 SET version = EXCLUDED.version,
		     floor = EXCLUDED.floor,
		     snapshot = EXCLUDED.snapshot,
		     updated_at = NOW()`,
		profileID, snap.Version, snap.Floor, string(data),
	)
	if err != nil {
		return fmt.Errorf("saving run %q: %w", profileID, err)
	}
	return nil
}

// LoadRun returns the run snapshot for profileID.
//
// Postcondition: Returns state.ErrNotFound when no run is saved.
func (r *SaveRepository) LoadRun(ctx context.Context, profileID string) (state.Snapshot, error) {
	var data []byte
	err := r.db.QueryRow(ctx,
		`SELECT snapshot FROM run_saves WHERE profile_id = $1`, profileID,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return state.Snapshot{}, state.ErrNotFound
		}
		return state.Snapshot{}, fmt.Errorf("loading run %q: %w", profileID, err)
	}
	var snap state.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return state.Snapshot{}, fmt.Errorf("decoding run %q: %w", profileID, err)
	}
	return snap, nil
}

// DeleteRun removes the run snapshot for profileID. Deleting a missing run is not an error.
func (r *SaveRepository) DeleteRun(ctx context.Context, profileID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM run_saves WHERE profile_id = $1`, profileID); err != nil {
		return fmt.Errorf("deleting run %q: %w", profileID, err)
	}
	return nil
}

// SavePermanent upserts the permanent record for profileID.
func (r *SaveRepository) SavePermanent(ctx context.Context, profileID string, rec state.PermanentRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding permanent record: %w", err)
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO permanent_records (profile_id, echoes, record, updated_at)
		 VALUES ($1, $2, $3::jsonb, NOW())
		 ON CONFLICT (profile_id) DO UPDATE
		 SET echoes = EXCLUDED.echoes,
		     record = EXCLUDED.record,
		     updated_at = NOW()`,
		profileID, rec.Echoes, string(data),
	)
	if err != nil {
		return fmt.Errorf("saving permanent record %q: %w", profileID, err)
	}
	return nil
}

// LoadPermanent returns the permanent record for profileID.
//
// Postcondition: Returns state.ErrNotFound when no record is saved.
func (r *SaveRepository) LoadPermanent(ctx context.Context, profileID string) (state.PermanentRecord, error) {
	var data []byte
	err := r.db.QueryRow(ctx,
		`SELECT record FROM permanent_records WHERE profile_id = $1`, profileID,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return state.PermanentRecord{}, state.ErrNotFound
		}
		return state.PermanentRecord{}, fmt.Errorf("loading permanent record %q: %w", profileID, err)
	}
	var rec state.PermanentRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return state.PermanentRecord{}, fmt.Errorf("decoding permanent record %q: %w", profileID, err)
	}
	return rec, nil
}

// Standing is one row of the echoes leaderboard.
type Standing struct {
	ProfileID string
	Echoes    int
}

// Leaderboard returns up to limit profiles ordered by echoes, highest first.
//
// Precondition: limit must be > 0.
func (r *SaveRepository) Leaderboard(ctx context.Context, limit int) ([]Standing, error) {
	rows, err := r.db.Query(ctx,
		`SELECT profile_id, echoes FROM permanent_records
		 ORDER BY echoes DESC, profile_id
		 LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying leaderboard: %w", err)
	}
	defer rows.Close()

	var out []Standing
	for rows.Next() {
		var s Standing
		if err := rows.Scan(&s.ProfileID, &s.Echoes); err != nil {
			return nil, fmt.Errorf("scanning leaderboard row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
