package reel

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/reelhouse/reeld/internal/database"
)

var ErrReelNotFound = errors.New("reel does not exist")

type Store struct{}

func NewStore() *Store {
	return &Store{}
}

// Save upserts the provided reel. The ID is content-addressed from the
// source URL, so a conflicting row is simply the previous run of the
// same URL and can be overwritten with the fresh metadata.
func (store *Store) Save(db database.Queryable, reel *Reel) error {
	_, err := db.Exec(`
		INSERT INTO reels(id, source_url, duration_secs, width, height, has_audio, video_path, audio_path, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, current_timestamp, current_timestamp)
		ON CONFLICT(id) DO UPDATE SET
			duration_secs=EXCLUDED.duration_secs, width=EXCLUDED.width, height=EXCLUDED.height,
			has_audio=EXCLUDED.has_audio, video_path=EXCLUDED.video_path, audio_path=EXCLUDED.audio_path,
			updated_at=current_timestamp
	`, reel.ID, reel.SourceURL, reel.DurationSecs, reel.Width, reel.Height, reel.HasAudio, reel.VideoPath, reel.AudioPath)
	if err != nil {
		return fmt.Errorf("failed to upsert reel %s: %w", reel.ID, err)
	}

	return nil
}

func (store *Store) Get(db database.Queryable, id string) (*Reel, error) {
	query, args, err := selectReelBuilder().Where("reels.id=?", id).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to construct select reel query: %w", err)
	}

	var reel Reel
	if err := db.Get(&reel, db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReelNotFound
		}

		return nil, err
	}

	return &reel, nil
}

func (store *Store) GetByURL(db database.Queryable, sourceUrl string) (*Reel, error) {
	query, args, err := selectReelBuilder().Where("reels.source_url=?", sourceUrl).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to construct select reel query: %w", err)
	}

	var reel Reel
	if err := db.Get(&reel, db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReelNotFound
		}

		return nil, err
	}

	return &reel, nil
}

// GetMany returns the reels matching any of the provided IDs. Missing
// IDs are skipped rather than treated as an error.
func (store *Store) GetMany(db database.Queryable, ids []string) ([]*Reel, error) {
	if len(ids) == 0 {
		return []*Reel{}, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM reels WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to construct select reels query: %w", err)
	}

	var results []Reel
	if err := db.Select(&results, db.Rebind(query), args...); err != nil {
		return nil, err
	}

	output := make([]*Reel, len(results))
	for k := range results {
		output[k] = &results[k]
	}

	return output, nil
}

func (store *Store) List(db database.Queryable) ([]*Reel, error) {
	query, args, err := selectReelBuilder().OrderBy("reels.created_at DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to construct list reels query: %w", err)
	}

	var results []Reel
	if err := db.Select(&results, query, args...); err != nil {
		return nil, err
	}

	output := make([]*Reel, len(results))
	for k := range results {
		output[k] = &results[k]
	}

	return output, nil
}

// DeleteAll removes every persisted reel, reporting how many rows
// were dropped. Used when the storage is cleared via the API.
func (store *Store) DeleteAll(db database.Queryable) (int64, error) {
	result, err := db.Exec(`DELETE FROM reels`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete reels: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	return count, nil
}

func selectReelBuilder() squirrel.SelectBuilder {
	return squirrel.Select("reels.*").From("reels")
}
