package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/watch-party/internal/model"
)

// BucketRepo stores marathon buckets.  marathon_buckets marks that a user
// owns a bucket (it survives removing every movie) and
// marathon_bucket_movies holds the entries.
type BucketRepo struct{ db *sql.DB }

func NewBucketRepo(db *sql.DB) *BucketRepo { return &BucketRepo{db: db} }

// Get returns the user's bucket or ErrNotFound.
func (r *BucketRepo) Get(ctx context.Context, userID string) (*model.Bucket, error) {
	var updated time.Time
	err := r.db.QueryRowContext(ctx, "SELECT updated_at FROM marathon_buckets WHERE user_id=?", userID).Scan(&updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT movie_id, title, runtime, poster_path, added_at FROM marathon_bucket_movies
         WHERE user_id=? ORDER BY added_at ASC, movie_id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	b := &model.Bucket{UserID: userID, Movies: []model.BucketEntry{}}
	for rows.Next() {
		var e model.BucketEntry
		if err := rows.Scan(&e.ID, &e.Title, &e.Runtime, &e.PosterPath, &e.AddedAt); err != nil {
			return nil, err
		}
		b.Movies = append(b.Movies, e)
	}
	return b, rows.Err()
}

// AddMovie appends an entry inside a transaction.  The upsert of the
// marathon_buckets row takes its exclusive lock, so the limit check and
// insert cannot interleave with another add for the same user.
func (r *BucketRepo) AddMovie(ctx context.Context, userID string, e model.BucketEntry, limit int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO marathon_buckets (user_id, updated_at) VALUES (?,?) ON DUPLICATE KEY UPDATE updated_at = VALUES(updated_at)",
		userID, now); err != nil {
		return err
	}
	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM marathon_bucket_movies WHERE user_id=?", userID).Scan(&count); err != nil {
		return err
	}
	if count >= limit {
		return ErrLimitReached
	}
	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM marathon_bucket_movies WHERE user_id=? AND movie_id=?", userID, e.ID).Scan(&exists)
	if err == nil {
		return ErrConflict
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO marathon_bucket_movies (user_id, movie_id, title, runtime, poster_path, added_at) VALUES (?,?,?,?,?,?)",
		userID, e.ID, e.Title, e.Runtime, e.PosterPath, e.AddedAt.UTC()); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// RemoveMovie deletes the entry if present.  Removing a movie that is not
// queued is not an error; a missing bucket is.
func (r *BucketRepo) RemoveMovie(ctx context.Context, userID string, movieID int64) error {
	var exists int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM marathon_buckets WHERE user_id=?", userID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	_, err = r.db.ExecContext(ctx, "DELETE FROM marathon_bucket_movies WHERE user_id=? AND movie_id=?", userID, movieID)
	return err
}
