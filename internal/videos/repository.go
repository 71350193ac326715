package videos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lsm-recorder/backend/internal/models"
	"github.com/lsm-recorder/backend/pkg/apperr"
)

// DefaultListLimit is applied when a list request carries no limit.
const DefaultListLimit = 100

const videoColumns = `id, palabra, s3_key, session_id, sequence_number, session_started_at, created_at`

// NormalizePalabra trims and lowercases a palabra so that inputs differing
// only by case or whitespace hit the same key.
func NormalizePalabra(palabra string) string {
	return strings.ToLower(strings.TrimSpace(palabra))
}

// Repository handles video persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a videos repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores a video row. The palabra is normalized before insert and
// the stored row (id, normalized palabra, timestamp) is written back into v.
// A duplicate s3_key yields a conflict error and leaves the first row
// unchanged.
func (r *Repository) Insert(ctx context.Context, v *models.Video) error {
	const q = `INSERT INTO videos (palabra, s3_key, session_id, sequence_number, session_started_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + videoColumns
	err := r.pool.QueryRow(ctx, q,
		NormalizePalabra(v.Palabra), v.S3Key, v.SessionID, v.SequenceNumber, v.SessionStartedAt,
	).Scan(&v.ID, &v.Palabra, &v.S3Key, &v.SessionID, &v.SequenceNumber, &v.SessionStartedAt, &v.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("video already registered")
		}
		return apperr.Storef(err, "failed to insert video")
	}
	return nil
}

// CountByPalabra returns how many videos exist for a palabra, applying the
// same normalization as Insert.
func (r *Repository) CountByPalabra(ctx context.Context, palabra string) (int, error) {
	const q = `SELECT COUNT(*) FROM videos WHERE palabra = $1`
	var count int
	if err := r.pool.QueryRow(ctx, q, NormalizePalabra(palabra)).Scan(&count); err != nil {
		return 0, apperr.Storef(err, "failed to count videos")
	}
	return count, nil
}

// List returns videos newest-first with an optional palabra equality filter.
// Limit and offset are always part of the emitted query; non-positive values
// fall back to the defaults.
func (r *Repository) List(ctx context.Context, palabra string, limit, offset int) ([]models.Video, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	q := `SELECT ` + videoColumns + ` FROM videos`
	args := []interface{}{}
	if palabra != "" {
		q += ` WHERE palabra = $1`
		args = append(args, NormalizePalabra(palabra))
	}
	q += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, apperr.Storef(err, "failed to list videos")
	}
	defer rows.Close()
	return scanVideos(rows)
}

// Stats returns the per-palabra aggregate ordered by count descending.
func (r *Repository) Stats(ctx context.Context) ([]models.PalabraCount, error) {
	const q = `SELECT palabra, COUNT(*) FROM videos GROUP BY palabra ORDER BY COUNT(*) DESC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, apperr.Storef(err, "failed to load stats")
	}
	defer rows.Close()
	var stats []models.PalabraCount
	for rows.Next() {
		var pc models.PalabraCount
		if err := rows.Scan(&pc.Palabra, &pc.Count); err != nil {
			return nil, apperr.Storef(err, "failed to load stats")
		}
		stats = append(stats, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storef(err, "failed to load stats")
	}
	return stats, nil
}

// GetBySession returns the video recorded at (sessionID, sequenceNumber),
// or nil when no such row exists.
func (r *Repository) GetBySession(ctx context.Context, sessionID string, sequenceNumber int) (*models.Video, error) {
	const q = `SELECT ` + videoColumns + ` FROM videos WHERE session_id = $1 AND sequence_number = $2`
	var v models.Video
	err := r.pool.QueryRow(ctx, q, sessionID, sequenceNumber).
		Scan(&v.ID, &v.Palabra, &v.S3Key, &v.SessionID, &v.SequenceNumber, &v.SessionStartedAt, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Storef(err, "failed to look up video")
	}
	return &v, nil
}

// Delete removes a video by id and returns the deleted row, or nil when the
// id was absent.
func (r *Repository) Delete(ctx context.Context, id int) (*models.Video, error) {
	const q = `DELETE FROM videos WHERE id = $1 RETURNING ` + videoColumns
	var v models.Video
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&v.ID, &v.Palabra, &v.S3Key, &v.SessionID, &v.SequenceNumber, &v.SessionStartedAt, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Storef(err, "failed to delete video")
	}
	return &v, nil
}

// ExportSince returns all videos, or only those created after since when it
// is non-nil, ordered for export grouping.
func (r *Repository) ExportSince(ctx context.Context, since *time.Time) ([]models.Video, error) {
	q := `SELECT ` + videoColumns + ` FROM videos`
	args := []interface{}{}
	if since != nil {
		q += ` WHERE created_at > $1`
		args = append(args, *since)
	}
	q += ` ORDER BY palabra, session_id, sequence_number`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, apperr.Storef(err, "failed to export videos")
	}
	defer rows.Close()
	return scanVideos(rows)
}

func scanVideos(rows pgx.Rows) ([]models.Video, error) {
	var list []models.Video
	for rows.Next() {
		var v models.Video
		if err := rows.Scan(&v.ID, &v.Palabra, &v.S3Key, &v.SessionID, &v.SequenceNumber, &v.SessionStartedAt, &v.CreatedAt); err != nil {
			return nil, apperr.Storef(err, "failed to scan video")
		}
		list = append(list, v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storef(err, "failed to read videos")
	}
	return list, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
