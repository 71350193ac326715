package palabras

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lsm-recorder/backend/internal/models"
	"github.com/lsm-recorder/backend/pkg/apperr"
)

// Repository handles palabra persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a palabras repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns palabras whose name contains search (case-insensitive),
// ordered by name. An empty search returns everything.
func (r *Repository) List(ctx context.Context, search string) ([]models.Palabra, error) {
	const q = `SELECT id, nombre FROM palabras WHERE nombre ILIKE '%' || $1 || '%' ORDER BY nombre`
	rows, err := r.pool.Query(ctx, q, strings.TrimSpace(search))
	if err != nil {
		return nil, apperr.Storef(err, "failed to list palabras")
	}
	defer rows.Close()
	var list []models.Palabra
	for rows.Next() {
		var p models.Palabra
		if err := rows.Scan(&p.ID, &p.Nombre); err != nil {
			return nil, apperr.Storef(err, "failed to list palabras")
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storef(err, "failed to list palabras")
	}
	return list, nil
}

// GetByNombre returns the palabra with the given name, or nil when absent.
func (r *Repository) GetByNombre(ctx context.Context, nombre string) (*models.Palabra, error) {
	const q = `SELECT id, nombre FROM palabras WHERE nombre = $1`
	var p models.Palabra
	err := r.pool.QueryRow(ctx, q, strings.TrimSpace(nombre)).Scan(&p.ID, &p.Nombre)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Storef(err, "failed to look up palabra")
	}
	return &p, nil
}

// Create inserts a palabra. The UNIQUE constraint on nombre is the
// authoritative uniqueness guarantee; a violation surfaces as a conflict.
func (r *Repository) Create(ctx context.Context, nombre string) (*models.Palabra, error) {
	const q = `INSERT INTO palabras (nombre) VALUES ($1) RETURNING id, nombre`
	var p models.Palabra
	err := r.pool.QueryRow(ctx, q, strings.TrimSpace(nombre)).Scan(&p.ID, &p.Nombre)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperr.Conflict("palabra already exists")
		}
		return nil, apperr.Storef(err, "failed to create palabra")
	}
	return &p, nil
}

// Delete removes a palabra by id and returns the deleted row, or nil when
// the id was absent.
func (r *Repository) Delete(ctx context.Context, id int) (*models.Palabra, error) {
	const q = `DELETE FROM palabras WHERE id = $1 RETURNING id, nombre`
	var p models.Palabra
	err := r.pool.QueryRow(ctx, q, id).Scan(&p.ID, &p.Nombre)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Storef(err, "failed to delete palabra")
	}
	return &p, nil
}
