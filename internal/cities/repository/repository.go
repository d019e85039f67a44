package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace_backend/platform/apperr"
	"marketplace_backend/platform/db"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the Postgres error code raised by the
// (lower(name), lower(state)) unique index when two resolutions race.
const uniqueViolation = "23505"

// City represents the canonical city database model. Rows are immutable
// once written and are never deleted (users reference them by FK).
type City struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	State     string    `db:"state"`
	Country   string    `db:"country"`
	Lat       float64   `db:"lat"`
	Lon       float64   `db:"lon"`
	CreatedAt time.Time `db:"created_at"`
}

// Repository provides database operations for cities
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new cities repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const cityColumns = `id, name, COALESCE(state, ''), country, lat, lon, created_at`

func scanCity(row pgx.Row) (*City, error) {
	var city City
	err := row.Scan(&city.ID, &city.Name, &city.State, &city.Country, &city.Lat, &city.Lon, &city.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &city, nil
}

// FindByNameState retrieves a city by its case-insensitive (name, state)
// pair. Returns nil without error when no row matches.
func (r *Repository) FindByNameState(ctx context.Context, name, state string) (*City, error) {
	query := fmt.Sprintf(`SELECT %s FROM cities
		WHERE LOWER(name) = LOWER($1) AND LOWER(COALESCE(state, '')) = LOWER($2)`, cityColumns)

	city, err := scanCity(r.pool.QueryRow(ctx, query, name, state))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find city by name and state: %w", err)
	}

	return city, nil
}

// FindByName retrieves the first city matching a case-insensitive name,
// regardless of state. Returns nil without error when no row matches.
func (r *Repository) FindByName(ctx context.Context, name string) (*City, error) {
	query := fmt.Sprintf(`SELECT %s FROM cities
		WHERE LOWER(name) = LOWER($1) ORDER BY id LIMIT 1`, cityColumns)

	city, err := scanCity(r.pool.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find city by name: %w", err)
	}

	return city, nil
}

// Insert stores a new canonical city and returns it with the assigned ID.
// A unique-index violation surfaces as a Conflict so callers can recover
// from the lost insert race by re-fetching.
func (r *Repository) Insert(ctx context.Context, city *City) (*City, error) {
	query := `
		INSERT INTO cities (name, state, country, lat, lon)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query, city.Name, city.State, city.Country, city.Lat, city.Lon).
		Scan(&city.ID, &city.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, apperr.Conflict("city already exists")
		}
		return nil, fmt.Errorf("failed to insert city: %w", err)
	}

	return city, nil
}

// ListAll returns a point-in-time snapshot of every stored city.
func (r *Repository) ListAll(ctx context.Context) ([]City, error) {
	query := fmt.Sprintf(`SELECT %s FROM cities ORDER BY id`, cityColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list cities: %w", err)
	}
	defer rows.Close()

	var cities []City
	for rows.Next() {
		city, err := scanCity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan city: %w", err)
		}
		cities = append(cities, *city)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cities: %w", err)
	}

	return cities, nil
}

// SearchByPrefix returns stored cities whose name starts with the query,
// case-insensitively, ordered by name.
func (r *Repository) SearchByPrefix(ctx context.Context, prefix string, limit int) ([]City, error) {
	query := fmt.Sprintf(`SELECT %s FROM cities
		WHERE name ILIKE $1 || '%%' ORDER BY name LIMIT $2`, cityColumns)

	rows, err := r.pool.Query(ctx, query, db.EscapeLikePattern(prefix), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search cities: %w", err)
	}
	defer rows.Close()

	var cities []City
	for rows.Next() {
		city, err := scanCity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan city: %w", err)
		}
		cities = append(cities, *city)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cities: %w", err)
	}

	return cities, nil
}
