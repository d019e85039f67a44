package repository

import (
	"context"
	"errors"
	"fmt"

	"marketplace_backend/platform/apperr"
	"marketplace_backend/platform/db"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userNotFoundMsg = "user not found"

// UserWithCity is a user joined with its city coordinates. City fields
// are nil when the user has no city assigned.
type UserWithCity struct {
	ID           int64    `db:"id"`
	Name         string   `db:"name"`
	Role         string   `db:"role"`
	Radius       *float64 `db:"radius"`
	HasSetRadius bool     `db:"has_set_radius"`
	CityID       *int64   `db:"city_id"`
	CityName     *string  `db:"city_name"`
	CityState    *string  `db:"city_state"`
	Lat          *float64 `db:"lat"`
	Lon          *float64 `db:"lon"`
}

// Employee is an employee row joined with profession and city attributes.
type Employee struct {
	ID           int64   `db:"id"`
	Name         string  `db:"name"`
	Email        string  `db:"email"`
	Phone        *string `db:"phone"`
	ProfileColor *string `db:"profile_color"`
	Profession   *string `db:"profession"`
	CityID       int64   `db:"city_id"`
	CityName     string  `db:"city_name"`
	CityState    string  `db:"city_state"`
}

// Repository provides database operations for users
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new users repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindWithCity retrieves a user together with its city coordinates.
func (r *Repository) FindWithCity(ctx context.Context, id int64) (*UserWithCity, error) {
	query := `
		SELECT u.id, u.name, u.role, u.radius, u.has_set_radius, u.city_id,
		       c.name, COALESCE(c.state, ''), c.lat, c.lon
		FROM users u
		LEFT JOIN cities c ON c.id = u.city_id
		WHERE u.id = $1`

	var user UserWithCity
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Name, &user.Role, &user.Radius, &user.HasSetRadius,
		&user.CityID, &user.CityName, &user.CityState, &user.Lat, &user.Lon,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(userNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

const employeeColumns = `
	u.id, u.name, u.email, u.phone, u.profile_color,
	p.name, u.city_id, c.name, COALESCE(c.state, '')`

func scanEmployee(rows pgx.Rows) (*Employee, error) {
	var employee Employee
	err := rows.Scan(
		&employee.ID, &employee.Name, &employee.Email, &employee.Phone,
		&employee.ProfileColor, &employee.Profession, &employee.CityID,
		&employee.CityName, &employee.CityState,
	)
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

// FindEmployeesInCities returns employees located in any of the given
// cities, excluding the requesting user.
func (r *Repository) FindEmployeesInCities(ctx context.Context, cityIDs []int64, excludeUserID int64) ([]Employee, error) {
	if len(cityIDs) == 0 {
		return []Employee{}, nil
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM users u
		LEFT JOIN professions p ON p.id = u.profession_id
		JOIN cities c ON c.id = u.city_id
		WHERE u.role = 'EMPLOYEE'
		AND u.city_id = ANY($1)
		AND u.id != $2`, employeeColumns)

	rows, err := r.pool.Query(ctx, query, cityIDs, excludeUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find employees: %w", err)
	}
	defer rows.Close()

	return collectEmployees(rows)
}

// SearchEmployeesInCities returns employees in the given cities whose
// name contains the search term, ordered by name.
func (r *Repository) SearchEmployeesInCities(ctx context.Context, term string, cityIDs []int64, excludeUserID int64, limit int) ([]Employee, error) {
	if len(cityIDs) == 0 {
		return []Employee{}, nil
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM users u
		LEFT JOIN professions p ON p.id = u.profession_id
		JOIN cities c ON c.id = u.city_id
		WHERE u.role = 'EMPLOYEE'
		AND u.city_id = ANY($1)
		AND u.name ILIKE '%%' || $2 || '%%'
		AND u.id != $3
		ORDER BY u.name
		LIMIT $4`, employeeColumns)

	rows, err := r.pool.Query(ctx, query, cityIDs, db.EscapeLikePattern(term), excludeUserID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search employees: %w", err)
	}
	defer rows.Close()

	return collectEmployees(rows)
}

func collectEmployees(rows pgx.Rows) ([]Employee, error) {
	employees := make([]Employee, 0)
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, *employee)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read employees: %w", err)
	}
	return employees, nil
}

// UpdateRadius sets the user's search radius and marks it as configured.
func (r *Repository) UpdateRadius(ctx context.Context, id int64, radiusKm float64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET radius = $1, has_set_radius = true WHERE id = $2`,
		radiusKm, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update radius: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(userNotFoundMsg)
	}
	return nil
}
