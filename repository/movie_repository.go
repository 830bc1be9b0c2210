// Package repository provides data access layer for the movies API.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"

	"movies/models"
)

// ErrMovieNotFound is returned when no movie row has the requested id
var ErrMovieNotFound = errors.New("movie not found")

// Querier is the subset of database/sql shared by *sql.DB, *sql.Conn and *sql.Tx
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// MovieRepository handles database operations for movies
type MovieRepository struct {
	db Querier
}

// NewMovieRepository creates a new movie repository
func NewMovieRepository(db Querier) *MovieRepository {
	return &MovieRepository{db: db}
}

// movies joined with their genre and director; rows with a dangling
// foreign key are dropped by the inner joins
const joinedMovieQuery = `
	SELECT m.id, m.title, m.description, m.trailer, m.year, m.rating,
		   m.genre_id, g.name, m.director_id, d.name
	FROM movie m
	JOIN genre g ON g.id = m.genre_id
	JOIN director d ON d.id = m.director_id
`

// List retrieves the joined movies matching the filter, ordered by id
func (r *MovieRepository) List(ctx context.Context, filter models.MovieFilter) ([]models.Movie, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.DirectorID != nil {
		args = append(args, *filter.DirectorID)
		conditions = append(conditions, fmt.Sprintf("m.director_id = $%d", len(args)))
	}
	if filter.GenreID != nil {
		args = append(args, *filter.GenreID)
		conditions = append(conditions, fmt.Sprintf("m.genre_id = $%d", len(args)))
	}

	query := joinedMovieQuery
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY m.id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("Failed to close rows: %v", err)
		}
	}()

	movies := []models.Movie{}
	for rows.Next() {
		var row models.MovieRow
		if err := rows.Scan(row.ScanDest()...); err != nil {
			return nil, fmt.Errorf("failed to scan movie: %w", err)
		}
		movies = append(movies, models.NewMovie(row))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}

	return movies, nil
}

// GetByID retrieves a joined movie by its ID
func (r *MovieRepository) GetByID(ctx context.Context, id int64) (*models.Movie, error) {
	var row models.MovieRow
	err := r.db.QueryRowContext(ctx, joinedMovieQuery+" WHERE m.id = $1", id).Scan(row.ScanDest()...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("movie with id %d: %w", id, ErrMovieNotFound)
		}
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}

	movie := models.NewMovie(row)
	return &movie, nil
}

// Exists reports whether a movie row with the given id is stored,
// regardless of its genre and director references
func (r *MovieRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var found int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM movie WHERE id = $1`, id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up movie: %w", err)
	}
	return true, nil
}

// Create inserts a new movie and returns its generated id. Nil input
// fields are stored as NULL and rejected by the schema.
func (r *MovieRepository) Create(ctx context.Context, input models.MovieInput) (int64, error) {
	query := `
		INSERT INTO movie (title, description, trailer, year, rating, genre_id, director_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		input.Title, input.Description, input.Trailer, input.Year,
		input.Rating, input.GenreID, input.DirectorID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create movie: %w", err)
	}

	return id, nil
}

// UpdateField sets a single column of a movie
func (r *MovieRepository) UpdateField(ctx context.Context, id int64, update models.FieldUpdate) error {
	if !slices.Contains(models.PatchFields(), update.Field) {
		return fmt.Errorf("field %q cannot be updated", update.Field)
	}

	query := fmt.Sprintf(`UPDATE movie SET %s = $1 WHERE id = $2`, update.Field)
	result, err := r.db.ExecContext(ctx, query, update.Value, id)
	if err != nil {
		return fmt.Errorf("failed to update movie %s: %w", update.Field, err)
	}

	return checkAffected(result, id)
}

// Replace overwrites every column of a movie
func (r *MovieRepository) Replace(ctx context.Context, id int64, m models.MovieReplacement) error {
	query := `
		UPDATE movie
		SET title = $1, description = $2, trailer = $3, year = $4,
			rating = $5, genre_id = $6, director_id = $7
		WHERE id = $8
	`

	result, err := r.db.ExecContext(ctx, query,
		m.Title, m.Description, m.Trailer, m.Year,
		m.Rating, m.GenreID, m.DirectorID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to replace movie: %w", err)
	}

	return checkAffected(result, id)
}

// Delete removes a movie by its ID
func (r *MovieRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM movie WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete movie: %w", err)
	}

	return checkAffected(result, id)
}

func checkAffected(result sql.Result, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("movie with id %d: %w", id, ErrMovieNotFound)
	}
	return nil
}
