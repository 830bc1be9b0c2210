// Package models defines the data structures used throughout the application.
package models

import (
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
)

// Movie is the joined representation of a movie, with the genre and
// director names flattened next to their ids
type Movie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Trailer     string  `json:"trailer"`
	Year        int     `json:"year"`
	Rating      float64 `json:"rating"`
	GenreID     int64   `json:"genre_id"`
	Genre       string  `json:"genre"`
	DirectorID  int64   `json:"director_id"`
	Director    string  `json:"director"`
}

// MovieRow is a raw movie/genre/director tuple as scanned from a joined query
type MovieRow struct {
	ID           int64
	Title        sql.NullString
	Description  sql.NullString
	Trailer      sql.NullString
	Year         sql.NullInt64
	Rating       sql.NullFloat64
	GenreID      sql.NullInt64
	GenreName    sql.NullString
	DirectorID   sql.NullInt64
	DirectorName sql.NullString
}

// ScanDest returns the scan targets in the column order of the joined
// movie query
func (r *MovieRow) ScanDest() []any {
	return []any{
		&r.ID, &r.Title, &r.Description, &r.Trailer, &r.Year, &r.Rating,
		&r.GenreID, &r.GenreName, &r.DirectorID, &r.DirectorName,
	}
}

// NewMovie maps a scanned row to its JSON representation. NULL columns map
// to zero values.
func NewMovie(r MovieRow) Movie {
	return Movie{
		ID:          r.ID,
		Title:       r.Title.String,
		Description: r.Description.String,
		Trailer:     r.Trailer.String,
		Year:        int(r.Year.Int64),
		Rating:      r.Rating.Float64,
		GenreID:     r.GenreID.Int64,
		Genre:       r.GenreName.String,
		DirectorID:  r.DirectorID.Int64,
		Director:    r.DirectorName.String,
	}
}

// MovieInput is the body of a create request. Absent fields stay nil and
// are stored as NULL.
type MovieInput struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Trailer     *string  `json:"trailer"`
	Year        *int     `json:"year"`
	Rating      *float64 `json:"rating"`
	GenreID     *int64   `json:"genre_id"`
	DirectorID  *int64   `json:"director_id"`
}

// MovieReplacement is the body of a full replace request. Every field must
// be present; zero values count as present.
type MovieReplacement struct {
	Title       *string  `json:"title" validate:"required"`
	Description *string  `json:"description" validate:"required"`
	Trailer     *string  `json:"trailer" validate:"required"`
	Year        *int     `json:"year" validate:"required"`
	Rating      *float64 `json:"rating" validate:"required"`
	GenreID     *int64   `json:"genre_id" validate:"required"`
	DirectorID  *int64   `json:"director_id" validate:"required"`
}

// MovieFilter narrows a movie listing. Nil fields are not applied.
type MovieFilter struct {
	DirectorID *int64
	GenreID    *int64
}

// ParseMovieFilter reads the director_id and genre_id query parameters.
// Empty values are ignored.
func ParseMovieFilter(query url.Values) (MovieFilter, error) {
	var filter MovieFilter

	directorID, err := parseOptionalID(query, "director_id")
	if err != nil {
		return filter, err
	}
	genreID, err := parseOptionalID(query, "genre_id")
	if err != nil {
		return filter, err
	}

	filter.DirectorID = directorID
	filter.GenreID = genreID
	return filter, nil
}

func parseOptionalID(query url.Values, key string) (*int64, error) {
	raw := query.Get(key)
	if raw == "" {
		return nil, nil
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", key, raw)
	}
	return &id, nil
}
