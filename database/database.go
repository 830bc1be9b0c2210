// Package database provides database connectivity and schema management.
package database

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq"           // Import postgres driver
	_ "github.com/mattn/go-sqlite3" // Import sqlite3 driver
)

// Supported driver names
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// DB wraps the SQL database connection
type DB struct {
	*sql.DB
	driver string
}

// NewDB creates a new database connection
func NewDB(driver, dataSourceName string) (*DB, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		// SQLite allows a single writer, and every connection to ":memory:"
		// is a separate database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db, driver: driver}, nil
}

// Driver returns the name of the driver the connection was opened with
func (db *DB) Driver() string {
	return db.driver
}

// InitSchema initializes the database schema
func (db *DB) InitSchema() error {
	pk := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.driver == DriverPostgres {
		pk = "SERIAL PRIMARY KEY"
	}

	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS genre (
		id %[1]s,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS director (
		id %[1]s,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS movie (
		id %[1]s,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		trailer TEXT NOT NULL,
		year INTEGER NOT NULL,
		rating DOUBLE PRECISION NOT NULL,
		genre_id INTEGER NOT NULL REFERENCES genre (id),
		director_id INTEGER NOT NULL REFERENCES director (id)
	);

	CREATE INDEX IF NOT EXISTS idx_movie_genre_id ON movie(genre_id);
	CREATE INDEX IF NOT EXISTS idx_movie_director_id ON movie(director_id);
	`, pk)

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	log.Println("Database schema initialized")
	return nil
}

// Lookup is a row of one of the read-only lookup tables
type Lookup struct {
	ID   int64
	Name string
}

// DefaultGenres are the genre rows inserted by Seed
var DefaultGenres = []Lookup{
	{1, "Comedy"},
	{2, "Family"},
	{3, "Fantasy"},
	{4, "Drama"},
	{5, "Adventure"},
	{6, "Thriller"},
	{7, "Horror"},
	{8, "Action"},
	{9, "Documentary"},
	{10, "Romance"},
}

// DefaultDirectors are the director rows inserted by Seed
var DefaultDirectors = []Lookup{
	{1, "Taylor Sheridan"},
	{2, "Quentin Tarantino"},
	{3, "Vladimir Vaynshtok"},
	{4, "Dexter Fletcher"},
	{5, "Steven Spielberg"},
	{6, "Rob Marshall"},
	{7, "Denis Villeneuve"},
	{8, "Guy Ritchie"},
	{9, "Martin Scorsese"},
	{10, "Greta Gerwig"},
}

// Seed fills the genre and director tables. Existing rows are left untouched.
func (db *DB) Seed() error {
	if err := db.seedLookup("genre", DefaultGenres); err != nil {
		return err
	}
	if err := db.seedLookup("director", DefaultDirectors); err != nil {
		return err
	}

	log.Printf("Seeded %d genres and %d directors", len(DefaultGenres), len(DefaultDirectors))
	return nil
}

func (db *DB) seedLookup(table string, rows []Lookup) error {
	query := fmt.Sprintf(`INSERT INTO %s (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`, table)

	for _, row := range rows {
		if _, err := db.Exec(query, row.ID, row.Name); err != nil {
			return fmt.Errorf("failed to seed %s %d: %w", table, row.ID, err)
		}
	}
	return nil
}
