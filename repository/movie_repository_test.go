package repository

import (
	"context"
	"fmt"
	"testing"

	"movies/database"
	"movies/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRepo(t *testing.T) (*MovieRepository, func()) {
	// Create a temporary test database
	testDB, err := database.NewDB(database.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	// Initialize schema and lookup rows
	if err := testDB.InitSchema(); err != nil {
		t.Fatalf("Failed to initialize test schema: %v", err)
	}
	if err := testDB.Seed(); err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	repo := NewMovieRepository(testDB)

	// Return cleanup function
	cleanup := func() {
		if err := testDB.Close(); err != nil {
			t.Logf("Failed to close test database: %v", err)
		}
	}

	return repo, cleanup
}

func ptr[T any](v T) *T {
	return &v
}

func testMovieInput(title string, genreID, directorID int64) models.MovieInput {
	return models.MovieInput{
		Title:       ptr(title),
		Description: ptr("A test movie"),
		Trailer:     ptr("https://www.youtube.com/watch?v=test"),
		Year:        ptr(2023),
		Rating:      ptr(7.5),
		GenreID:     ptr(genreID),
		DirectorID:  ptr(directorID),
	}
}

func createTestMovieForRepo(t *testing.T, repo *MovieRepository, title string, genreID, directorID int64) int64 {
	id, err := repo.Create(context.Background(), testMovieInput(title, genreID, directorID))
	require.NoError(t, err)
	require.NotZero(t, id)
	return id
}

func TestMovieRepository_Create_RoundTrip(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	id := createTestMovieForRepo(t, repo, "Round Trip", 4, 1)

	movie, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.Movie{
		ID:          id,
		Title:       "Round Trip",
		Description: "A test movie",
		Trailer:     "https://www.youtube.com/watch?v=test",
		Year:        2023,
		Rating:      7.5,
		GenreID:     4,
		Genre:       "Drama",
		DirectorID:  1,
		Director:    "Taylor Sheridan",
	}, *movie)
}

func TestMovieRepository_Create_MissingField(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	input := testMovieInput("No Year", 1, 1)
	input.Year = nil

	_, err := repo.Create(ctx, input)
	assert.Error(t, err)

	movies, err := repo.List(ctx, models.MovieFilter{})
	require.NoError(t, err)
	assert.Empty(t, movies)
}

func TestMovieRepository_Create_SequentialIDs(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	first := createTestMovieForRepo(t, repo, "First", 1, 1)
	second := createTestMovieForRepo(t, repo, "Second", 1, 1)
	assert.Greater(t, second, first)
}

func TestMovieRepository_GetByID_NotFound(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	movie, err := repo.GetByID(context.Background(), 999)
	assert.Nil(t, movie)
	assert.ErrorIs(t, err, ErrMovieNotFound)
	assert.Contains(t, err.Error(), "movie with id 999")
}

func TestMovieRepository_GetByID_DanglingReference(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	// Genre 404 does not exist, so the joined read cannot surface the movie
	id := createTestMovieForRepo(t, repo, "Orphan", 404, 1)

	_, err := repo.GetByID(ctx, id)
	assert.ErrorIs(t, err, ErrMovieNotFound)

	exists, err := repo.Exists(ctx, id)
	require.NoError(t, err)
	assert.True(t, exists)

	movies, err := repo.List(ctx, models.MovieFilter{})
	require.NoError(t, err)
	assert.Empty(t, movies)
}

func TestMovieRepository_List_Empty(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	movies, err := repo.List(context.Background(), models.MovieFilter{})
	require.NoError(t, err)
	assert.NotNil(t, movies)
	assert.Empty(t, movies)
}

func TestMovieRepository_List_Filters(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	a := createTestMovieForRepo(t, repo, "Genre 3 Director 1", 3, 1)
	b := createTestMovieForRepo(t, repo, "Genre 3 Director 2", 3, 2)
	c := createTestMovieForRepo(t, repo, "Genre 4 Director 2", 4, 2)

	tests := []struct {
		name   string
		filter models.MovieFilter
		want   []int64
	}{
		{"no filter", models.MovieFilter{}, []int64{a, b, c}},
		{"genre", models.MovieFilter{GenreID: ptr(int64(3))}, []int64{a, b}},
		{"director", models.MovieFilter{DirectorID: ptr(int64(2))}, []int64{b, c}},
		{"genre and director", models.MovieFilter{GenreID: ptr(int64(3)), DirectorID: ptr(int64(2))}, []int64{b}},
		{"no match", models.MovieFilter{GenreID: ptr(int64(9))}, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			movies, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)

			ids := []int64{}
			for _, m := range movies {
				ids = append(ids, m.ID)
				if tt.filter.GenreID != nil {
					assert.Equal(t, *tt.filter.GenreID, m.GenreID)
				}
				if tt.filter.DirectorID != nil {
					assert.Equal(t, *tt.filter.DirectorID, m.DirectorID)
				}
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestMovieRepository_UpdateField(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	id := createTestMovieForRepo(t, repo, "Before", 1, 1)

	err := repo.UpdateField(ctx, id, models.FieldUpdate{Field: "year", Value: 2020})
	require.NoError(t, err)

	movie, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2020, movie.Year)
	assert.Equal(t, "Before", movie.Title)
	assert.Equal(t, 7.5, movie.Rating)

	err = repo.UpdateField(ctx, id, models.FieldUpdate{Field: "director_id", Value: int64(5)})
	require.NoError(t, err)

	movie, err = repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Steven Spielberg", movie.Director)
}

func TestMovieRepository_UpdateField_NotFound(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	err := repo.UpdateField(context.Background(), 999, models.FieldUpdate{Field: "title", Value: "X"})
	assert.ErrorIs(t, err, ErrMovieNotFound)
}

func TestMovieRepository_UpdateField_UnknownColumn(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	id := createTestMovieForRepo(t, repo, "Guarded", 1, 1)

	err := repo.UpdateField(context.Background(), id, models.FieldUpdate{Field: "id = 0; --", Value: 1})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrMovieNotFound)
	assert.Contains(t, err.Error(), "cannot be updated")
}

func TestMovieRepository_UpdateField_NullRejected(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	id := createTestMovieForRepo(t, repo, "Keeps Title", 1, 1)

	err := repo.UpdateField(ctx, id, models.FieldUpdate{Field: "title", Value: nil})
	assert.Error(t, err)

	movie, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Keeps Title", movie.Title)
}

func TestMovieRepository_Replace(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	id := createTestMovieForRepo(t, repo, "Old", 1, 1)

	err := repo.Replace(ctx, id, models.MovieReplacement{
		Title:       ptr("New"),
		Description: ptr("New description"),
		Trailer:     ptr("https://example.com/new"),
		Year:        ptr(1999),
		Rating:      ptr(9.1),
		GenreID:     ptr(int64(6)),
		DirectorID:  ptr(int64(2)),
	})
	require.NoError(t, err)

	movie, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.Movie{
		ID:          id,
		Title:       "New",
		Description: "New description",
		Trailer:     "https://example.com/new",
		Year:        1999,
		Rating:      9.1,
		GenreID:     6,
		Genre:       "Thriller",
		DirectorID:  2,
		Director:    "Quentin Tarantino",
	}, *movie)
}

func TestMovieRepository_Replace_NotFound(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	err := repo.Replace(context.Background(), 42, models.MovieReplacement{
		Title:       ptr("t"),
		Description: ptr("d"),
		Trailer:     ptr("tr"),
		Year:        ptr(2000),
		Rating:      ptr(1.0),
		GenreID:     ptr(int64(1)),
		DirectorID:  ptr(int64(1)),
	})
	assert.ErrorIs(t, err, ErrMovieNotFound)
}

func TestMovieRepository_Delete_Success(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	id := createTestMovieForRepo(t, repo, "Movie to Delete", 1, 1)

	// Verify movie exists
	_, err := repo.GetByID(ctx, id)
	require.NoError(t, err)

	// Delete the movie
	require.NoError(t, repo.Delete(ctx, id))

	// Verify movie no longer exists
	_, err = repo.GetByID(ctx, id)
	assert.ErrorIs(t, err, ErrMovieNotFound)

	exists, err := repo.Exists(ctx, id)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMovieRepository_Delete_NotFound(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	err := repo.Delete(context.Background(), 999)
	assert.ErrorIs(t, err, ErrMovieNotFound)
	assert.Contains(t, err.Error(), "movie with id 999")
}

func TestMovieRepository_Delete_DoubleDelete(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	id := createTestMovieForRepo(t, repo, "Double Delete Test", 1, 1)

	assert.NoError(t, repo.Delete(ctx, id))
	assert.ErrorIs(t, repo.Delete(ctx, id), ErrMovieNotFound)
}

func TestMovieRepository_Delete_DatabaseIntegrity(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	movie1 := createTestMovieForRepo(t, repo, "Movie 1", 1, 1)
	movie2 := createTestMovieForRepo(t, repo, "Movie 2", 1, 1)
	movie3 := createTestMovieForRepo(t, repo, "Movie 3", 1, 1)

	// Delete middle movie
	require.NoError(t, repo.Delete(ctx, movie2))

	// Create a new movie - should get a new ID, not reuse the deleted one
	movie4 := createTestMovieForRepo(t, repo, "Movie 4", 1, 1)
	assert.NotEqual(t, movie2, movie4)

	allMovies, err := repo.List(ctx, models.MovieFilter{})
	require.NoError(t, err)

	existingIDs := make([]int64, len(allMovies))
	for i, movie := range allMovies {
		existingIDs[i] = movie.ID
	}
	assert.Equal(t, []int64{movie1, movie3, movie4}, existingIDs)
}

func TestMovieRepository_Delete_ConcurrentAccess(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	id := createTestMovieForRepo(t, repo, "Concurrent Access Test", 1, 1)

	// Try to delete the same movie from multiple goroutines
	concurrency := 3
	results := make(chan error, concurrency)

	for i := 0; i < concurrency; i++ {
		go func() {
			results <- repo.Delete(ctx, id)
		}()
	}

	successCount := 0
	for i := 0; i < concurrency; i++ {
		if err := <-results; err == nil {
			successCount++
		} else {
			assert.ErrorIs(t, err, ErrMovieNotFound)
		}
	}

	assert.Equal(t, 1, successCount, "Exactly one deletion should succeed")
}

func TestMovieRepository_Delete_EdgeCaseIDs(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	edgeCaseIDs := []int64{0, -1, -999999999, 2147483647, 9223372036854775807}

	for _, id := range edgeCaseIDs {
		t.Run(fmt.Sprint(id), func(t *testing.T) {
			assert.ErrorIs(t, repo.Delete(context.Background(), id), ErrMovieNotFound)
		})
	}
}

func TestMovieRepository_WithConn(t *testing.T) {
	testDB, err := database.NewDB(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer testDB.Close()
	require.NoError(t, testDB.InitSchema())
	require.NoError(t, testDB.Seed())

	ctx := context.Background()
	conn, err := testDB.Conn(ctx)
	require.NoError(t, err)

	repo := NewMovieRepository(conn)
	id := createTestMovieForRepo(t, repo, "Scoped", 2, 3)
	require.NoError(t, conn.Close())

	// A repository over the pool sees what the scoped connection wrote
	movie, err := NewMovieRepository(testDB).GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Scoped", movie.Title)
	assert.Equal(t, "Family", movie.Genre)
	assert.Equal(t, "Vladimir Vaynshtok", movie.Director)
}
