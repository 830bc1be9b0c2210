package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"movies/models"
	"movies/repository"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// movieHandler is a request handler bound to a repository over the
// request's own database connection
type movieHandler func(w http.ResponseWriter, r *http.Request, movies *repository.MovieRepository)

// withMovies acquires a connection from the pool for the duration of a
// single request and releases it when the handler returns
func (app *App) withMovies(h movieHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := app.db.Conn(r.Context())
		if err != nil {
			log.Printf("Failed to acquire database connection: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		defer func() {
			if err := conn.Close(); err != nil {
				log.Printf("Failed to release database connection: %v", err)
			}
		}()

		h(w, r, repository.NewMovieRepository(conn))
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

func (app *App) listMoviesHandler(w http.ResponseWriter, r *http.Request, movies *repository.MovieRepository) {
	filter, err := models.ParseMovieFilter(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	list, err := movies.List(r.Context(), filter)
	if err != nil {
		log.Printf("Error listing movies: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

func (app *App) createMovieHandler(w http.ResponseWriter, r *http.Request, movies *repository.MovieRepository) {
	var input models.MovieInput

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id, err := movies.Create(r.Context(), input)
	if err != nil {
		log.Printf("Error creating movie: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/movies/%d", id))
	writeText(w, http.StatusCreated, fmt.Sprintf("Movie with id %d created", id))
}

func (app *App) getMovieHandler(w http.ResponseWriter, r *http.Request, movies *repository.MovieRepository) {
	id, ok := movieID(w, r)
	if !ok {
		return
	}

	movie, err := movies.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			http.Error(w, "Movie not found", http.StatusNotFound)
			return
		}
		log.Printf("Error getting movie by ID: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, movie)
}

// patchMovieHandler applies one field of the body. Keys are checked in a
// fixed order and only the first one present is written.
func (app *App) patchMovieHandler(w http.ResponseWriter, r *http.Request, movies *repository.MovieRepository) {
	id, ok := movieID(w, r)
	if !ok || !app.movieExists(w, r, movies, id) {
		return
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	update, err := models.ParsePatch(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if update != nil {
		if err := movies.UpdateField(r.Context(), id, *update); err != nil {
			app.writeMutationError(w, "updating", err)
			return
		}
	}

	log.Printf("Movie with id %d updated", id)
	w.WriteHeader(http.StatusNoContent)
}

func (app *App) replaceMovieHandler(w http.ResponseWriter, r *http.Request, movies *repository.MovieRepository) {
	id, ok := movieID(w, r)
	if !ok || !app.movieExists(w, r, movies, id) {
		return
	}

	var replacement models.MovieReplacement
	if err := json.NewDecoder(r.Body).Decode(&replacement); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := app.validate.Struct(replacement); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	if err := movies.Replace(r.Context(), id, replacement); err != nil {
		app.writeMutationError(w, "replacing", err)
		return
	}

	log.Printf("Movie with id %d updated", id)
	w.WriteHeader(http.StatusNoContent)
}

func (app *App) deleteMovieHandler(w http.ResponseWriter, r *http.Request, movies *repository.MovieRepository) {
	id, ok := movieID(w, r)
	if !ok {
		return
	}

	if err := movies.Delete(r.Context(), id); err != nil {
		app.writeMutationError(w, "deleting", err)
		return
	}

	log.Printf("Movie with id %d deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

// movieID parses the {id} path variable. The route only matches digits,
// so a parse failure means the id overflows and cannot exist.
func movieID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Movie not found", http.StatusNotFound)
		return 0, false
	}
	return id, true
}

func (app *App) movieExists(w http.ResponseWriter, r *http.Request, movies *repository.MovieRepository, id int64) bool {
	exists, err := movies.Exists(r.Context(), id)
	if err != nil {
		log.Printf("Error checking movie %d: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return false
	}
	if !exists {
		http.Error(w, "Movie not found", http.StatusNotFound)
		return false
	}
	return true
}

func (app *App) writeMutationError(w http.ResponseWriter, action string, err error) {
	if errors.Is(err, repository.ErrMovieNotFound) {
		http.Error(w, "Movie not found", http.StatusNotFound)
		return
	}
	log.Printf("Error %s movie: %v", action, err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(msg)); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

// newValidator reports fields by their JSON names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validationMessage(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return "Invalid request body"
	}

	missing := make([]string, 0, len(errs))
	for _, fe := range errs {
		missing = append(missing, fe.Field())
	}
	return "Missing required fields: " + strings.Join(missing, ", ")
}
