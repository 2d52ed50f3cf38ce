package deeds

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const defaultDays = 7

var (
	errUserRequired = errors.New("user is required")
	errDaysRange    = errors.New("days must be between 1 and 366")
	errInvalidBody  = errors.New("invalid request body")
)

// RegisterRoutes mounts the deed tracking API routes.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Route("/api/deeds", func(r chi.Router) {
		r.Get("/", handleList(store))
		r.Post("/", handleCreate(store))
		r.Get("/summary", handleSummary(store))
		r.Get("/{id}", handleGet(store))
		r.Delete("/{id}", handleDelete(store))
	})
}

// userAndDays reads ?user= and ?days= (1..366, default 7).
func userAndDays(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	user := r.URL.Query().Get("user")
	if user == "" {
		writeJSONError(w, http.StatusBadRequest, errUserRequired)
		return "", 0, false
	}
	days := defaultDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 366 {
			writeJSONError(w, http.StatusBadRequest, errDaysRange)
			return "", 0, false
		}
		days = n
	}
	return user, days, true
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, days, ok := userAndDays(w, r)
		if !ok {
			return
		}
		since := store.now().UTC().AddDate(0, 0, -(days - 1))
		deeds, err := store.ListByUser(r.Context(), user, since)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err)
			return
		}
		if deeds == nil {
			deeds = []Deed{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(deeds)
	}
}

func handleCreate(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var d Deed
		if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
			writeJSONError(w, http.StatusBadRequest, errInvalidBody)
			return
		}

		created, err := store.Create(r.Context(), d)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, ErrInvalidDeed) || errors.Is(err, ErrInvalidKind) || errors.Is(err, ErrInvalidDay) {
				status = http.StatusBadRequest
			}
			writeJSONError(w, status, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(created)
	}
}

func handleGet(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := store.Get(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, err)
			return
		}
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(d)
	}
}

func handleDelete(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := store.Delete(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, err)
			return
		}
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleSummary(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, days, ok := userAndDays(w, r)
		if !ok {
			return
		}
		sum, err := store.Summarize(r.Context(), user, days)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(sum)
	}
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
