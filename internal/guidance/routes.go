package guidance

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the guidance content API routes.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/api/guidance", func(r chi.Router) {
		r.Get("/", handleList(svc))
		r.Get("/personalized", handlePersonalizedFor(svc))
		r.Post("/personalized", handlePersonalized(svc))
		r.Get("/verse-of-the-day", handleVerseOfTheDay(svc))
		r.Get("/search", handleSearch(svc))
		r.Get("/themes", handleThemes(svc))
		r.Get("/themes/{theme}", handleThemeContent(svc))
		r.Get("/reference", handleByReference(svc))
		r.Get("/dynamic", handleDynamic(svc))
		r.Get("/random", handleRandom(svc))
	})
}

func filterFromQuery(r *http.Request) Filter {
	q := r.URL.Query()
	return Filter{
		Source: Source(q.Get("source")),
		Type:   Type(q.Get("type")),
		Theme:  strings.TrimSpace(q.Get("theme")),
	}
}

// intParam reads a positive integer query parameter bounded by max.
// Absent means def.
func intParam(r *http.Request, name string, def, max int) (int, bool) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > max {
		return 0, false
	}
	return n, true
}

func handleList(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		size, ok := intParam(r, "page_size", svc.opts.DefaultPageSize, svc.opts.MaxPageSize)
		if !ok {
			writeError(w, http.StatusBadRequest, "page_size must be between 1 and "+strconv.Itoa(svc.opts.MaxPageSize))
			return
		}
		page, err := svc.List(r.Context(), filterFromQuery(r), size, r.URL.Query().Get("cursor"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func handlePersonalizedFor(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, ok := intParam(r, "count", svc.opts.DefaultPageSize, svc.opts.MaxPageSize)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid count")
			return
		}
		page, err := svc.PersonalizedFor(r.Context(), r.URL.Query().Get("user"), count)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func handlePersonalized(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			History []Activity `json:"history"`
			Count   int        `json:"count"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Count == 0 {
			req.Count = svc.opts.DefaultPageSize
		}
		if req.Count > svc.opts.MaxPageSize {
			writeError(w, http.StatusBadRequest, "invalid count")
			return
		}
		page, err := svc.Personalized(r.Context(), req.History, req.Count)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func handleVerseOfTheDay(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := svc.VerseOfTheDay(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

func handleSearch(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		offset := 0
		if v := q.Get("offset"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
				return
			}
			offset = n
		}
		limit, ok := intParam(r, "limit", svc.opts.DefaultPageSize, svc.opts.MaxPageSize)
		if !ok {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(svc.opts.MaxPageSize))
			return
		}
		res, err := svc.Search(r.Context(), q.Get("q"), filterFromQuery(r), offset, limit)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleThemes(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		themes, err := svc.Themes(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, themes)
	}
}

func handleThemeContent(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, ok := intParam(r, "limit", svc.opts.DefaultPageSize, svc.opts.MaxPageSize)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		entries, err := svc.ThemeContent(r.Context(), chi.URLParam(r, "theme"), limit)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func handleByReference(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref := strings.TrimSpace(r.URL.Query().Get("ref"))
		if ref == "" {
			writeError(w, http.StatusBadRequest, "ref is required")
			return
		}
		e, err := svc.ByReference(r.Context(), ref)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if r.URL.Query().Get("format") == "html" {
			html, err := RenderReading(*e)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(html))
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

func handleDynamic(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		theme := strings.TrimSpace(r.URL.Query().Get("theme"))
		if theme == "" {
			writeError(w, http.StatusBadRequest, "theme is required")
			return
		}
		limit, ok := intParam(r, "limit", 5, svc.opts.MaxPageSize)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		writeJSON(w, http.StatusOK, svc.DynamicVersesByTheme(r.Context(), theme, limit))
	}
}

func handleRandom(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e := svc.RandomDynamicVerse(r.Context())
		if e == nil {
			writeError(w, http.StatusNotFound, "no verse available")
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidPageSize), errors.Is(err, ErrInvalidCursor):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
