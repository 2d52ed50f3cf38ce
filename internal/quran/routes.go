package quran

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the verse gateway endpoints on the given router.
func RegisterRoutes(r chi.Router, g *Gateway) {
	r.Get("/api/quran/verses/{surah}/{ayah}", verseHandler(g))
	r.Get("/api/quran/random", randomHandler(g))
	r.Get("/api/quran/search", searchHandler(g))
	r.Get("/api/quran/themes/{theme}", themeHandler(g))
	r.Get("/api/quran/surahs", surahsHandler(g))
	r.Get("/api/quran/verse-of-the-day", verseOfTheDayHandler(g))
}

// translationsParam reads ?translations=a,b. Absent means the defaults.
func translationsParam(r *http.Request) []string {
	raw := strings.TrimSpace(r.URL.Query().Get("translations"))
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func verseHandler(g *Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surah, err1 := strconv.Atoi(chi.URLParam(r, "surah"))
		ayah, err2 := strconv.Atoi(chi.URLParam(r, "ayah"))
		if err1 != nil || err2 != nil || surah < 1 || surah > TotalSurahs || ayah < 1 {
			writeError(w, http.StatusBadRequest, "surah and ayah must be valid verse coordinates")
			return
		}
		v := g.Verse(r.Context(), surah, ayah, translationsParam(r))
		if v == nil {
			writeError(w, http.StatusNotFound, "verse not available")
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func randomHandler(g *Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := g.RandomVerse(r.Context(), translationsParam(r))
		if v == nil {
			writeError(w, http.StatusNotFound, "verse not available")
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func searchHandler(g *Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := strings.TrimSpace(r.URL.Query().Get("q"))
		if q == "" {
			writeError(w, http.StatusBadRequest, "q is required")
			return
		}
		writeJSON(w, http.StatusOK, g.Search(r.Context(), q, translationsParam(r)))
	}
}

func themeHandler(g *Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 5
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > 50 {
				writeError(w, http.StatusBadRequest, "limit must be between 1 and 50")
				return
			}
			limit = n
		}
		writeJSON(w, http.StatusOK, g.VersesByTheme(r.Context(), chi.URLParam(r, "theme"), limit))
	}
}

func surahsHandler(g *Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, g.Surahs(r.Context()))
	}
}

func verseOfTheDayHandler(g *Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := g.VerseOfTheDay(r.Context())
		if v == nil {
			writeError(w, http.StatusNotFound, "verse not available")
			return
		}
		writeJSON(w, http.StatusOK, v)
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
