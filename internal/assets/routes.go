package assets

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the version descriptor, the message endpoints and
// the asset catch-all. Routes registered elsewhere take precedence over the
// catch-all.
func RegisterRoutes(r chi.Router, c *Controller) {
	r.Get("/version.json", handleVersion(c))
	r.Post("/sw/message", handleMessage(c))
	r.Get("/sw/events", c.handleEvents)
	r.Handle("/*", c)
}

func handleVersion(c *Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(c.Info())
	}
}

func handleMessage(c *Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var m Message
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil || m.Type == "" {
			http.Error(w, `{"error":"invalid message"}`, http.StatusBadRequest)
			return
		}
		reply, err := c.HandleMessage(r.Context(), m)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		if reply == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(reply)
	}
}
