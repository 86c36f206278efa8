package suggested

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the suggested question endpoints on the given router.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Get("/api/suggested_question_ids_with_views", handleIDsWithViews(store))
	r.Get("/api/suggested", handleList(store))
}

func handleIDsWithViews(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := store.IDsWithViews(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		out := make(map[string]int, len(ids))
		for id, views := range ids {
			out[strconv.Itoa(id)] = views
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
		p, err := store.List(r.Context(), page, perPage)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
