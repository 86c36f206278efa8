package association

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/soassoc/internal/auth"
	"github.com/ziadkadry99/soassoc/internal/stackexchange"
)

type createRequest struct {
	SourceID    int `json:"soen_id"`
	CandidateID int `json:"soint_id"`
}

// RegisterRoutes mounts association endpoints on the given router.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/api/associations", func(r chi.Router) {
		r.Get("/", handleList(svc))
		r.Get("/{soen_id}", handleGet(svc))
		r.With(auth.RequireAPI).Post("/", handleCreate(svc))
	})
	r.With(auth.RequireAPI).Get("/api/add_association", handleAddLegacy(svc))
	r.With(auth.RequireAPI).Get("/api/answers", handleAnswers(svc))
	r.With(auth.RequireAPI).Get("/api/get-answers", handleAnswers(svc))
}

func handleList(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := Filter{UserID: q.Get("user_id")}
		if v := q.Get("soen_id"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				f.SourceID = n
			}
		}
		if v := q.Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				f.Limit = n
			}
		}
		if v := q.Get("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				f.Offset = n
			}
		}

		list, err := svc.store.List(r.Context(), f)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleGet(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "soen_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("invalid question id"))
			return
		}
		a, err := svc.store.GetBySource(r.Context(), id)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, ErrNotFound) {
				status = http.StatusNotFound
			}
			writeError(w, status, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func handleCreate(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, errors.New("invalid JSON body"))
			return
		}
		create(w, r, svc, req)
	}
}

// handleAddLegacy accepts the query-string form used by older page scripts.
func handleAddLegacy(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		src, err1 := strconv.Atoi(q.Get("soen_id"))
		cand, err2 := strconv.Atoi(q.Get("soint_id"))
		if err1 != nil || err2 != nil {
			writeError(w, http.StatusBadRequest, errors.New("soen_id and soint_id are required"))
			return
		}
		create(w, r, svc, createRequest{SourceID: src, CandidateID: cand})
	}
}

func create(w http.ResponseWriter, r *http.Request, svc *Service, req createRequest) {
	if req.SourceID <= 0 || req.CandidateID <= 0 {
		writeError(w, http.StatusBadRequest, errors.New("soen_id and soint_id must be positive"))
		return
	}
	user, _ := auth.UserFromContext(r.Context())
	a, err := svc.Associate(r.Context(), user, req.SourceID, req.CandidateID)
	if err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func handleAnswers(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids := r.URL.Query().Get("ids")
		site := r.URL.Query().Get("site")
		if ids == "" || site == "" {
			writeError(w, http.StatusBadRequest, errors.New("ids and site are required"))
			return
		}
		user, _ := auth.UserFromContext(r.Context())
		resp, err := svc.Answers(r.Context(), user, ids, site)
		if err != nil {
			writeError(w, StatusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// StatusFor maps Associate errors to HTTP status codes.
func StatusFor(err error) int {
	var apiErr *stackexchange.APIError
	switch {
	case errors.Is(err, ErrAlreadyAssociated):
		return http.StatusConflict
	case errors.Is(err, ErrNoUser), errors.Is(err, ErrNoToken):
		return http.StatusUnauthorized
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
