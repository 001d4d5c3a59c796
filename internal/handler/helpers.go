package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/parisxmas/OxiDB/OxiWL/internal/auth"
	"github.com/parisxmas/OxiDB/OxiWL/internal/middleware"
	"github.com/parisxmas/OxiDB/OxiWL/internal/pager"
	"github.com/parisxmas/OxiDB/OxiWL/internal/service"
)

const maxBodyBytes = 1 << 20

// DefaultPageSize applies when a list request carries no pageOffset.
const DefaultPageSize = 10

func readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Warning: write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service errors onto HTTP statuses. Unexpected
// errors are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusUnprocessableEntity, verr.Msg)
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrDuplicateIP), errors.Is(err, service.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		log.Printf("%s %s failed: %v", r.Method, r.URL.Path, err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// listQuery reads sortBy/orderBy/pageOffset/page from the request URL.
func listQuery(r *http.Request) pager.Query {
	return pager.ParseQuery(r.URL.Query(), pager.DefaultQuery(DefaultPageSize))
}

type metaJSON struct {
	From        *int `json:"from"`
	To          *int `json:"to"`
	Total       int  `json:"total"`
	CurrentPage int  `json:"current_page"`
	PerPage     int  `json:"per_page"`
	LastPage    int  `json:"last_page"`
}

// writePage writes a list envelope. from/to are null for an empty page.
func writePage[T any](w http.ResponseWriter, env pager.Envelope[T]) {
	data := env.Data
	if data == nil {
		data = []T{}
	}
	m := metaJSON{
		Total:       env.Meta.Total,
		CurrentPage: env.Meta.CurrentPage,
		PerPage:     env.Meta.PerPage,
		LastPage:    env.Meta.LastPage,
	}
	if len(data) > 0 {
		from, to := env.Meta.From, env.Meta.To
		m.From, m.To = &from, &to
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": data, "meta": m})
}

func actorFrom(r *http.Request) service.Actor {
	a := service.Actor{RequestID: middleware.GetRequestID(r.Context())}
	if claims := auth.GetUser(r.Context()); claims != nil {
		a.UserID = claims.UserID
		a.Email = claims.Email
	}
	return a
}
