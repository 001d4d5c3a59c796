// Package console is the operator console backend. It keeps one sign-in
// form, one entry form and two paginated lists per browser session and
// answers every interaction with a JSON view model of the affected page.
package console

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/parisxmas/OxiDB/OxiWL/internal/apiclient"
	mw "github.com/parisxmas/OxiDB/OxiWL/internal/middleware"
	"github.com/parisxmas/OxiDB/OxiWL/internal/pager"
	"github.com/parisxmas/OxiDB/OxiWL/internal/session"
)

const maxBodyBytes = 1 << 16

// ReplaceURLHeader tells an htmx front end which address to show.
const ReplaceURLHeader = "HX-Replace-Url"

// PageOptions configure one paginated page.
type PageOptions struct {
	PageSize int
	// ShowLoading exposes the in-flight state to the view.
	ShowLoading bool
	// Notify turns list fetch failures into error toasts.
	Notify bool
}

type Config struct {
	Dashboard PageOptions
	AuditLog  PageOptions
	// PageLimit is how many page links the pagination bar shows.
	PageLimit int
}

// DefaultConfig mirrors the console's shipped pages.
func DefaultConfig() Config {
	return Config{
		Dashboard: PageOptions{PageSize: 2},
		AuditLog:  PageOptions{PageSize: 10, ShowLoading: true, Notify: true},
		PageLimit: 3,
	}
}

type Handler struct {
	api      *apiclient.Client
	sessions *session.Store
	cfg      Config
}

func New(api *apiclient.Client, sessions *session.Store, cfg Config) *Handler {
	def := DefaultConfig()
	if cfg.Dashboard.PageSize < 1 {
		cfg.Dashboard.PageSize = def.Dashboard.PageSize
	}
	if cfg.AuditLog.PageSize < 1 {
		cfg.AuditLog.PageSize = def.AuditLog.PageSize
	}
	if cfg.PageLimit < 1 {
		cfg.PageLimit = def.PageLimit
	}
	return &Handler{api: api, sessions: sessions, cfg: cfg}
}

func (h *Handler) Routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(mw.Recovery)
	r.Use(mw.RequestID)
	r.Use(mw.Logger)
	r.Use(h.withSession)

	r.Get("/login", h.LoginPage)
	r.Post("/login/input", h.LoginInput)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Get("/dashboard", h.Dashboard)
		r.Post("/dashboard/page", h.DashboardPage)
		r.Post("/dashboard/form/input", h.EntryInput)
		r.Post("/dashboard/ips", h.SaveEntry)
		r.Get("/dashboard/ips/{ipId}/edit", h.EditEntry)
		r.Post("/dashboard/ips/{ipId}/delete", h.DeleteEntry)
		r.Post("/dashboard/query", h.DashboardQuery)

		r.Get("/audit-log", h.AuditLog)
		r.Post("/audit-log/page", h.AuditLogPage)
		r.Post("/audit-log/query", h.AuditLogQuery)
	})
	return r
}

type ctxKey struct{}

func (h *Handler) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := h.sessions.Load(w, r)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, s)))
	})
}

func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := sessionFrom(r).Auth(); !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func sessionFrom(r *http.Request) *session.Session {
	s, _ := r.Context().Value(ctxKey{}).(*session.Session)
	return s
}

func readJSON(r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes)).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Warning: console: write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writePage sends a page view, announcing its location when it has one.
func writePage(w http.ResponseWriter, status int, location string, v any) {
	if location != "" {
		w.Header().Set(ReplaceURLHeader, location)
	}
	writeJSON(w, status, v)
}

// remoteStatus picks the console status for a failed API call. Client
// errors are passed through; anything else is a bad gateway.
func remoteStatus(err error) int {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		return apiErr.Status
	}
	return http.StatusBadGateway
}

// rejected reports whether the API refused the session's token.
func rejected(err error) bool {
	var apiErr *apiclient.Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

type inputRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type pageRequest struct {
	Page int `json:"page"`
}

// queryRequest changes the sort or the page size of a list. Empty fields
// keep their current value.
type queryRequest struct {
	SortBy   string `json:"sortBy"`
	OrderBy  string `json:"orderBy"`
	PageSize int    `json:"pageOffset"`
}

var errBadQuery = errors.New("sortBy, orderBy or pageOffset is invalid")

// apply returns cur with the requested changes, back on the first page.
func (req queryRequest) apply(cur pager.Query) (pager.Query, error) {
	order := cur.OrderBy
	if req.OrderBy != "" {
		o, ok := pager.ParseOrder(req.OrderBy)
		if !ok {
			return cur, errBadQuery
		}
		order = o
	}
	sortBy := cur.SortBy
	if req.SortBy != "" {
		sortBy = req.SortBy
	}
	q := cur.WithSort(sortBy, order)
	switch {
	case req.PageSize < 0:
		return cur, errBadQuery
	case req.PageSize > 0:
		q = q.WithPageSize(req.PageSize)
	}
	return q.WithPage(1), nil
}

// readQuery decodes a queryRequest and applies it to cur, answering 400
// itself when the request is unusable.
func readQuery(w http.ResponseWriter, r *http.Request, cur pager.Query) (pager.Query, bool) {
	var req queryRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return cur, false
	}
	q, err := req.apply(cur)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return cur, false
	}
	return q, true
}
