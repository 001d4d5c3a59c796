package console

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/parisxmas/OxiDB/OxiWL/internal/form"
	"github.com/parisxmas/OxiDB/OxiWL/internal/models"
	"github.com/parisxmas/OxiDB/OxiWL/internal/notify"
	"github.com/parisxmas/OxiDB/OxiWL/internal/pager"
	"github.com/parisxmas/OxiDB/OxiWL/internal/session"
)

const (
	dashboardKey = "dashboard"
	entryFormKey = "dashboard.entry"
	editingKey   = "dashboard.editing"
)

var errSignedOut = errors.New("console: session is signed out")

// EntryForm is the add/update form of the dashboard.
func EntryForm() form.Form {
	return form.New(
		form.FieldSpec{Name: "ip", Label: "IP address", Rule: form.IPRule{Message: "Invalid IP address"}},
		form.FieldSpec{Name: "label", Label: "Label/Comment", Rule: form.RequiredRule{Message: "Label is required"}},
	)
}

// editState remembers which entry the entry form is editing.
type editState struct {
	mu sync.Mutex
	id string
}

func (e *editState) get() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.id
}

func (e *editState) set(id string) {
	e.mu.Lock()
	e.id = id
	e.mu.Unlock()
}

func editing(s *session.Session) *editState {
	return session.Value(s, editingKey, func() *editState { return &editState{} })
}

// listController returns the session's controller for page key, building
// it on first use. Successful fetches record path plus the query as the
// page's location.
func listController[T any](s *session.Session, key, path string, opts PageOptions,
	fetch func(ctx context.Context, token string, q pager.Query) (pager.Result[T], error)) *pager.Controller[T] {
	return session.Value(s, key, func() *pager.Controller[T] {
		fetchAuthed := func(ctx context.Context, q pager.Query) (pager.Result[T], error) {
			a, ok := s.Auth()
			if !ok {
				return pager.Result[T]{}, errSignedOut
			}
			res, err := fetch(ctx, a.Token, q)
			if rejected(err) {
				log.Printf("console: %s: token rejected, signing out", key)
				s.SignOut()
			}
			return res, err
		}
		return pager.NewController(pager.DefaultQuery(opts.PageSize), fetchAuthed, pager.Options{
			Name:        key,
			ShowLoading: opts.ShowLoading,
			Notify:      opts.Notify,
			Notifier:    s.Toasts(),
			Navigator: pager.NavigatorFunc(func(raw string) {
				s.SetLocation(key, path+"?"+raw)
			}),
		})
	})
}

func (h *Handler) dashboardController(s *session.Session) *pager.Controller[models.IPEntry] {
	return listController(s, dashboardKey, "/dashboard", h.cfg.Dashboard, h.api.ListIPs)
}

func (h *Handler) writeDashboard(w http.ResponseWriter, r *http.Request, status int, v pager.View[models.IPEntry]) {
	s := sessionFrom(r)
	a, ok := s.Auth()
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	loc := s.Location(dashboardKey)
	writePage(w, status, loc, DashboardView{
		Location: loc,
		User:     a.User,
		Form:     formView(s.Form(entryFormKey, EntryForm)),
		Editing:  editing(s).get(),
		List:     listView(v, h.cfg.PageLimit),
		Toasts:   s.Toasts().Drain(),
	})
}

// Dashboard mounts the whitelist page with the query found in the URL.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	q := pager.ParseQuery(r.URL.Query(), pager.DefaultQuery(h.cfg.Dashboard.PageSize))
	v := h.dashboardController(s).SetQuery(r.Context(), q)
	h.writeDashboard(w, r, http.StatusOK, v)
}

func (h *Handler) DashboardPage(w http.ResponseWriter, r *http.Request) {
	var req pageRequest
	if err := readJSON(r, &req); err != nil || req.Page < 1 {
		writeError(w, http.StatusBadRequest, "page must be a positive integer")
		return
	}
	v := h.dashboardController(sessionFrom(r)).SetPage(r.Context(), req.Page)
	h.writeDashboard(w, r, http.StatusOK, v)
}

// DashboardQuery re-sorts or resizes the whitelist and shows its first page.
func (h *Handler) DashboardQuery(w http.ResponseWriter, r *http.Request) {
	ctl := h.dashboardController(sessionFrom(r))
	q, ok := readQuery(w, r, ctl.Query())
	if !ok {
		return
	}
	h.writeDashboard(w, r, http.StatusOK, ctl.SetQuery(r.Context(), q))
}

func (h *Handler) EntryInput(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	var req inputRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	_, err := s.UpdateForm(entryFormKey, EntryForm, func(f form.Form) (form.Form, error) {
		return f.HandleInput(req.Field, req.Value)
	})
	if errors.Is(err, form.ErrUnknownField) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeDashboard(w, r, http.StatusOK, h.dashboardController(s).View())
}

// EditEntry loads an entry into the entry form; the next save updates it.
func (h *Handler) EditEntry(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	a, _ := s.Auth()
	ctl := h.dashboardController(s)
	e, err := h.api.GetIP(r.Context(), a.Token, chi.URLParam(r, "ipId"))
	if err != nil {
		log.Printf("console: load entry: %v", err)
		s.Toasts().Error(notify.Message(err))
		h.writeDashboard(w, r, remoteStatus(err), ctl.View())
		return
	}
	f := EntryForm()
	f, _ = f.HandleInput("ip", e.IP)
	f, _ = f.HandleInput("label", e.Label)
	s.SetForm(entryFormKey, f)
	editing(s).set(e.ID)
	h.writeDashboard(w, r, http.StatusOK, ctl.View())
}

// SaveEntry creates a new entry, or updates the one being edited, and
// reloads the current page. A failed write keeps the form filled.
func (h *Handler) SaveEntry(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	a, _ := s.Auth()
	ctl := h.dashboardController(s)
	f := s.Form(entryFormKey, EntryForm)
	if !f.Submittable() {
		h.writeDashboard(w, r, http.StatusUnprocessableEntity, ctl.View())
		return
	}

	edit := editing(s)
	id := edit.get()
	var err error
	if id == "" {
		_, err = h.api.CreateIP(r.Context(), a.Token, f.Serialize())
	} else {
		_, err = h.api.UpdateIP(r.Context(), a.Token, id, f.Serialize())
	}
	if err != nil {
		log.Printf("console: save entry: %v", err)
		s.Toasts().Error(notify.Message(err))
		h.writeDashboard(w, r, remoteStatus(err), ctl.View())
		return
	}

	if id == "" {
		s.Toasts().Success("IP address added")
	} else {
		s.Toasts().Success("IP address updated")
	}
	s.SetForm(entryFormKey, EntryForm())
	edit.set("")
	v := ctl.SetQuery(r.Context(), ctl.Query())
	h.writeDashboard(w, r, http.StatusOK, v)
}

// DeleteEntry removes an entry and reloads the current page. Deleting the
// entry being edited also clears the entry form.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	a, _ := s.Auth()
	ctl := h.dashboardController(s)
	id := chi.URLParam(r, "ipId")
	if err := h.api.DeleteIP(r.Context(), a.Token, id); err != nil {
		log.Printf("console: delete entry %s: %v", id, err)
		s.Toasts().Error(notify.Message(err))
		h.writeDashboard(w, r, remoteStatus(err), ctl.View())
		return
	}

	s.Toasts().Success("IP address removed")
	if edit := editing(s); edit.get() == id {
		s.SetForm(entryFormKey, EntryForm())
		edit.set("")
	}
	v := ctl.SetQuery(r.Context(), ctl.Query())
	h.writeDashboard(w, r, http.StatusOK, v)
}
