package console

import (
	"net/http"

	"github.com/parisxmas/OxiDB/OxiWL/internal/models"
	"github.com/parisxmas/OxiDB/OxiWL/internal/pager"
	"github.com/parisxmas/OxiDB/OxiWL/internal/session"
)

const auditLogKey = "audit-log"

func (h *Handler) auditController(s *session.Session) *pager.Controller[models.AuditEntry] {
	return listController(s, auditLogKey, "/audit-log", h.cfg.AuditLog, h.api.ListAuditLogs)
}

func (h *Handler) writeAuditLog(w http.ResponseWriter, r *http.Request, v pager.View[models.AuditEntry]) {
	s := sessionFrom(r)
	a, ok := s.Auth()
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	loc := s.Location(auditLogKey)
	writePage(w, http.StatusOK, loc, AuditLogView{
		Location: loc,
		User:     a.User,
		List:     listView(v, h.cfg.PageLimit),
		Toasts:   s.Toasts().Drain(),
	})
}

// AuditLog mounts the audit trail page with the query found in the URL.
func (h *Handler) AuditLog(w http.ResponseWriter, r *http.Request) {
	q := pager.ParseQuery(r.URL.Query(), pager.DefaultQuery(h.cfg.AuditLog.PageSize))
	v := h.auditController(sessionFrom(r)).SetQuery(r.Context(), q)
	h.writeAuditLog(w, r, v)
}

func (h *Handler) AuditLogPage(w http.ResponseWriter, r *http.Request) {
	var req pageRequest
	if err := readJSON(r, &req); err != nil || req.Page < 1 {
		writeError(w, http.StatusBadRequest, "page must be a positive integer")
		return
	}
	v := h.auditController(sessionFrom(r)).SetPage(r.Context(), req.Page)
	h.writeAuditLog(w, r, v)
}

func (h *Handler) AuditLogQuery(w http.ResponseWriter, r *http.Request) {
	ctl := h.auditController(sessionFrom(r))
	q, ok := readQuery(w, r, ctl.Query())
	if !ok {
		return
	}
	h.writeAuditLog(w, r, ctl.SetQuery(r.Context(), q))
}
