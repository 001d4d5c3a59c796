package handler

import (
	"net/http"

	"github.com/parisxmas/OxiDB/OxiWL/internal/service"
)

type AuditHandler struct {
	svc *service.AuditService
}

func NewAuditHandler(svc *service.AuditService) *AuditHandler {
	return &AuditHandler{svc: svc}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	env, err := h.svc.List(r.Context(), listQuery(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writePage(w, env)
}
