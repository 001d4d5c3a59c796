package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/parisxmas/OxiDB/OxiWL/internal/service"
)

type IPHandler struct {
	svc *service.IPService
}

func NewIPHandler(svc *service.IPService) *IPHandler {
	return &IPHandler{svc: svc}
}

func (h *IPHandler) List(w http.ResponseWriter, r *http.Request) {
	env, err := h.svc.List(r.Context(), listQuery(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writePage(w, env)
}

func (h *IPHandler) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Get(r.Context(), chi.URLParam(r, "ipId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *IPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.IPInput
	if err := readJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	e, err := h.svc.Create(r.Context(), actorFrom(r), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *IPHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.IPInput
	if err := readJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	e, err := h.svc.Update(r.Context(), actorFrom(r), chi.URLParam(r, "ipId"), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *IPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "ipId")
	if err := h.svc.Delete(r.Context(), actorFrom(r), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}
