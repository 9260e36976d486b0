package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/mnemo/internal/buffer"
	"github.com/Harshitk-cp/mnemo/internal/service"
)

type WorkingSetHandler struct {
	ws        *buffer.WorkingSet
	promotion *service.PromotionService
}

func NewWorkingSetHandler(ws *buffer.WorkingSet, promotion *service.PromotionService) *WorkingSetHandler {
	return &WorkingSetHandler{ws: ws, promotion: promotion}
}

func (h *WorkingSetHandler) Recent(w http.ResponseWriter, r *http.Request) {
	n, err := intQuery(r, "n", 10)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newMemoryList(h.ws.GetRecent(n)))
}

func (h *WorkingSetHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	added, err := h.promotion.RefreshWorkingSet(r.Context())
	if err != nil {
		writeServiceError(w, err, "failed to refresh working set")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"added": added, "size": h.ws.Size()})
}

func (h *WorkingSetHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.ws.Clear()
	w.WriteHeader(http.StatusNoContent)
}
