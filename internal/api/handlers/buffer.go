package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/mnemo/internal/buffer"
	"github.com/Harshitk-cp/mnemo/internal/domain"
	"github.com/Harshitk-cp/mnemo/internal/service"
)

// BufferHandler exposes the sensory and short-term buffers and the promotions
// between them and long-term memory.
type BufferHandler struct {
	promotion *service.PromotionService
	sensory   *buffer.SensoryBuffer
	shortTerm *buffer.ShortTermBuffer
}

func NewBufferHandler(promotion *service.PromotionService, sensory *buffer.SensoryBuffer, shortTerm *buffer.ShortTermBuffer) *BufferHandler {
	return &BufferHandler{promotion: promotion, sensory: sensory, shortTerm: shortTerm}
}

type ingestSensoryRequest struct {
	Content     string         `json:"content"`
	SensoryType string         `json:"sensory_type"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type sensoryListResponse struct {
	Entries []domain.SensoryEntry `json:"entries"`
	Count   int                   `json:"count"`
}

type shortTermListResponse struct {
	Entries []domain.ShortTermEntry `json:"entries"`
	Count   int                     `json:"count"`
}

type promoteRequest struct {
	Emotion    string `json:"emotion,omitempty"`
	Importance int    `json:"importance,omitempty"`
	Category   string `json:"category,omitempty"`
}

type holdShortTermRequest struct {
	Content    string         `json:"content"`
	Emotion    string         `json:"emotion,omitempty"`
	Importance int            `json:"importance,omitempty"`
	Category   string         `json:"category,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func (h *BufferHandler) IngestSensory(w http.ResponseWriter, r *http.Request) {
	var req ingestSensoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entry, err := h.promotion.IngestSensory(req.Content, domain.SensoryType(req.SensoryType), req.Metadata)
	if err != nil {
		writeServiceError(w, err, "failed to ingest sensory entry")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *BufferHandler) ListSensory(w http.ResponseWriter, r *http.Request) {
	entries := h.sensory.GetAll()
	writeJSON(w, http.StatusOK, sensoryListResponse{Entries: orEmpty(entries), Count: len(entries)})
}

func (h *BufferHandler) GetSensory(w http.ResponseWriter, r *http.Request) {
	id, err := ulidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entry, ok := h.sensory.GetByID(id)
	if !ok {
		writeError(w, http.StatusNotFound, service.ErrEntryNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *BufferHandler) RemoveSensory(w http.ResponseWriter, r *http.Request) {
	id, err := ulidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.sensory.Remove(id) {
		writeError(w, http.StatusNotFound, service.ErrEntryNotFound.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BufferHandler) PromoteSensory(w http.ResponseWriter, r *http.Request) {
	id, err := ulidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req promoteRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.promotion.PromoteSensory(r.Context(), id, service.PromoteInput{
		Emotion:    domain.Emotion(req.Emotion),
		Importance: req.Importance,
		Category:   domain.Category(req.Category),
	})
	if err != nil {
		writeServiceError(w, err, "failed to promote sensory entry")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *BufferHandler) CleanupSensory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"removed": h.sensory.CleanupExpired()})
}

func (h *BufferHandler) HoldShortTerm(w http.ResponseWriter, r *http.Request) {
	var req holdShortTermRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.promotion.HoldShortTerm(r.Context(), buffer.ShortTermInput{
		Content:    req.Content,
		Emotion:    domain.Emotion(req.Emotion),
		Importance: req.Importance,
		Category:   domain.Category(req.Category),
		Metadata:   req.Metadata,
	})
	if err != nil {
		writeServiceError(w, err, "failed to hold short-term entry")
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *BufferHandler) ListShortTerm(w http.ResponseWriter, r *http.Request) {
	entries := h.shortTerm.GetAll()
	writeJSON(w, http.StatusOK, shortTermListResponse{Entries: orEmpty(entries), Count: len(entries)})
}

func (h *BufferHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	entries := h.shortTerm.AutoPromoteCandidates()
	writeJSON(w, http.StatusOK, shortTermListResponse{Entries: orEmpty(entries), Count: len(entries)})
}

func (h *BufferHandler) PromoteCandidates(w http.ResponseWriter, r *http.Request) {
	promoted, err := h.promotion.PromoteCandidates(r.Context())
	if err != nil {
		writeServiceError(w, err, "failed to promote candidates")
		return
	}
	writeJSON(w, http.StatusOK, newMemoryList(promoted))
}

func (h *BufferHandler) GetShortTerm(w http.ResponseWriter, r *http.Request) {
	id, err := ulidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entry, ok := h.shortTerm.GetByID(id)
	if !ok {
		writeError(w, http.StatusNotFound, service.ErrEntryNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *BufferHandler) RemoveShortTerm(w http.ResponseWriter, r *http.Request) {
	id, err := ulidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.shortTerm.Remove(id) {
		writeError(w, http.StatusNotFound, service.ErrEntryNotFound.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BufferHandler) PromoteShortTerm(w http.ResponseWriter, r *http.Request) {
	id, err := ulidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := h.promotion.PromoteShortTerm(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to promote short-term entry")
		return
	}
	writeJSON(w, http.StatusOK, m)
}
