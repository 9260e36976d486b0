package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/mnemo/internal/domain"
	"github.com/Harshitk-cp/mnemo/internal/service"
	"github.com/google/uuid"
)

type EpisodeHandler struct {
	svc *service.EpisodeService
}

func NewEpisodeHandler(svc *service.EpisodeService) *EpisodeHandler {
	return &EpisodeHandler{svc: svc}
}

type createEpisodeRequest struct {
	Title           string      `json:"title"`
	MemoryIDs       []uuid.UUID `json:"memory_ids"`
	Participants    []string    `json:"participants,omitempty"`
	LocationContext string      `json:"location_context,omitempty"`
	SkipSummary     bool        `json:"skip_summary,omitempty"`
}

type episodeListResponse struct {
	Episodes []domain.Episode `json:"episodes"`
	Count    int              `json:"count"`
}

type episodeSearchResponse struct {
	Results []domain.EpisodeSearchResult `json:"results"`
	Query   string                       `json:"query"`
	Count   int                          `json:"count"`
}

func (h *EpisodeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEpisodeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ep, err := h.svc.Create(r.Context(), service.CreateEpisodeInput{
		Title:           req.Title,
		MemoryIDs:       req.MemoryIDs,
		Participants:    req.Participants,
		LocationContext: req.LocationContext,
		SkipSummary:     req.SkipSummary,
	})
	if err != nil {
		writeServiceError(w, err, "failed to create episode")
		return
	}
	writeJSON(w, http.StatusCreated, ep)
}

func (h *EpisodeHandler) List(w http.ResponseWriter, r *http.Request) {
	episodes, err := h.svc.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, err, "failed to list episodes")
		return
	}
	writeJSON(w, http.StatusOK, episodeListResponse{Episodes: orEmpty(episodes), Count: len(episodes)})
}

func (h *EpisodeHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	k, err := intQuery(r, "k", service.DefaultSearchResults)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := h.svc.Search(r.Context(), query, k)
	if err != nil {
		writeServiceError(w, err, "failed to search episodes")
		return
	}
	writeJSON(w, http.StatusOK, episodeSearchResponse{Results: orEmpty(results), Query: query, Count: len(results)})
}

func (h *EpisodeHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ep, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to get episode")
		return
	}
	writeJSON(w, http.StatusOK, ep)
}

func (h *EpisodeHandler) Memories(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	memories, err := h.svc.GetMemories(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to get episode memories")
		return
	}
	writeJSON(w, http.StatusOK, newMemoryList(memories))
}

func (h *EpisodeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, "failed to delete episode")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
