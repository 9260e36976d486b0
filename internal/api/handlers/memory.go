package handlers

import (
	"net/http"
	"time"

	"github.com/Harshitk-cp/mnemo/internal/domain"
	"github.com/Harshitk-cp/mnemo/internal/service"
	"github.com/google/uuid"
)

type MemoryHandler struct {
	svc           *service.MemoryService
	linkThreshold float64
	maxLinks      int
}

func NewMemoryHandler(svc *service.MemoryService, linkThreshold float64, maxLinks int) *MemoryHandler {
	return &MemoryHandler{svc: svc, linkThreshold: linkThreshold, maxLinks: maxLinks}
}

type createMemoryRequest struct {
	Content        string                 `json:"content"`
	Emotion        string                 `json:"emotion,omitempty"`
	Importance     *int                   `json:"importance,omitempty"`
	Category       string                 `json:"category,omitempty"`
	Tags           []string               `json:"tags,omitempty"`
	LinkedIDs      []uuid.UUID            `json:"linked_ids,omitempty"`
	CameraPosition *domain.CameraPosition `json:"camera_position,omitempty"`
	AutoLink       bool                   `json:"auto_link,omitempty"`
	LinkThreshold  float64                `json:"link_threshold,omitempty"`
	MaxLinks       int                    `json:"max_links,omitempty"`
}

type memoryListResponse struct {
	Memories []domain.Memory `json:"memories"`
	Count    int             `json:"count"`
}

func newMemoryList(memories []domain.Memory) memoryListResponse {
	return memoryListResponse{Memories: orEmpty(memories), Count: len(memories)}
}

type searchResponse struct {
	Results []domain.MemorySearchResult `json:"results"`
	Query   string                      `json:"query"`
	Count   int                         `json:"count"`
}

type scoredResponse struct {
	Results []domain.ScoredMemory `json:"results"`
	Query   string                `json:"query"`
	Count   int                   `json:"count"`
}

type chainedRecallResponse struct {
	*service.ChainedRecall
	Query string `json:"query"`
}

type chainResponse struct {
	Chain     []domain.ChainLink    `json:"chain"`
	Direction domain.ChainDirection `json:"direction"`
	Count     int                   `json:"count"`
}

func (h *MemoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMemoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	in := service.SaveInput{
		Content:        req.Content,
		Emotion:        domain.Emotion(req.Emotion),
		Importance:     importanceOr(req.Importance),
		Category:       domain.Category(req.Category),
		Tags:           req.Tags,
		LinkedIDs:      req.LinkedIDs,
		CameraPosition: req.CameraPosition,
	}

	var (
		m   *domain.Memory
		err error
	)
	if req.AutoLink {
		threshold, maxLinks := h.linkThreshold, h.maxLinks
		if req.LinkThreshold > 0 {
			threshold = req.LinkThreshold
		}
		if req.MaxLinks > 0 {
			maxLinks = req.MaxLinks
		}
		m, err = h.svc.SaveWithAutoLink(r.Context(), in, threshold, maxLinks)
	} else {
		m, err = h.svc.Save(r.Context(), in)
	}
	if err != nil {
		writeServiceError(w, err, "failed to save memory")
		return
	}

	writeJSON(w, http.StatusCreated, m)
}

func (h *MemoryHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", service.DefaultListLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	category := r.URL.Query().Get("category")
	if category != "" && !domain.ValidCategory(category) {
		writeError(w, http.StatusBadRequest, service.ErrInvalidCategory.Error())
		return
	}

	memories, err := h.svc.ListRecent(r.Context(), limit, domain.Category(category))
	if err != nil {
		writeServiceError(w, err, "failed to list memories")
		return
	}
	writeJSON(w, http.StatusOK, newMemoryList(memories))
}

func (h *MemoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.GetStats(r.Context())
	if err != nil {
		writeServiceError(w, err, "failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *MemoryHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	k, err := intQuery(r, "k", service.DefaultSearchResults)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	from, err := timeQuery(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := timeQuery(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := h.svc.Search(r.Context(), query, k, service.SearchOptions{
		Emotion:  domain.Emotion(q.Get("emotion")),
		Category: domain.Category(q.Get("category")),
		From:     from,
		To:       to,
	})
	if err != nil {
		writeServiceError(w, err, "failed to search memories")
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: orEmpty(results), Query: query, Count: len(results)})
}

type scoredSearchRequest struct {
	Query           string     `json:"query"`
	K               int        `json:"k,omitempty"`
	Emotion         string     `json:"emotion,omitempty"`
	Category        string     `json:"category,omitempty"`
	From            *time.Time `json:"from,omitempty"`
	To              *time.Time `json:"to,omitempty"`
	UseTimeDecay    *bool      `json:"use_time_decay,omitempty"`
	UseEmotionBoost *bool      `json:"use_emotion_boost,omitempty"`
	HalfLifeDays    float64    `json:"half_life_days,omitempty"`
}

func (h *MemoryHandler) SearchScored(w http.ResponseWriter, r *http.Request) {
	var req scoredSearchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := service.ScoringOptions{
		SearchOptions: service.SearchOptions{
			Emotion:  domain.Emotion(req.Emotion),
			Category: domain.Category(req.Category),
			From:     derefTime(req.From),
			To:       derefTime(req.To),
		},
		DisableTimeDecay:    req.UseTimeDecay != nil && !*req.UseTimeDecay,
		DisableEmotionBoost: req.UseEmotionBoost != nil && !*req.UseEmotionBoost,
		HalfLifeDays:        req.HalfLifeDays,
	}
	results, err := h.svc.SearchWithScoring(r.Context(), req.Query, req.K, opts)
	if err != nil {
		writeServiceError(w, err, "failed to search memories")
		return
	}
	writeJSON(w, http.StatusOK, scoredResponse{Results: orEmpty(results), Query: req.Query, Count: len(results)})
}

// Recall answers with plain scored results, or with linked memories appended
// when chain_depth is positive.
func (h *MemoryHandler) Recall(w http.ResponseWriter, r *http.Request) {
	cue := r.URL.Query().Get("context")
	k, err := intQuery(r, "k", service.DefaultRecallResults)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	chainDepth, err := intQuery(r, "chain_depth", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if chainDepth > 0 {
		chained, err := h.svc.RecallWithChain(r.Context(), cue, k, chainDepth)
		if err != nil {
			writeServiceError(w, err, "failed to recall memories")
			return
		}
		writeJSON(w, http.StatusOK, chainedRecallResponse{ChainedRecall: chained, Query: cue})
		return
	}

	results, err := h.svc.Recall(r.Context(), cue, k)
	if err != nil {
		writeServiceError(w, err, "failed to recall memories")
		return
	}
	writeJSON(w, http.StatusOK, scoredResponse{Results: orEmpty(results), Query: cue, Count: len(results)})
}

func (h *MemoryHandler) Important(w http.ResponseWriter, r *http.Request) {
	minImportance, err := intQuery(r, "min_importance", 4)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	minAccess, err := intQuery(r, "min_access_count", 5)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	since, err := timeQuery(r, "since")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	k, err := intQuery(r, "k", 10)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	memories, err := h.svc.SearchImportantMemories(r.Context(), minImportance, minAccess, since, k)
	if err != nil {
		writeServiceError(w, err, "failed to search memories")
		return
	}
	writeJSON(w, http.StatusOK, newMemoryList(memories))
}

func (h *MemoryHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to get memory")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MemoryHandler) Access(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := h.svc.UpdateAccess(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to update access")
		return
	}
	if m == nil {
		writeError(w, http.StatusNotFound, service.ErrMemoryNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MemoryHandler) Linked(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	depth, err := intQuery(r, "depth", 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	memories, err := h.svc.GetLinkedMemories(r.Context(), id, depth)
	if err != nil {
		writeServiceError(w, err, "failed to get linked memories")
		return
	}
	writeJSON(w, http.StatusOK, newMemoryList(memories))
}

type addLinkRequest struct {
	TargetID uuid.UUID `json:"target_id"`
	LinkType string    `json:"link_type"`
	Note     string    `json:"note,omitempty"`
}

func (h *MemoryHandler) AddLink(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req addLinkRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.TargetID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "target_id is required")
		return
	}
	if req.LinkType == "" {
		req.LinkType = string(domain.LinkCausedBy)
	}

	m, err := h.svc.AddCausalLink(r.Context(), id, req.TargetID, domain.LinkType(req.LinkType), req.Note)
	if err != nil {
		writeServiceError(w, err, "failed to add link")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MemoryHandler) Chain(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	direction := domain.ChainDirection(r.URL.Query().Get("direction"))
	if direction == "" {
		direction = domain.ChainBackward
	}
	maxDepth, err := intQuery(r, "max_depth", domain.MaxTraversalDepth)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	chain, err := h.svc.GetCausalChain(r.Context(), id, direction, maxDepth)
	if err != nil {
		writeServiceError(w, err, "failed to get causal chain")
		return
	}
	writeJSON(w, http.StatusOK, chainResponse{Chain: chain, Direction: direction, Count: len(chain)})
}
