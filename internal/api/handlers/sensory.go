package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/mnemo/internal/domain"
	"github.com/Harshitk-cp/mnemo/internal/service"
)

type SensoryHandler struct {
	svc *service.SensoryService
}

func NewSensoryHandler(svc *service.SensoryService) *SensoryHandler {
	return &SensoryHandler{svc: svc}
}

type visualMemoryRequest struct {
	Content        string                `json:"content"`
	ImagePath      string                `json:"image_path,omitempty"`
	CameraPosition domain.CameraPosition `json:"camera_position"`
	Emotion        string                `json:"emotion,omitempty"`
	Importance     *int                  `json:"importance,omitempty"`
	Category       string                `json:"category,omitempty"`
}

type audioMemoryRequest struct {
	Content    string `json:"content"`
	AudioPath  string `json:"audio_path,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Emotion    string `json:"emotion,omitempty"`
	Importance *int   `json:"importance,omitempty"`
	Category   string `json:"category,omitempty"`
}

func importanceOr(p *int) int {
	if p == nil {
		return domain.DefaultImportance
	}
	return *p
}

func (h *SensoryHandler) SaveVisual(w http.ResponseWriter, r *http.Request) {
	var req visualMemoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := h.svc.SaveVisualMemory(r.Context(), service.VisualMemoryInput{
		Content:        req.Content,
		ImagePath:      req.ImagePath,
		CameraPosition: req.CameraPosition,
		Emotion:        domain.Emotion(req.Emotion),
		Importance:     importanceOr(req.Importance),
		Category:       domain.Category(req.Category),
	})
	if err != nil {
		writeServiceError(w, err, "failed to save visual memory")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *SensoryHandler) SaveAudio(w http.ResponseWriter, r *http.Request) {
	var req audioMemoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := h.svc.SaveAudioMemory(r.Context(), service.AudioMemoryInput{
		Content:    req.Content,
		AudioPath:  req.AudioPath,
		Transcript: req.Transcript,
		Emotion:    domain.Emotion(req.Emotion),
		Importance: importanceOr(req.Importance),
		Category:   domain.Category(req.Category),
	})
	if err != nil {
		writeServiceError(w, err, "failed to save audio memory")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *SensoryHandler) RecallByCamera(w http.ResponseWriter, r *http.Request) {
	pan, err := intQuery(r, "pan", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tilt, err := intQuery(r, "tilt", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tolerance, err := intQuery(r, "tolerance", service.DefaultCameraTolerance)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	memories, err := h.svc.RecallByCameraPosition(r.Context(), pan, tilt, tolerance)
	if err != nil {
		writeServiceError(w, err, "failed to recall by camera position")
		return
	}
	writeJSON(w, http.StatusOK, newMemoryList(memories))
}

func (h *SensoryHandler) WithSensoryData(w http.ResponseWriter, r *http.Request) {
	t := domain.SensoryType(r.URL.Query().Get("type"))
	memories, err := h.svc.GetMemoriesWithSensoryData(r.Context(), t)
	if err != nil {
		writeServiceError(w, err, "failed to list sensory memories")
		return
	}
	writeJSON(w, http.StatusOK, newMemoryList(memories))
}
