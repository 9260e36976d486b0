package service

import (
	"context"

	"github.com/Harshitk-cp/mnemo/internal/domain"
)

const DefaultCameraTolerance = 15

// SensoryService attaches perceptual artifacts to memories and looks them up again.
type SensoryService struct {
	memories *MemoryService
}

func NewSensoryService(memories *MemoryService) *SensoryService {
	return &SensoryService{memories: memories}
}

type VisualMemoryInput struct {
	Content        string
	ImagePath      string
	CameraPosition domain.CameraPosition
	Emotion        domain.Emotion
	Importance     int
	Category       domain.Category
}

// SaveVisualMemory saves a memory carrying one visual datum and the camera
// position it was captured from. Category defaults to observation.
func (s *SensoryService) SaveVisualMemory(ctx context.Context, in VisualMemoryInput) (*domain.Memory, error) {
	if !in.CameraPosition.Valid() {
		return nil, ErrInvalidCameraPosition
	}
	if in.Category == "" {
		in.Category = domain.CategoryObservation
	}
	pos := in.CameraPosition
	datum := domain.SensoryData{
		SensoryType: domain.SensoryVisual,
		FilePath:    in.ImagePath,
		Metadata: map[string]any{
			"camera_position": map[string]any{
				"pan_angle":  pos.PanAngle,
				"tilt_angle": pos.TiltAngle,
				"preset_id":  pos.PresetID,
			},
		},
		Timestamp: now(),
	}
	return s.memories.Save(ctx, SaveInput{
		Content:        in.Content,
		Emotion:        in.Emotion,
		Importance:     in.Importance,
		Category:       in.Category,
		SensoryData:    []domain.SensoryData{datum},
		CameraPosition: &pos,
	})
}

type AudioMemoryInput struct {
	Content    string
	AudioPath  string
	Transcript string
	Emotion    domain.Emotion
	Importance int
	Category   domain.Category
}

// SaveAudioMemory saves a memory carrying one audio datum described by its transcript.
func (s *SensoryService) SaveAudioMemory(ctx context.Context, in AudioMemoryInput) (*domain.Memory, error) {
	if in.Category == "" {
		in.Category = domain.CategoryObservation
	}
	datum := domain.SensoryData{
		SensoryType: domain.SensoryAudio,
		FilePath:    in.AudioPath,
		Metadata:    map[string]any{"transcript": in.Transcript},
		Description: in.Transcript,
		Timestamp:   now(),
	}
	return s.memories.Save(ctx, SaveInput{
		Content:     in.Content,
		Emotion:     in.Emotion,
		Importance:  in.Importance,
		Category:    in.Category,
		SensoryData: []domain.SensoryData{datum},
	})
}

// RecallByCameraPosition returns memories taken within tolerance degrees of
// pan and tilt, newest first. A non-positive tolerance uses the default.
func (s *SensoryService) RecallByCameraPosition(ctx context.Context, pan, tilt, tolerance int) ([]domain.Memory, error) {
	if !(domain.CameraPosition{PanAngle: pan, TiltAngle: tilt}).Valid() {
		return nil, ErrInvalidCameraPosition
	}
	if tolerance <= 0 {
		tolerance = DefaultCameraTolerance
	}
	all, err := s.memories.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Memory
	for _, m := range all {
		cp := m.CameraPosition
		if cp == nil {
			continue
		}
		if absInt(cp.PanAngle-pan) <= tolerance && absInt(cp.TiltAngle-tilt) <= tolerance {
			out = append(out, m)
		}
	}
	reverse(out)
	return out, nil
}

// GetMemoriesWithSensoryData returns memories carrying any sensory datum, or
// one of sensoryType when it is set, newest first.
func (s *SensoryService) GetMemoriesWithSensoryData(ctx context.Context, sensoryType domain.SensoryType) ([]domain.Memory, error) {
	if sensoryType != "" && !domain.ValidSensoryType(string(sensoryType)) {
		return nil, ErrInvalidSensoryType
	}
	all, err := s.memories.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Memory
	for _, m := range all {
		if hasSensory(m, sensoryType) {
			out = append(out, m)
		}
	}
	reverse(out)
	return out, nil
}

func hasSensory(m domain.Memory, t domain.SensoryType) bool {
	if t == "" {
		return len(m.SensoryData) > 0
	}
	for _, sd := range m.SensoryData {
		if sd.SensoryType == t {
			return true
		}
	}
	return false
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
