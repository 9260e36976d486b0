package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Harshitk-cp/mnemo/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service sentinels onto status codes. Anything
// unrecognised is reported as a 500 with the fallback message so store
// internals never leak to clients.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrMemoryNotFound),
		errors.Is(err, service.ErrEpisodeNotFound),
		errors.Is(err, service.ErrEntryNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrMemoryContentEmpty),
		errors.Is(err, service.ErrQueryEmpty),
		errors.Is(err, service.ErrInvalidEmotion),
		errors.Is(err, service.ErrInvalidCategory),
		errors.Is(err, service.ErrInvalidSensoryType),
		errors.Is(err, service.ErrInvalidCameraPosition),
		errors.Is(err, service.ErrInvalidLinkType),
		errors.Is(err, service.ErrInvalidDirection),
		errors.Is(err, service.ErrSelfLink),
		errors.Is(err, service.ErrEpisodeTitleEmpty),
		errors.Is(err, service.ErrEpisodeNoMemories),
		errors.Is(err, service.ErrEpisodeMemoriesNotFound):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("invalid request body")
	}
	return nil
}

// decodeOptionalBody is decodeBody for endpoints whose body may be omitted.
func decodeOptionalBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		return errors.New("invalid request body")
	}
	return nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

func ulidParam(r *http.Request, name string) (ulid.ULID, error) {
	id, err := ulid.ParseStrict(chi.URLParam(r, name))
	if err != nil {
		return ulid.ULID{}, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// intQuery returns the named query parameter, or def when it is absent.
func intQuery(r *http.Request, name string, def int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return n, nil
}

// timeQuery parses an RFC 3339 query parameter. Absent means the zero time.
func timeQuery(r *http.Request, name string) (time.Time, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s parameter, want RFC 3339", name)
	}
	return t, nil
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// orEmpty keeps list fields encoding as [] rather than null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
