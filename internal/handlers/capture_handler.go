package handlers

import (
	"errors"
	"net/http"

	"readingquest/internal/capture"
	"readingquest/internal/service"
)

// CaptureHandler serves the butterfly catching minigame
type CaptureHandler struct{}

// NewCaptureHandler creates a new capture handler
func NewCaptureHandler() *CaptureHandler {
	return &CaptureHandler{}
}

// Open starts a capture surface. The client reports whether the reader
// granted camera access.
func (h *CaptureHandler) Open(w http.ResponseWriter, r *http.Request) {
	qs := GetQuestSession(r.Context())

	var req struct {
		Granted bool `json:"granted"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequest, "Invalid capture request", err)
		return
	}

	surface, err := qs.Bridge.Open(r.Context(), capture.PermissionCamera{Granted: req.Granted})
	if err != nil {
		if errors.Is(err, capture.ErrCameraDenied) {
			respondWithError(w, http.StatusForbidden, ErrCameraDeniedResponse, "", nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error opening capture surface", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, buildCaptureView(surface))
}

// Get returns the current target positions
func (h *CaptureHandler) Get(w http.ResponseWriter, r *http.Request) {
	qs := GetQuestSession(r.Context())
	surface, err := qs.Bridge.Surface()
	if err != nil {
		respondWithError(w, http.StatusNotFound, ErrNoCapture, "", nil)
		return
	}
	respondWithJSON(w, http.StatusOK, buildCaptureView(surface))
}

// Step advances the targets by one or more frames
func (h *CaptureHandler) Step(w http.ResponseWriter, r *http.Request) {
	qs := GetQuestSession(r.Context())

	var req struct {
		Frames int `json:"frames"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequest, "Invalid step request", err)
		return
	}
	if req.Frames <= 0 {
		req.Frames = 1
	}
	if req.Frames > maxStepFrames {
		req.Frames = maxStepFrames
	}

	surface, err := qs.Bridge.Surface()
	if err != nil {
		respondWithError(w, http.StatusNotFound, ErrNoCapture, "", nil)
		return
	}
	for i := 0; i < req.Frames; i++ {
		surface.Step()
	}
	respondWithJSON(w, http.StatusOK, buildCaptureView(surface))
}

// Catch taps a target
func (h *CaptureHandler) Catch(w http.ResponseWriter, r *http.Request) {
	qs := GetQuestSession(r.Context())

	var req struct {
		Target int `json:"target"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequest, "Invalid catch request", err)
		return
	}

	caught, err := qs.Bridge.Catch(req.Target)
	if err != nil {
		if errors.Is(err, service.ErrNoCaptureSurface) {
			respondWithError(w, http.StatusNotFound, ErrNoCapture, "", nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error catching target", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"caught": caught})
}

// Close dismisses the capture surface
func (h *CaptureHandler) Close(w http.ResponseWriter, r *http.Request) {
	qs := GetQuestSession(r.Context())
	qs.Bridge.Close()
	w.WriteHeader(http.StatusNoContent)
}
