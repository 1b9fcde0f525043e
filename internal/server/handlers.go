package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sceneforge/internal/api"
	"sceneforge/internal/assets"
	"sceneforge/internal/export"
	"sceneforge/internal/jobs"
	"sceneforge/internal/logging"
	"sceneforge/internal/scenes"
	"sceneforge/internal/services"
	"sceneforge/internal/services/replicate"
)

const maxRequestBody = 32 << 20

func (s *Server) handleGenerateImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	if s.images == nil {
		s.writeError(w, http.StatusInternalServerError, "Image generation is not configured", "")
		return
	}

	var req api.GenerateImageRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		s.writeError(w, http.StatusBadRequest, "Prompt is required", "")
		return
	}

	params := s.orch.Params()
	input := replicate.ImageInput{
		Prompt:      req.Prompt,
		Style:       valueOr(req.Style, string(params.Style)),
		AspectRatio: valueOr(req.AspectRatio, string(params.AspectRatio)),
		Quality:     valueOr(req.Quality, string(params.Quality)),
	}
	originalURL, err := s.images.GenerateImage(r.Context(), input)
	if err != nil {
		s.writeServiceError(w, err, "Failed to generate image")
		return
	}
	inline, err := s.fetcher.EnsureInlineImage(r.Context(), originalURL)
	if err != nil {
		s.writeServiceError(w, err, "Failed to process generated image")
		return
	}

	resp := api.GenerateImageResponse{ImageURL: inline}
	if !assets.IsInline(originalURL) {
		resp.OriginalURL = originalURL
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAnimateScene(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	if s.videos == nil {
		s.writeError(w, http.StatusInternalServerError, "Animation is not configured", "")
		return
	}

	var req api.AnimateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if strings.TrimSpace(req.Prompt) == "" || strings.TrimSpace(req.FirstFrameImage) == "" {
		s.writeError(w, http.StatusBadRequest, "Prompt and first frame image are required", "")
		return
	}

	firstFrame, err := s.fetcher.EnsureInlineImage(r.Context(), req.FirstFrameImage)
	if err != nil {
		s.writeServiceError(w, err, "Invalid first frame image")
		return
	}
	optimizer := true
	if req.PromptOptimizer != nil {
		optimizer = *req.PromptOptimizer
	}
	videoURL, err := s.videos.GenerateVideo(r.Context(), replicate.VideoInput{
		Prompt:          req.Prompt,
		FirstFrameImage: firstFrame,
		PromptOptimizer: optimizer,
	})
	if err != nil {
		s.writeServiceError(w, err, "Failed to animate scene")
		return
	}
	s.writeJSON(w, http.StatusOK, api.AnimateResponse{VideoURL: videoURL})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	stats, err := s.orch.Stats(r.Context())
	if err != nil {
		s.writeServiceError(w, err, "Failed to read storyboard stats")
		return
	}
	busy := make(map[string][]int64)
	for kind, ids := range s.orch.BusyScenes() {
		busy[string(kind)] = ids
	}
	params := s.orch.Params()
	var uptime int64
	if !s.startedAt.IsZero() {
		uptime = int64(time.Since(s.startedAt).Seconds())
	}
	s.writeJSON(w, http.StatusOK, api.Status{
		Running:        true,
		TotalScenes:    stats.Total,
		AnimatedScenes: stats.Animated,
		Busy:           busy,
		Params: api.Params{
			Style:       string(params.Style),
			AspectRatio: string(params.AspectRatio),
			Quality:     string(params.Quality),
		},
		UptimeSeconds: uptime,
	})
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req api.ProjectRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
			return
		}
		generated, err := s.orch.GenerateScenes(r.Context(), req.Script)
		if err != nil {
			s.writeServiceError(w, err, "Failed to generate storyboard")
			return
		}
		s.writeJSON(w, http.StatusOK, s.sceneList(generated))
	case http.MethodDelete:
		if err := s.orch.NewProject(r.Context()); err != nil {
			s.writeServiceError(w, err, "Failed to reset project")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
	}
}

func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		params := s.orch.Params()
		s.writeJSON(w, http.StatusOK, api.Params{
			Style:       string(params.Style),
			AspectRatio: string(params.AspectRatio),
			Quality:     string(params.Quality),
		})
	case http.MethodPut:
		var req api.Params
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
			return
		}
		params, err := s.orch.SetParams(req.Style, req.AspectRatio, req.Quality)
		if err != nil {
			s.writeServiceError(w, err, "Invalid generation parameters")
			return
		}
		s.writeJSON(w, http.StatusOK, api.Params{
			Style:       string(params.Style),
			AspectRatio: string(params.AspectRatio),
			Quality:     string(params.Quality),
		})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
	}
}

func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	listed, err := s.orch.Scenes(r.Context())
	if err != nil {
		s.writeServiceError(w, err, "Failed to list scenes")
		return
	}
	s.writeJSON(w, http.StatusOK, s.sceneList(listed))
}

func (s *Server) handleSceneAction(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/scenes/")
	idStr, action, _ := strings.Cut(rest, "/")
	sceneID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || sceneID <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid scene id", "")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		scene, err := s.orch.Scene(r.Context(), sceneID)
		if err != nil {
			s.writeServiceError(w, err, "Failed to load scene")
			return
		}
		s.writeJSON(w, http.StatusOK, api.SceneResponse{Scene: s.sceneDTO(*scene)})
	case action == "regenerate" && r.Method == http.MethodPost:
		scene, err := s.orch.RegenerateScene(r.Context(), sceneID)
		if err != nil {
			s.writeServiceError(w, err, "Failed to regenerate scene")
			return
		}
		s.writeJSON(w, http.StatusOK, api.SceneResponse{Scene: s.sceneDTO(*scene)})
	case action == "animate" && r.Method == http.MethodPost:
		scene, err := s.orch.AnimateScene(r.Context(), sceneID)
		if err != nil {
			s.writeServiceError(w, err, "Failed to animate scene")
			return
		}
		s.writeJSON(w, http.StatusOK, api.SceneResponse{Scene: s.sceneDTO(*scene)})
	case action == "export" && r.Method == http.MethodGet:
		s.handleExportScene(w, r, sceneID)
	default:
		s.writeError(w, http.StatusNotFound, "not found", "")
	}
}

func (s *Server) handleExportScene(w http.ResponseWriter, r *http.Request, sceneID int64) {
	scene, err := s.orch.Scene(r.Context(), sceneID)
	if err != nil {
		s.writeServiceError(w, err, "Failed to load scene")
		return
	}
	artifact, err := s.exporter.ExportScene(r.Context(), *scene)
	if err != nil {
		s.writeServiceError(w, err, "Failed to export scene")
		return
	}
	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(artifact.Data); err != nil {
		s.logger.Warn("scene export write failed", logging.SceneID(sceneID), logging.Error(err))
	}
}

func (s *Server) handleExportAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	listed, err := s.orch.Scenes(r.Context())
	if err != nil {
		s.writeServiceError(w, err, "Failed to list scenes")
		return
	}
	archive, err := s.exporter.ExportAll(r.Context(), listed)
	if err != nil {
		s.writeServiceError(w, err, "Failed to export storyboard")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.ArchiveName))
	w.Header().Set("Content-Length", strconv.Itoa(len(archive.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(archive.Data); err != nil {
		s.logger.Warn("archive write failed", logging.Error(err))
	}
}

func (s *Server) sceneDTO(scene scenes.Scene) api.Scene {
	return api.FromScene(scene,
		s.orch.Busy(jobs.KindRegenerate, scene.ID),
		s.orch.Busy(jobs.KindAnimate, scene.ID))
}

func (s *Server) sceneList(listed []scenes.Scene) api.SceneListResponse {
	dtos := make([]api.Scene, 0, len(listed))
	for _, scene := range listed {
		dtos = append(dtos, s.sceneDTO(scene))
	}
	return api.SceneListResponse{Scenes: dtos}
}

func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBody))
	return decoder.Decode(target)
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// statusForError maps service error markers onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error, message string) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(message, logging.Error(err))
	}
	s.writeError(w, status, message, err.Error())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message, details string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message, Details: details})
}
