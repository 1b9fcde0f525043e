package api

import (
	"time"

	"sceneforge/internal/scenes"
)

// Scene is the wire representation of a storyboard scene.
type Scene struct {
	ID           int64      `json:"id"`
	Text         string     `json:"text"`
	ImageURL     string     `json:"imageUrl"`
	VideoURL     string     `json:"videoUrl,omitempty"`
	Timestamp    time.Time  `json:"timestamp"`
	LastAnimated *time.Time `json:"lastAnimated,omitempty"`
	Regenerating bool       `json:"regenerating"`
	Animating    bool       `json:"animating"`
}

// SceneListResponse wraps the full storyboard.
type SceneListResponse struct {
	Scenes []Scene `json:"scenes"`
}

// SceneResponse wraps a single scene.
type SceneResponse struct {
	Scene Scene `json:"scene"`
}

// Params is the wire representation of the generation parameters.
type Params struct {
	Style       string `json:"style"`
	AspectRatio string `json:"aspectRatio"`
	Quality     string `json:"quality"`
}

// Status reports daemon health and storyboard counts.
type Status struct {
	Running        bool               `json:"running"`
	TotalScenes    int                `json:"totalScenes"`
	AnimatedScenes int                `json:"animatedScenes"`
	Busy           map[string][]int64 `json:"busy"`
	Params         Params             `json:"params"`
	UptimeSeconds  int64              `json:"uptimeSeconds"`
}

// ProjectRequest submits a script for storyboard generation.
type ProjectRequest struct {
	Script string `json:"script"`
}

// GenerateImageRequest is the image collaborator shim request.
type GenerateImageRequest struct {
	Prompt      string `json:"prompt"`
	Style       string `json:"style,omitempty"`
	AspectRatio string `json:"aspectRatio,omitempty"`
	Quality     string `json:"quality,omitempty"`
}

// GenerateImageResponse carries the normalized inline image plus the hosted
// original when the asset came from a remote URL.
type GenerateImageResponse struct {
	ImageURL    string `json:"imageUrl"`
	OriginalURL string `json:"originalUrl,omitempty"`
}

// AnimateRequest is the video collaborator shim request. Field names follow
// the model input schema.
type AnimateRequest struct {
	Prompt          string `json:"prompt"`
	FirstFrameImage string `json:"first_frame_image"`
	PromptOptimizer *bool  `json:"prompt_optimizer,omitempty"`
}

// AnimateResponse carries the hosted clip URL.
type AnimateResponse struct {
	VideoURL string `json:"videoUrl"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// FromScene converts a stored scene plus its in-flight job flags.
func FromScene(scene scenes.Scene, regenerating, animating bool) Scene {
	return Scene{
		ID:           scene.ID,
		Text:         scene.Text,
		ImageURL:     scene.ImageRef,
		VideoURL:     scene.VideoRef,
		Timestamp:    scene.CreatedAt,
		LastAnimated: scene.LastAnimatedAt,
		Regenerating: regenerating,
		Animating:    animating,
	}
}
