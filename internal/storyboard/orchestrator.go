package storyboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"sceneforge/internal/assets"
	"sceneforge/internal/jobs"
	"sceneforge/internal/logging"
	"sceneforge/internal/notifications"
	"sceneforge/internal/scenes"
	"sceneforge/internal/services"
	"sceneforge/internal/services/replicate"
)

// ImageGenerator produces a still image URL for a prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, input replicate.ImageInput) (string, error)
}

// VideoGenerator animates a first frame into a clip URL.
type VideoGenerator interface {
	GenerateVideo(ctx context.Context, input replicate.VideoInput) (string, error)
}

// Orchestrator coordinates scene generation, regeneration, animation, and
// project lifecycle against the scene store.
type Orchestrator struct {
	store    *scenes.Store
	tracker  *jobs.Tracker
	images   ImageGenerator
	videos   VideoGenerator
	fetcher  *assets.Fetcher
	notifier notifications.Service
	logger   *slog.Logger

	mu     sync.RWMutex
	params Params
}

// Deps bundles the collaborators an Orchestrator needs.
type Deps struct {
	Store    *scenes.Store
	Tracker  *jobs.Tracker
	Images   ImageGenerator
	Videos   VideoGenerator
	Fetcher  *assets.Fetcher
	Notifier notifications.Service
	Logger   *slog.Logger
	Params   Params
}

// New constructs an Orchestrator.
func New(deps Deps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NewNop()
	}
	fetcher := deps.Fetcher
	if fetcher == nil {
		fetcher = assets.NewFetcher()
	}
	params := deps.Params
	if params.Style == "" {
		params.Style = StyleCinematic
	}
	if params.AspectRatio == "" {
		params.AspectRatio = RatioWide
	}
	if params.Quality == "" {
		params.Quality = QualityHigh
	}
	return &Orchestrator{
		store:    deps.Store,
		tracker:  deps.Tracker,
		images:   deps.Images,
		videos:   deps.Videos,
		fetcher:  fetcher,
		notifier: notifier,
		logger:   logging.WithComponent(logger, "storyboard"),
		params:   params,
	}
}

// Params returns the current generation parameters.
func (o *Orchestrator) Params() Params {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.params
}

// SetParams replaces the generation parameters after validation.
func (o *Orchestrator) SetParams(style, ratio, quality string) (Params, error) {
	params, err := ParseParams(style, ratio, quality)
	if err != nil {
		return Params{}, services.Wrap(services.ErrValidation, "storyboard", "set params", err.Error(), nil)
	}
	o.mu.Lock()
	o.params = params
	o.mu.Unlock()
	return params, nil
}

// GenerateScenes builds a storyboard from the script. One scene per non-blank
// line, generated sequentially in script order. The store is only replaced
// after every line has an image; any failure leaves existing scenes intact.
func (o *Orchestrator) GenerateScenes(ctx context.Context, script string) ([]scenes.Scene, error) {
	const op = "generate scenes"

	lines := SplitScript(script)
	if len(lines) == 0 {
		return nil, services.Wrap(services.ErrValidation, "storyboard", op, "script has no non-blank lines", nil)
	}
	if busy := o.tracker.Snapshot(); len(busy) > 0 {
		return nil, services.Wrap(services.ErrConflict, "storyboard", op, "scene jobs in flight", nil)
	}

	params := o.Params()
	now := time.Now().UTC()
	batch := make([]scenes.Scene, 0, len(lines))
	for i, line := range lines {
		sceneID := int64(i + 1)
		imageRef, err := o.generateImage(ctx, line, params)
		if err != nil {
			o.logger.Error("scene generation aborted",
				logging.SceneID(sceneID),
				logging.Operation(op),
				logging.Error(err))
			o.notifyError(ctx, err, "generate")
			return nil, err
		}
		batch = append(batch, scenes.Scene{
			ID:        sceneID,
			Text:      line,
			ImageRef:  imageRef,
			CreatedAt: now,
			UpdatedAt: now,
		})
		o.logger.Info("scene image generated", logging.SceneID(sceneID), logging.Operation(op))
	}

	if err := o.store.ReplaceAll(ctx, batch); err != nil {
		return nil, services.Wrap(services.ErrAssetProcessing, "storyboard", op, "commit storyboard", err)
	}
	if err := o.notifier.NotifyScenesGenerated(ctx, len(batch)); err != nil {
		o.logger.Warn("notification failed", logging.Operation(op), logging.Error(err))
	}
	return o.store.List(ctx)
}

// RegenerateScene produces a fresh image for one scene under the current
// parameters. Any existing animation is discarded because it no longer
// matches the image.
func (o *Orchestrator) RegenerateScene(ctx context.Context, sceneID int64) (*scenes.Scene, error) {
	const op = "regenerate scene"

	scene, err := o.getScene(ctx, sceneID, op)
	if err != nil {
		return nil, err
	}
	if !o.tracker.TryAcquire(jobs.KindRegenerate, sceneID) {
		return nil, services.Wrap(services.ErrConflict, "storyboard", op, "scene is already regenerating", nil)
	}
	defer o.tracker.Release(jobs.KindRegenerate, sceneID)
	if o.tracker.Busy(jobs.KindAnimate, sceneID) {
		return nil, services.Wrap(services.ErrConflict, "storyboard", op, "scene is animating", nil)
	}

	imageRef, err := o.generateImage(ctx, scene.Text, o.Params())
	if err != nil {
		o.notifyError(ctx, err, "regenerate")
		return nil, err
	}
	if err := o.store.UpdateImage(ctx, sceneID, imageRef); err != nil {
		return nil, o.mapStoreError(err, op)
	}

	o.logger.Info("scene regenerated", logging.SceneID(sceneID), logging.Operation(op))
	if err := o.notifier.NotifySceneRegenerated(ctx, sceneID); err != nil {
		o.logger.Warn("notification failed", logging.Operation(op), logging.Error(err))
	}
	return o.getScene(ctx, sceneID, op)
}

// AnimateScene renders a short clip from the scene's current image. The image
// reference captured at call time must still be current when the clip commits;
// a concurrent regeneration discards the stale clip with a conflict error.
func (o *Orchestrator) AnimateScene(ctx context.Context, sceneID int64) (*scenes.Scene, error) {
	const op = "animate scene"

	scene, err := o.getScene(ctx, sceneID, op)
	if err != nil {
		return nil, err
	}
	if scene.ImageRef == "" {
		return nil, services.Wrap(services.ErrValidation, "storyboard", op, "scene has no image to animate", nil)
	}
	if !o.tracker.TryAcquire(jobs.KindAnimate, sceneID) {
		return nil, services.Wrap(services.ErrConflict, "storyboard", op, "scene is already animating", nil)
	}
	defer o.tracker.Release(jobs.KindAnimate, sceneID)
	if o.tracker.Busy(jobs.KindRegenerate, sceneID) {
		return nil, services.Wrap(services.ErrConflict, "storyboard", op, "scene is regenerating", nil)
	}

	firstFrame, err := o.fetcher.EnsureInlineImage(ctx, scene.ImageRef)
	if err != nil {
		o.notifyError(ctx, err, "animate")
		return nil, err
	}
	videoRef, err := o.videos.GenerateVideo(ctx, replicate.VideoInput{
		Prompt:          scene.Text,
		FirstFrameImage: firstFrame,
		PromptOptimizer: true,
	})
	if err != nil {
		o.notifyError(ctx, err, "animate")
		return nil, err
	}

	if err := o.store.SetVideoIfImage(ctx, sceneID, videoRef, scene.ImageRef, time.Now().UTC()); err != nil {
		if errors.Is(err, scenes.ErrImageChanged) {
			return nil, services.Wrap(services.ErrConflict, "storyboard", op,
				"image changed while animating, discarding clip", err)
		}
		return nil, o.mapStoreError(err, op)
	}

	o.logger.Info("scene animated", logging.SceneID(sceneID), logging.Operation(op))
	if err := o.notifier.NotifySceneAnimated(ctx, sceneID); err != nil {
		o.logger.Warn("notification failed", logging.Operation(op), logging.Error(err))
	}
	return o.getScene(ctx, sceneID, op)
}

// NewProject clears the storyboard.
func (o *Orchestrator) NewProject(ctx context.Context) error {
	const op = "new project"
	if busy := o.tracker.Snapshot(); len(busy) > 0 {
		return services.Wrap(services.ErrConflict, "storyboard", op, "scene jobs in flight", nil)
	}
	if err := o.store.Clear(ctx); err != nil {
		return services.Wrap(services.ErrAssetProcessing, "storyboard", op, "clear storyboard", err)
	}
	o.logger.Info("project cleared", logging.Operation(op))
	return nil
}

// Scenes lists the storyboard in scene order.
func (o *Orchestrator) Scenes(ctx context.Context) ([]scenes.Scene, error) {
	return o.store.List(ctx)
}

// Scene fetches one scene.
func (o *Orchestrator) Scene(ctx context.Context, sceneID int64) (*scenes.Scene, error) {
	return o.getScene(ctx, sceneID, "get scene")
}

// Stats reports storyboard counts.
func (o *Orchestrator) Stats(ctx context.Context) (scenes.Stats, error) {
	return o.store.Stats(ctx)
}

// BusyScenes reports in-flight per-scene jobs by kind.
func (o *Orchestrator) BusyScenes() map[jobs.Kind][]int64 {
	return o.tracker.Snapshot()
}

// Busy reports whether the scene has any job in flight.
func (o *Orchestrator) Busy(kind jobs.Kind, sceneID int64) bool {
	return o.tracker.Busy(kind, sceneID)
}

func (o *Orchestrator) generateImage(ctx context.Context, prompt string, params Params) (string, error) {
	imageURL, err := o.images.GenerateImage(ctx, replicate.ImageInput{
		Prompt:      prompt,
		Style:       string(params.Style),
		AspectRatio: string(params.AspectRatio),
		Quality:     string(params.Quality),
	})
	if err != nil {
		return "", err
	}
	return o.fetcher.EnsureInlineImage(ctx, imageURL)
}

func (o *Orchestrator) getScene(ctx context.Context, sceneID int64, op string) (*scenes.Scene, error) {
	scene, err := o.store.GetByID(ctx, sceneID)
	if err != nil {
		return nil, o.mapStoreError(err, op)
	}
	return scene, nil
}

func (o *Orchestrator) mapStoreError(err error, op string) error {
	if errors.Is(err, scenes.ErrNotFound) {
		return services.Wrap(services.ErrNotFound, "storyboard", op, "scene not found", err)
	}
	return services.Wrap(services.ErrAssetProcessing, "storyboard", op, "store operation failed", err)
}

func (o *Orchestrator) notifyError(ctx context.Context, err error, label string) {
	if notifyErr := o.notifier.NotifyError(ctx, err, label); notifyErr != nil {
		o.logger.Warn("error notification failed", logging.Error(notifyErr))
	}
}
