package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"sceneforge/internal/assets"
	"sceneforge/internal/logging"
	"sceneforge/internal/notifications"
	"sceneforge/internal/scenes"
	"sceneforge/internal/services"
)

const (
	// ArchiveName is the download filename for a full storyboard export.
	ArchiveName = "scenes.zip"

	defaultConcurrency = 4
)

// Artifact is one exportable scene asset.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Archive is a completed storyboard export.
type Archive struct {
	Data     []byte
	Archived int
	Skipped  int
}

// Exporter packages scene assets for download.
type Exporter struct {
	fetcher     *assets.Fetcher
	notifier    notifications.Service
	logger      *slog.Logger
	concurrency int
}

// New constructs an Exporter. Concurrency bounds the parallel asset fetches
// during a bulk export.
func New(fetcher *assets.Fetcher, notifier notifications.Service, logger *slog.Logger, concurrency int) *Exporter {
	if fetcher == nil {
		fetcher = assets.NewFetcher()
	}
	if notifier == nil {
		notifier = notifications.NewNop()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Exporter{
		fetcher:     fetcher,
		notifier:    notifier,
		logger:      logging.WithComponent(logger, "export"),
		concurrency: concurrency,
	}
}

// ExportScene fetches the scene's preferred asset (video when present,
// otherwise the image) as a download artifact.
func (e *Exporter) ExportScene(ctx context.Context, scene scenes.Scene) (*Artifact, error) {
	const op = "export scene"

	ref := scene.AssetRef()
	if ref == "" {
		return nil, services.Wrap(services.ErrValidation, "export", op, "scene has no asset", nil)
	}
	data, mediaType, err := e.fetcher.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	if mediaType == "" {
		if scene.HasVideo() {
			mediaType = "video/mp4"
		} else {
			mediaType = "image/webp"
		}
	}
	return &Artifact{
		Filename:    scene.ExportName(),
		ContentType: mediaType,
		Data:        data,
	}, nil
}

type metadataScene struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	HasVideo  bool   `json:"hasVideo"`
	Timestamp string `json:"timestamp"`
}

type metadata struct {
	ExportDate  string          `json:"exportDate"`
	TotalScenes int             `json:"totalScenes"`
	Scenes      []metadataScene `json:"scenes"`
}

// ExportAll packages the whole storyboard into a zip archive. The archive
// always contains metadata.json describing every scene; a scene whose asset
// cannot be fetched is logged and skipped rather than failing the export.
func (e *Exporter) ExportAll(ctx context.Context, batch []scenes.Scene) (*Archive, error) {
	const op = "export all"

	if len(batch) == 0 {
		return nil, services.Wrap(services.ErrValidation, "export", op, "no scenes to export", nil)
	}

	artifacts := make([]*Artifact, len(batch))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.concurrency)
	for i, scene := range batch {
		group.Go(func() error {
			artifact, err := e.ExportScene(groupCtx, scene)
			if err != nil {
				e.logger.Warn("scene asset unreachable, skipping",
					logging.SceneID(scene.ID),
					logging.Operation(op),
					logging.Error(err))
				return nil
			}
			artifacts[i] = artifact
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, services.Wrap(services.ErrAssetProcessing, "export", op, "fetch scene assets", err)
	}

	meta := metadata{
		ExportDate:  time.Now().UTC().Format(time.RFC3339),
		TotalScenes: len(batch),
		Scenes:      make([]metadataScene, 0, len(batch)),
	}
	for _, scene := range batch {
		meta.Scenes = append(meta.Scenes, metadataScene{
			ID:        scene.ID,
			Text:      scene.Text,
			HasVideo:  scene.HasVideo(),
			Timestamp: scene.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, services.Wrap(services.ErrAssetProcessing, "export", op, "encode metadata", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	entry, err := zw.Create("metadata.json")
	if err != nil {
		return nil, services.Wrap(services.ErrAssetProcessing, "export", op, "create metadata entry", err)
	}
	if _, err := entry.Write(metaJSON); err != nil {
		return nil, services.Wrap(services.ErrAssetProcessing, "export", op, "write metadata entry", err)
	}

	archived, skipped := 0, 0
	for _, artifact := range artifacts {
		if artifact == nil {
			skipped++
			continue
		}
		entry, err := zw.Create(artifact.Filename)
		if err != nil {
			return nil, services.Wrap(services.ErrAssetProcessing, "export", op, "create archive entry", err)
		}
		if _, err := entry.Write(artifact.Data); err != nil {
			return nil, services.Wrap(services.ErrAssetProcessing, "export", op, "write archive entry", err)
		}
		archived++
	}
	if err := zw.Close(); err != nil {
		return nil, services.Wrap(services.ErrAssetProcessing, "export", op, "finalize archive", err)
	}

	e.logger.Info("storyboard exported",
		logging.Operation(op),
		slog.Int("archived", archived),
		slog.Int("skipped", skipped))
	if err := e.notifier.NotifyExportCompleted(ctx, archived, skipped); err != nil {
		e.logger.Warn("notification failed", logging.Operation(op), logging.Error(err))
	}
	return &Archive{Data: buf.Bytes(), Archived: archived, Skipped: skipped}, nil
}
