package scenes

import (
	"fmt"
	"time"
)

// Scene is one line of input script plus its generated image/video state.
//
// IDs are assigned in script order at generation time (1-based) and stay
// stable for the whole session: regeneration mutates fields, it never
// replaces the scene. VideoRef, when set, was produced from the current
// ImageRef; UpdateImage clears it to preserve that invariant.
type Scene struct {
	ID             int64
	Text           string
	ImageRef       string
	VideoRef       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastAnimatedAt *time.Time
}

// HasVideo reports whether the scene carries an animation.
func (s Scene) HasVideo() bool {
	return s.VideoRef != ""
}

// AssetRef returns the preferred asset for export: video when present,
// otherwise the still image.
func (s Scene) AssetRef() string {
	if s.HasVideo() {
		return s.VideoRef
	}
	return s.ImageRef
}

// ExportName returns the download filename for the scene's preferred asset.
func (s Scene) ExportName() string {
	if s.HasVideo() {
		return fmt.Sprintf("scene-%d.mp4", s.ID)
	}
	return fmt.Sprintf("scene-%d.webp", s.ID)
}

// Stats aggregates store counts for status reporting.
type Stats struct {
	Total    int
	Animated int
}
