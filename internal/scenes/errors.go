package scenes

import "errors"

var (
	// ErrNotFound is returned when a scene ID has no matching row.
	ErrNotFound = errors.New("scene not found")
	// ErrImageChanged is returned by SetVideoIfImage when the stored image
	// no longer matches the one the video was derived from.
	ErrImageChanged = errors.New("scene image changed during animation")
)
