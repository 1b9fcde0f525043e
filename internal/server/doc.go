// Package server exposes the storyboard over HTTP. Two collaborator shim
// endpoints (/generate-image, /animate-scene) keep the original wire shapes
// for frontend compatibility; everything else lives under /api/ with
// optional bearer-token authentication.
package server
