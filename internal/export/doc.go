// Package export packages storyboard assets for download, either one scene
// at a time or as a zip archive with a metadata manifest.
package export
