// Package assets resolves scene asset references.
//
// A reference is either a self-contained data URI or a remote URL. The
// animation collaborator requires inline payloads, so EnsureInlineImage
// fetches and re-encodes remote images; the export pipeline uses Fetch to
// obtain raw bytes for either form.
package assets
