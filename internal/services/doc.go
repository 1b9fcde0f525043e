// Package services holds the error taxonomy shared by the storyboard
// pipeline and its external collaborator clients.
//
// Errors are tagged with sentinel markers (configuration, validation,
// collaborator, asset processing, not found, conflict) via Wrap so the HTTP
// layer can map any failure to a response status without inspecting message
// text. Subpackages implement the collaborator clients themselves.
package services
