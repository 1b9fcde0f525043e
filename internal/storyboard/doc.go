// Package storyboard coordinates the scene lifecycle: splitting a script
// into scenes, generating and regenerating images, animating clips, and
// resetting the project. All collaborator calls happen before any store
// commit, so a failed batch never disturbs the existing storyboard.
package storyboard
