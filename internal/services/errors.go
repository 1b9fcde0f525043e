package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks failures caused by missing or invalid runtime
	// configuration, such as an absent collaborator credential.
	ErrConfiguration = errors.New("configuration error")
	// ErrValidation marks failures caused by missing or malformed input; no
	// external call is attempted once one is raised.
	ErrValidation = errors.New("validation error")
	// ErrCollaborator marks failures from the external generation or
	// animation service: network errors, non-success responses, or empty
	// result payloads.
	ErrCollaborator = errors.New("collaborator error")
	// ErrAssetProcessing marks failures to fetch or decode an asset during
	// validation, normalization, or export.
	ErrAssetProcessing = errors.New("asset processing error")
	// ErrNotFound marks lookups for scenes that do not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks commits rejected because the underlying scene state
	// changed while the operation was in flight.
	ErrConflict = errors.New("conflict")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrCollaborator
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
