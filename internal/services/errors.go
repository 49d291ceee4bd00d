package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers used to classify failures at the run coordinator boundary.
var (
	// ErrCatalogUnavailable means no catalog data could be loaded at all.
	// Fatal: the run aborts before any station is attempted.
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrSourceUnreachable tags failures of a catalog source collaborator.
	ErrSourceUnreachable = errors.New("source unreachable")

	// ErrInsufficientCatalog means fewer distinct sections with unused clips
	// remain than one station requires. Remaining stations are skipped.
	ErrInsufficientCatalog = errors.New("insufficient catalog")

	// ErrClipUnavailable means a clip's payload could not be retrieved at
	// assembly time. Station-local: the run continues.
	ErrClipUnavailable = errors.New("clip unavailable")

	// ErrEncodingFailed tags encoder collaborator failures. Station-local.
	ErrEncodingFailed = errors.New("encoding failed")
)

// Wrap builds an error carrying component context while tagging it with the
// provided sentinel marker for later classification.
func Wrap(marker error, component, operation string, err error) error {
	detail := buildDetail(component, operation)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Fatal reports whether an error must abort the whole run rather than a
// single station.
func Fatal(err error) bool {
	return errors.Is(err, ErrCatalogUnavailable) || errors.Is(err, ErrInsufficientCatalog)
}

// StationLocal reports whether an error is confined to the station being
// processed and must not disturb sibling stations.
func StationLocal(err error) bool {
	return errors.Is(err, ErrClipUnavailable) || errors.Is(err, ErrEncodingFailed)
}

func buildDetail(component, operation string) string {
	parts := make([]string, 0, 2)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if len(parts) == 0 {
		return "collaborator failure"
	}
	return strings.Join(parts, ": ")
}
