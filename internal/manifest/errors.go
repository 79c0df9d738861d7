package manifest

import "errors"

// Sentinel errors for the manifest package
var (
	// ErrNothingWritten indicates the run produced no entries, so no manifest was written
	ErrNothingWritten = errors.New("manifest has no entries; nothing written")

	// ErrManifestExists indicates a manifest for this run timestamp already exists
	ErrManifestExists = errors.New("manifest already exists")

	// ErrInvalidFormat indicates a manifest line is not a JSON object
	ErrInvalidFormat = errors.New("manifest line is not valid JSON")
)
