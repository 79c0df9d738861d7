package ingest

import (
	"path"
	"strings"

	"github.com/quantmind-br/sri-ingest/internal/utils"
)

const artifactExt = ".csv"

// ArtifactName builds the versioned file name <base>__ingest_ts=<runTS>.csv
func ArtifactName(sourceName, runTS string) string {
	name := utils.SanitizeFilename(sourceName)
	base := strings.TrimSuffix(name, path.Ext(name))
	if base == "" || base == "untitled" {
		base = "dataset"
	}
	return base + "__ingest_ts=" + runTS + artifactExt
}
