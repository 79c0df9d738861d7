package storage

import (
	"fmt"
	"path"
	"strings"
)

// Layout maps dataset artifacts to object keys:
//
//	[prefix/]raw/<dataset>/year=<YYYY>/<file>
//	[prefix/]metadata/<dataset>/state.json
//	[prefix/]metadata/<dataset>/manifest-<run_ts>.jsonl
type Layout struct {
	Prefix  string
	Dataset string
}

// NewLayout normalises prefix and dataset into a Layout
func NewLayout(prefix, dataset string) Layout {
	return Layout{
		Prefix:  strings.Trim(prefix, "/"),
		Dataset: strings.Trim(dataset, "/"),
	}
}

func (l Layout) join(parts ...string) string {
	if l.Prefix != "" {
		parts = append([]string{l.Prefix}, parts...)
	}
	return path.Join(parts...)
}

// YearPrefix is the key prefix of one year partition, with a trailing slash
func (l Layout) YearPrefix(year int) string {
	return l.join("raw", l.Dataset, fmt.Sprintf("year=%d", year)) + "/"
}

// RawKey is the key of a downloaded artifact
func (l Layout) RawKey(year int, fileName string) string {
	return l.YearPrefix(year) + fileName
}

// StateKey is the key of the run state document
func (l Layout) StateKey() string {
	return l.join("metadata", l.Dataset, "state.json")
}

// ManifestKey is the key of the manifest for one run
func (l Layout) ManifestKey(runTS string) string {
	return l.ManifestPrefix() + runTS + ".jsonl"
}

// ManifestPrefix is the key prefix shared by all manifests of the dataset
func (l Layout) ManifestPrefix() string {
	return l.join("metadata", l.Dataset) + "/manifest-"
}
