// Package manifest records the files a run downloaded.
//
// An Accumulator collects one Entry per new artifact while the run is in
// progress and writes them once, at the end, as JSON Lines:
//
//	{"source":"datosabiertos.gob.ec","resource_url":"...","metadata":{...},"dataset":"sri_vehiculos_nuevos","year":2023,...}
//
// A run that downloaded nothing writes nothing; Write reports
// ErrNothingWritten instead. Manifests are create-only: an existing manifest
// for the same run timestamp is never replaced.
package manifest
