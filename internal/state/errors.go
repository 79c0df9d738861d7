package state

import "errors"

var (
	// ErrStateNotFound indicates the state document does not exist
	ErrStateNotFound = errors.New("state file not found")

	// ErrStateCorrupted indicates the state document contains invalid JSON
	ErrStateCorrupted = errors.New("state file is corrupted")

	// ErrSaveFailed wraps failures persisting the state document
	ErrSaveFailed = errors.New("state save failed")
)
