package state

import "strconv"

// Status codes recorded in last_status
const (
	StatusUnknown         = "unknown"
	StatusNoChanges       = "no_changes"
	StatusNew             = "200_new"
	StatusSame            = "200_same"
	StatusNotFound        = "404"
	StatusErrorDownload   = "error_download"
	StatusErrorStorage    = "error_storage"
	StatusMetadataChecked = "meta_only_checked"
)

// YearState is the persisted record for one dataset year
type YearState struct {
	LastMetadataUpdate *string `json:"last_metadata_update"`
	LastStatus         string  `json:"last_status"`
	LastCheckedTS      *string `json:"last_checked_ts"`
	LastFilePath       *string `json:"last_file_path"`
	LastSHA256         *string `json:"last_sha256"`
}

// NewYearState returns the record used for a year never seen before
func NewYearState() YearState {
	return YearState{LastStatus: StatusUnknown}
}

// Clone returns a deep copy
func (y YearState) Clone() YearState {
	return YearState{
		LastMetadataUpdate: clonePtr(y.LastMetadataUpdate),
		LastStatus:         y.LastStatus,
		LastCheckedTS:      clonePtr(y.LastCheckedTS),
		LastFilePath:       clonePtr(y.LastFilePath),
		LastSHA256:         clonePtr(y.LastSHA256),
	}
}

// RunState maps a decimal year to its record. It is the wire format of the
// state document.
type RunState map[string]YearState

// Key formats a year as a RunState key
func Key(year int) string {
	return strconv.Itoa(year)
}

// Patch describes one state transition. LastMetadataUpdate and Status are
// always applied; FilePath and SHA256 only when non-empty so a previous
// download is never forgotten.
type Patch struct {
	LastMetadataUpdate *string
	Status             string
	FilePath           string
	SHA256             string
}

func clonePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
