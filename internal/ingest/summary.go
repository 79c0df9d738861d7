package ingest

import (
	"github.com/quantmind-br/sri-ingest/internal/trigger"
)

// OutcomeKind names the exit taken for a year
type OutcomeKind string

// Outcome kinds
const (
	OutcomeDownloaded   OutcomeKind = "downloaded"
	OutcomeSkipped      OutcomeKind = "skipped"
	OutcomeNotFound     OutcomeKind = "not_found"
	OutcomeFailed       OutcomeKind = "failed"
	OutcomeDuplicate    OutcomeKind = "duplicate"
	OutcomeMetadataOnly OutcomeKind = "metadata_only"
)

// Outcome is the result of processing one year
type Outcome struct {
	Year     int
	Kind     OutcomeKind
	Status   string
	Decision *Decision
	// Location and SHA256 are set for downloads
	Location string
	SHA256   string
	// Err is the per-year error that led to a failure outcome
	Err error
}

// Summary reports a whole run
type Summary struct {
	RunTS            string
	Start            int
	End              int
	Outcomes         []Outcome
	Counts           map[OutcomeKind]int
	NewFiles         int
	ManifestLocation string
	ManifestErr      error
	StateLocation    string
	Aborted          bool
	Trigger          *trigger.Result
	TriggerErr       error
}

func newSummary(runTS string, start, end int) *Summary {
	return &Summary{
		RunTS:  runTS,
		Start:  start,
		End:    end,
		Counts: make(map[OutcomeKind]int),
	}
}

func (s *Summary) record(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
	s.Counts[o.Kind]++
	if o.Kind == OutcomeDownloaded {
		s.NewFiles++
	}
}

// Count returns the number of years that ended with kind
func (s *Summary) Count(kind OutcomeKind) int {
	return s.Counts[kind]
}

// Processed returns the number of years with a recorded outcome
func (s *Summary) Processed() int {
	return len(s.Outcomes)
}
