// Package ingest decides, year by year, whether the portal file must be
// downloaded and keeps the persisted state consistent with what was checked.
package ingest

import "fmt"

// Decision reasons
const (
	ReasonForced      = "forced"
	ReasonNoSignal    = "no freshness signal available; downloading defensively"
	ReasonFirstRecord = "first record for this year"
	ReasonNoChanges   = "no changes detected"
)

// ReasonChanged describes a marker transition
func ReasonChanged(lastSeen, current string) string {
	return fmt.Sprintf("update marker changed: %s -> %s", lastSeen, current)
}

// Decision is the outcome of Decide
type Decision struct {
	Download bool
	Reason   string
}

// Decide reports whether a year must be downloaded given the marker recorded
// on the previous check and the one the portal reports now. Rules are applied
// in order and the first match wins; any doubt resolves to downloading.
func Decide(force bool, lastSeen, current *string) Decision {
	switch {
	case force:
		return Decision{Download: true, Reason: ReasonForced}
	case lastSeen == nil && current == nil:
		return Decision{Download: true, Reason: ReasonNoSignal}
	case lastSeen == nil:
		return Decision{Download: true, Reason: ReasonFirstRecord}
	case current != nil && *current != *lastSeen:
		return Decision{Download: true, Reason: ReasonChanged(*lastSeen, *current)}
	default:
		return Decision{Download: false, Reason: ReasonNoChanges}
	}
}
