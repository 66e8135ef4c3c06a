// Package workflow holds the document review workflow: the status state machine,
// upload and review guards, and the progress aggregator over a student's records.
package workflow

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of one student's document.
type Status uint8

const (
	// StatusPending is implicit: no record has been stored for the document yet.
	StatusPending Status = iota
	StatusUploaded
	StatusReviewing
	StatusApproved
	StatusRejected
)

var statusNames = [...]string{
	StatusPending:   "pending",
	StatusUploaded:  "uploaded",
	StatusReviewing: "reviewing",
	StatusApproved:  "approved",
	StatusRejected:  "rejected",
}

// AllStatuses lists every status in lifecycle order.
func AllStatuses() []Status {
	return []Status{StatusPending, StatusUploaded, StatusReviewing, StatusApproved, StatusRejected}
}

// String returns the wire name of the status.
func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return int(s) < len(statusNames)
}

// ParseStatus converts a wire name into a Status.
func ParseStatus(v string) (Status, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	for i, name := range statusNames {
		if name == v {
			return Status(i), nil
		}
	}
	return StatusPending, fmt.Errorf("unknown document status %q", v)
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid status %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Match selects the value paired with s. Every status has its own positional
// parameter, so adding a status breaks every call site until it is handled.
func Match[T any](s Status, pending, uploaded, reviewing, approved, rejected T) T {
	switch s {
	case StatusUploaded:
		return uploaded
	case StatusReviewing:
		return reviewing
	case StatusApproved:
		return approved
	case StatusRejected:
		return rejected
	default:
		return pending
	}
}

// Stored reports whether a record in this status exists in storage.
// Only pending documents have no stored row.
func (s Status) Stored() bool {
	return Match(s, false, true, true, true, true)
}

// AwaitingReview reports whether the document sits in the admin's queue.
func (s Status) AwaitingReview() bool {
	return Match(s, false, true, true, false, false)
}

// Terminal reports whether no further transition is permitted.
func (s Status) Terminal() bool {
	return Match(s, false, false, false, true, false)
}
