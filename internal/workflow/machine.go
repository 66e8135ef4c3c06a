package workflow

import "fmt"

// Event is something that happens to a document.
type Event uint8

const (
	EventUpload Event = iota + 1
	EventBeginReview
	EventApprove
	EventReject
)

func (e Event) String() string {
	switch e {
	case EventUpload:
		return "upload"
	case EventBeginReview:
		return "begin review of"
	case EventApprove:
		return "approve"
	case EventReject:
		return "reject"
	default:
		return fmt.Sprintf("event(%d)", uint8(e))
	}
}

// Actor is the role that triggers an event.
type Actor uint8

const (
	ActorStudent Actor = iota + 1
	ActorAdmin
	ActorSystem
)

func (a Actor) String() string {
	switch a {
	case ActorStudent:
		return "student"
	case ActorAdmin:
		return "admin"
	case ActorSystem:
		return "system"
	default:
		return fmt.Sprintf("actor(%d)", uint8(a))
	}
}

type edge struct {
	to     Status
	actors []Actor
}

// exits lists, per status, the events that leave it. Approved has none.
func exits(s Status) map[Event]edge {
	student := []Actor{ActorStudent}
	reviewers := []Actor{ActorAdmin, ActorSystem}
	admin := []Actor{ActorAdmin}

	return Match(s,
		map[Event]edge{ // pending
			EventUpload: {StatusUploaded, student},
		},
		map[Event]edge{ // uploaded
			EventUpload:      {StatusUploaded, student},
			EventBeginReview: {StatusReviewing, reviewers},
			EventApprove:     {StatusApproved, admin},
			EventReject:      {StatusRejected, admin},
		},
		map[Event]edge{ // reviewing
			EventUpload:  {StatusUploaded, student},
			EventApprove: {StatusApproved, admin},
			EventReject:  {StatusRejected, admin},
		},
		map[Event]edge(nil), // approved
		map[Event]edge{ // rejected
			EventUpload: {StatusUploaded, student},
		},
	)
}

// Transition returns the status reached when actor triggers event from status from.
// It fails with a *TransitionError when the table has no such edge, and with
// ErrForbiddenActor when the edge exists but belongs to another actor.
func Transition(from Status, event Event, actor Actor) (Status, error) {
	e, ok := exits(from)[event]
	if !ok {
		return from, &TransitionError{From: from, Event: event}
	}
	for _, a := range e.actors {
		if a == actor {
			return e.to, nil
		}
	}
	return from, fmt.Errorf("%w: %s cannot %s a document", ErrForbiddenActor, actor, event)
}

// CanUpload reports whether a student may attach a new file to a document in status s.
func CanUpload(s Status) bool {
	_, ok := exits(s)[EventUpload]
	return ok
}

// CanReview reports whether an admin may decide on a document in status s.
func CanReview(s Status) bool {
	_, ok := exits(s)[EventApprove]
	return ok
}
