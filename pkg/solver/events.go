package solver

import "github.com/llm-d-incubation/session-matcher/pkg/core"

// EventKind names a state transition of the matching loop.
type EventKind string

const (
	// EventAdmit: a student took a free seat.
	EventAdmit EventKind = "admit"
	// EventDisplace: a student took the seat of a lower-grade holder (Other).
	EventDisplace EventKind = "displace"
	// EventReject: a full session kept its holder (Other) and turned the student away.
	EventReject EventKind = "reject"
	// EventSkip: the current choice names no known session.
	EventSkip EventKind = "skip"
	// EventExhaust: the student ran out of choices and is unassigned.
	EventExhaust EventKind = "exhaust"
	// EventPreseed: the student was placed before the loop started.
	EventPreseed EventKind = "preseed"
)

// Event describes one transition. Student and Other point at live trial
// state and must not be retained or mutated by the receiver.
type Event struct {
	Kind    EventKind
	Session string
	Student *core.Student
	Other   *core.Student
}

// EventFunc receives every transition of a matching run, in order.
type EventFunc func(Event)
