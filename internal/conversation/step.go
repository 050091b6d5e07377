package conversation

import (
	"errors"
	"fmt"
)

// ErrOutOfOrder is returned for an event the current step does not accept
var ErrOutOfOrder = errors.New("event out of order")

// Step is the position of a session in the dialogue
type Step int

const (
	StepNone Step = iota // no session
	StepCategory
	StepPayment
	StepEssential
	StepDescription
	StepDone // persisted; the session is removed
)

var stepNames = map[Step]string{
	StepNone:        "none",
	StepCategory:    "category",
	StepPayment:     "payment",
	StepEssential:   "essential",
	StepDescription: "description",
	StepDone:        "done",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

// MarshalText stores steps by name
func (s Step) MarshalText() ([]byte, error) {
	name, ok := stepNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown step %d", int(s))
	}
	return []byte(name), nil
}

// UnmarshalText parses a step name
func (s *Step) UnmarshalText(text []byte) error {
	for step, name := range stepNames {
		if name == string(text) {
			*s = step
			return nil
		}
	}
	return fmt.Errorf("unknown step %q", string(text))
}

// Event is a user action that may advance a session
type Event int

const (
	EventUpload Event = iota
	EventCategory
	EventPayment
	EventEssential
	EventDescription
)

func (e Event) String() string {
	switch e {
	case EventUpload:
		return "upload"
	case EventCategory:
		return "category"
	case EventPayment:
		return "payment"
	case EventEssential:
		return "essential"
	case EventDescription:
		return "description"
	}
	return fmt.Sprintf("Event(%d)", int(e))
}

// transitions lists every accepted (step, event) pair. An upload restarts
// the dialogue from any step.
var transitions = map[Step]map[Event]Step{
	StepNone: {
		EventUpload: StepCategory,
	},
	StepCategory: {
		EventUpload:   StepCategory,
		EventCategory: StepPayment,
	},
	StepPayment: {
		EventUpload:  StepCategory,
		EventPayment: StepEssential,
	},
	StepEssential: {
		EventUpload:    StepCategory,
		EventEssential: StepDescription,
	},
	StepDescription: {
		EventUpload:      StepCategory,
		EventDescription: StepDone,
	},
}

// Next returns the step that follows s on event, or false when the event
// is not accepted in s.
func (s Step) Next(event Event) (Step, bool) {
	next, ok := transitions[s][event]
	return next, ok
}

// Advance is Next with an ErrOutOfOrder error for rejected events
func (s Step) Advance(event Event) (Step, error) {
	next, ok := s.Next(event)
	if !ok {
		return s, fmt.Errorf("%w: %s in step %s", ErrOutOfOrder, event, s)
	}
	return next, nil
}
