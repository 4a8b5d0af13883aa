package harness

import (
	"fmt"
	"time"

	"github.com/jrzesz33/topicqueue/internal/models"
)

// State is a step of a verification run
type State string

const (
	StateIdle             State = "idle"
	StateDeploying        State = "deploying"
	StateDeployed         State = "deployed"
	StateMessagePublished State = "message_published"
	StateLogsPolled       State = "logs_polled"
	StateAsserted         State = "asserted"
	StateDestroying       State = "destroying"
	StateDone             State = "done"
	StateFailed           State = "failed"
)

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is allowed
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

var transitions = map[State][]State{
	StateIdle:             {StateDeploying},
	StateDeploying:        {StateDeployed},
	StateDeployed:         {StateMessagePublished, StateDestroying},
	StateMessagePublished: {StateLogsPolled},
	StateLogsPolled:       {StateAsserted},
	StateAsserted:         {StateDestroying},
	StateDestroying:       {StateDone},
}

// CanTransition reports whether from -> to is a legal step. Failed is reachable from
// every non-terminal state.
func CanTransition(from, to State) bool {
	if from.IsTerminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Session is the state of one run, threaded explicitly through Setup, Execute and
// Teardown.
type Session struct {
	StackName string
	State     State
	History   []State

	Outputs        models.StackOutputs
	MessageID      string
	PublishedAt    time.Time
	LogGroupPrefix string
	Events         []models.LogEvent

	// TornDown is set once a destroy has been attempted
	TornDown bool
}

// NewSession starts a run against stackName in the Idle state
func NewSession(stackName string) *Session {
	return &Session{
		StackName: stackName,
		State:     StateIdle,
		History:   []State{StateIdle},
	}
}

func (s *Session) transition(to State) error {
	if !CanTransition(s.State, to) {
		return fmt.Errorf("invalid transition %s -> %s", s.State, to)
	}
	s.State = to
	s.History = append(s.History, to)
	return nil
}

func (s *Session) fail() {
	if !s.State.IsTerminal() {
		s.State = StateFailed
		s.History = append(s.History, StateFailed)
	}
}
