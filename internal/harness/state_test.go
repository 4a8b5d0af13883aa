package harness

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateIdle, StateDeploying, true},
		{StateIdle, StateDeployed, false},
		{StateDeploying, StateDeployed, true},
		{StateDeployed, StateMessagePublished, true},
		{StateDeployed, StateDestroying, true},
		{StateMessagePublished, StateLogsPolled, true},
		{StateLogsPolled, StateAsserted, true},
		{StateAsserted, StateDestroying, true},
		{StateDestroying, StateDone, true},
		{StateMessagePublished, StateAsserted, false},
		{StateDeploying, StateFailed, true},
		{StateLogsPolled, StateFailed, true},
		{StateDone, StateFailed, false},
		{StateFailed, StateDestroying, false},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestSession_Transition(t *testing.T) {
	s := NewSession("stack")
	if err := s.transition(StateDeployed); err == nil {
		t.Error("skipping Deploying should fail")
	}
	if err := s.transition(StateDeploying); err != nil {
		t.Fatalf("transition() error = %v", err)
	}
	s.fail()
	s.fail()
	if s.State != StateFailed {
		t.Errorf("State = %s", s.State)
	}
	if len(s.History) != 3 {
		t.Errorf("History = %v, want idle, deploying, failed", s.History)
	}
}
