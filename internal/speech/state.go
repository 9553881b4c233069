package speech

import (
	"slices"
	"sync"
)

// StateType is what the sequencer is doing.
type StateType int

const (
	// StateIdle means no sequence is running.
	StateIdle StateType = iota
	// StateSpeaking means an utterance is being synthesized or played.
	StateSpeaking
	// StateWaiting means the sequencer is in the pause between messages.
	StateWaiting
)

func (s StateType) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSpeaking:
		return "speaking"
	case StateWaiting:
		return "waiting"
	default:
		return "unknown"
	}
}

// StateMachine tracks sequencer state and rejects invalid transitions.
type StateMachine struct {
	mu          sync.Mutex
	current     StateType
	transitions map[StateType][]StateType
	onChange    []func(from, to StateType)
}

// NewStateMachine returns a machine in StateIdle.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: StateIdle,
		transitions: map[StateType][]StateType{
			StateIdle:     {StateSpeaking},
			StateSpeaking: {StateWaiting, StateIdle},
			StateWaiting:  {StateSpeaking, StateIdle},
		},
	}
}

// Transition moves to state to. It reports false, changing nothing, when
// the transition is not allowed.
func (sm *StateMachine) Transition(to StateType) bool {
	sm.mu.Lock()
	from := sm.current
	if !slices.Contains(sm.transitions[from], to) {
		sm.mu.Unlock()
		return false
	}
	sm.current = to
	hooks := slices.Clone(sm.onChange)
	sm.mu.Unlock()

	for _, fn := range hooks {
		fn(from, to)
	}
	return true
}

// Current returns the current state.
func (sm *StateMachine) Current() StateType {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.current
}

// OnChange registers fn to run after every transition.
func (sm *StateMachine) OnChange(fn func(from, to StateType)) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.onChange = append(sm.onChange, fn)
}
