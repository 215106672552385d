package parser

import (
	"fmt"
	"strings"
)

// TagState is the lifecycle of a tag within a streamed response
type TagState int

const (
	// StateFinished means the closing tag arrived in the model output
	StateFinished TagState = iota + 1
	// StatePending means the tag is open and the stream is still running
	StatePending
	// StateAborted means the tag is open and the stream has ended
	StateAborted
)

// String returns the string representation of the TagState
func (s TagState) String() string {
	switch s {
	case StateFinished:
		return "finished"
	case StatePending:
		return "pending"
	case StateAborted:
		return "aborted"
	default:
		return ""
	}
}

// MarshalText implements encoding.TextMarshaler
func (s TagState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *TagState) UnmarshalText(text []byte) error {
	state, err := ParseTagState(string(text))
	if err != nil {
		return err
	}
	*s = state
	return nil
}

// ParseTagState converts a string to TagState
func ParseTagState(state string) (TagState, error) {
	switch strings.ToLower(strings.TrimSpace(state)) {
	case "finished":
		return StateFinished, nil
	case "pending":
		return StatePending, nil
	case "aborted":
		return StateAborted, nil
	default:
		return 0, fmt.Errorf("unknown tag state %q", state)
	}
}

// DeriveState maps a tag's repair status and the global streaming flag to its
// lifecycle state. A pending tag becomes aborted as soon as the caller stops
// streaming; no transition is tracked here.
func DeriveState(inProgress, isStreaming bool) TagState {
	if !inProgress {
		return StateFinished
	}
	if isStreaming {
		return StatePending
	}
	return StateAborted
}
