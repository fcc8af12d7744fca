package playback

import (
	"time"

	"github.com/arsu-cli/arsu/strategy"
	"github.com/google/uuid"
)

// State is the lifecycle position of a playback session.
type State int

const (
	Idle State = iota
	Loading
	Ready
	Playing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Playing:
		return "playing"
	default:
		return "unknown"
	}
}

// Status is a snapshot of the current session.
type Status struct {
	// Session identifies the session; it changes on every Load.
	Session  uuid.UUID
	Source   string
	State    State
	Strategy strategy.Strategy
	// AutoplayBlocked is set when the element refused to start on its own.
	// The session is still Ready and accepts a manual Play.
	AutoplayBlocked bool
	// Err is the last recorded error. It never ends the session.
	Err     error
	Updated time.Time
}
