// Package session keeps the running transcript of a conversation: what the
// user said and what the assistant answered, in order.
package session

import "time"

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one line of the transcript.
type Turn struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	Time time.Time `json:"time"`
}

// NewTurn stamps a turn with the current time.
func NewTurn(role Role, text string) Turn {
	return Turn{Role: role, Text: text, Time: time.Now()}
}

// Session holds an ordered transcript. Implementations must be safe for
// concurrent use.
type Session interface {
	// ID returns the unique session identifier.
	ID() string
	// Add appends a turn, dropping the oldest turns beyond the limit.
	Add(turn Turn)
	// Turns returns a copy of the transcript, oldest first.
	Turns() []Turn
	// Last returns the most recent turn by role.
	Last(role Role) (Turn, bool)
	// Clear resets the transcript.
	Clear()
}
