package entities

import (
	"encoding/json"
	"fmt"
)

// State is the lifecycle state of a ticket.
type State string

const (
	// StateOpen is a ticket that is waiting for staff.
	StateOpen State = "open"

	// StateClaimed is a ticket that a staff member has taken ownership of.
	StateClaimed State = "claimed"

	// StateClosed is a ticket that has been closed and archived.
	StateClosed State = "closed"
)

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	switch s {
	case StateOpen, StateClaimed, StateClosed:
		return true
	default:
		return false
	}
}

// String implements the fmt.Stringer interface.
func (s State) String() string {
	return string(s)
}

// UnmarshalJSON implements the json.Unmarshaler interface. An empty state is left unset so the store can derive it.
func (s *State) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("invalid ticket state %s: %w", b, err)
	}

	if raw == "" {
		*s = ""
		return nil
	}

	st := State(raw)
	if !st.Valid() {
		return fmt.Errorf("invalid ticket state %q", raw)
	}
	*s = st
	return nil
}
