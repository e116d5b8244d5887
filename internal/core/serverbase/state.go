// SPDX-License-Identifier: MPL-2.0

package serverbase

// State is the lifecycle state of a server.
type State int32

const (
	// StateCreated is a server whose Start has not been called.
	StateCreated State = iota
	// StateStarting is a server binding its listener.
	StateStarting
	// StateRunning is a server accepting connections.
	StateRunning
	// StateStopping is a server draining connections.
	StateStopping
	// StateStopped is terminal.
	StateStopped
	// StateFailed is terminal; LastError holds the cause.
	StateFailed
)

var stateNames = [...]string{"created", "starting", "running", "stopping", "stopped", "failed"}

// String returns the lowercase state name.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// IsTerminal reports whether the server can no longer change state.
func (s State) IsTerminal() bool {
	return s == StateStopped || s == StateFailed
}
