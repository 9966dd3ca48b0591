// SPDX-License-Identifier: GPL-3.0-or-later

package session

// State is the tagged state of a [Session], per spec §4.2.
type State int

// The four states a [Session] can be in.
const (
	// Fresh means the session has never connected.
	Fresh State = iota

	// Disconnected means the session previously tore down its transport
	// via an explicit Close, and will create a new one on the next Run.
	Disconnected

	// Idle means the transport is connected and keep-alive, with no
	// exchange in flight.
	Idle

	// InUse means a resolve/connect/handshake/write/read sequence is in
	// flight for this session.
	InUse
)

// String implements [fmt.Stringer].
func (s State) String() string {
	switch s {
	case Fresh:
		return "Fresh"
	case Disconnected:
		return "Disconnected"
	case Idle:
		return "Idle"
	case InUse:
		return "InUse"
	default:
		return "Unknown"
	}
}
