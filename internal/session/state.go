package session

import "ecobank/internal/core"

// State is where a client session stands. The server keeps no per-session
// state; it reports the state each response leaves the client in.
type State string

const (
	LoggedOut            State = "LoggedOut"
	UserDashboard        State = "UserDashboard"
	UserTransactionEntry State = "UserTransactionEntry"
	AdminDashboard       State = "AdminDashboard"
)

// Event drives a State transition.
type Event int

const (
	EventLogin Event = iota
	EventLogout
	EventOpenEntry
	EventCloseEntry
)

// Landing is the state a successful login or registration leads to.
func Landing(role core.Role) State {
	if role == core.RoleAdmin {
		return AdminDashboard
	}
	return UserDashboard
}

// Next returns the state after ev for an account with role. Transitions
// that make no sense from s leave it unchanged.
func Next(s State, ev Event, role core.Role) State {
	switch ev {
	case EventLogout:
		return LoggedOut
	case EventLogin:
		if s == LoggedOut {
			return Landing(role)
		}
	case EventOpenEntry:
		if s == UserDashboard {
			return UserTransactionEntry
		}
	case EventCloseEntry:
		if s == UserTransactionEntry {
			return UserDashboard
		}
	}
	return s
}
