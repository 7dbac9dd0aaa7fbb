package domain

import "time"

type AuthMethod string

const (
	AuthMethodCloud  AuthMethod = "cloud"
	AuthMethodAnchor AuthMethod = "anchor"
)

// Valid reports whether the method names a supported wallet backend.
func (m AuthMethod) Valid() bool {
	return m == AuthMethodCloud || m == AuthMethodAnchor
}

// Label is the human readable wallet name shown next to the account.
func (m AuthMethod) Label() string {
	switch m {
	case AuthMethodCloud:
		return "WAX Cloud"
	case AuthMethodAnchor:
		return "Anchor"
	default:
		return string(m)
	}
}

// UserSession is the blockchain identity obtained from a wallet login.
type UserSession struct {
	ID            string
	Account       string
	Method        AuthMethod
	Authenticated bool
	LoggedInAt    time.Time
}
