package protocol

import "strings"

// Option is the set of features announced by the server during the handshake.
type Option uint8

const (
	OptionNone         Option = 0
	OptionDisable      Option = 1
	OptionEncryption   Option = 2
	OptionChecksum     Option = 4
	OptionKeyExchange  Option = 8
	OptionKeyChallenge Option = 16

	OptionDefault = OptionEncryption | OptionChecksum | OptionKeyExchange
)

func (o Option) Has(flag Option) bool {
	return o&flag == flag
}

func (o Option) String() string {
	if o == OptionNone {
		return "None"
	}
	var parts []string
	for _, f := range []struct {
		flag Option
		name string
	}{
		{OptionDisable, "Disable"},
		{OptionEncryption, "Encryption"},
		{OptionChecksum, "Checksum"},
		{OptionKeyExchange, "KeyExchange"},
		{OptionKeyChallenge, "KeyChallenge"},
	} {
		if o.Has(f.flag) {
			parts = append(parts, f.name)
		}
	}
	return strings.Join(parts, "|")
}

// State is the position of a protocol in the handshake.
type State uint8

const (
	StateNone State = iota
	StateWaitSetup
	StateWaitChallenge
	StateWaitAccept
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "None"
	case StateWaitSetup:
		return "WaitSetup"
	case StateWaitChallenge:
		return "WaitChallenge"
	case StateWaitAccept:
		return "WaitAccept"
	case StateCompleted:
		return "Completed"
	}
	return "Unknown"
}

// Role tells on which side of the connection a protocol runs.
type Role uint8

const (
	RoleClient Role = iota
	RoleServer
)

func (r Role) String() string {
	if r == RoleServer {
		return "server"
	}
	return "client"
}
