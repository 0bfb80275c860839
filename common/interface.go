package common

import (
	"github.com/huoshan017/sronet/packet"
)

// ISender is what a broadcaster needs from a session
type ISender interface {
	Send(*packet.Message) error
	GetId() uint64
}

// ISessionHandler receives the life cycle events of a session
type ISessionHandler interface {
	// OnConnect runs before the handshake, register application services here
	OnConnect(*Session) error
	// OnReady runs once the handshake is completed
	OnReady(*Session)
	// OnDisconnect runs when the session ends, err is nil on a local close
	OnDisconnect(*Session, error)
}

// SessionHandlerFuncs adapts plain functions to ISessionHandler, nil fields are skipped
type SessionHandlerFuncs struct {
	Connect    func(*Session) error
	Ready      func(*Session)
	Disconnect func(*Session, error)
}

func (h *SessionHandlerFuncs) OnConnect(s *Session) error {
	if h.Connect == nil {
		return nil
	}
	return h.Connect(s)
}

func (h *SessionHandlerFuncs) OnReady(s *Session) {
	if h.Ready != nil {
		h.Ready(s)
	}
}

func (h *SessionHandlerFuncs) OnDisconnect(s *Session, err error) {
	if h.Disconnect != nil {
		h.Disconnect(s, err)
	}
}
