package common

import (
	"sync"

	"github.com/pkg/errors"
)

var (
	ErrRemoteDisconnected = errors.New("sronet: remote disconnected")
	ErrConnClosed         = errors.New("sronet: connection is closed")
	ErrDistortedMessage   = errors.New("sronet: distorted massive message")
	ErrNotReady           = errors.New("sronet: session handshake not completed")
	ErrServiceRegistered  = errors.New("sronet: service type already registered")
	ErrMessageTooLarge    = errors.New("sronet: message too large")
	ErrNoHandler          = errors.New("sronet: no handler for message")
)

var (
	noDisconnectErrs   []error
	noDisconnectLocker sync.RWMutex
)

func init() {
	RegisterNoDisconnectError(ErrNoHandler)
}

// RegisterNoDisconnectError marks err, and every error wrapping it, as recoverable:
// a handler returning it is logged and the session keeps running.
func RegisterNoDisconnectError(err error) {
	noDisconnectLocker.Lock()
	defer noDisconnectLocker.Unlock()
	for _, e := range noDisconnectErrs {
		if e == err {
			return
		}
	}
	noDisconnectErrs = append(noDisconnectErrs, err)
}

func IsNoDisconnectError(err error) bool {
	if err == nil {
		return false
	}
	noDisconnectLocker.RLock()
	defer noDisconnectLocker.RUnlock()
	for _, e := range noDisconnectErrs {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
