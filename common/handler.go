package common

import (
	"context"
	"reflect"

	"github.com/huoshan017/sronet/packet"
)

// HandleFunc handles one message, the message cursor starts at the payload.
type HandleFunc func(ctx context.Context, s *Session, m *packet.Message) error

// Binding ties an opcode to a handler. A session dispatches to every binding
// matching the opcode in registration order, bindings are removed by identity.
type Binding struct {
	Opcode packet.ID
	Handle HandleFunc

	owner *serviceEntry
}

// serviceEntry is one registration, its pointer identifies it whatever the service type
type serviceEntry struct {
	svc Service
}

func NewBinding(opcode packet.ID, handle HandleFunc) Binding {
	return Binding{Opcode: opcode, Handle: handle}
}

// Service is a set of handlers registered on a session as a whole.
// At most one service of each concrete type lives in a session.
type Service interface {
	Bindings() []Binding
}

// Initiator is a service speaking first once the connection is up.
type Initiator interface {
	Begin(ctx context.Context, s *Session) error
}

// FindService returns the registered service of type T.
func FindService[T any](s *Session) (T, bool) {
	s.locker.RLock()
	defer s.locker.RUnlock()
	for _, e := range s.services {
		if t, ok := e.svc.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

// NamedService lets several services of one concrete type live in a session,
// two of them collide only when their names match.
type NamedService interface {
	Service
	ServiceName() string
}

// sameInstance reports whether a and b are the same service value,
// services of a type without == fall back to sameService
func sameInstance(a, b Service) bool {
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	return sameService(a, b)
}

func sameService(a, b Service) bool {
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	na, ok1 := a.(NamedService)
	nb, ok2 := b.(NamedService)
	if ok1 && ok2 {
		return na.ServiceName() == nb.ServiceName()
	}
	return true
}
