package msg

import (
	"context"
	"reflect"

	"github.com/huoshan017/sronet/common"
	"github.com/huoshan017/sronet/packet"
	"github.com/pkg/errors"
)

var (
	ErrMsgIdMapperTypeNotFound = errors.New("sronet: no type mapped to message id")
)

// Handle binds id to fn, the payload is decoded into a fresh T before each call
func Handle[T any](id packet.ID, c IMsgCodec, fn func(context.Context, *MsgSession, *T) error) common.Binding {
	return common.NewBinding(id, func(ctx context.Context, s *common.Session, m *packet.Message) error {
		req := new(T)
		if err := Unpack(c, m, req); err != nil {
			return err
		}
		return fn(ctx, NewMsgSession(s, c), req)
	})
}

type IdMsgMapper struct {
	m map[packet.ID]reflect.Type
}

func CreateIdMsgMapper() *IdMsgMapper {
	return &IdMsgMapper{
		m: make(map[packet.ID]reflect.Type),
	}
}

func CreateIdMsgMapperWith(m map[packet.ID]reflect.Type) *IdMsgMapper {
	return &IdMsgMapper{
		m: m,
	}
}

// AddMap map id to typ, typ is a pointer type such as reflect.TypeOf(&Foo{})
func (ma *IdMsgMapper) AddMap(id packet.ID, typ reflect.Type) {
	ma.m[id] = typ
}

func (ma *IdMsgMapper) GetReflectNewObject(id packet.ID) any {
	rt, o := ma.m[id]
	if !o {
		return nil
	}
	return reflect.New(rt.Elem()).Interface()
}

// Ids returns the mapped ids, order is unspecified
func (ma *IdMsgMapper) Ids() []packet.ID {
	ids := make([]packet.ID, 0, len(ma.m))
	for id := range ma.m {
		ids = append(ids, id)
	}
	return ids
}

// Service is a named list of bindings, several of them may live in one session
type Service struct {
	name     string
	bindings []common.Binding
}

func NewService(name string, bindings ...common.Binding) *Service {
	return &Service{name: name, bindings: bindings}
}

// NewMapperService decode every message mapped by mapper and pass it to handle
func NewMapperService(name string, c IMsgCodec, mapper *IdMsgMapper, handle func(context.Context, *MsgSession, packet.ID, any) error) *Service {
	svc := &Service{name: name}
	for _, id := range mapper.Ids() {
		svc.bindings = append(svc.bindings, common.NewBinding(id, func(ctx context.Context, s *common.Session, m *packet.Message) error {
			obj := mapper.GetReflectNewObject(m.ID())
			if obj == nil {
				return errors.Wrapf(ErrMsgIdMapperTypeNotFound, "%v", m.ID())
			}
			if err := Unpack(c, m, obj); err != nil {
				return err
			}
			return handle(ctx, NewMsgSession(s, c), m.ID(), obj)
		}))
	}
	return svc
}

func (s *Service) ServiceName() string {
	return s.name
}

func (s *Service) Bindings() []common.Binding {
	return s.bindings
}

// Add append a binding, it takes effect for sessions registering the service afterwards
func (s *Service) Add(b common.Binding) *Service {
	s.bindings = append(s.bindings, b)
	return s
}
