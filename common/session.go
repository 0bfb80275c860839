package common

import (
	"context"
	"encoding/binary"
	"math"
	"net"
	"sync"
	"sync/atomic"

	"github.com/huoshan017/sronet/log"
	"github.com/huoshan017/sronet/packet"
	"github.com/huoshan017/sronet/pool"
	"github.com/huoshan017/sronet/protocol"
	"github.com/pkg/errors"
)

var sessionIdCounter uint64

var _ ISender = (*Session)(nil)

// Session drives one connection: handshake, framing, massive reassembly and dispatch.
// Receive, Dispatch and Run belong to a single goroutine, Send may be called from any.
type Session struct {
	id       uint64
	conn     *Conn
	protocol *protocol.Protocol
	options  *Options
	ready    atomic.Bool

	locker   sync.RWMutex // 保护 bindings, services
	bindings []*Binding
	services []*serviceEntry

	sendLocker sync.Mutex // 一条消息的所有帧连续发出

	pending      *packet.Message // 正在重组的大消息
	pendingCount uint16

	dataLocker sync.Mutex
	datas      map[string]any

	closed int32
}

// NewSession create a session over conn, options may be nil
func NewSession(conn net.Conn, proto *protocol.Protocol, options *Options) *Session {
	if options == nil {
		options = NewOptions()
	}
	return &Session{
		id:       atomic.AddUint64(&sessionIdCounter, 1),
		conn:     NewConn(conn, options),
		protocol: proto,
		options:  options,
	}
}

// Session.GetId get session id
func (s *Session) GetId() uint64 {
	return s.id
}

func (s *Session) Protocol() *protocol.Protocol {
	return s.protocol
}

func (s *Session) Options() *Options {
	return s.options
}

func (s *Session) Conn() *Conn {
	return s.conn
}

// Session.Ready the handshake is completed
func (s *Session) Ready() bool {
	if s.ready.Load() {
		return true
	}
	if s.protocol.Ready() {
		s.ready.Store(true)
		return true
	}
	return false
}

func (s *Session) SetData(key string, value any) {
	s.dataLocker.Lock()
	defer s.dataLocker.Unlock()
	if s.datas == nil {
		s.datas = make(map[string]any)
	}
	s.datas[key] = value
}

func (s *Session) GetData(key string) any {
	s.dataLocker.Lock()
	defer s.dataLocker.Unlock()
	return s.datas[key]
}

// Session.RegisterService register svc and append its bindings in order
func (s *Session) RegisterService(svc Service) error {
	s.locker.Lock()
	defer s.locker.Unlock()
	for _, e := range s.services {
		if sameService(e.svc, svc) {
			return errors.Wrapf(ErrServiceRegistered, "%T", svc)
		}
	}
	entry := &serviceEntry{svc: svc}
	s.services = append(s.services, entry)
	for _, b := range svc.Bindings() {
		b := b
		b.owner = entry
		s.bindings = append(s.bindings, &b)
	}
	return nil
}

// Session.RemoveService remove svc, its handlers too when removeHandlers is set
func (s *Session) RemoveService(svc Service, removeHandlers bool) bool {
	s.locker.Lock()
	defer s.locker.Unlock()
	idx := -1
	for i, e := range s.services {
		if sameInstance(e.svc, svc) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	entry := s.services[idx]
	s.services = append(s.services[:idx:idx], s.services[idx+1:]...)
	if removeHandlers {
		bindings := s.bindings[:0:0]
		for _, b := range s.bindings {
			if b.owner != entry {
				bindings = append(bindings, b)
			}
		}
		s.bindings = bindings
	}
	return true
}

// Session.RegisterHandler append a standalone handler for opcode
func (s *Session) RegisterHandler(opcode packet.ID, handle HandleFunc) *Binding {
	b := &Binding{Opcode: opcode, Handle: handle}
	s.locker.Lock()
	s.bindings = append(s.bindings, b)
	s.locker.Unlock()
	return b
}

// Session.RemoveHandler remove the binding returned by RegisterHandler
func (s *Session) RemoveHandler(b *Binding) bool {
	s.locker.Lock()
	defer s.locker.Unlock()
	for i, old := range s.bindings {
		if old == b {
			s.bindings = append(s.bindings[:i:i], s.bindings[i+1:]...)
			return true
		}
	}
	return false
}

func isHandshakeOpcode(id packet.ID) bool {
	return id == packet.OpcodeHandshake || id == packet.OpcodeHandshakeAccept
}

// Session.Send encode m and write it, splitting it into chunks when it does not fit one frame
func (s *Session) Send(m *packet.Message) error {
	if !isHandshakeOpcode(m.ID()) && !s.Ready() {
		return errors.Wrapf(ErrNotReady, "send %v", m.ID())
	}

	s.sendLocker.Lock()
	defer s.sendLocker.Unlock()

	if m.Massive() || m.Len() > packet.DataSize {
		if m.Encrypted() {
			return errors.Wrapf(ErrMessageTooLarge, "encrypted message of %d bytes", m.Len())
		}
		return s.sendChunks(m)
	}
	return s.write(m)
}

func (s *Session) write(m *packet.Message) error {
	frame, err := s.protocol.Encode(m)
	if err != nil {
		return err
	}
	s.conn.armWrite()
	return s.conn.WriteFull(frame)
}

func (s *Session) sendChunks(m *packet.Message) error {
	data := m.Data()
	count := (len(data) + packet.ChunkSize - 1) / packet.ChunkSize
	if count > math.MaxUint16 {
		return errors.Wrapf(ErrMessageTooLarge, "%d chunks", count)
	}

	header := packet.NewWithCapacity(packet.OpcodeMassive, 5)
	header.WriteBool(true)
	header.WriteUint16(uint16(count))
	header.WriteUint16(uint16(m.ID()))
	if err := s.write(header); err != nil {
		return err
	}

	for i := 0; i < count; i++ {
		start := i * packet.ChunkSize
		end := min(start+packet.ChunkSize, len(data))
		chunk := packet.NewWithCapacity(packet.OpcodeMassive, end-start+1)
		chunk.WriteBool(false)
		chunk.WriteBytes(data[start:end])
		if err := s.write(chunk); err != nil {
			return err
		}
	}
	return nil
}

// Session.Receive read the next complete message, reassembling chunked ones.
// The returned message is positioned at its payload.
func (s *Session) Receive(ctx context.Context) (*packet.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.conn.armRead()
	stop := context.AfterFunc(ctx, s.conn.interrupt)
	defer stop()

	m, err := s.receive()
	if err != nil {
		s.pending, s.pendingCount = nil, 0
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return m, nil
}

func (s *Session) receive() (*packet.Message, error) {
	for {
		m, err := s.readFrame()
		if err != nil {
			return nil, err
		}
		if m.ID() != packet.OpcodeMassive {
			return m, nil
		}

		isHeader, err := m.ReadBool()
		if err != nil {
			return nil, err
		}
		if isHeader {
			if s.pending != nil {
				return nil, errors.Wrap(ErrDistortedMessage, "second massive header")
			}
			count, err := m.ReadUint16()
			if err != nil {
				return nil, err
			}
			opcode, err := m.ReadUint16()
			if err != nil {
				return nil, err
			}
			assembled := packet.NewMassive(packet.ID(opcode))
			if count == 0 {
				return assembled, nil
			}
			s.pending, s.pendingCount = assembled, count
			continue
		}

		if s.pending == nil {
			return nil, errors.Wrap(ErrDistortedMessage, "chunk without header")
		}
		s.pending.WriteBytes(m.Data()[1:])
		s.pendingCount--
		if s.pendingCount == 0 {
			assembled := s.pending
			s.pending = nil
			assembled.Rewind()
			return assembled, nil
		}
	}
}

func (s *Session) readFrame() (*packet.Message, error) {
	var head [2]byte
	if err := s.conn.ReadFull(head[:]); err != nil {
		return nil, err
	}
	size := packet.Size(binary.LittleEndian.Uint16(head[:]))
	n, err := s.protocol.FrameLength(size)
	if err != nil {
		return nil, err
	}
	buf := pool.Alloc(n)
	defer pool.Free(buf)
	if err = s.conn.ReadFull(*buf); err != nil {
		return nil, err
	}
	return s.protocol.Decode(size, *buf)
}

// Session.Dispatch run every handler bound to the message opcode, in registration order
func (s *Session) Dispatch(ctx context.Context, m *packet.Message) error {
	if m == nil {
		return nil
	}
	handshake := isHandshakeOpcode(m.ID())
	if !handshake && !s.protocol.Ready() {
		return errors.Wrapf(ErrNotReady, "dispatch %v", m.ID())
	}

	s.locker.RLock()
	bindings := make([]*Binding, 0, len(s.bindings))
	for _, b := range s.bindings {
		if b.Opcode == m.ID() {
			bindings = append(bindings, b)
		}
	}
	s.locker.RUnlock()

	if len(bindings) == 0 {
		return errors.Wrapf(ErrNoHandler, "%v", m.ID())
	}
	for _, b := range bindings {
		m.Rewind()
		if err := b.Handle(ctx, s, m); err != nil {
			return err
		}
	}
	if handshake && s.protocol.Ready() {
		s.ready.Store(true)
	}
	return nil
}

// Session.Handshake let the initiating services speak, then serve handshake messages until completion
func (s *Session) Handshake(ctx context.Context) error {
	s.locker.RLock()
	var initiators []Initiator
	for _, e := range s.services {
		if i, ok := e.svc.(Initiator); ok {
			initiators = append(initiators, i)
		}
	}
	s.locker.RUnlock()

	for _, i := range initiators {
		if err := i.Begin(ctx, s); err != nil {
			return err
		}
	}

	for !s.protocol.Ready() {
		m, err := s.Receive(ctx)
		if err != nil {
			return err
		}
		if err = s.Dispatch(ctx, m); err != nil {
			return err
		}
	}
	s.ready.Store(true)
	return nil
}

// Session.Run complete the handshake if needed, then receive and dispatch until an error
func (s *Session) Run(ctx context.Context) error {
	if !s.Ready() {
		if err := s.Handshake(ctx); err != nil {
			return err
		}
	}
	for {
		m, err := s.Receive(ctx)
		if err != nil {
			return err
		}
		if err = s.Dispatch(ctx, m); err != nil {
			if !IsNoDisconnectError(err) {
				return err
			}
			log.Infof("session %v dispatch %v: %v", s.id, m.ID(), err)
		}
	}
}

// Session.Close close the connection and drop handlers and services
func (s *Session) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil
	}
	s.locker.Lock()
	s.bindings = nil
	s.services = nil
	s.locker.Unlock()
	return s.conn.Close()
}

func (s *Session) IsClosed() bool {
	return atomic.LoadInt32(&s.closed) > 0
}
