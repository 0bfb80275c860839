package common

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/huoshan017/sronet/packet"
	"github.com/huoshan017/sronet/protocol"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOpcode = packet.NewID(packet.DirectionReq, packet.TypeGameWorld, 0x42)

func completed(p *protocol.Protocol) *protocol.Protocol {
	p.SetOption(protocol.OptionNone)
	p.SetState(protocol.StateCompleted)
	return p
}

// sessionPair returns two sessions already past the handshake, joined by a pipe
func sessionPair(t *testing.T) (*Session, *Session) {
	t.Helper()
	c1, c2 := net.Pipe()
	a := NewSession(c1, completed(protocol.NewServer()), nil)
	b := NewSession(c2, completed(protocol.NewClient()), nil)
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	return a, b
}

// sendAsync sends on s from another goroutine, net.Pipe writes block until read
func sendAsync(s *Session, msgs ...*packet.Message) chan error {
	done := make(chan error, 1)
	go func() {
		for _, m := range msgs {
			if err := s.Send(m); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()
	return done
}

func massiveHeader(count uint16, opcode packet.ID) *packet.Message {
	m := packet.New(packet.OpcodeMassive)
	m.WriteBool(true)
	m.WriteUint16(count)
	m.WriteUint16(uint16(opcode))
	return m
}

func massiveChunk(data []byte) *packet.Message {
	m := packet.New(packet.OpcodeMassive)
	m.WriteBool(false)
	m.WriteBytes(data)
	return m
}

func TestSessionSendReceive(t *testing.T) {
	a, b := sessionPair(t)
	m := packet.New(testOpcode)
	m.WriteUint32(0xDEADBEEF)
	require.NoError(t, m.WriteString("silk"))
	done := sendAsync(a, m)

	got, err := b.Receive(context.Background())
	require.NoError(t, err)
	require.NoError(t, <-done)
	assert.Equal(t, testOpcode, got.ID())
	v, err := got.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), v)
	s, err := got.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "silk", s)
}

func TestSessionChunkedRoundTrip(t *testing.T) {
	a, b := sessionPair(t)
	payload := make([]byte, 2*packet.DataSize+5)
	for i := range payload {
		payload[i] = byte(i * 7)
	}
	m := packet.New(testOpcode)
	m.WriteBytes(payload)
	done := sendAsync(a, m)

	got, err := b.Receive(context.Background())
	require.NoError(t, err)
	require.NoError(t, <-done)
	assert.Equal(t, testOpcode, got.ID())
	assert.True(t, got.Massive())
	assert.Equal(t, payload, got.Data())
	assert.Equal(t, packet.DataOffset, got.Position())
}

func TestSessionSmallMassive(t *testing.T) {
	a, b := sessionPair(t)
	m := packet.NewMassive(testOpcode)
	m.WriteBytes([]byte("tiny"))
	done := sendAsync(a, m)

	got, err := b.Receive(context.Background())
	require.NoError(t, err)
	require.NoError(t, <-done)
	assert.True(t, got.Massive())
	assert.Equal(t, []byte("tiny"), got.Data())
}

func TestSessionEncryptedTooLarge(t *testing.T) {
	a, _ := sessionPair(t)
	m := packet.NewEncrypted(testOpcode)
	m.WriteBytes(make([]byte, packet.DataSize+1))
	assert.True(t, errors.Is(a.Send(m), ErrMessageTooLarge))
}

func TestSessionEmptyMassive(t *testing.T) {
	a, b := sessionPair(t)
	done := sendAsync(a, massiveHeader(0, testOpcode))

	got, err := b.Receive(context.Background())
	require.NoError(t, err)
	require.NoError(t, <-done)
	assert.Equal(t, testOpcode, got.ID())
	assert.Equal(t, 0, got.Len())
}

func TestSessionFrameBetweenChunks(t *testing.T) {
	a, b := sessionPair(t)
	plain := packet.New(testOpcode.WithOperation(1))
	plain.WriteUint8(9)
	done := sendAsync(a, massiveHeader(1, testOpcode), plain, massiveChunk([]byte("rest")))

	got, err := b.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, plain.ID(), got.ID())

	got, err = b.Receive(context.Background())
	require.NoError(t, err)
	require.NoError(t, <-done)
	assert.Equal(t, testOpcode, got.ID())
	assert.Equal(t, []byte("rest"), got.Data())
}

func TestSessionDistortedMassive(t *testing.T) {
	t.Run("chunk without header", func(t *testing.T) {
		a, b := sessionPair(t)
		done := sendAsync(a, massiveChunk([]byte("orphan")))
		_, err := b.Receive(context.Background())
		assert.True(t, errors.Is(err, ErrDistortedMessage), "%v", err)
		require.NoError(t, <-done)
	})

	t.Run("second header", func(t *testing.T) {
		a, b := sessionPair(t)
		done := sendAsync(a, massiveHeader(2, testOpcode), massiveHeader(1, testOpcode), massiveHeader(0, testOpcode))
		_, err := b.Receive(context.Background())
		assert.True(t, errors.Is(err, ErrDistortedMessage), "%v", err)

		// the broken reassembly is dropped, the next header starts afresh
		got, err := b.Receive(context.Background())
		require.NoError(t, err)
		assert.Equal(t, testOpcode, got.ID())
		require.NoError(t, <-done)
	})
}

func TestSessionNotReady(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c2.Close()
	s := NewSession(c1, protocol.NewServer(), nil)
	defer s.Close()

	assert.False(t, s.Ready())
	assert.True(t, errors.Is(s.Send(packet.New(testOpcode)), ErrNotReady))
	assert.True(t, errors.Is(s.Dispatch(context.Background(), packet.New(testOpcode)), ErrNotReady))

	s.Protocol().SetState(protocol.StateCompleted)
	assert.True(t, s.Ready())
}

func TestSessionDispatchOrder(t *testing.T) {
	s, _ := sessionPair(t)
	var order []string
	reader := func(name string) HandleFunc {
		return func(ctx context.Context, s *Session, m *packet.Message) error {
			v, err := m.ReadUint8()
			if err != nil {
				return err
			}
			assert.Equal(t, uint8(5), v)
			order = append(order, name)
			return nil
		}
	}
	s.RegisterHandler(testOpcode, reader("first"))
	s.RegisterHandler(testOpcode.WithOperation(7), reader("other"))
	second := s.RegisterHandler(testOpcode, reader("second"))

	m := packet.New(testOpcode)
	m.WriteUint8(5)
	require.NoError(t, s.Dispatch(context.Background(), m))
	assert.Equal(t, []string{"first", "second"}, order)

	require.True(t, s.RemoveHandler(second))
	assert.False(t, s.RemoveHandler(second))
	order = nil
	require.NoError(t, s.Dispatch(context.Background(), m))
	assert.Equal(t, []string{"first"}, order)

	err := s.Dispatch(context.Background(), packet.New(testOpcode.WithOperation(8)))
	assert.True(t, errors.Is(err, ErrNoHandler))
	assert.True(t, IsNoDisconnectError(err))
}

func TestSessionDispatchStopsOnError(t *testing.T) {
	s, _ := sessionPair(t)
	boom := errors.New("boom")
	var called bool
	s.RegisterHandler(testOpcode, func(ctx context.Context, s *Session, m *packet.Message) error { return boom })
	s.RegisterHandler(testOpcode, func(ctx context.Context, s *Session, m *packet.Message) error {
		called = true
		return nil
	})
	assert.Equal(t, boom, s.Dispatch(context.Background(), packet.New(testOpcode)))
	assert.False(t, called)
}

type countService struct {
	hits int
}

func (c *countService) Bindings() []Binding {
	return []Binding{NewBinding(testOpcode, func(ctx context.Context, s *Session, m *packet.Message) error {
		c.hits++
		return nil
	})}
}

type namedService struct {
	name string
}

func (n *namedService) Bindings() []Binding { return nil }
func (n *namedService) ServiceName() string { return n.name }

func TestSessionServices(t *testing.T) {
	s, _ := sessionPair(t)
	svc := &countService{}
	require.NoError(t, s.RegisterService(svc))
	assert.True(t, errors.Is(s.RegisterService(&countService{}), ErrServiceRegistered))

	found, ok := FindService[*countService](s)
	require.True(t, ok)
	assert.Same(t, svc, found)

	require.NoError(t, s.Dispatch(context.Background(), packet.New(testOpcode)))
	assert.Equal(t, 1, svc.hits)

	// removing the service alone leaves its handlers bound
	require.True(t, s.RemoveService(svc, false))
	assert.False(t, s.RemoveService(svc, false))
	require.NoError(t, s.Dispatch(context.Background(), packet.New(testOpcode)))
	assert.Equal(t, 2, svc.hits)

	require.NoError(t, s.RegisterService(svc))
	require.True(t, s.RemoveService(svc, true))
	err := s.Dispatch(context.Background(), packet.New(testOpcode))
	assert.True(t, errors.Is(err, ErrNoHandler))
	assert.Equal(t, 2, svc.hits)

	_, ok = FindService[*countService](s)
	assert.False(t, ok)
}

func TestSessionNamedServices(t *testing.T) {
	s, _ := sessionPair(t)
	require.NoError(t, s.RegisterService(&namedService{name: "a"}))
	require.NoError(t, s.RegisterService(&namedService{name: "b"}))
	assert.True(t, errors.Is(s.RegisterService(&namedService{name: "a"}), ErrServiceRegistered))
}

func TestSessionReceiveCanceled(t *testing.T) {
	_, b := sessionPair(t)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)
	_, err := b.Receive(ctx)
	assert.Equal(t, context.Canceled, err)

	ctx, cancel = context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = b.Receive(ctx)
	assert.Equal(t, context.DeadlineExceeded, err)
}

func TestSessionRemoteClosed(t *testing.T) {
	a, b := sessionPair(t)
	require.NoError(t, a.Close())
	_, err := b.Receive(context.Background())
	assert.True(t, errors.Is(err, ErrRemoteDisconnected), "%v", err)
	assert.True(t, b.Conn().IsClosed())
}

func TestSessionRun(t *testing.T) {
	a, b := sessionPair(t)
	fatal := errors.New("fatal")
	recoverable := errors.New("recoverable")
	RegisterNoDisconnectError(recoverable)

	b.RegisterHandler(testOpcode, func(ctx context.Context, s *Session, m *packet.Message) error {
		v, err := m.ReadUint8()
		if err != nil {
			return err
		}
		if v == 1 {
			return errors.Wrap(recoverable, "first")
		}
		return fatal
	})

	first := packet.New(testOpcode)
	first.WriteUint8(1)
	second := packet.New(testOpcode)
	second.WriteUint8(2)
	done := sendAsync(a, packet.New(testOpcode.WithOperation(9)), first, second)

	err := b.Run(context.Background())
	assert.Equal(t, fatal, err)
	require.NoError(t, <-done)
}

func TestSessionData(t *testing.T) {
	s, other := sessionPair(t)
	assert.Nil(t, s.GetData("role"))
	s.SetData("role", "gateway")
	assert.Equal(t, "gateway", s.GetData("role"))
	assert.Nil(t, other.GetData("role"))
	assert.NotEqual(t, s.GetId(), other.GetId())
}

// tagService is a value type that cannot be compared with ==
type tagService struct {
	tags []string
}

func (t tagService) Bindings() []Binding {
	return []Binding{NewBinding(testOpcode, func(ctx context.Context, s *Session, m *packet.Message) error {
		return errors.New("tag handler still bound")
	})}
}

func TestSessionValueService(t *testing.T) {
	s, _ := sessionPair(t)
	svc := tagService{tags: []string{"gm"}}
	require.NoError(t, s.RegisterService(svc))
	assert.True(t, errors.Is(s.RegisterService(tagService{}), ErrServiceRegistered))
	counter := &countService{}
	require.NoError(t, s.RegisterService(counter))

	assert.NotPanics(t, func() {
		assert.True(t, s.RemoveService(svc, true))
	})
	assert.False(t, s.RemoveService(svc, true))

	_, ok := FindService[tagService](s)
	assert.False(t, ok)
	_, ok = FindService[*countService](s)
	assert.True(t, ok)
	// only the count service binding is left
	require.NoError(t, s.Dispatch(context.Background(), packet.New(testOpcode)))
	assert.Equal(t, 1, counter.hits)
}
