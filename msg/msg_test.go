package msg

import (
	"context"
	"net"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/huoshan017/sronet/common"
	"github.com/huoshan017/sronet/handshake"
	"github.com/huoshan017/sronet/msg/codec"
	"github.com/huoshan017/sronet/packet"
	"github.com/huoshan017/sronet/protocol"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type position struct {
	Region int16
	X, Y   float32
	Name   string
}

type chat struct {
	Text string
}

var (
	moveID = packet.NewID(packet.DirectionReq, packet.TypeGameWorld, 0x21)
	chatID = packet.NewID(packet.DirectionReq, packet.TypeGameWorld, 0x25)
)

func readyPair(t *testing.T) (*common.Session, *common.Session) {
	t.Helper()
	cc, sc := net.Pipe()
	so := common.Apply(common.WithProtocolOption(protocol.OptionDefault | protocol.OptionKeyChallenge))
	server := common.NewSession(sc, so.NewProtocol(protocol.RoleServer), so)
	require.NoError(t, server.RegisterService(handshake.NewServerService()))
	client := common.NewSession(cc, protocol.NewClient(), nil)
	require.NoError(t, client.RegisterService(handshake.NewClientService()))
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- server.Handshake(ctx) }()
	require.NoError(t, client.Handshake(ctx))
	require.NoError(t, <-errCh)
	return client, server
}

func serve(t *testing.T, s *common.Session) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func waitFor[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out")
	}
	var zero T
	return zero
}

func TestHandleTyped(t *testing.T) {
	c := codec.NewMsgpackCodec()
	client, server := readyPair(t)

	got := make(chan position, 2)
	svc := NewService("world", Handle(moveID, c, func(ctx context.Context, s *MsgSession, p *position) error {
		got <- *p
		return nil
	}))
	require.NoError(t, server.RegisterService(svc))
	serve(t, server)

	ms := NewMsgSession(client, c)
	in := position{Region: 24744, X: 10, Y: 20, Name: "small"}
	require.NoError(t, ms.SendMsg(moveID, &in))
	assert.Equal(t, in, waitFor(t, got))

	require.NoError(t, ms.SendMsgEncrypted(moveID, &in))
	assert.Equal(t, in, waitFor(t, got))
}

func TestMassivePayload(t *testing.T) {
	c := codec.NewJsonCodec()
	client, server := readyPair(t)

	got := make(chan chat, 1)
	require.NoError(t, server.RegisterService(NewService("chat", Handle(chatID, c, func(ctx context.Context, s *MsgSession, m *chat) error {
		got <- *m
		return nil
	}))))
	serve(t, server)

	in := chat{Text: strings.Repeat("0123456789", 2000)}
	m, err := Pack(c, chatID, &in, false)
	require.NoError(t, err)
	assert.True(t, m.Massive())
	require.NoError(t, client.Send(m))
	assert.Equal(t, in, waitFor(t, got))

	_, err = Pack(c, chatID, &in, true)
	assert.True(t, errors.Is(err, common.ErrMessageTooLarge))
}

func TestDecodeErrorKeepsSession(t *testing.T) {
	c := codec.NewJsonCodec()
	client, server := readyPair(t)

	got := make(chan chat, 1)
	require.NoError(t, server.RegisterService(NewService("chat", Handle(chatID, c, func(ctx context.Context, s *MsgSession, m *chat) error {
		got <- *m
		return nil
	}))))
	serve(t, server)

	bad := packet.New(chatID)
	bad.WriteBytes([]byte("{not json"))
	require.NoError(t, client.Send(bad))

	require.NoError(t, NewMsgSession(client, c).SendMsg(chatID, &chat{Text: "still here"}))
	assert.Equal(t, "still here", waitFor(t, got).Text)
}

func TestMapperService(t *testing.T) {
	c := codec.NewGobCodec()
	client, server := readyPair(t)

	mapper := CreateIdMsgMapper()
	mapper.AddMap(moveID, reflect.TypeOf(&position{}))
	mapper.AddMap(chatID, reflect.TypeOf(&chat{}))

	got := make(chan any, 2)
	require.NoError(t, server.RegisterService(NewMapperService("mapped", c, mapper, func(ctx context.Context, s *MsgSession, id packet.ID, obj any) error {
		got <- obj
		return nil
	})))
	serve(t, server)

	ms := NewMsgSession(client, c)
	require.NoError(t, ms.SendMsg(moveID, &position{Region: 1, Name: "a"}))
	require.NoError(t, ms.SendMsg(chatID, &chat{Text: "b"}))
	assert.Equal(t, &position{Region: 1, Name: "a"}, waitFor(t, got))
	assert.Equal(t, &chat{Text: "b"}, waitFor(t, got))
}

func TestServicesOfOneTypeByName(t *testing.T) {
	_, server := readyPair(t)
	require.NoError(t, server.RegisterService(NewService("a")))
	require.NoError(t, server.RegisterService(NewService("b")))
	err := server.RegisterService(NewService("a"))
	assert.True(t, errors.Is(err, common.ErrServiceRegistered))
}
