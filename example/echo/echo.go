package main

import (
	"context"
	"time"

	"github.com/huoshan017/sronet/client"
	"github.com/huoshan017/sronet/common"
	"github.com/huoshan017/sronet/log"
	"github.com/huoshan017/sronet/msg"
	"github.com/huoshan017/sronet/packet"
	"github.com/huoshan017/sronet/server"
	"github.com/pkg/errors"
)

var (
	MsgIdEcho    = packet.NewID(packet.DirectionReq, packet.TypeGameWorld, 0x001)
	MsgIdEchoAck = MsgIdEcho.WithDirection(packet.DirectionAck)
)

type EchoRequest struct {
	Seq  uint32 `json:"seq" msgpack:"seq"`
	Text string `json:"text" msgpack:"text"`
}

type EchoResponse struct {
	Seq        uint32 `json:"seq" msgpack:"seq"`
	Text       string `json:"text" msgpack:"text"`
	ServerTime int64  `json:"server_time" msgpack:"server_time"`
}

type echoHandler struct {
	codec msg.IMsgCodec
}

func newEchoHandler(args ...any) common.ISessionHandler {
	return &echoHandler{codec: args[0].(msg.IMsgCodec)}
}

func (h *echoHandler) OnConnect(sess *common.Session) error {
	log.Infof("session %v connected from %v", sess.GetId(), sess.Conn().RemoteAddr())
	return sess.RegisterService(msg.NewService("echo",
		msg.Handle(MsgIdEcho, h.codec, func(ctx context.Context, s *msg.MsgSession, req *EchoRequest) error {
			return s.SendMsgEncrypted(MsgIdEchoAck, &EchoResponse{
				Seq:        req.Seq,
				Text:       req.Text,
				ServerTime: time.Now().UnixMilli(),
			})
		}),
	))
}

func (h *echoHandler) OnReady(sess *common.Session) {
	log.Infof("session %v ready, option %v", sess.GetId(), sess.Protocol().Option())
}

func (h *echoHandler) OnDisconnect(sess *common.Session, err error) {
	log.Infof("session %v disconnected: %v", sess.GetId(), err)
}

func runServer(ctx context.Context, cfg *Config, c msg.IMsgCodec, option common.Option) error {
	s := server.NewServer(newEchoHandler,
		option,
		server.WithConnMaxCount(cfg.MaxConn),
		server.WithReuseAddr(true),
		server.WithNewSessionHandlerFuncArgs(c),
		common.WithReadTimeout(cfg.ReadTimeout),
		common.WithWriteTimeout(cfg.WriteTimeout),
		common.WithNoDelay(true),
	)
	if err := s.Listen(cfg.Address); err != nil {
		return err
	}
	log.Infof("echo server listening on %v", s.Addr())
	err := s.Serve(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runClient(ctx context.Context, cfg *Config, c msg.IMsgCodec) error {
	cli := client.NewClient(nil, common.WithNoDelay(true), common.WithWriteTimeout(cfg.WriteTimeout))
	sess, err := cli.Connect(ctx, cfg.Address)
	if err != nil {
		return err
	}
	defer cli.Close()
	log.Infof("connected to %v, option %v", cfg.Address, sess.Protocol().Option())

	acks := make(chan *EchoResponse, cfg.Count)
	err = sess.RegisterService(msg.NewService("echo",
		msg.Handle(MsgIdEchoAck, c, func(ctx context.Context, s *msg.MsgSession, resp *EchoResponse) error {
			acks <- resp
			return nil
		}),
	))
	if err != nil {
		return err
	}

	runErr := make(chan error, 1)
	go func() { runErr <- cli.Run(ctx) }()

	ms := msg.NewMsgSession(sess, c)
	for i := 0; i < cfg.Count; i++ {
		start := time.Now()
		if err = ms.SendMsgEncrypted(MsgIdEcho, &EchoRequest{Seq: uint32(i), Text: "hello silkroad"}); err != nil {
			return err
		}
		select {
		case resp := <-acks:
			log.Infof("echo %d %q in %v", resp.Seq, resp.Text, time.Since(start))
		case err = <-runErr:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
