package server

import (
	"context"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/huoshan017/sronet/common"
	"github.com/huoshan017/sronet/handshake"
	"github.com/huoshan017/sronet/log"
	"github.com/huoshan017/sronet/packet"
	"github.com/huoshan017/sronet/protocol"
	cmap "github.com/orcaman/concurrent-map"
	"github.com/pkg/errors"
)

const (
	DefaultServerMaxConnCount = 20000
)

var ErrServerClosed = errors.New("sronet: server closed")

// 服务器
type Server struct {
	acceptor       *Acceptor
	newHandlerFunc NewSessionHandlerFunc
	options        *common.Options
	sessMap        cmap.ConcurrentMap // 已完成握手的会话
	connCount      int32              // 当前连接数, 包括握手中的
	waitWg         sync.WaitGroup
	locker         sync.Mutex
	cancel         context.CancelFunc
	closed         int32
}

func NewServer(newFunc NewSessionHandlerFunc, options ...common.Option) *Server {
	s := &Server{
		newHandlerFunc: newFunc,
		options:        common.Apply(options...),
		sessMap:        cmap.New(),
	}
	if s.options.GetConnMaxCount() <= 0 {
		s.options.SetConnMaxCount(DefaultServerMaxConnCount)
	}
	s.acceptor = NewAcceptor(s.options)
	return s
}

func (s *Server) Listen(addr string) error {
	return s.acceptor.Listen(addr)
}

func (s *Server) Addr() net.Addr {
	return s.acceptor.Addr()
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if err := s.Listen(addr); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve accept connections until ctx is done or Close is called, then wait for the sessions to end
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.locker.Lock()
	if s.IsClosed() {
		s.locker.Unlock()
		cancel()
		return ErrServerClosed
	}
	s.cancel = cancel
	s.locker.Unlock()

	stop := context.AfterFunc(ctx, func() { s.acceptor.Close() })
	defer func() {
		stop()
		cancel()
		s.waitWg.Wait()
	}()

	for {
		conn, err := s.acceptor.Accept()
		if err != nil {
			if ctx.Err() != nil || s.acceptor.IsClosed() {
				if s.IsClosed() {
					return ErrServerClosed
				}
				return ctx.Err()
			}
			return err
		}

		if int(atomic.AddInt32(&s.connCount, 1)) > s.options.GetConnMaxCount() {
			atomic.AddInt32(&s.connCount, -1)
			log.Infof("connection from %v refused, server is full", conn.RemoteAddr())
			conn.Close()
			continue
		}

		s.waitWg.Add(1)
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) newHandler() common.ISessionHandler {
	if s.newHandlerFunc == nil {
		return &common.SessionHandlerFuncs{}
	}
	return s.newHandlerFunc(s.options.GetSessionHandleArgs()...)
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	var (
		sess    = common.NewSession(conn, s.options.NewProtocol(protocol.RoleServer), s.options)
		handler common.ISessionHandler
		err     error
	)

	defer func() {
		if r := recover(); r != nil {
			log.WithStack(r)
			err = errors.Errorf("sronet: session %v panic: %v", sess.GetId(), r)
		}
		sess.Close()
		if handler != nil {
			handler.OnDisconnect(sess, err)
		}
		atomic.AddInt32(&s.connCount, -1)
		s.waitWg.Done()
	}()

	handler = s.newHandler()
	if err = sess.RegisterService(handshake.NewServerService()); err != nil {
		return
	}
	if err = handler.OnConnect(sess); err != nil {
		return
	}
	if err = sess.Handshake(ctx); err != nil {
		log.Debugf("session %v handshake with %v: %v", sess.GetId(), conn.RemoteAddr(), err)
		return
	}

	key := strconv.FormatUint(sess.GetId(), 10)
	s.sessMap.Set(key, sess)
	defer s.sessMap.Remove(key)

	handler.OnReady(sess)
	err = sess.Run(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, common.ErrRemoteDisconnected) {
		log.Debugf("session %v ended: %v", sess.GetId(), err)
	} else {
		log.Infof("session %v ended: %v", sess.GetId(), err)
	}
}

// SessionCount number of sessions done with the handshake
func (s *Server) SessionCount() int {
	return s.sessMap.Count()
}

func (s *Server) GetSession(id uint64) (*common.Session, bool) {
	v, o := s.sessMap.Get(strconv.FormatUint(id, 10))
	if !o {
		return nil, false
	}
	return v.(*common.Session), true
}

// Broadcast send m to every ready session and return how many got it
func (s *Server) Broadcast(m *packet.Message) int {
	var sent int
	for item := range s.sessMap.IterBuffered() {
		sess := item.Val.(*common.Session)
		if err := sess.Send(m); err != nil {
			log.Infof("broadcast %v to session %v: %v", m.ID(), sess.GetId(), err)
			continue
		}
		sent++
	}
	return sent
}

// Close stop accepting and end all sessions
func (s *Server) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil
	}
	s.locker.Lock()
	cancel := s.cancel
	s.locker.Unlock()
	if cancel != nil {
		cancel()
	}
	return s.acceptor.Close()
}

func (s *Server) IsClosed() bool {
	return atomic.LoadInt32(&s.closed) > 0
}
