package server

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/huoshan017/sronet/common"
	"github.com/huoshan017/sronet/control"
	"github.com/pkg/errors"
)

type Acceptor struct {
	listener net.Listener
	options  *common.Options
	closed   int32
}

func NewAcceptor(options *common.Options) *Acceptor {
	return &Acceptor{
		options: options,
	}
}

func (a *Acceptor) Listen(addr string) error {
	var lc = net.ListenConfig{
		Control: control.GetControl(control.NewCtrlOptions(a.options.GetReuseAddr(), a.options.GetReusePort())),
	}
	listener, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return errors.WithStack(err)
	}
	a.listener = listener
	return nil
}

func (a *Acceptor) Addr() net.Addr {
	if a.listener == nil {
		return nil
	}
	return a.listener.Addr()
}

// Accept wait for the next connection, temporary failures are retried with backoff
func (a *Acceptor) Accept() (net.Conn, error) {
	if a.listener == nil {
		return nil, errors.New("sronet: acceptor is not listening")
	}
	var delay time.Duration
	for {
		conn, err := a.listener.Accept()
		if err == nil {
			return conn, nil
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() && !a.IsClosed() {
			if delay == 0 {
				delay = 5 * time.Millisecond
			} else {
				delay *= 2
			}
			if limit := time.Second; delay > limit {
				delay = limit
			}
			time.Sleep(delay)
			continue
		}
		return nil, err
	}
}

func (a *Acceptor) Close() error {
	if !atomic.CompareAndSwapInt32(&a.closed, 0, 1) {
		return nil
	}
	if a.listener == nil {
		return nil
	}
	return a.listener.Close()
}

func (a *Acceptor) IsClosed() bool {
	return atomic.LoadInt32(&a.closed) > 0
}
