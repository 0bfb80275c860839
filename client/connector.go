package client

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/huoshan017/sronet/common"
	"github.com/pkg/errors"
)

const (
	ConnStateNotConnect = iota // 非连接状态
	ConnStateConnecting = 1    // 连接中状态
	ConnStateConnected  = 2    // 已连接状态
)

type Connector struct {
	options *common.Options
	state   int32
}

// 创建连接器
func NewConnector(options *common.Options) *Connector {
	return &Connector{
		options: options,
	}
}

// 同步连接, ctx 控制拨号的取消与超时
func (c *Connector) Connect(ctx context.Context, address string) (net.Conn, error) {
	atomic.StoreInt32(&c.state, ConnStateConnecting)
	dialer := net.Dialer{}
	if c.options.GetKeepAlived() {
		dialer.KeepAlive = c.options.GetKeepAlivedPeriod()
	} else {
		dialer.KeepAlive = -1
	}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		atomic.StoreInt32(&c.state, ConnStateNotConnect)
		return nil, errors.WithStack(err)
	}
	atomic.StoreInt32(&c.state, ConnStateConnected)
	return conn, nil
}

// 带超时的同步连接
func (c *Connector) ConnectWithTimeout(address string, timeout time.Duration) (net.Conn, error) {
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return c.Connect(ctx, address)
}

// 连接断开后调用
func (c *Connector) Disconnected() {
	atomic.StoreInt32(&c.state, ConnStateNotConnect)
}

func (c *Connector) GetState() int32 {
	return atomic.LoadInt32(&c.state)
}

func (c *Connector) IsConnected() bool {
	return c.GetState() == ConnStateConnected
}
