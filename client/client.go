package client

import (
	"context"
	"sync"

	"github.com/huoshan017/sronet/common"
	"github.com/huoshan017/sronet/handshake"
	"github.com/huoshan017/sronet/log"
	"github.com/huoshan017/sronet/packet"
	"github.com/huoshan017/sronet/protocol"
	"github.com/pkg/errors"
)

var ErrNotConnected = errors.New("sronet: client is not connected")

// 客户端, 同一时间只持有一个会话, 每次连接使用新的协议状态
type Client struct {
	connector *Connector
	handler   common.ISessionHandler
	options   *common.Options
	sess      *common.Session
	locker    sync.Mutex
}

func NewClient(handler common.ISessionHandler, options ...common.Option) *Client {
	if handler == nil {
		handler = &common.SessionHandlerFuncs{}
	}
	c := &Client{
		handler: handler,
		options: common.Apply(options...),
	}
	c.connector = NewConnector(c.options)
	return c
}

// Connect dial addr and complete the handshake, a previous session is closed first.
func (c *Client) Connect(ctx context.Context, addr string) (*common.Session, error) {
	c.locker.Lock()
	defer c.locker.Unlock()

	if c.sess != nil {
		c.sess.Close()
		c.sess = nil
	}

	conn, err := c.connector.Connect(ctx, addr)
	if err != nil {
		return nil, err
	}

	// 每次连接都从 None/WaitSetup 开始握手
	sess := common.NewSession(conn, c.options.NewProtocol(protocol.RoleClient), c.options)
	if err = c.setup(ctx, sess); err != nil {
		sess.Close()
		c.connector.Disconnected()
		c.handler.OnDisconnect(sess, err)
		return nil, err
	}
	c.sess = sess
	c.handler.OnReady(sess)
	return sess, nil
}

func (c *Client) setup(ctx context.Context, sess *common.Session) error {
	if err := sess.RegisterService(handshake.NewClientService()); err != nil {
		return err
	}
	if err := c.handler.OnConnect(sess); err != nil {
		return err
	}
	return sess.Handshake(ctx)
}

// Run serve the current session until it ends
func (c *Client) Run(ctx context.Context) error {
	sess := c.Session()
	if sess == nil {
		return ErrNotConnected
	}
	defer func() {
		if err := recover(); err != nil {
			log.WithStack(err)
		}
	}()

	err := sess.Run(ctx)
	sess.Close()
	c.connector.Disconnected()
	c.handler.OnDisconnect(sess, err)
	return err
}

func (c *Client) Session() *common.Session {
	c.locker.Lock()
	defer c.locker.Unlock()
	return c.sess
}

func (c *Client) Send(m *packet.Message) error {
	sess := c.Session()
	if sess == nil {
		return ErrNotConnected
	}
	return sess.Send(m)
}

func (c *Client) IsConnected() bool {
	sess := c.Session()
	return sess != nil && !sess.IsClosed() && c.connector.IsConnected()
}

func (c *Client) Close() error {
	c.locker.Lock()
	defer c.locker.Unlock()
	if c.sess == nil {
		return nil
	}
	err := c.sess.Close()
	c.connector.Disconnected()
	c.sess = nil
	return err
}
