package common

import (
	"bufio"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// Conn wraps a net.Conn with buffered exact reads and flushed writes
type Conn struct {
	conn    net.Conn
	options *Options
	reader  *bufio.Reader
	writer  *bufio.Writer
	closed  int32
}

// NewConn create Conn instance
func NewConn(conn net.Conn, options *Options) *Conn {
	if options == nil {
		options = NewOptions()
	}
	c := &Conn{
		conn:    conn,
		options: options,
	}

	if options.writeBuffSize <= 0 {
		c.writer = bufio.NewWriterSize(conn, DefaultWriteBuffSize)
	} else {
		c.writer = bufio.NewWriterSize(conn, options.writeBuffSize)
	}

	if options.readBuffSize <= 0 {
		c.reader = bufio.NewReaderSize(conn, DefaultReadBuffSize)
	} else {
		c.reader = bufio.NewReaderSize(conn, options.readBuffSize)
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if options.noDelay {
			tcpConn.SetNoDelay(options.noDelay)
		}
		if options.keepAlived {
			tcpConn.SetKeepAlive(options.keepAlived)
		}
		if options.keepAlivedPeriod > 0 {
			tcpConn.SetKeepAlivePeriod(options.keepAlivedPeriod)
		}
	}

	return c
}

// Conn.LocalAddr get local address for connection
func (c *Conn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// Conn.RemoteAddr get remote address for connection
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Conn.ReadFull read until p is filled, a zero length read means the peer has gone
func (c *Conn) ReadFull(p []byte) error {
	if c.IsClosed() {
		return ErrConnClosed
	}
	for off := 0; off < len(p); {
		n, err := c.reader.Read(p[off:])
		off += n
		if err != nil {
			if errors.Is(err, io.EOF) {
				c.Close()
				return ErrRemoteDisconnected
			}
			return errors.WithStack(err)
		}
		if n == 0 {
			c.Close()
			return ErrRemoteDisconnected
		}
	}
	return nil
}

// Conn.WriteFull write all of p and flush it to the network
func (c *Conn) WriteFull(p []byte) error {
	if c.IsClosed() {
		return ErrConnClosed
	}
	for off := 0; off < len(p); {
		n, err := c.writer.Write(p[off:])
		off += n
		if err != nil {
			return errors.WithStack(err)
		}
	}
	return errors.WithStack(c.writer.Flush())
}

// armRead starts a read operation, applying the read timeout or clearing an old deadline
func (c *Conn) armRead() {
	var deadline time.Time
	if c.options.readTimeout > 0 {
		deadline = time.Now().Add(c.options.readTimeout)
	}
	c.conn.SetReadDeadline(deadline)
}

func (c *Conn) armWrite() {
	var deadline time.Time
	if c.options.writeTimeout > 0 {
		deadline = time.Now().Add(c.options.writeTimeout)
	}
	c.conn.SetWriteDeadline(deadline)
}

// interrupt makes the blocked reads and writes return at once
func (c *Conn) interrupt() {
	c.conn.SetDeadline(time.Now())
}

// Conn.Close close the underlying connection, later calls do nothing
func (c *Conn) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	return c.conn.Close()
}

// Conn.IsClosed the connection is closed
func (c *Conn) IsClosed() bool {
	return atomic.LoadInt32(&c.closed) > 0
}
