package common

import (
	"crypto/rand"
	"io"
	"time"

	"github.com/huoshan017/sronet/protocol"
	"github.com/huoshan017/sronet/security"
)

const (
	DefaultReadBuffSize  = 8192
	DefaultWriteBuffSize = 8192
)

// 选项结构
type Options struct {
	noDelay           bool
	keepAlived        bool
	keepAlivedPeriod  time.Duration
	readTimeout       time.Duration            // 单次读超时, 0表示不限
	writeTimeout      time.Duration            // 单次写超时, 0表示不限
	writeBuffSize     int                      // 写缓冲大小
	readBuffSize      int                      // 读缓冲大小
	protocolOption    protocol.Option          // 服务端握手时宣告的选项
	randReader        io.Reader                // 握手随机数来源
	cipherFactory     security.CipherFactory   // 加密算法
	checksumFactory   security.ChecksumFactory // 校验算法
	reuseAddr         bool                     // 监听地址复用
	reusePort         bool                     // 监听端口复用
	connMaxCount      int                      // 最大连接数, 0表示不限
	sessionHandleArgs []any                    // 会话处理器构造参数
	customDatas       map[string]any           // 自定义数据
}

// 创建Options
func NewOptions() *Options {
	return &Options{
		protocolOption: protocol.OptionDefault,
		randReader:     rand.Reader,
		customDatas:    make(map[string]any),
	}
}

// 选项
type Option func(*Options)

// Apply runs every option against a fresh Options
func Apply(options ...Option) *Options {
	o := NewOptions()
	for _, opt := range options {
		opt(o)
	}
	return o
}

func (options *Options) GetCustomData(key string) any {
	return options.customDatas[key]
}

func (options *Options) SetCustomData(key string, data any) {
	options.customDatas[key] = data
}

func (options *Options) GetNodelay() bool {
	return options.noDelay
}

func (options *Options) SetNodelay(noDelay bool) {
	options.noDelay = noDelay
}

func (options *Options) GetKeepAlived() bool {
	return options.keepAlived
}

func (options *Options) SetKeepAlived(keepAlived bool) {
	options.keepAlived = keepAlived
}

func (options *Options) GetKeepAlivedPeriod() time.Duration {
	return options.keepAlivedPeriod
}

func (options *Options) SetKeepAlivedPeriod(keepAlivedPeriod time.Duration) {
	options.keepAlivedPeriod = keepAlivedPeriod
}

func (options *Options) GetReadTimeout() time.Duration {
	return options.readTimeout
}

func (options *Options) SetReadTimeout(timeout time.Duration) {
	options.readTimeout = timeout
}

func (options *Options) GetWriteTimeout() time.Duration {
	return options.writeTimeout
}

func (options *Options) SetWriteTimeout(timeout time.Duration) {
	options.writeTimeout = timeout
}

func (options *Options) GetWriteBuffSize() int {
	return options.writeBuffSize
}

func (options *Options) SetWriteBuffSize(size int) {
	options.writeBuffSize = size
}

func (options *Options) GetReadBuffSize() int {
	return options.readBuffSize
}

func (options *Options) SetReadBuffSize(size int) {
	options.readBuffSize = size
}

func (options *Options) GetProtocolOption() protocol.Option {
	return options.protocolOption
}

func (options *Options) SetProtocolOption(option protocol.Option) {
	options.protocolOption = option
}

func (options *Options) GetRandReader() io.Reader {
	return options.randReader
}

func (options *Options) SetRandReader(reader io.Reader) {
	options.randReader = reader
}

func (options *Options) GetCipherFactory() security.CipherFactory {
	return options.cipherFactory
}

func (options *Options) SetCipherFactory(factory security.CipherFactory) {
	options.cipherFactory = factory
}

func (options *Options) GetChecksumFactory() security.ChecksumFactory {
	return options.checksumFactory
}

func (options *Options) SetChecksumFactory(factory security.ChecksumFactory) {
	options.checksumFactory = factory
}

func (options *Options) GetReuseAddr() bool {
	return options.reuseAddr
}

func (options *Options) SetReuseAddr(enable bool) {
	options.reuseAddr = enable
}

func (options *Options) GetReusePort() bool {
	return options.reusePort
}

func (options *Options) SetReusePort(enable bool) {
	options.reusePort = enable
}

func (options *Options) GetConnMaxCount() int {
	return options.connMaxCount
}

func (options *Options) SetConnMaxCount(count int) {
	options.connMaxCount = count
}

func (options *Options) GetSessionHandleArgs() []any {
	return options.sessionHandleArgs
}

func (options *Options) SetSessionHandleArgs(args ...any) {
	options.sessionHandleArgs = args
}

// NewProtocol builds a protocol for role wired to the configured collaborators
func (options *Options) NewProtocol(role protocol.Role) *protocol.Protocol {
	var p *protocol.Protocol
	if role == protocol.RoleServer {
		p = protocol.NewServer()
		p.SetOption(options.protocolOption)
	} else {
		p = protocol.NewClient()
	}
	p.SetCipherFactory(options.cipherFactory)
	p.SetChecksumFactory(options.checksumFactory)
	return p
}

func WithNoDelay(noDelay bool) Option {
	return func(options *Options) {
		options.SetNodelay(noDelay)
	}
}

func WithKeepAlived(keepAlived bool) Option {
	return func(options *Options) {
		options.SetKeepAlived(keepAlived)
	}
}

func WithKeepAlivedPeriod(keepAlivedPeriod time.Duration) Option {
	return func(options *Options) {
		options.SetKeepAlivedPeriod(keepAlivedPeriod)
	}
}

func WithReadTimeout(timeout time.Duration) Option {
	return func(options *Options) {
		options.SetReadTimeout(timeout)
	}
}

func WithWriteTimeout(timeout time.Duration) Option {
	return func(options *Options) {
		options.SetWriteTimeout(timeout)
	}
}

func WithWriteBuffSize(size int) Option {
	return func(options *Options) {
		options.SetWriteBuffSize(size)
	}
}

func WithReadBuffSize(size int) Option {
	return func(options *Options) {
		options.SetReadBuffSize(size)
	}
}

func WithProtocolOption(option protocol.Option) Option {
	return func(options *Options) {
		options.SetProtocolOption(option)
	}
}

func WithRandReader(reader io.Reader) Option {
	return func(options *Options) {
		options.SetRandReader(reader)
	}
}

func WithCipherFactory(factory security.CipherFactory) Option {
	return func(options *Options) {
		options.SetCipherFactory(factory)
	}
}

func WithChecksumFactory(factory security.ChecksumFactory) Option {
	return func(options *Options) {
		options.SetChecksumFactory(factory)
	}
}

func WithCustomData(key string, data any) Option {
	return func(options *Options) {
		options.SetCustomData(key, data)
	}
}
