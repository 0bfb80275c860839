package server

import (
	"github.com/huoshan017/sronet/common"
)

// 会话处理器函数类型
type NewSessionHandlerFunc func(args ...any) common.ISessionHandler

// 最大连接数, 包括握手中的连接
func WithConnMaxCount(count int) common.Option {
	return func(options *common.Options) {
		options.SetConnMaxCount(count)
	}
}

// 重用地址
func WithReuseAddr(enable bool) common.Option {
	return func(options *common.Options) {
		options.SetReuseAddr(enable)
	}
}

// 重用端口
func WithReusePort(enable bool) common.Option {
	return func(options *common.Options) {
		options.SetReusePort(enable)
	}
}

// 会话处理器创建函数参数列表
func WithNewSessionHandlerFuncArgs(args ...any) common.Option {
	return func(options *common.Options) {
		options.SetSessionHandleArgs(args...)
	}
}
