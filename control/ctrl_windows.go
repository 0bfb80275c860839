package control

import (
	"syscall"

	"golang.org/x/sys/windows"
)

// GetControl on windows only knows SO_REUSEADDR, ReusePort is ignored
func GetControl(options CtrlOptions) func(network, address string, c syscall.RawConn) error {
	if options.ReuseAddr == 0 {
		return nil
	}
	return func(network, address string, c syscall.RawConn) (err error) {
		e := c.Control(func(fd uintptr) {
			err = windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_REUSEADDR, options.ReuseAddr)
		})
		if e != nil {
			return e
		}
		return
	}
}
