//go:build !linux && !windows

package control

import "syscall"

// GetControl leaves the socket untouched where the options are not supported
func GetControl(options CtrlOptions) func(network, address string, c syscall.RawConn) error {
	return nil
}
