package control

// CtrlOptions socket options applied to a listener before bind, 1 enables an option
type CtrlOptions struct {
	ReuseAddr int
	ReusePort int
}

func NewCtrlOptions(reuseAddr, reusePort bool) CtrlOptions {
	var o CtrlOptions
	if reuseAddr {
		o.ReuseAddr = 1
	}
	if reusePort {
		o.ReusePort = 1
	}
	return o
}
