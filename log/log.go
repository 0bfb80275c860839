package log

import (
	"io"
	"log"
	"os"
	"sync/atomic"

	"github.com/pkg/errors"
)

type Logger interface {
	SetOutput(output io.Writer)
	WithStack(err any)
	Fatalf(format string, args ...any)
	Fatal(args ...any)
	Infof(format string, args ...any)
	Info(args ...any)
	Debugf(format string, args ...any)
	Errorf(format string, args ...any)
}

var (
	gslog Logger
	debug int32
)

func init() {
	gslog = newDefaultLogger()
}

func SetLogger(logger Logger) {
	gslog = logger
}

func GetLogger() Logger {
	return gslog
}

func SetLoggerOutput(output io.Writer) {
	gslog.SetOutput(output)
}

// EnableDebug switches the default logger's Debugf output on or off.
func EnableDebug(enable bool) {
	if enable {
		atomic.StoreInt32(&debug, 1)
	} else {
		atomic.StoreInt32(&debug, 0)
	}
}

func WithStack(err any) {
	gslog.WithStack(err)
}

func Fatalf(format string, args ...any) {
	gslog.Fatalf(format, args...)
}

func Infof(format string, args ...any) {
	gslog.Infof(format, args...)
}

func Info(args ...any) {
	gslog.Info(args...)
}

func Debugf(format string, args ...any) {
	gslog.Debugf(format, args...)
}

func Errorf(format string, args ...any) {
	gslog.Errorf(format, args...)
}

type defaultLog struct {
	log *log.Logger
}

func newDefaultLogger() *defaultLog {
	return &defaultLog{log: log.New(os.Stderr, "sronet: ", log.LstdFlags|log.Lshortfile)}
}

func (l *defaultLog) SetOutput(output io.Writer) {
	l.log.SetOutput(output)
}

// WithStack prints the recovered value with the stack of the caller, it does not exit.
func (l *defaultLog) WithStack(err any) {
	var er error
	if e, o := err.(error); o {
		er = errors.WithStack(e)
	} else {
		er = errors.Errorf("%v", err)
	}
	l.log.Printf("\n%+v", er)
}

func (l *defaultLog) Fatalf(format string, args ...any) {
	l.log.Fatalf(format, args...)
}

func (l *defaultLog) Fatal(args ...any) {
	l.log.Fatal(args...)
}

func (l *defaultLog) Infof(format string, args ...any) {
	l.log.Printf(format, args...)
}

func (l *defaultLog) Info(args ...any) {
	l.log.Print(args...)
}

func (l *defaultLog) Debugf(format string, args ...any) {
	if atomic.LoadInt32(&debug) == 0 {
		return
	}
	l.log.Printf("[debug] "+format, args...)
}

func (l *defaultLog) Errorf(format string, args ...any) {
	l.log.Printf("[error] "+format, args...)
}
