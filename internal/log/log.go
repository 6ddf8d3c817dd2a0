// Package log provides named loggers on top of klog, echoing the per-class logger
// pattern of the original Python tool (octoploy/utils/Log.py) while staying on the
// structured logging convention already used by the rest of the client-go/controller-runtime
// stack.
package log

import (
	"flag"
	"fmt"

	"k8s.io/klog/v2"
)

// Logger is a named wrapper around klog. The name is attached to every message so that
// output can be attributed to the component that produced it, the same way the Python
// original gave each class its own logging.Logger.
type Logger struct {
	name string
}

// Named returns a Logger that prefixes every message with name.
func Named(name string) *Logger {
	return &Logger{name: name}
}

func (l *Logger) Infof(format string, args ...any) {
	klog.InfoS(l.msg(format, args...))
}

func (l *Logger) Warningf(format string, args ...any) {
	klog.Warning(l.msg(format, args...))
}

func (l *Logger) Errorf(format string, args ...any) {
	klog.ErrorS(nil, l.msg(format, args...))
}

func (l *Logger) Debugf(format string, args ...any) {
	klog.V(1).InfoS(l.msg(format, args...))
}

func (l *Logger) msg(format string, args ...any) string {
	return fmt.Sprintf("[%s] %s", l.name, fmt.Sprintf(format, args...))
}

// SetDebug raises klog's verbosity, mirroring Log.set_debug() in the original.
func SetDebug() {
	fs := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(fs)
	_ = fs.Set("v", "4")
}
