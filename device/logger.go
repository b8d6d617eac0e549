package device

// Logger is an optional logging interface. *golog.Logger from
// github.com/kataras/golog satisfies it, as does any printf-style logger
// with these methods.
//
// Example:
//
//	sess, err := device.Open(port, device.WithLogger(golog.Default))
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}
