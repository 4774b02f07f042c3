package core

// Logger interface for tracer and analysis logging
type Logger interface {
	Printf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...interface{}) {}

// NopLogger returns a Logger that discards everything
func NopLogger() Logger {
	return nopLogger{}
}
