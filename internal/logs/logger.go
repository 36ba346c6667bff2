package logs

import "context"

// Logger logger interface used by the batch engine, the context is passed through for implementations that enrich entries
type Logger interface {
	Debug(ctx context.Context, msg string, args ...interface{})
	Info(ctx context.Context, msg string, args ...interface{})
	Warn(ctx context.Context, msg string, args ...interface{})
	Error(ctx context.Context, msg string, args ...interface{})
}

// LogLevel minimum level a Logger writes
type LogLevel int

const (
	Debug LogLevel = iota
	Info
	Warn
	Error
)

var levelNames = map[LogLevel]string{Debug: "DEBUG", Info: "INFO", Warn: "WARN", Error: "ERROR"}

func (ll LogLevel) String() string {
	return levelNames[ll]
}
