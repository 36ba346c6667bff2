package logs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type zerologLogger struct {
	logger zerolog.Logger
}

// NewDefaultLogger the engine logger used until one is configured: human readable info lines on stdout
func NewDefaultLogger() Logger {
	return NewZerologLogger(NewConsoleAndFileWriter(RotatingFileConfig{}), Info)
}

// NewZerologLogger init a Logger instance backed by zerolog, writing json lines to writer
func NewZerologLogger(writer io.Writer, logLevel LogLevel) Logger {
	zl := zerolog.New(writer).With().Timestamp().Logger().Level(toZerologLevel(logLevel))
	return &zerologLogger{logger: zl}
}

// RotatingFileConfig rotation policy of a log file
type RotatingFileConfig struct {
	FileName   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// NewConsoleAndFileWriter returns a writer printing human readable lines to stdout and,
// when cfg.FileName is set, json lines to a rotating file
func NewConsoleAndFileWriter(cfg RotatingFileConfig) io.Writer {
	console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "2006-01-02 15:04:05.000000"}
	if cfg.FileName == "" {
		return console
	}
	rolling := &lumberjack.Logger{
		Filename:   cfg.FileName,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	return zerolog.MultiLevelWriter(console, rolling)
}

// ParseLevel parse a log level name, unknown names fall back to Info
func ParseLevel(level string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return Debug
	case "WARN", "WARNING":
		return Warn
	case "ERROR":
		return Error
	}
	return Info
}

func toZerologLevel(level LogLevel) zerolog.Level {
	switch level {
	case Debug:
		return zerolog.DebugLevel
	case Warn:
		return zerolog.WarnLevel
	case Error:
		return zerolog.ErrorLevel
	}
	return zerolog.InfoLevel
}

func (l *zerologLogger) Debug(ctx context.Context, msg string, args ...interface{}) {
	l.logger.Debug().Str("caller", caller()).Msg(fmt.Sprintf(msg, args...))
}

func (l *zerologLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	l.logger.Info().Str("caller", caller()).Msg(fmt.Sprintf(msg, args...))
}

func (l *zerologLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	l.logger.Warn().Str("caller", caller()).Msg(fmt.Sprintf(msg, args...))
}

func (l *zerologLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	l.logger.Error().Str("caller", caller()).Msg(fmt.Sprintf(msg, args...))
}

//caller file:line of the code calling a Logger method
func caller() string {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return ""
	}
	return filepath.Base(file) + ":" + strconv.Itoa(line)
}
