package logs

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLogger_Level(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewZerologLogger(buf, Warn)
	l.Info(context.Background(), "hidden %v", 1)
	l.Warn(context.Background(), "shown %v", 2)
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, "shown 2")
}

func TestNewDefaultLogger(t *testing.T) {
	l := NewDefaultLogger()
	require.IsType(t, &zerologLogger{}, l)
	assert.Equal(t, zerolog.InfoLevel, l.(*zerologLogger).logger.GetLevel())
	assert.Equal(t, "INFO", Info.String())
	assert.Equal(t, "", LogLevel(9).String())
}

func TestZerologLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewZerologLogger(buf, Info)
	l.Debug(context.Background(), "debug line")
	l.Error(context.Background(), "chunk:%v failed", 3)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"level":"error"`)
	assert.Contains(t, lines[0], `"message":"chunk:3 failed"`)
	assert.Contains(t, lines[0], `"caller":"logger_test.go:`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, Debug, ParseLevel("debug"))
	assert.Equal(t, Warn, ParseLevel(" WARN "))
	assert.Equal(t, Error, ParseLevel("error"))
	assert.Equal(t, Info, ParseLevel("whatever"))
	assert.Equal(t, "ERROR", Error.String())
}

func TestNewConsoleAndFileWriter(t *testing.T) {
	w := NewConsoleAndFileWriter(RotatingFileConfig{FileName: t.TempDir() + "/batch.log", MaxSizeMB: 1})
	l := NewZerologLogger(w, Info)
	l.Info(context.Background(), "written")
}
