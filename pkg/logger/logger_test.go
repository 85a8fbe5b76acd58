package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerErrorIncludesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: "debug", Output: buf, Format: "json"})

	ctx := log.WithRequestID(context.Background(), "req-123")
	ctx = log.WithSessionID(ctx, "sess-1")

	log.Error(ctx, "boom", errors.New("boom"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-123", entry["request_id"])
	assert.Equal(t, "sess-1", entry["session_id"])
	assert.Equal(t, "test", entry["service"])
	assert.Contains(t, entry, "stack")
}

func TestLoggerWarnStackToggle(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf, Format: "json", WarnStack: true})
	log.Warn(context.Background(), "warny")
	assert.Contains(t, buf.String(), `"stack"`)

	buf.Reset()
	quiet := New(Options{ServiceName: "test", Output: buf, Format: "json"})
	quiet.Warn(context.Background(), "warny")
	assert.NotContains(t, buf.String(), `"stack"`)
}

func TestLevelFiltersDebug(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf, Format: "json"})
	log.Debug(context.Background(), "hidden")
	assert.Empty(t, buf.String())

	log.Info(context.Background(), "shown")
	assert.Contains(t, buf.String(), `"message":"shown"`)
}

func TestLevelOptionIsParsed(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: " Warn ", Output: buf, Format: "json"})
	log.Info(context.Background(), "hidden")
	assert.Empty(t, buf.String())
	log.Warn(context.Background(), "shown")
	assert.Contains(t, buf.String(), `"level":"warn"`)

	buf.Reset()
	log = New(Options{ServiceName: "test", Level: "debug", Output: buf, Format: "json"})
	log.Debug(context.Background(), "shown")
	assert.Contains(t, buf.String(), `"level":"debug"`)
}

func TestParseLevelDefaults(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("invalid"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" WARN "))
	assert.Equal(t, zerolog.Disabled, ParseLevel("disabled"))
}

func TestNopDiscards(t *testing.T) {
	log := Nop()
	log.Info(context.Background(), "nothing")
	log.Error(context.Background(), "nothing", errors.New("x"))
}
