package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHandler(t *testing.T) {
	assert.Equal(t, JSONHandler, ParseHandler("json"))
	assert.Equal(t, TextHandler, ParseHandler("TEXT"))
	assert.Equal(t, TextHandler, ParseHandler("txt"))
	assert.Equal(t, DevHandler, ParseHandler("dev"))
	assert.Equal(t, DevHandler, ParseHandler(""))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nope"))
}

func TestNew_JSONRespectsLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(WithWriter(buf), WithHandler(JSONHandler), WithLevel(slog.LevelWarn))

	l.Info("dropped")
	l.Warn("kept", "k", "v")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "kept", rec["msg"])
	assert.Equal(t, "v", rec["k"])
}

func TestContextRoundTrip(t *testing.T) {
	l := Void()
	ctx := With(context.Background(), l)
	assert.Same(t, l, From(ctx))
	assert.NotNil(t, From(context.Background()))
}
