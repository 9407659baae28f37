package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_AddsServiceField(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("stock-service", &buf)

	log.Info().Msg("hello")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "stock-service", line["service"])
	assert.Equal(t, "hello", line["message"])
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("stock-service", &buf).WithComponent("deletion").WithRequestID("req-1")

	log.Warn().Msg("blocked")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "deletion", line["component"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "warn", line["level"])
}

func TestNop(t *testing.T) {
	// must not panic
	Nop().Error().Msg("discarded")
}
