package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProductionWritesSeverity(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "production")

	log.Debug().Msg("hidden")
	log.Info().Str("service", "metering").Msg("charged")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "info", entry["severity"])
	assert.Equal(t, "metering", entry["service"])
	assert.Equal(t, "creatorhub", entry["app"])
	assert.Equal(t, "charged", entry["message"])
}

func TestNewDevelopmentUsesConsole(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "development")
	log.Debug().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}
