package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestSetup(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	assert.Equal(t, zerolog.WarnLevel, Setup("warn", &buf))

	log.Info().Msg("hidden")
	log.Warn().Str("target", "localhost").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "localhost")
}

func TestSetup_InvalidLevelFallsBackToInfo(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	assert.Equal(t, zerolog.InfoLevel, Setup("loud", &buf))
	assert.Contains(t, buf.String(), "Invalid log level")

	buf.Reset()
	assert.Equal(t, zerolog.InfoLevel, Setup("", &buf))
	assert.Empty(t, buf.String())
}
