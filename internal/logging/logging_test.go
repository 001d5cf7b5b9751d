package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := WithComponent(zerolog.New(&buf), "encoder")

	logger.Info().Str("scene", "intro").Msg("starting encoder")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "encoder", entry["component"])
	assert.Equal(t, "intro", entry["scene"])
	assert.Equal(t, "starting encoder", entry["message"])
}

func TestInitLevel(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	Init(false)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	Init(true)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}
