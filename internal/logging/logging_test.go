package logging_test

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-field-analyzer/internal/logging"
)

func TestSetupWriter(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	t.Run("json outside DEV", func(t *testing.T) {
		var buf bytes.Buffer
		logging.SetupWriter(&buf, "PROD", "debug")
		log.Debug().Str("facet", "flows").Msg("hello")
		require.Contains(t, buf.String(), `"facet":"flows"`)
		require.Contains(t, buf.String(), `"message":"hello"`)
	})

	t.Run("level filters", func(t *testing.T) {
		var buf bytes.Buffer
		logging.SetupWriter(&buf, "PROD", "warn")
		log.Info().Msg("quiet")
		require.Empty(t, buf.String())
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		var buf bytes.Buffer
		logging.SetupWriter(&buf, "PROD", "chatty")
		require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	})
}
