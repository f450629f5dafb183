package logs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitFormats(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatConsole} {
		logger, err := Init(format, "1.2.3")
		require.NoError(t, err, "format %s", format)
		require.NotNil(t, logger)
	}
}

func TestInitInvalidFormat(t *testing.T) {
	_, err := Init("xml", "1.2.3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log format")
}

func TestZapAdapterKeyValues(t *testing.T) {
	core, logged := observer.New(zap.DebugLevel)
	logger := NewZapLogger(zap.New(core))

	logger.Info("uploading", "key", "a/b.txt", "size", 42)

	entries := logged.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "uploading", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, "a/b.txt", fields["key"])
	assert.EqualValues(t, 42, fields["size"])
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	// must not panic
	logger.Debug("d")
	logger.Info("i", "k", "v")
	logger.Warn("w")
	logger.Error("e")
}
