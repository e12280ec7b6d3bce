package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_WritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "multitool.log")

	log := New(path, true)
	log.Debug("not in file")
	log.Info("routed", zap.String("capability", "pdf"))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "routed", entry["message"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "pdf", entry["capability"])
	assert.Contains(t, entry, "timestamp")
}

func TestNew_ConsoleOnly(t *testing.T) {
	log := New("", false)
	require.NotNil(t, log)
	log.Info("console only")
}
