package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-kit/kit/log/level"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiro2001/financial-frontend/internal/config"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		lvl       string
		wantDebug bool
		wantInfo  bool
		wantError bool
	}{
		{"debug", true, true, true},
		{"info", false, true, true},
		{"", false, true, true},
		{"error", false, false, true},
		{"none", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.lvl, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(&buf, tt.lvl, "logfmt")

			_ = level.Debug(logger).Log("msg", "d")
			_ = level.Info(logger).Log("msg", "i")
			_ = level.Error(logger).Log("msg", "e")

			out := buf.String()
			assert.Equal(t, tt.wantDebug, bytes.Contains([]byte(out), []byte("msg=d")))
			assert.Equal(t, tt.wantInfo, bytes.Contains([]byte(out), []byte("msg=i")))
			assert.Equal(t, tt.wantError, bytes.Contains([]byte(out), []byte("msg=e")))
		})
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(New(&buf, "info", "json"), "dispatch")

	_ = level.Info(logger).Log("msg", "started")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "started", entry["msg"])
	assert.Equal(t, "dispatch", entry["component"])
	assert.Equal(t, "info", entry["level"])
	assert.Contains(t, entry, "ts")
	assert.Contains(t, entry, "caller")
}

func TestOpen(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.File = filepath.Join(t.TempDir(), "logs", "stockview.log")

	logger, closer, err := Open(cfg)
	require.NoError(t, err)
	_ = level.Info(logger).Log("msg", "hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(cfg.Logging.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=hello")
}
