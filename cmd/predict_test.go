package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictCmd(t *testing.T) {
	opts, _ := testSession(t)

	out, err := execute(t, newPredictCmd(opts), "SH600519", "--length", "5", "--granularity", "daily")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 7)
	assert.Contains(t, lines[0], "Step")
	assert.True(t, strings.HasPrefix(lines[2], "+1"))
	assert.True(t, strings.HasPrefix(lines[6], "+5"))
}

func TestPredictCmd_JSON(t *testing.T) {
	opts, _ := testSession(t)
	opts.jsonMode = true

	out, err := execute(t, newPredictCmd(opts), "000001", "-l", "3")
	require.NoError(t, err)

	var got []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 3)
	assert.Equal(t, "+3", got[2]["Step"])
	for _, bar := range got {
		assert.NotEmpty(t, bar["Open"])
		assert.NotEmpty(t, bar["Close"])
	}
}

func TestPredictCmd_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing length", []string{"SH600519"}, "length"},
		{"zero length", []string{"SH600519", "-l", "0"}, "length must be positive"},
		// 240 daily bars make 11 monthly bars, allowing 2
		{"too long", []string{"SH600519", "-l", "3", "-g", "monthly"}, "exceeds the maximum of 2"},
		{"unknown symbol", []string{"XX", "-l", "1"}, "unknown symbol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, _ := testSession(t)
			_, err := execute(t, newPredictCmd(opts), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
