package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiro2001/financial-frontend/internal/keyring"
	"github.com/chiro2001/financial-frontend/internal/mockserver"
)

func TestStocksCmd(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
		rows    int
	}{
		{
			name: "all",
			args: nil,
			want: []string{"Code", "Symbol", "Name", "SH600519", "宁德时代"},
			rows: len(mockserver.DefaultStocks),
		},
		{
			name:    "regex",
			args:    []string{"--search", "^SZ"},
			want:    []string{"SZ000001", "SZ000858", "SZ300750"},
			notWant: []string{"SH600519"},
			rows:    3,
		},
		{
			name:    "name",
			args:    []string{"-s", "银行"},
			want:    []string{"浦发银行", "招商银行", "平安银行"},
			notWant: []string{"贵州茅台"},
			rows:    3,
		},
		{
			name: "invalid pattern as text",
			args: []string{"--search", "600[0"},
			rows: 0,
			want: []string{"No stocks found", "matching as text"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, _ := testSession(t)
			out, err := execute(t, newStocksCmd(opts), tt.args...)
			require.NoError(t, err)

			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
			for _, notWant := range tt.notWant {
				assert.NotContains(t, out, notWant)
			}
			if tt.rows > 0 {
				lines := strings.Split(strings.TrimSpace(out), "\n")
				assert.Len(t, lines, tt.rows+2)
			}
		})
	}
}

func TestStocksCmd_JSON(t *testing.T) {
	opts, _ := testSession(t)
	opts.jsonMode = true

	out, err := execute(t, newStocksCmd(opts), "--search", "^SH6005")
	require.NoError(t, err)

	var got []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "SH600519", got[0]["Symbol"])
	assert.Equal(t, "贵州茅台", got[0]["Name"])
}

func TestStocksCmd_NotLoggedIn(t *testing.T) {
	opts, _ := testSession(t)
	opts.store = keyring.NewMockStore()

	_, err := execute(t, newStocksCmd(opts))
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestStocksCmd_RejectsArgs(t *testing.T) {
	opts, _ := testSession(t)
	_, err := execute(t, newStocksCmd(opts), "SH600519")
	assert.Error(t, err)
}
