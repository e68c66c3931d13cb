package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stockHeaders = []string{"Code", "Symbol", "Name"}

var stockRows = [][]string{
	{"600000", "SH600000", "浦发银行"},
	{"000001", "SZ000001", "平安银行"},
}

func TestFormatter_Table(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		rows    [][]string
		want    []string
	}{
		{
			name:    "rows",
			headers: stockHeaders,
			rows:    stockRows,
			want:    []string{"Code", "Symbol", "------", "SH600000", "平安银行"},
		},
		{
			name:    "no rows keeps headers",
			headers: stockHeaders,
			rows:    [][]string{},
			want:    []string{"Code", "Name"},
		},
		{
			name:    "single column",
			headers: []string{"Symbol"},
			rows:    [][]string{{"SH600519"}, {"SZ300750"}},
			want:    []string{"Symbol", "SH600519", "SZ300750"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			f := New(&buf, false)
			require.NoError(t, f.Table(tt.headers, tt.rows))

			out := buf.String()
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
			assert.Len(t, strings.Split(strings.TrimSuffix(out, "\n"), "\n"), len(tt.rows)+2)
		})
	}
}

func TestFormatter_Table_JSON(t *testing.T) {
	var buf bytes.Buffer
	f := New(&buf, true)

	require.NoError(t, f.Table(stockHeaders, [][]string{{"600519", "SH600519"}}))

	var got []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, []map[string]string{
		{"Code": "600519", "Symbol": "SH600519", "Name": ""},
	}, got)
}

func TestFormatter_KeyValues(t *testing.T) {
	pairs := [][2]string{
		{"Company", "贵州茅台酒股份有限公司"},
		{"Market", "Shanghai Stock Exchange"},
		{"Listing date", "2001-08-27"},
	}

	var text bytes.Buffer
	require.NoError(t, New(&text, false).KeyValues(pairs))
	lines := strings.Split(strings.TrimSuffix(text.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[2], "Listing date  2001-08-27"))
	// values start in the same column
	assert.Equal(t, strings.Index(lines[1], "Shanghai"), strings.Index(lines[2], "2001"))

	var js bytes.Buffer
	require.NoError(t, New(&js, true).KeyValues(pairs))
	var got map[string]string
	require.NoError(t, json.Unmarshal(js.Bytes(), &got))
	assert.Equal(t, "Shanghai Stock Exchange", got["Market"])
	assert.Len(t, got, 3)
}

func TestFormatter_Print(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, true).Print(map[string]int{"bars": 240}))
	assert.Equal(t, "{\n  \"bars\": 240\n}\n", buf.String())

	buf.Reset()
	require.NoError(t, New(&buf, false).Print("SH600519"))
	assert.Equal(t, "SH600519\n", buf.String())
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	f := New(&buf, true)
	assert.Equal(t, &buf, f.Writer)
	assert.True(t, f.JSONMode)
}
