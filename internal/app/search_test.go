package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chiro2001/financial-frontend/internal/market"
)

var listing = []market.Entity{
	{Symbol: "SH600000", Code: "600000", Name: "浦发银行"},
	{Symbol: "SH600519", Code: "600519", Name: "贵州茅台"},
	{Symbol: "SZ000001", Code: "000001", Name: "平安银行"},
	{Symbol: "SZ300750", Code: "300750", Name: "宁德[时代]"},
}

func symbols(entities []market.Entity) []string {
	var out []string
	for _, e := range entities {
		out = append(out, e.Symbol)
	}
	return out
}

func TestSearch(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		valid   bool
		want    []string
	}{
		{"empty matches all", "", true, []string{"SH600000", "SH600519", "SZ000001", "SZ300750"}},
		{"code prefix", "^600", true, []string{"SH600000", "SH600519"}},
		{"symbol", "^SZ", true, []string{"SZ000001", "SZ300750"}},
		{"name", "银行$", true, []string{"SH600000", "SZ000001"}},
		{"alternation", "茅台|宁德", true, []string{"SH600519", "SZ300750"}},
		{"invalid falls back to substring", "[时代", false, []string{"SZ300750"}},
		{"no match", "^9", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSearch(tt.pattern)
			assert.Equal(t, tt.valid, s.Valid())
			assert.Equal(t, tt.pattern, s.Pattern())
			assert.Equal(t, tt.want, symbols(s.Filter(listing)))
		})
	}
}

func TestSearch_InvalidReportsError(t *testing.T) {
	s := NewSearch("(")
	assert.False(t, s.Valid())
	assert.Error(t, s.Err())
}
