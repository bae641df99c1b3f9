package tickerrisk

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name      string
		text      string
		leveraged bool
		inverse   bool
		etn       bool
		delisted  bool
		warning   string
	}{
		{
			name: "plain index fund",
			text: "Vanguard Total Stock Market ETF tracks the CRSP US Total Market Index.",
		},
		{
			name:      "leveraged",
			text:      "ProShares UltraPro QQQ seeks daily investment results of 3x the Nasdaq-100.",
			leveraged: true,
			warning:   "X is leveraged ETF - extreme risk",
		},
		{
			name:      "leveraged inverse",
			text:      "Direxion Daily S&P 500 Bear 3X Shares",
			leveraged: true,
			inverse:   true,
			warning:   "X is leveraged ETF/inverse ETF - extreme risk",
		},
		{
			name:    "exchange traded note",
			text:    "This is an Exchange Traded Note issued by a bank.",
			etn:     true,
			warning: "X is ETN - extreme risk",
		},
		{
			name:     "delisted",
			text:     "The fund was liquidated and no longer trades.",
			delisted: true,
			warning:  "X is delisted/discontinued - extreme risk",
		},
		{
			name: "negated answer",
			text: "No. X is not a leveraged fund, not an inverse fund and not an exchange traded note (ETN). It is not delisted.",
		},
		{
			name: "non-leveraged",
			text: "A non-leveraged index fund that isn't an ETN and has never been delisted.",
		},
		{
			name: "category line none",
			text: "NONE\nVanguard Total Bond Market ETF",
		},
		{
			name:      "category line",
			text:      "LEVERAGED, INVERSE\nProShares UltraPro Short QQQ",
			leveraged: true,
			inverse:   true,
			warning:   "X is leveraged ETF/inverse ETF - extreme risk",
		},
		{
			name:    "negation in another clause",
			text:    "This is not a bond fund; it is an exchange traded note.",
			etn:     true,
			warning: "X is ETN - extreme risk",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Classify("X", tt.text, now)
			assert.Equal(t, "X", rec.Ticker)
			assert.Equal(t, tt.leveraged, rec.IsLeveraged)
			assert.Equal(t, tt.inverse, rec.IsInverse)
			assert.Equal(t, tt.etn, rec.IsETN)
			assert.Equal(t, tt.delisted, rec.IsDelisted)
			assert.Equal(t, tt.warning != "", rec.IsRisky)
			assert.Equal(t, tt.warning, rec.WarningMessage)
			assert.Equal(t, now, rec.CachedAt)
		})
	}
}

func TestClassify_TruncatesSearchResult(t *testing.T) {
	long := strings.Repeat("é", 700)
	rec := Classify("VTI", long, time.Now())
	assert.Equal(t, MaxSearchResultLength, len([]rune(rec.SearchResult)))

	short := Classify("VTI", "short text", time.Now())
	assert.Equal(t, "short text", short.SearchResult)
}

func TestResearchQuery(t *testing.T) {
	assert.Contains(t, ResearchQuery("TQQQ"), "TQQQ")
}
