package athena

import (
	"context"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shadownexus/pkg/command"
	"shadownexus/pkg/config"
)

func series(values ...float64) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// flatSeries builds n candles oscillating between low and high.
func flatSeries(n int, low, high float64) (highs, lows, closes []any) {
	for i := 0; i < n; i++ {
		highs = append(highs, high)
		lows = append(lows, low)
		closes = append(closes, (low+high)/2)
	}
	return highs, lows, closes
}

func TestIchimokuMidpoints(t *testing.T) {
	ich := NewIchimoku(2, 3, 4)

	toDec := func(values ...float64) []decimal.Decimal {
		out := make([]decimal.Decimal, len(values))
		for i, v := range values {
			out[i] = decimal.NewFromFloat(v)
		}
		return out
	}

	highs := toDec(10, 12, 14, 16)
	lows := toDec(8, 9, 10, 11)
	closes := toDec(9, 11, 12, 15)

	analysis, err := ich.Analyze(highs, lows, closes)
	require.NoError(t, err)

	// Tenkan: (max(14,16) + min(10,11)) / 2 = 13
	assert.True(t, analysis.TenkanSen.Equal(decimal.NewFromInt(13)), "tenkan = %s", analysis.TenkanSen)
	// Kijun: (max(12,14,16) + min(9,10,11)) / 2 = 12.5
	assert.True(t, analysis.KijunSen.Equal(decimal.NewFromFloat(12.5)), "kijun = %s", analysis.KijunSen)
	// Senkou A: (13 + 12.5) / 2 = 12.75, Senkou B: (16 + 8) / 2 = 12
	assert.True(t, analysis.SenkouSpanA.Equal(decimal.NewFromFloat(12.75)), "senkou A = %s", analysis.SenkouSpanA)
	assert.True(t, analysis.SenkouSpanB.Equal(decimal.NewFromInt(12)), "senkou B = %s", analysis.SenkouSpanB)

	assert.True(t, analysis.CloudBullish)
	assert.True(t, analysis.PriceAboveCloud, "close 15 above cloud top 12.75")
	assert.True(t, analysis.ChikouSpan.Equal(decimal.NewFromInt(15)))
}

func TestIchimokuInsufficientData(t *testing.T) {
	ich := NewIchimoku(0, 0, 0)

	short := []decimal.Decimal{decimal.NewFromInt(1)}
	_, err := ich.Analyze(short, short, short)
	require.Error(t, err)
}

func TestRiskManagerPositionSize(t *testing.T) {
	risk := NewRiskManager(decimal.NewFromInt(10000), slog.New(slog.DiscardHandler))

	entry := decimal.NewFromFloat(1.2000)
	stop := decimal.NewFromFloat(1.1900)
	full := decimal.NewFromInt(1)

	// risk amount = 10000 * 0.02 * 1 = 200; pip risk 0.01; size 20000.
	size := risk.PositionSize(entry, stop, full)
	assert.True(t, size.Equal(decimal.NewFromInt(20000)), "size = %s", size)

	// Zero stop distance is rejected.
	assert.True(t, risk.PositionSize(entry, entry, full).IsZero())
}

func TestRiskManagerDailyLimit(t *testing.T) {
	risk := NewRiskManager(decimal.NewFromInt(10000), slog.New(slog.DiscardHandler))

	entry := decimal.NewFromFloat(1.2000)
	stop := decimal.NewFromFloat(1.1900)
	full := decimal.NewFromInt(1)

	// Daily budget is 600; each full-confidence trade uses 200.
	for i := 0; i < 3; i++ {
		require.False(t, risk.PositionSize(entry, stop, full).IsZero(), "trade %d should fit the budget", i)
	}
	assert.True(t, risk.PositionSize(entry, stop, full).IsZero(), "fourth trade must exceed the daily budget")
}

func TestHandleAnalyze(t *testing.T) {
	h := New(config.AthenaConfig{TenkanPeriod: 2, KijunPeriod: 3, SenkouSpanBPeriod: 4}, slog.New(slog.DiscardHandler))

	highs, lows, closes := flatSeries(4, 8, 16)
	resp, err := h.Handle(context.Background(), command.Command{
		Type:         "analyze",
		TargetSystem: "athena",
		Payload: map[string]any{
			"high_prices":  highs,
			"low_prices":   lows,
			"close_prices": closes,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "success", resp["status"])

	analysis, ok := resp["analysis"].(Analysis)
	require.True(t, ok, "analysis type = %T", resp["analysis"])
	assert.False(t, analysis.CloudBullish, "flat market has no cloud direction")
}

func TestHandleSignalRejectsWhenHalted(t *testing.T) {
	h := New(config.AthenaConfig{}, slog.New(slog.DiscardHandler))

	_, err := h.Handle(context.Background(), command.Command{Type: "halt", TargetSystem: "athena"})
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), command.Command{Type: "signal", TargetSystem: "athena", Payload: map[string]any{}})
	require.NoError(t, err)
	assert.Equal(t, "rejected", resp["status"])

	_, err = h.Handle(context.Background(), command.Command{Type: "resume", TargetSystem: "athena"})
	require.NoError(t, err)

	// Resumed: missing price data now surfaces as an error instead of a halt rejection.
	_, err = h.Handle(context.Background(), command.Command{Type: "signal", TargetSystem: "athena", Payload: map[string]any{}})
	require.Error(t, err)
}

func TestHandleSignalFullPath(t *testing.T) {
	h := New(config.AthenaConfig{TenkanPeriod: 2, KijunPeriod: 3, SenkouSpanBPeriod: 4}, slog.New(slog.DiscardHandler))

	payload := map[string]any{
		"high_prices":  series(10, 12, 14, 16),
		"low_prices":   series(8, 9, 10, 11),
		"close_prices": series(9, 11, 12, 15),
		"entry_price":  15.0,
		"stop_loss":    14.5,
	}

	resp, err := h.Handle(context.Background(), command.Command{Type: "signal", TargetSystem: "athena", Payload: payload})
	require.NoError(t, err)
	assert.Equal(t, "success", resp["status"])

	confidence, ok := resp["confidence"].(decimal.Decimal)
	require.True(t, ok)
	assert.True(t, confidence.GreaterThan(decimal.Zero))
	assert.True(t, confidence.LessThanOrEqual(decimal.NewFromInt(1)))

	size, ok := resp["position_size"].(decimal.Decimal)
	require.True(t, ok)
	assert.True(t, size.GreaterThan(decimal.Zero))
}

func TestHandleUnsupportedType(t *testing.T) {
	h := New(config.AthenaConfig{}, slog.New(slog.DiscardHandler))

	_, err := h.Handle(context.Background(), command.Command{Type: "dance", TargetSystem: "athena"})
	require.Error(t, err)
}
