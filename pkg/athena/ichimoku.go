package athena

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Default Ichimoku periods.
const (
	DefaultTenkanPeriod      = 9
	DefaultKijunPeriod       = 26
	DefaultSenkouSpanBPeriod = 52
)

var two = decimal.NewFromInt(2)

// Ichimoku computes Ichimoku Cloud components over candle history.
type Ichimoku struct {
	TenkanPeriod      int
	KijunPeriod       int
	SenkouSpanBPeriod int
}

// NewIchimoku applies defaults for non-positive periods.
func NewIchimoku(tenkan, kijun, senkouSpanB int) Ichimoku {
	if tenkan <= 0 {
		tenkan = DefaultTenkanPeriod
	}
	if kijun <= 0 {
		kijun = DefaultKijunPeriod
	}
	if senkouSpanB <= 0 {
		senkouSpanB = DefaultSenkouSpanBPeriod
	}

	return Ichimoku{
		TenkanPeriod:      tenkan,
		KijunPeriod:       kijun,
		SenkouSpanBPeriod: senkouSpanB,
	}
}

// Analysis holds the computed cloud components for the latest candle.
type Analysis struct {
	TenkanSen       decimal.Decimal `json:"tenkan_sen"`
	KijunSen        decimal.Decimal `json:"kijun_sen"`
	SenkouSpanA     decimal.Decimal `json:"senkou_span_a"`
	SenkouSpanB     decimal.Decimal `json:"senkou_span_b"`
	ChikouSpan      decimal.Decimal `json:"chikou_span"`
	CloudBullish    bool            `json:"cloud_bullish"`
	PriceAboveCloud bool            `json:"price_above_cloud"`
	TrendStrength   decimal.Decimal `json:"trend_strength"`
}

// Analyze computes the cloud for the given price history. All three series
// must cover at least SenkouSpanBPeriod candles.
func (i Ichimoku) Analyze(highs, lows, closes []decimal.Decimal) (Analysis, error) {
	if len(closes) == 0 {
		return Analysis{}, fmt.Errorf("close prices are required")
	}

	tenkan, err := periodMidpoint(highs, lows, i.TenkanPeriod)
	if err != nil {
		return Analysis{}, err
	}
	kijun, err := periodMidpoint(highs, lows, i.KijunPeriod)
	if err != nil {
		return Analysis{}, err
	}
	senkouA := tenkan.Add(kijun).Div(two)
	senkouB, err := periodMidpoint(highs, lows, i.SenkouSpanBPeriod)
	if err != nil {
		return Analysis{}, err
	}

	lastClose := closes[len(closes)-1]
	cloudTop := decimal.Max(senkouA, senkouB)

	return Analysis{
		TenkanSen:       tenkan,
		KijunSen:        kijun,
		SenkouSpanA:     senkouA,
		SenkouSpanB:     senkouB,
		ChikouSpan:      lastClose,
		CloudBullish:    senkouA.GreaterThan(senkouB),
		PriceAboveCloud: lastClose.GreaterThan(cloudTop),
		TrendStrength:   senkouA.Sub(senkouB).Abs(),
	}, nil
}

// periodMidpoint is the midpoint of the highest high and lowest low over the
// trailing period.
func periodMidpoint(highs, lows []decimal.Decimal, period int) (decimal.Decimal, error) {
	if len(highs) < period || len(lows) < period {
		return decimal.Decimal{}, fmt.Errorf("insufficient data for %d-period calculation", period)
	}

	highest := highs[len(highs)-period]
	for _, h := range highs[len(highs)-period:] {
		if h.GreaterThan(highest) {
			highest = h
		}
	}

	lowest := lows[len(lows)-period]
	for _, l := range lows[len(lows)-period:] {
		if l.LessThan(lowest) {
			lowest = l
		}
	}

	return highest.Add(lowest).Div(two), nil
}
