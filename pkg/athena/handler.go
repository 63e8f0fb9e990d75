package athena

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"shadownexus/pkg/command"
	"shadownexus/pkg/config"
	"shadownexus/pkg/handler"
)

var (
	confidenceCap      = decimal.NewFromInt(1)
	aboveCloudWeight   = decimal.NewFromFloat(0.3)
	cloudBullishWeight = decimal.NewFromFloat(0.2)
	trendWeightFactor  = decimal.NewFromFloat(0.1)
	trendWeightCap     = decimal.NewFromFloat(0.3)
)

// Handler is the trading-signal subsystem: Ichimoku analysis, confidence
// scoring, and risk-bounded position sizing. A halted handler rejects
// signals until resumed.
type Handler struct {
	ichimoku Ichimoku
	risk     *RiskManager
	log      *slog.Logger
	halted   atomic.Bool
}

// NewFactory returns a registry factory for the athena subsystem.
func NewFactory(cfg config.AthenaConfig, log *slog.Logger) handler.Factory {
	return func() (handler.Handler, error) {
		return New(cfg, log), nil
	}
}

// New constructs the subsystem with a default paper balance of 10000.
func New(cfg config.AthenaConfig, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "handler.athena")

	return &Handler{
		ichimoku: NewIchimoku(cfg.TenkanPeriod, cfg.KijunPeriod, cfg.SenkouSpanBPeriod),
		risk:     NewRiskManager(decimal.NewFromInt(10000), log),
		log:      log,
	}
}

// Handle executes one athena command: "analyze", "signal", "halt", "resume".
func (h *Handler) Handle(_ context.Context, cmd command.Command) (command.Response, error) {
	switch cmd.Type {
	case "analyze":
		return h.analyze(cmd.Payload)
	case "signal":
		return h.signal(cmd.Payload)
	case "halt":
		h.halted.Store(true)
		h.log.Warn("Trading halted")
		return command.Response{"status": "success", "message": "trading halted"}, nil
	case "resume":
		h.halted.Store(false)
		h.log.Info("Trading resumed")
		return command.Response{"status": "success", "message": "trading resumed"}, nil
	default:
		return nil, fmt.Errorf("unsupported athena command type: %s", cmd.Type)
	}
}

func (h *Handler) analyze(payload map[string]any) (command.Response, error) {
	highs, lows, closes, err := priceSeries(payload)
	if err != nil {
		return nil, err
	}

	analysis, err := h.ichimoku.Analyze(highs, lows, closes)
	if err != nil {
		return nil, err
	}

	return command.Response{"status": "success", "analysis": analysis}, nil
}

func (h *Handler) signal(payload map[string]any) (command.Response, error) {
	if h.halted.Load() {
		return command.Response{"status": "rejected", "reason": "trading is halted"}, nil
	}

	highs, lows, closes, err := priceSeries(payload)
	if err != nil {
		return nil, err
	}

	entry, err := decimalField(payload, "entry_price")
	if err != nil {
		return nil, err
	}
	stopLoss, err := decimalField(payload, "stop_loss")
	if err != nil {
		return nil, err
	}

	analysis, err := h.ichimoku.Analyze(highs, lows, closes)
	if err != nil {
		return nil, err
	}

	confidence := scoreConfidence(analysis, sentiment(payload))
	positionSize := h.risk.PositionSize(entry, stopLoss, confidence)

	if positionSize.IsZero() {
		h.log.Warn("Signal rejected", "reason", "risk parameters exceeded or invalid position size")
		return command.Response{
			"status": "rejected",
			"reason": "risk parameters exceeded or invalid position size",
		}, nil
	}

	h.log.Info("Signal accepted", "confidence", confidence.String(), "position_size", positionSize.String())
	return command.Response{
		"status":        "success",
		"confidence":    confidence,
		"position_size": positionSize,
		"analysis":      analysis,
	}, nil
}

// scoreConfidence combines cloud position, cloud direction, trend strength,
// and an optional sentiment score into a [0, 1] confidence.
func scoreConfidence(analysis Analysis, sentimentScore *decimal.Decimal) decimal.Decimal {
	confidence := decimal.Zero

	if analysis.PriceAboveCloud {
		confidence = confidence.Add(aboveCloudWeight)
	}
	if analysis.CloudBullish {
		confidence = confidence.Add(cloudBullishWeight)
	}

	trend := decimal.Min(analysis.TrendStrength.Mul(trendWeightFactor), trendWeightCap)
	confidence = confidence.Add(trend)

	if sentimentScore != nil {
		confidence = confidence.Add(sentimentScore.Abs()).Div(two)
	}

	return decimal.Min(confidence, confidenceCap)
}

func sentiment(payload map[string]any) *decimal.Decimal {
	raw, ok := payload["sentiment_score"].(float64)
	if !ok {
		return nil
	}
	d := decimal.NewFromFloat(raw)
	return &d
}

func priceSeries(payload map[string]any) (highs, lows, closes []decimal.Decimal, err error) {
	highs, err = decimalSlice(payload, "high_prices")
	if err != nil {
		return nil, nil, nil, err
	}
	lows, err = decimalSlice(payload, "low_prices")
	if err != nil {
		return nil, nil, nil, err
	}
	closes, err = decimalSlice(payload, "close_prices")
	if err != nil {
		return nil, nil, nil, err
	}
	return highs, lows, closes, nil
}

func decimalSlice(payload map[string]any, key string) ([]decimal.Decimal, error) {
	raw, ok := payload[key].([]any)
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("payload %s is required", key)
	}

	values := make([]decimal.Decimal, 0, len(raw))
	for _, item := range raw {
		value, err := toDecimal(item)
		if err != nil {
			return nil, fmt.Errorf("payload %s: %w", key, err)
		}
		values = append(values, value)
	}

	return values, nil
}

func decimalField(payload map[string]any, key string) (decimal.Decimal, error) {
	raw, ok := payload[key]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("payload %s is required", key)
	}
	value, err := toDecimal(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("payload %s: %w", key, err)
	}
	return value, nil
}

func toDecimal(raw any) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		return decimal.NewFromString(v)
	default:
		return decimal.Decimal{}, errors.New("not a number")
	}
}
