package athena

import (
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// RiskManager enforces per-trade and daily risk budgets and sizes positions.
// Daily usage resets on the first calculation of a new day.
type RiskManager struct {
	maxRiskPerTrade decimal.Decimal
	maxDailyRisk    decimal.Decimal
	accountBalance  decimal.Decimal
	log             *slog.Logger
	now             func() time.Time

	mu            sync.Mutex
	dailyRiskUsed decimal.Decimal
	lastReset     time.Time
}

// NewRiskManager uses 2% max risk per trade and 6% max daily risk against
// the given account balance.
func NewRiskManager(accountBalance decimal.Decimal, log *slog.Logger) *RiskManager {
	if log == nil {
		log = slog.Default()
	}

	return &RiskManager{
		maxRiskPerTrade: decimal.NewFromFloat(0.02),
		maxDailyRisk:    decimal.NewFromFloat(0.06),
		accountBalance:  accountBalance,
		log:             log.With("component", "athena.risk"),
		now:             time.Now,
	}
}

// PositionSize returns a safe position size for the given entry, stop, and
// confidence in [0, 1]. A zero result means the trade is rejected: either
// the daily budget would be exceeded or the stop distance is zero.
func (r *RiskManager) PositionSize(entry, stopLoss, confidence decimal.Decimal) decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.resetIfNewDay()

	riskAmount := r.accountBalance.Mul(r.maxRiskPerTrade).Mul(confidence)

	if r.dailyRiskUsed.Add(riskAmount).GreaterThan(r.accountBalance.Mul(r.maxDailyRisk)) {
		r.log.Warn("Daily risk limit would be exceeded")
		return decimal.Zero
	}

	pipRisk := entry.Sub(stopLoss).Abs()
	if pipRisk.IsZero() {
		return decimal.Zero
	}

	r.dailyRiskUsed = r.dailyRiskUsed.Add(riskAmount)
	return riskAmount.Div(pipRisk)
}

func (r *RiskManager) resetIfNewDay() {
	today := r.now().Truncate(24 * time.Hour)
	if today.After(r.lastReset) {
		r.dailyRiskUsed = decimal.Zero
		r.lastReset = today
	}
}
