// Package guard implements the pre-trade funds-sufficiency check: before a
// BUY order is forwarded upstream, it verifies that the account's available
// margin covers the order's estimated cost, and reports an insufficiency the
// gateway turns into a top-up redirect.
package guard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"tradegate/internal/domain"
	"tradegate/internal/metrics"
)

// MarketData resolves instruments to their last traded price. The lookup
// doubles as instrument validation: an error means the instrument is not
// tradable.
type MarketData interface {
	LastTradedPrice(ctx context.Context, instrumentKey string) (float64, error)
}

// FundsSource reports the account's available margin.
type FundsSource interface {
	AvailableMargin(ctx context.Context) (decimal.Decimal, error)
}

// Guard runs the funds-sufficiency check. The sequence is strictly linear:
// quote lookup, price resolution, cost estimate, margin lookup, comparison.
// Nothing is retried; a single upstream failure aborts the whole check, and
// a failed margin lookup is never treated as approval.
type Guard struct {
	market        MarketData
	funds         FundsSource
	fallbackPrice decimal.Decimal
	metrics       *metrics.Metrics
	log           *slog.Logger
}

// New creates a Guard. fallbackPrice is substituted when a live quote cannot
// supply a positive price for a market order; approximating keeps placement
// live at the cost of precision. metrics may be nil.
func New(market MarketData, funds FundsSource, fallbackPrice float64, m *metrics.Metrics, log *slog.Logger) *Guard {
	return &Guard{
		market:        market,
		funds:         funds,
		fallbackPrice: decimal.NewFromFloat(fallbackPrice),
		metrics:       m,
		log:           log,
	}
}

// Input is one prospective order to check. Price 0 means "use market price".
// OrderID is set on modify flows and carried into the redirect URL.
type Input struct {
	TransactionType domain.TransactionType
	InstrumentToken string
	Quantity        int
	Price           float64
	OrderID         string
}

// Result is the terminal outcome of a check that did not abort with an
// error: either sufficient (proceed upstream) or insufficient (redirect).
type Result struct {
	Sufficient      bool
	Reason          string
	ResolvedPrice   decimal.Decimal
	EstimatedCost   decimal.Decimal
	AvailableMargin decimal.Decimal
}

// Check runs the funds-sufficiency sequence for the given order.
func (g *Guard) Check(ctx context.Context, in Input) (*Result, error) {
	// Step 1: the quote lookup validates the instrument. Any failure here
	// means the order must not be attempted.
	ltp, err := g.market.LastTradedPrice(ctx, in.InstrumentToken)
	if err != nil {
		g.metrics.ObserveGuard("error")
		g.log.Warn("instrument validation failed",
			"instrument", in.InstrumentToken, "error", err)
		return nil, &domain.Error{
			Kind:    domain.KindClientInput,
			Message: "Invalid instrument",
			Err:     err,
		}
	}

	// Step 2: resolve the price. An explicit price wins; a market order uses
	// the last traded price; a missing or non-positive quote falls back to
	// the configured approximation instead of failing.
	price := decimal.NewFromFloat(in.Price)
	if price.IsZero() {
		price = decimal.NewFromFloat(ltp)
	}
	if price.LessThanOrEqual(decimal.Zero) {
		g.log.Warn("no live price for instrument, using fallback",
			"instrument", in.InstrumentToken, "fallback", g.fallbackPrice)
		price = g.fallbackPrice
	}

	// Step 3: estimated cost.
	cost := decimal.NewFromInt(int64(in.Quantity)).Mul(price)

	result := &Result{
		Sufficient:    true,
		ResolvedPrice: price,
		EstimatedCost: cost,
	}

	// Step 4: only BUY orders consume margin; SELL always passes.
	if in.TransactionType != domain.TransactionBuy {
		g.metrics.ObserveGuard("sufficient")
		return result, nil
	}

	margin, err := g.funds.AvailableMargin(ctx)
	if err != nil {
		g.metrics.ObserveGuard("error")
		g.log.Error("funds lookup failed", "error", err)
		return nil, &domain.Error{
			Kind:    domain.KindFundsLookup,
			Message: "Unable to verify available funds",
			Err:     err,
		}
	}
	result.AvailableMargin = margin

	// Step 5: decide.
	if margin.LessThan(cost) {
		result.Sufficient = false
		result.Reason = fmt.Sprintf(
			"Insufficient funds for %s. Required: %s, Available: %s",
			in.InstrumentToken, cost, margin)
		g.metrics.ObserveGuard("insufficient")
		g.log.Info("order blocked by funds guard",
			"instrument", in.InstrumentToken,
			"required", cost, "available", margin, "order_id", in.OrderID)
		return result, nil
	}

	g.metrics.ObserveGuard("sufficient")
	return result, nil
}
