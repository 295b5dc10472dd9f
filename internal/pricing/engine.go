// Package pricing computes a product's effective price from its expiry, stock,
// promotional window and demand signal. The computation is a pure function of
// its inputs: the same product snapshot and clock always yield the same price.
package pricing

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"retail-catalog/internal/apperr"
	"retail-catalog/internal/models"
)

// Signal names the pricing rule that produced a quote.
type Signal string

const (
	SignalFestive   Signal = "festive"
	SignalClearance Signal = "clearance"
	SignalExpiry    Signal = "expiry"
	SignalScarcity  Signal = "scarcity"
	SignalBase      Signal = "base"
)

// Params tunes the pricing rules.
type Params struct {
	// UrgencyWindow is the span before expiry during which discounts apply.
	UrgencyWindow time.Duration
	// LowStockThreshold: stock strictly below it counts as scarce.
	LowStockThreshold int64
	// VelocityBaseline is the demand above which scarcity hikes kick in.
	VelocityBaseline float64
	// VelocityCeiling is the demand treated as saturated.
	VelocityCeiling float64
	// FestiveHorizon is the remaining promo window that earns the full hike.
	FestiveHorizon time.Duration
	// ClearanceWindow is how long after a promo the price takes to reach the floor.
	ClearanceWindow time.Duration
	// FestiveFloor is the share of the festive hike granted regardless of demand.
	FestiveFloor float64
}

func DefaultParams() Params {
	return Params{
		UrgencyWindow:     10 * 24 * time.Hour,
		LowStockThreshold: 5,
		VelocityBaseline:  20,
		VelocityCeiling:   100,
		FestiveHorizon:    14 * 24 * time.Hour,
		ClearanceWindow:   7 * 24 * time.Hour,
		FestiveFloor:      0.5,
	}
}

// Promotion is a store-wide festival window supplied when a recompute is
// triggered. It gives festive products without their own end date one.
type Promotion struct {
	Name   string    `json:"name"`
	EndsAt time.Time `json:"endsAt"`
}

// Quote is a computed price and the rule that produced it.
type Quote struct {
	Price  float64
	Signal Signal
}

type Engine struct {
	params Params
}

func NewEngine(params Params) *Engine {
	return &Engine{params: params}
}

// Quote applies the rules in priority order: festive override, expiry urgency,
// scarcity hike, then reversion to the list price. The result is rounded to
// cents and clamped to [MinPrice, MaxPrice].
func (e *Engine) Quote(p *models.Product, now time.Time, promo *Promotion) (Quote, error) {
	if err := validate(p); err != nil {
		return Quote{}, err
	}

	base, lo, hi := p.BasePrice, p.MinPrice, p.MaxPrice
	var (
		price  float64
		signal Signal
	)

	switch {
	case p.IsFestive:
		end, err := festivalEnd(p, promo)
		if err != nil {
			return Quote{}, err
		}
		if !now.After(end) {
			window := ratio(end.Sub(now), e.params.FestiveHorizon)
			floor := clamp01(e.params.FestiveFloor)
			demand := clamp01(safeDiv(p.SalesVelocity, e.params.VelocityCeiling))
			intensity := window * (floor + (1-floor)*demand)
			price, signal = base+(hi-base)*intensity, SignalFestive
		} else {
			clearance := ratio(now.Sub(end), e.params.ClearanceWindow)
			price, signal = base-(base-lo)*clearance, SignalClearance
		}

	case e.inUrgencyWindow(p, now):
		remaining := p.ExpiryDate.Sub(now)
		urgency := clamp01(1 - float64(remaining)/float64(e.params.UrgencyWindow))
		price, signal = base-(base-lo)*urgency, SignalExpiry

	case e.isScarce(p):
		threshold := float64(e.params.LowStockThreshold)
		scarcity := clamp01((threshold - float64(max(p.StockLevel, 0))) / threshold)
		demand := 1.0
		if span := e.params.VelocityCeiling - e.params.VelocityBaseline; span > 0 {
			demand = clamp01((p.SalesVelocity - e.params.VelocityBaseline) / span)
		}
		price, signal = base+(hi-base)*scarcity*demand, SignalScarcity

	default:
		price, signal = base, SignalBase
	}

	return Quote{Price: clampRound(price, lo, hi), Signal: signal}, nil
}

func (e *Engine) inUrgencyWindow(p *models.Product, now time.Time) bool {
	if e.params.UrgencyWindow <= 0 {
		return false
	}
	return p.ExpiryDate.Sub(now) < e.params.UrgencyWindow
}

func (e *Engine) isScarce(p *models.Product) bool {
	if e.params.LowStockThreshold <= 0 {
		return false
	}
	return p.StockLevel < e.params.LowStockThreshold && p.SalesVelocity > e.params.VelocityBaseline
}

func validate(p *models.Product) error {
	id := p.IDHex()
	fields := []struct {
		name  string
		value float64
	}{
		{"basePrice", p.BasePrice},
		{"minPrice", p.MinPrice},
		{"maxPrice", p.MaxPrice},
		{"salesVelocity", p.SalesVelocity},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &apperr.ConfigError{ProductID: id, Field: f.name, Reason: "not a finite number"}
		}
	}
	if p.BasePrice < 0 {
		return &apperr.ConfigError{ProductID: id, Field: "basePrice", Reason: "negative"}
	}
	if p.MinPrice < 0 {
		return &apperr.ConfigError{ProductID: id, Field: "minPrice", Reason: "negative"}
	}
	if p.MinPrice > p.MaxPrice {
		return &apperr.ConfigError{ProductID: id, Field: "minPrice", Reason: "exceeds maxPrice"}
	}
	if p.ExpiryDate.IsZero() {
		return &apperr.ConfigError{ProductID: id, Field: "expiryDate", Reason: "missing or unparsable"}
	}
	return nil
}

func festivalEnd(p *models.Product, promo *Promotion) (time.Time, error) {
	if p.FestivalEndDate != nil && !p.FestivalEndDate.IsZero() {
		return *p.FestivalEndDate, nil
	}
	if promo != nil && !promo.EndsAt.IsZero() {
		return promo.EndsAt, nil
	}
	return time.Time{}, &apperr.ConfigError{
		ProductID: p.IDHex(),
		Field:     "festivalEndDate",
		Reason:    "festive product without a festival end date",
	}
}

// ratio returns part/whole clamped to [0, 1]; a non-positive whole saturates.
func ratio(part, whole time.Duration) float64 {
	if whole <= 0 {
		return 1
	}
	return clamp01(float64(part) / float64(whole))
}

func safeDiv(a, b float64) float64 {
	if b <= 0 {
		return 1
	}
	return a / b
}

func clamp01(x float64) float64 {
	return math.Min(1, math.Max(0, x))
}

func clampRound(price, lo, hi float64) float64 {
	switch {
	case math.IsInf(price, 1):
		return hi
	case math.IsNaN(price), math.IsInf(price, 0):
		return lo
	}
	rounded, _ := decimal.NewFromFloat(price).Round(2).Float64()
	return math.Min(hi, math.Max(lo, rounded))
}
