// Package recompute re-prices the whole catalog on demand. Each product is
// priced and written independently; one product's failure never affects another.
package recompute

//go:generate mockgen -source=orchestrator.go -destination=mocks_test.go -package=recompute

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"retail-catalog/internal/apperr"
	"retail-catalog/internal/events"
	"retail-catalog/internal/models"
	"retail-catalog/internal/pricing"
)

// Store is the slice of the product store a recompute run touches.
type Store interface {
	Snapshot(ctx context.Context) ([]models.Product, error)
	SetCurrentPrice(ctx context.Context, id string, price float64) error
}

// Pricer quotes a product's new effective price.
type Pricer interface {
	Quote(p *models.Product, now time.Time, promo *pricing.Promotion) (pricing.Quote, error)
}

type Kind string

const (
	KindConfig  Kind = "config"
	KindStore   Kind = "store"
	KindTimeout Kind = "timeout"
	// KindCanceled marks products abandoned because the caller went away.
	KindCanceled Kind = "canceled"
	// KindPanic marks products whose pricing crashed.
	KindPanic Kind = "panic"
)

type ItemError struct {
	ProductID string `json:"productId"`
	Kind      Kind   `json:"kind"`
	Reason    string `json:"reason"`
}

// Summary reports a finished run. Errors lists skipped and failed products.
type Summary struct {
	Updated   int         `json:"updated"`
	Skipped   int         `json:"skipped"`
	Removed   int         `json:"removed"`
	Failed    int         `json:"failed"`
	Errors    []ItemError `json:"errors"`
	StartedAt time.Time   `json:"startedAt"`
	Duration  Duration    `json:"durationMs"`
}

// Duration marshals as whole milliseconds.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, time.Duration(d).Milliseconds(), 10), nil
}

// Options tune a single run. Both fields are optional.
type Options struct {
	// Now overrides the pricing clock.
	Now *time.Time `json:"now,omitempty"`
	// Promotion is a store-wide festival window for this run only.
	Promotion *pricing.Promotion `json:"promotion,omitempty"`
}

type Config struct {
	Concurrency int
	ItemTimeout time.Duration
}

type Orchestrator struct {
	store     Store
	pricer    Pricer
	publisher events.Publisher
	logger    *zap.Logger
	cfg       Config
	now       func() time.Time
}

func NewOrchestrator(store Store, pricer Pricer, publisher events.Publisher, logger *zap.Logger, cfg Config) *Orchestrator {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.ItemTimeout <= 0 {
		cfg.ItemTimeout = 2 * time.Second
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Orchestrator{
		store:     store,
		pricer:    pricer,
		publisher: publisher,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

type status int

const (
	statusUpdated status = iota
	statusSkipped
	statusRemoved
	statusFailed
)

type outcome struct {
	status status
	err    *ItemError
}

// Run snapshots the store once and re-prices every product through a bounded
// pool. Only a failed snapshot is returned as an error; per-product problems
// end up in the summary.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (Summary, error) {
	started := o.now()
	now := started
	if opts.Now != nil {
		now = *opts.Now
	}
	summary := Summary{StartedAt: started, Errors: []ItemError{}}

	products, err := o.store.Snapshot(ctx)
	if err != nil {
		o.logger.Error("recompute snapshot failed", zap.Error(err))
		return summary, apperr.Wrap("recompute.Run", err)
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(o.cfg.Concurrency)

	for i := range products {
		p := &products[i]
		g.Go(func() error {
			res := o.recomputeOne(ctx, p, now, opts.Promotion)

			mu.Lock()
			defer mu.Unlock()
			switch res.status {
			case statusUpdated:
				summary.Updated++
			case statusSkipped:
				summary.Skipped++
			case statusRemoved:
				summary.Removed++
			case statusFailed:
				summary.Failed++
			}
			if res.err != nil {
				summary.Errors = append(summary.Errors, *res.err)
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(summary.Errors, func(i, j int) bool {
		return summary.Errors[i].ProductID < summary.Errors[j].ProductID
	})
	summary.Duration = Duration(o.now().Sub(started))

	o.logger.Info("recompute finished",
		zap.Int("products", len(products)),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("removed", summary.Removed),
		zap.Int("failed", summary.Failed),
		zap.Duration("duration", time.Duration(summary.Duration)),
	)
	return summary, nil
}

func (o *Orchestrator) recomputeOne(ctx context.Context, p *models.Product, now time.Time, promo *pricing.Promotion) outcome {
	id := p.IDHex()
	log := o.logger.With(zap.String("productId", id))

	ctx, cancel := context.WithTimeout(ctx, o.cfg.ItemTimeout)
	defer cancel()

	quote, err := o.quote(ctx, p, now, promo)
	if err != nil {
		if apperr.IsConfig(err) {
			log.Warn("product skipped", zap.Error(err))
			return outcome{status: statusSkipped, err: &ItemError{ProductID: id, Kind: KindConfig, Reason: err.Error()}}
		}
		log.Warn("pricing failed", zap.Error(err))
		return outcome{status: statusFailed, err: &ItemError{ProductID: id, Kind: kindOf(ctx, err), Reason: err.Error()}}
	}

	price := quote.Price
	if err := o.store.SetCurrentPrice(ctx, id, price); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			log.Debug("product removed during recompute")
			return outcome{status: statusRemoved}
		}
		log.Warn("price write failed", zap.Error(err))
		return outcome{status: statusFailed, err: &ItemError{ProductID: id, Kind: kindOf(ctx, err), Reason: err.Error()}}
	}

	if price != p.CurrentPrice {
		change := events.PriceChanged{OldPrice: p.CurrentPrice, NewPrice: price}
		if err := o.publisher.PriceChanged(context.WithoutCancel(ctx), id, change); err != nil {
			log.Warn("publish price change failed", zap.Error(err))
		}
	}
	log.Debug("product repriced", zap.String("signal", string(quote.Signal)), zap.Float64("price", price))
	return outcome{status: statusUpdated}
}

// quote races the pricer against the per-product deadline. A pricer that
// overruns is abandoned; its result is discarded. A pricer panic is reported
// as that product's failure.
func (o *Orchestrator) quote(ctx context.Context, p *models.Product, now time.Time, promo *pricing.Promotion) (pricing.Quote, error) {
	type result struct {
		quote pricing.Quote
		err   error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: &pricingPanic{value: r}}
			}
		}()
		q, err := o.pricer.Quote(p, now, promo)
		done <- result{q, err}
	}()

	select {
	case r := <-done:
		return r.quote, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.Canceled) {
			return pricing.Quote{}, apperr.Wrap("recompute.quote", ctx.Err())
		}
		return pricing.Quote{}, apperr.Wrap("recompute.quote", errors.Join(apperr.ErrTimeout, ctx.Err()))
	}
}

type pricingPanic struct {
	value any
}

func (e *pricingPanic) Error() string {
	return fmt.Sprintf("pricing panicked: %v", e.value)
}

func kindOf(ctx context.Context, err error) Kind {
	var crashed *pricingPanic
	switch {
	case errors.As(err, &crashed):
		return KindPanic
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		return KindCanceled
	case errors.Is(err, apperr.ErrTimeout) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return KindTimeout
	}
	return KindStore
}
