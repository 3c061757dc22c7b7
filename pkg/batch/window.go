// Package batch drives the window lifecycle: close the open window, match
// its snapshot, persist and publish the outcome, requeue what didn't match.
// It is the "external caller" the matching core is written against.
package batch

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/D9J9V/UniCow/pkg/core"
	"github.com/D9J9V/UniCow/pkg/storage"
)

// OrderSource supplies the closed window's snapshot and takes back orders
// to retry next window.
type OrderSource interface {
	Drain() []core.Order
	Requeue([]core.Order)
}

// Matcher matches one closed batch. *core.Engine satisfies this.
type Matcher interface {
	MatchBatch([]core.Order) (*core.BatchOutcome, error)
}

// Sink persists settled batches. *storage.PebbleStore satisfies this.
type Sink interface {
	SaveBatch(*storage.BatchRecord) (uint64, error)
}

// Notifier publishes a settled batch to subscribers. Optional.
type Notifier interface {
	NotifyBatch(*storage.BatchRecord)
}

// Runner ticks once per window interval. Each tick is one complete
// matching round over an immutable snapshot; between ticks the pool
// collects the next window.
type Runner struct {
	source   OrderSource
	matcher  Matcher
	sink     Sink
	notifier Notifier
	interval time.Duration
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewRunner(source OrderSource, matcher Matcher, sink Sink, notifier Notifier,
	interval time.Duration, log *zap.SugaredLogger) *Runner {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Runner{
		source:   source,
		matcher:  matcher,
		sink:     sink,
		notifier: notifier,
		interval: interval,
		log:      log,
		now:      time.Now,
	}
}

// Run blocks until ctx is cancelled, closing a window every interval.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Infow("runner_started", "window", r.interval.String())
	for {
		select {
		case <-ctx.Done():
			r.log.Infow("runner_stopped")
			return ctx.Err()
		case <-ticker.C:
			r.RunOnce()
		}
	}
}

// RunOnce closes the current window and settles it. A window with no
// orders is skipped; a window where nothing matches produces zero
// transfers and every order is requeued — a normal round, not an error.
func (r *Runner) RunOnce() {
	orders := r.source.Drain()
	if len(orders) == 0 {
		return
	}

	outcome, err := r.matcher.MatchBatch(orders)
	if err != nil {
		// Fatal for the batch, not the service: the snapshot is dropped,
		// senders must resubmit. Oversized windows land here too.
		r.log.Errorw("batch_rejected", "orders", len(orders), "err", err)
		return
	}

	rec := &storage.BatchRecord{
		ClosedAt:    r.now().Unix(),
		Orders:      orders,
		Transfers:   outcome.Transfers,
		Diagnostics: outcome.Diagnostics,
	}
	seq, err := r.sink.SaveBatch(rec)
	if err != nil {
		r.log.Errorw("batch_persist_failed", "err", err)
		return
	}

	r.log.Infow("batch_settled",
		"seq", seq,
		"orders", len(orders),
		"transfers", len(outcome.Transfers),
	)
	if r.notifier != nil {
		r.notifier.NotifyBatch(rec)
	}

	r.source.Requeue(unmatched(orders, outcome))
}

// unmatched returns the orders that received no allocation at all this
// round; they retry in the next window. Partially filled orders settled
// their matched portion and are not replayed.
func unmatched(orders []core.Order, outcome *core.BatchOutcome) []core.Order {
	var out []core.Order
	for _, o := range orders {
		d, ok := outcome.Diagnostics[o.ID]
		if !ok || d.Matched == nil || d.Matched.Sign() == 0 {
			out = append(out, o)
		}
	}
	return out
}
