// Package stress runs configurable concurrent workloads against a
// conclist.List and checks that the list stays consistent.
package stress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/rogpeppe/lockfree/conclist"
	"github.com/rogpeppe/lockfree/drain"
)

// ErrInconsistent is returned by Run when a traversal observed
// the same value more than once.
var ErrInconsistent = errors.New("list traversal observed duplicate values")

// consumeDivisor selects the fraction of entries removed by consumers.
const consumeDivisor = 7

// Report summarizes a stress run.
type Report struct {
	Adds           int64         `yaml:"adds"`
	Removes        int64         `yaml:"removes"`
	RemoveMisses   int64         `yaml:"remove_misses"`
	ContainsHits   int64         `yaml:"contains_hits"`
	ContainsMisses int64         `yaml:"contains_misses"`
	Traversals     int64         `yaml:"traversals"`
	Consumed       int64         `yaml:"consumed"`
	ConsumeRemoves int64         `yaml:"consume_removes"`
	Clears         int64         `yaml:"clears"`
	Duplicates     int64         `yaml:"duplicates"`
	FinalLen       int64         `yaml:"final_len"`
	FinalVisited   int64         `yaml:"final_visited"`
	Elapsed        time.Duration `yaml:"elapsed"`
}

// counts holds the counters shared between workers.
type counts struct {
	adds, removes, removeMisses     atomic.Int64
	containsHits, containsMisses    atomic.Int64
	traversals, consumed, consumeRm atomic.Int64
	clears, duplicates              atomic.Int64
}

type runner struct {
	cfg     Config
	list    *conclist.List[int]
	logger  *slog.Logger
	metrics *metrics
	counts  counts

	// limit is one more than the largest value any writer adds.
	limit int
}

// Run runs the workload described by cfg and returns a report of what
// happened. Metrics are registered with reg, which may be nil; the
// same registry cannot be used for more than one run. If logger is
// nil, nothing is logged.
//
// Run returns ErrInconsistent if any traversal saw a duplicate value.
// Reaching cfg.Duration or canceling ctx ends the run early without
// error.
func Run(ctx context.Context, cfg Config, logger *slog.Logger, reg prometheus.Registerer) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Duration)
		defer cancel()
	}
	r := &runner{
		cfg:     cfg,
		list:    conclist.New[int](),
		logger:  logger,
		metrics: newMetrics(reg),
		limit:   cfg.Writers * cfg.OpsPerWorker,
	}
	logger.Info("stress run starting",
		"writers", cfg.Writers,
		"removers", cfg.Removers,
		"readers", cfg.Readers,
		"consumers", cfg.Consumers,
		"ops_per_worker", cfg.OpsPerWorker,
		"clear_every", cfg.ClearEvery,
	)
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	r.spawn(gctx, g, "writer", cfg.Writers, r.write)
	r.spawn(gctx, g, "remover", cfg.Removers, r.remove)
	r.spawn(gctx, g, "reader", cfg.Readers, r.read)
	r.spawn(gctx, g, "consumer", cfg.Consumers, r.consume)
	if err := g.Wait(); err != nil && !isDone(err) {
		return nil, fmt.Errorf("stress run failed: %w", err)
	}
	report := r.report(time.Since(start))
	logger.Info("stress run finished",
		"elapsed", report.Elapsed,
		"adds", report.Adds,
		"removes", report.Removes,
		"clears", report.Clears,
		"final_len", report.FinalLen,
		"final_visited", report.FinalVisited,
	)
	if report.Duplicates > 0 {
		return report, fmt.Errorf("%w: %d duplicates", ErrInconsistent, report.Duplicates)
	}
	return report, nil
}

func isDone(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (r *runner) spawn(ctx context.Context, g *errgroup.Group, kind string, n int, work func(ctx context.Context, id int) error) {
	for id := range n {
		g.Go(func() error {
			err := work(ctx, id)
			r.logger.Debug("worker finished", "kind", kind, "id", id, "error", err)
			if isDone(err) {
				return nil
			}
			return err
		})
	}
}

func (r *runner) write(ctx context.Context, id int) error {
	base := id * r.cfg.OpsPerWorker
	for i := range r.cfg.OpsPerWorker {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.list.Add(base + i)
		r.counts.adds.Add(1)
		r.metrics.record(opAdd, true)
		if id == 0 && r.cfg.ClearEvery > 0 && (i+1)%r.cfg.ClearEvery == 0 {
			r.list.Clear()
			r.counts.clears.Add(1)
			r.metrics.record(opClear, true)
			r.logger.Debug("list cleared", "after_adds", i+1)
		}
	}
	return nil
}

func (r *runner) remove(ctx context.Context, id int) error {
	for range r.cfg.OpsPerWorker {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok := r.list.Remove(rand.IntN(r.limit))
		if ok {
			r.counts.removes.Add(1)
		} else {
			r.counts.removeMisses.Add(1)
		}
		r.metrics.record(opRemove, ok)
	}
	return nil
}

func (r *runner) read(ctx context.Context, id int) error {
	for i := range r.cfg.OpsPerWorker {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i%100 == 0 {
			r.traverse()
			continue
		}
		ok := r.list.Contains(rand.IntN(r.limit))
		if ok {
			r.counts.containsHits.Add(1)
		} else {
			r.counts.containsMisses.Add(1)
		}
		r.metrics.record(opContains, ok)
	}
	return nil
}

// traverse walks the list once, counting any value seen twice.
func (r *runner) traverse() int64 {
	seen := make(map[int]bool)
	var dups int64
	r.list.ForEach(func(v int) {
		if seen[v] {
			dups++
		}
		seen[v] = true
	})
	if dups > 0 {
		r.counts.duplicates.Add(dups)
		r.logger.Error("duplicate values in traversal", "count", dups)
	}
	r.counts.traversals.Add(1)
	r.metrics.record(opForEach, dups == 0)
	r.metrics.listLen.Set(float64(r.list.Len()))
	return int64(len(seen))
}

func (r *runner) consume(ctx context.Context, id int) error {
	rounds := r.cfg.OpsPerWorker/100 + 1
	for range rounds {
		err := drain.Run(ctx, r.list.Cursor(), 2, func(ctx context.Context, e conclist.Entry[int]) error {
			v, ok := e.Get()
			r.counts.consumed.Add(1)
			r.metrics.record(opConsume, ok)
			if ok && v%consumeDivisor == 0 && e.TryRemove() {
				r.counts.consumeRm.Add(1)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *runner) report(elapsed time.Duration) *Report {
	visited := r.traverse()
	c := &r.counts
	return &Report{
		Adds:           c.adds.Load(),
		Removes:        c.removes.Load(),
		RemoveMisses:   c.removeMisses.Load(),
		ContainsHits:   c.containsHits.Load(),
		ContainsMisses: c.containsMisses.Load(),
		Traversals:     c.traversals.Load(),
		Consumed:       c.consumed.Load(),
		ConsumeRemoves: c.consumeRm.Load(),
		Clears:         c.clears.Load(),
		Duplicates:     c.duplicates.Load(),
		FinalLen:       r.list.Len(),
		FinalVisited:   visited,
		Elapsed:        elapsed,
	}
}
