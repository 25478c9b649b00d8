package pipeline

import (
	"context"
	"time"
)

// MaxBulkCount bounds the number of posts in one batch
const MaxBulkCount = 12

// ClampCount bounds n to [1, MaxBulkCount]
func ClampCount(n int) int {
	switch {
	case n < 1:
		return 1
	case n > MaxBulkCount:
		return MaxBulkCount
	default:
		return n
	}
}

// ResultFunc receives each bulk result as soon as it is finished
type ResultFunc func(*Result)

// RunBulk runs the single-post pipeline count times in a plain loop, each
// run finishing before the next starts, spaced by the configured bulk delay.
// It always returns exactly ClampCount(count) results; a failure is recorded
// on its own result only.
func (p *Pipeline) RunBulk(ctx context.Context, opts Options, count int, progress ProgressFunc) []*Result {
	return p.RunBulkEach(ctx, opts, count, progress, nil)
}

// RunBulkEach is RunBulk with a per-result callback. each may be nil.
func (p *Pipeline) RunBulkEach(ctx context.Context, opts Options, count int, progress ProgressFunc, each ResultFunc) []*Result {
	count = ClampCount(count)
	done := func(res *Result) {
		if each != nil {
			each(res)
		}
	}

	results := make([]*Result, 0, count)
	for i := 1; i <= count; i++ {
		o := opts
		o.Index = i
		o.Total = count

		if err := p.pause(ctx, i); err != nil {
			res := p.cancelled(o, err)
			done(res)
			results = append(results, res)
			continue
		}

		res, err := p.Run(ctx, o, progress)
		if err != nil {
			p.logger.Error("Bulk post failed", "index", i, "total", count, "error", err)
		}
		done(res)
		results = append(results, res)
	}

	p.logger.Info("Bulk run finished", "count", count, "url", opts.URL)
	return results
}

// pause waits bulkDelay after the previous item finished. The first item starts at once.
func (p *Pipeline) pause(ctx context.Context, index int) error {
	if index == 1 || p.bulkDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(p.bulkDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p *Pipeline) cancelled(o Options, err error) *Result {
	return &Result{
		Index:     o.Index,
		SourceURL: o.URL,
		CreatedAt: p.now(),
		Error:     err.Error(),
		ErrorKind: "cancelled",
	}
}
