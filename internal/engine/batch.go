package engine

import (
	"context"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/site2video/internal/config"
)

// BatchResult is the outcome of one job in a batch.
type BatchResult struct {
	Job     config.Job
	Result  *Result
	Err     error
	Skipped bool // output already existed
}

// RunBatch records jobs with at most workers in flight. Failures are logged
// and do not stop the batch; nothing is retried. With skipExisting, jobs
// whose output already exists are not recorded again. Results keep the order
// of jobs.
func (e *Engine) RunBatch(ctx context.Context, jobs []config.Job, workers int, skipExisting bool) []BatchResult {
	if workers < 1 {
		workers = 1
	}
	results := make([]BatchResult, len(jobs))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, job := range jobs {
		results[i].Job = job
		if skipExisting {
			if _, err := os.Stat(job.Output); err == nil {
				results[i].Skipped = true
				e.printf("[*] Skipping %s, %s exists\n", job.Source, job.Output)
				continue
			}
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			start := time.Now()
			res, err := e.Record(ctx, job)
			results[i].Result, results[i].Err = res, err
			if err != nil {
				e.Log.Error("job failed", "job", job.ID, "source", job.Source, "err", err, "after", time.Since(start).Round(time.Millisecond))
				e.printf("[!] Failed: %s: %v\n", job.Source, err)
			}
			return nil
		})
	}
	g.Wait()
	return results
}
