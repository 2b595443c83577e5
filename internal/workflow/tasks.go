package workflow

import (
	"context"
	"sync"
)

// runTasks executes count tasks under the shared concurrency cap and blocks
// until all of them return. Every task runs even when the context is already
// dead: tasks observe the context themselves and record their own failure,
// so a deadline never silently drops work from the ledger.
func (r *Runner) runTasks(ctx context.Context, count int, task func(ctx context.Context, index int)) {
	sem := make(chan struct{}, r.concurrency)
	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
				task(ctx, index)
			case <-ctx.Done():
				task(ctx, index)
			}
		}(i)
	}
	wg.Wait()
}
