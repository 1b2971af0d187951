// Package dispatcher runs Pipelines concurrently within a configured
// thread budget, aggregates their events into logs and progress, and
// coordinates cooperative cancellation (SPEC_FULL.md §4.7).
package dispatcher

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/castmux/transcoder/internal/config"
	"github.com/castmux/transcoder/internal/events"
	"github.com/castmux/transcoder/internal/logging"
	"github.com/castmux/transcoder/internal/pipeline"
)

// eventBufferSize is the per-job event channel's buffer, sized so a
// Pipeline's frequent Progress sends never block on a busy Dispatcher.
const eventBufferSize = 64

// job pairs one discovered file with the identity the Dispatcher tracks it
// under.
type job struct {
	id   uuid.UUID
	path string
}

// slot is a running Pipeline plus the goroutine-local state the Dispatcher
// needs to cancel it.
type slot struct {
	pipeline *pipeline.Pipeline
	cancel   context.CancelFunc
}

// Dispatcher is the WorkerPool/JobDispatcher of §4.7: a fixed pool of
// worker goroutines pulling jobs off a channel, grounded on the
// goroutine-per-slot pool shape (fixed worker count, channel of jobs,
// sync.WaitGroup, cancellable context.Context) this corpus's HLS-segment
// worker pool uses, adapted here from per-rendition segment jobs to
// per-file transcoding jobs.
type Dispatcher struct {
	cfg *config.Config
	log *logging.Logger

	mu        sync.Mutex
	slots     map[uuid.UUID]*slot
	stats     pipeline.RunStats
	cancelled bool
}

// New constructs a Dispatcher bound to cfg's thread budget.
func New(cfg *config.Config, log *logging.Logger) *Dispatcher {
	return &Dispatcher{cfg: cfg, log: log, slots: make(map[uuid.UUID]*slot)}
}

// Run enqueues files and blocks until every one has finished, been
// cancelled, or ctx is done. It returns the aggregate RunStats.
func (d *Dispatcher) Run(ctx context.Context, files []string) pipeline.RunStats {
	d.mu.Lock()
	d.stats = pipeline.RunStats{Total: len(files)}
	d.mu.Unlock()

	poolCtx, cancelPool := context.WithCancel(ctx)
	defer cancelPool()

	jobs := make(chan job, len(files))
	for _, f := range files {
		jobs <- job{id: uuid.New(), path: f}
	}
	close(jobs)

	numWorkers := d.cfg.NumberOfThreads
	if numWorkers > len(files) {
		numWorkers = len(files)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go d.worker(poolCtx, &wg, jobs)
	}
	wg.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Cancel implements §4.7's cancel(): it sets the shared stop flag and
// signals every running Pipeline to stop. Run's callers observe the
// resulting Finished(cancelled=true) events and eventually return.
func (d *Dispatcher) Cancel() {
	d.mu.Lock()
	d.cancelled = true
	for _, s := range d.slots {
		s.pipeline.Cancel()
		s.cancel()
	}
	d.mu.Unlock()
}

func (d *Dispatcher) worker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan job) {
	defer wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			d.runJob(ctx, j)
		}
	}
}

func (d *Dispatcher) runJob(ctx context.Context, j job) {
	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan events.Event, eventBufferSize)
	bus := events.NewBus(j.id, ch)
	p := pipeline.New(j.id, d.cfg, j.path, bus)

	d.mu.Lock()
	d.slots[j.id] = &slot{pipeline: p, cancel: cancel}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.drainEvents(j, ch)
	}()

	_ = p.Run(jobCtx)
	close(ch)
	<-done

	d.mu.Lock()
	delete(d.slots, j.id)
	d.mu.Unlock()
}

// drainEvents is the Event Bus's single consumer for one job: it forwards
// Info/Error into logging and accumulates Finished into the Dispatcher's
// aggregate RunStats (§4.7, §4.8). Progress events are consumed and
// discarded.
func (d *Dispatcher) drainEvents(j job, ch <-chan events.Event) {
	for ev := range ch {
		switch ev.Kind {
		case events.Info:
			d.log.JobInfo(j.id, "%s: %s", j.path, ev.Text)
		case events.Error:
			d.log.JobError(j.id, "%s: %s", j.path, ev.Text)
		case events.Progress:
			// Per-job progress is neither logged nor recorded; aggregate
			// completion is what RunStats tracks.
		case events.Finished:
			d.recordFinished(ev)
		}
	}
}

func (d *Dispatcher) recordFinished(ev events.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if ev.Cancelled {
		return
	}
	if ev.Err != nil {
		d.stats.Failed++
		return
	}
	if ev.Skipped {
		d.stats.Skipped++
		return
	}
	d.stats.Encoded++
}
