package tracker

import (
	"context"

	log "github.com/go-pkgz/lgr"
	"github.com/robfig/cron/v3"
)

// Run refreshes once immediately and then on every interval until ctx is canceled. All refreshes
// run in this loop, so at most one fetch is in flight. A timer cycle hitting a running refresh is
// skipped, a trigger received during a refresh queues exactly one follow-up.
// Blocks until ctx done and all size probes settled.
func (t *Tracker) Run(ctx context.Context) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(cronLogger{}))))
	// ticks are handed to the loop, a tick arriving while any refresh runs is dropped
	c.Schedule(cron.Every(t.interval), cron.FuncJob(func() {
		select {
		case t.tick <- struct{}{}:
		default:
			log.Printf("[DEBUG] refresh in progress, skip timer cycle")
		}
	}))

	log.Printf("[INFO] start polling every %v", t.interval)
	t.refresh(ctx, "startup")
	c.Start()

	for {
		select {
		case <-ctx.Done():
			<-c.Stop().Done()
			t.probes.Wait()
			log.Printf("[INFO] polling stopped, %v", ctx.Err())
			return
		case <-t.tick:
			t.refresh(ctx, "timer")
		case <-t.kick:
			t.refresh(ctx, "trigger")
		}
	}
}

// Trigger requests an out-of-band refresh without waiting for the next tick
func (t *Tracker) Trigger() {
	select {
	case t.kick <- struct{}{}:
	default: // already queued
	}
}

// refresh runs a single poll cycle. Failures are logged only and retried on the next cycle.
func (t *Tracker) refresh(ctx context.Context, reason string) {
	if ctx.Err() != nil {
		return
	}
	if err := t.Refresh(ctx); err != nil {
		log.Printf("[WARN] %s refresh skipped, %v", reason, err)
	}
}

// cronLogger sends cron errors to lgr
type cronLogger struct{}

func (cronLogger) Printf(format string, args ...any) {
	log.Printf("[WARN] cron: "+format, args...)
}
