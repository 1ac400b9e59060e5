// Package tracker keeps the reconciled view of capture jobs. It polls the archiving service,
// merges each snapshot with client-local job state, resolves missing sizes and dispatches
// user mutations (submit, delete, retry) with an immediate refresh on success.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/syncs"

	"github.com/umputun/capwatch/app/capture"
)

//go:generate moq -out mocks/remote.go -pkg mocks -skip-ensure -fmt goimports . Remote

// ErrNotFound returned for keys not present in the current snapshot
var ErrNotFound = errors.New("job not found")

// Remote defines archiving service operations used by tracker
type Remote interface {
	List(ctx context.Context) ([]capture.Job, error)
	Submit(ctx context.Context, urls []string, tag string) error
	Delete(ctx context.Context, key capture.Key) error
	Probe(ctx context.Context, accessURL string) (int64, error)
}

// Params for New
type Params struct {
	Remote     Remote
	Interval   time.Duration     // poll interval, defaults to 5s
	MaxProbes  int               // max concurrent size probes, defaults to 4
	OnFinished func(capture.Job) // called for jobs moved to a terminal status, optional
}

// Tracker owns the latest snapshot, the client-local state of each job and the derived views
type Tracker struct {
	remote     Remote
	interval   time.Duration
	onFinished func(capture.Job)

	mu     sync.Mutex
	jobs   []capture.Job // latest applied snapshot
	store  map[capture.Key]capture.State
	views  []capture.View
	errMsg string

	seq     atomic.Uint64 // sequence of the last started refresh
	applied uint64        // sequence of the last applied snapshot, guarded by mu

	pending *pendingSet
	probes  *syncs.SizedGroup
	kick    chan struct{} // one pending trigger, more are coalesced
	tick    chan struct{} // unbuffered, accepted only while the poll loop is idle
}

// New makes tracker. Remote is required.
func New(p Params) *Tracker {
	if p.Interval <= 0 {
		p.Interval = 5 * time.Second
	}
	if p.MaxProbes <= 0 {
		p.MaxProbes = 4
	}
	return &Tracker{
		remote:     p.Remote,
		interval:   p.Interval,
		onFinished: p.OnFinished,
		store:      make(map[capture.Key]capture.State),
		pending:    newPendingSet(),
		probes:     syncs.NewSizedGroup(p.MaxProbes),
		kick:       make(chan struct{}, 1),
		tick:       make(chan struct{}),
	}
}

// Views returns copy of the latest reconciled views, in snapshot order
func (t *Tracker) Views() []capture.View {
	t.mu.Lock()
	defer t.mu.Unlock()
	res := make([]capture.View, len(t.views))
	copy(res, t.views)
	return res
}

// Error returns the last user-visible error message, empty if none
func (t *Tracker) Error() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.errMsg
}

// ClearError resets the error message
func (t *Tracker) ClearError() {
	t.setError("")
}

// TogglePreview flips preview flag of the job and returns the new value
func (t *Tracker) TogglePreview(key capture.Key) (bool, error) {
	var res bool
	ok := t.updateState(key, func(st *capture.State) {
		st.ShowPreview = !st.ShowPreview
		res = st.ShowPreview
	})
	if !ok {
		return false, fmt.Errorf("can't toggle preview for %s: %w", key, ErrNotFound)
	}
	return res, nil
}

// Refresh fetches a snapshot and applies it. The snapshot is discarded if a refresh started
// later has already been applied, so a slow response never overrides a newer one.
func (t *Tracker) Refresh(ctx context.Context) error {
	seq := t.seq.Add(1)
	jobs, err := t.remote.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}
	t.apply(ctx, seq, jobs)
	return nil
}

// apply reconciles snapshot with the store, fires finished callbacks and starts size probes
func (t *Tracker) apply(ctx context.Context, seq uint64, jobs []capture.Job) {
	t.mu.Lock()
	if seq < t.applied {
		t.mu.Unlock()
		log.Printf("[DEBUG] discard stale snapshot #%d, already applied #%d", seq, t.applied)
		return
	}

	var finished []capture.Job
	if t.onFinished != nil {
		finished = t.finishedJobs(jobs)
	}

	t.views, t.store = capture.Reconcile(jobs, t.store)
	t.jobs = jobs
	t.applied = seq
	probes := t.claimProbes()
	t.mu.Unlock()

	log.Printf("[DEBUG] applied snapshot #%d, %d jobs, %d size probes", seq, len(jobs), len(probes))
	for _, job := range finished {
		t.onFinished(job)
	}
	t.startProbes(ctx, probes)
}

// finishedJobs returns jobs which were seen before with non-terminal status and are done now.
// Must be called under lock, before t.jobs replaced.
func (t *Tracker) finishedJobs(jobs []capture.Job) []capture.Job {
	prev := make(map[capture.Key]capture.Status, len(t.jobs))
	for _, j := range t.jobs {
		prev[j.Key()] = j.Status
	}
	var res []capture.Job
	for _, j := range jobs {
		if st, ok := prev[j.Key()]; ok && !st.IsDone() && j.Status.IsDone() {
			res = append(res, j)
		}
	}
	return res
}

// updateState applies fn to the state of existing key and rebuilds views. Returns false for unknown key.
func (t *Tracker) updateState(key capture.Key, fn func(st *capture.State)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.store[key]
	if !ok {
		return false
	}
	fn(&st)
	t.store[key] = st
	t.views, t.store = capture.Reconcile(t.jobs, t.store)
	return true
}

func (t *Tracker) setError(msg string) {
	t.mu.Lock()
	t.errMsg = msg
	t.mu.Unlock()
}
