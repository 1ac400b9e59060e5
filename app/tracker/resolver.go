package tracker

import (
	"context"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/capwatch/app/capture"
)

type probeReq struct {
	key       capture.Key
	accessURL string
}

// claimProbes selects views with unresolved size and marks them pending. Must be called under lock,
// so the pending check and the "size already resolved" check see the same state.
func (t *Tracker) claimProbes() []probeReq {
	var res []probeReq
	for _, v := range t.views {
		if !capture.NeedsSize(v) {
			continue
		}
		if !t.pending.Add(v.Key) {
			continue // probe in flight
		}
		res = append(res, probeReq{key: v.Key, accessURL: v.AccessURL})
	}
	return res
}

// startProbes runs size probes in the bounded group. Failed probes leave size unresolved,
// the key will be claimed again by a later refresh.
func (t *Tracker) startProbes(ctx context.Context, probes []probeReq) {
	for _, p := range probes {
		t.probes.Go(func(context.Context) {
			size, err := t.remote.Probe(ctx, p.accessURL)
			if err != nil {
				log.Printf("[DEBUG] size probe for %s failed, %v", p.key, err)
				t.mu.Lock()
				t.pending.Remove(p.key)
				t.mu.Unlock()
				return
			}
			t.setSize(p.key, size)
		})
	}
}

// setSize records resolved size for the key. Ignored if the key is gone or size already set.
func (t *Tracker) setSize(key capture.Key, size int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending.Remove(key)

	st, ok := t.store[key]
	if !ok {
		log.Printf("[DEBUG] drop size of %s, job gone", key)
		return
	}
	if st.ResolvedSize != nil {
		return
	}
	st.ResolvedSize = &size
	t.store[key] = st
	t.views, t.store = capture.Reconcile(t.jobs, t.store)
	log.Printf("[DEBUG] resolved size of %s, %d bytes", key, size)
}
