package capture

// State is client-local, non-authoritative state attached to a job key
type State struct {
	ShowPreview  bool
	IsDeleting   bool
	ResolvedSize *int64 // set once by size probe, never re-fetched
}

// View is a job merged with its local state, ready for display
type View struct {
	Job
	Key         Key
	ShowPreview bool
	IsDeleting  bool
}

// Reconcile merges snapshot with previously held states. Every key of the snapshot gets
// its previous state carried forward as-is (or a default state for new keys), keys missing
// from the snapshot are dropped. Returns one view per snapshot entry, in snapshot order.
// Reconcile doesn't modify its inputs and is idempotent: reconciling the same snapshot
// against its own result store yields the same views and store.
func Reconcile(snapshot []Job, prev map[Key]State) (views []View, store map[Key]State) {
	views = make([]View, 0, len(snapshot))
	store = make(map[Key]State, len(snapshot))

	for _, job := range snapshot {
		key := job.Key()
		st, ok := store[key]
		if !ok {
			st = prev[key] // zero State is the default for unknown keys
			store[key] = st
		}
		views = append(views, makeView(job, st))
	}
	return views, store
}

// NeedsSize checks if size of the view should be resolved by probing its access url
func NeedsSize(v View) bool {
	return v.Status == StatusComplete && v.Size == nil && v.AccessURL != ""
}

func makeView(job Job, st State) View {
	v := View{Job: job, Key: job.Key(), ShowPreview: st.ShowPreview, IsDeleting: st.IsDeleting}
	if st.ResolvedSize != nil {
		size := *st.ResolvedSize
		v.Size = &size
	}
	if v.Size == nil && job.Size != nil {
		size := *job.Size
		v.Size = &size
	}
	return v
}
