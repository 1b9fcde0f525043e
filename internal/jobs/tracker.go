package jobs

import "sync"

// Kind identifies an operation class guarded by the tracker.
type Kind string

const (
	KindRegenerate Kind = "regenerate"
	KindAnimate    Kind = "animate"
)

// Tracker is a keyed mutual-exclusion map preventing duplicate concurrent
// operations on the same scene per operation kind. A scene may legitimately
// be busy in both kinds at once; callers that need a combined view use
// BusyAny.
//
// There are no timers and no forced expiry: a guard stays held until the
// controlling operation releases it.
type Tracker struct {
	mu   sync.Mutex
	busy map[Kind]map[int64]struct{}
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{busy: make(map[Kind]map[int64]struct{})}
}

// TryAcquire marks (kind, sceneID) busy. It returns false without side
// effects when the pair is already held.
func (t *Tracker) TryAcquire(kind Kind, sceneID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	set, ok := t.busy[kind]
	if !ok {
		set = make(map[int64]struct{})
		t.busy[kind] = set
	}
	if _, held := set[sceneID]; held {
		return false
	}
	set[sceneID] = struct{}{}
	return true
}

// Release clears (kind, sceneID). Releasing a pair that is not held is a
// no-op.
func (t *Tracker) Release(kind Kind, sceneID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if set, ok := t.busy[kind]; ok {
		delete(set, sceneID)
	}
}

// Busy reports whether (kind, sceneID) is currently held.
func (t *Tracker) Busy(kind Kind, sceneID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, held := t.busy[kind][sceneID]
	return held
}

// BusyAny reports whether the scene is held under any kind.
func (t *Tracker) BusyAny(sceneID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, set := range t.busy {
		if _, held := set[sceneID]; held {
			return true
		}
	}
	return false
}

// Snapshot returns the busy scene IDs per kind, for status reporting.
func (t *Tracker) Snapshot() map[Kind][]int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[Kind][]int64, len(t.busy))
	for kind, set := range t.busy {
		if len(set) == 0 {
			continue
		}
		ids := make([]int64, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		out[kind] = ids
	}
	return out
}
