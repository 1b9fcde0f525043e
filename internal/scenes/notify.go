package scenes

import "sync"

// ChangeOp identifies the kind of store mutation in a Change event.
type ChangeOp string

const (
	ChangeReplaced     ChangeOp = "replaced"
	ChangeImageUpdated ChangeOp = "image_updated"
	ChangeVideoSet     ChangeOp = "video_set"
	ChangeCleared      ChangeOp = "cleared"
)

// Change describes one committed store mutation. SceneID is zero for
// whole-store operations (replace, clear).
type Change struct {
	Op      ChangeOp
	SceneID int64
}

const subscriberBuffer = 16

// changeHub fans committed mutations out to observers. Sends never block:
// a subscriber that falls behind loses events rather than stalling writers.
type changeHub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Change
	closed bool
}

func newChangeHub() *changeHub {
	return &changeHub{subs: make(map[int]chan Change)}
}

// Subscribe registers an observer. The returned cancel func must be called to
// release the subscription; the channel is closed afterwards.
func (s *Store) Subscribe() (<-chan Change, func()) {
	return s.hub.subscribe()
}

func (h *changeHub) subscribe() (<-chan Change, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Change, subscriberBuffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (h *changeHub) publish(change Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		select {
		case sub <- change:
		default:
		}
	}
}

func (h *changeHub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub)
	}
}
