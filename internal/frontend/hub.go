package frontend

import (
	"sync"

	"github.com/raysh454/postdesk/internal/presenter"
)

// Hub is the display surface of the web front-end. It keeps the latest
// message and forwards every new one to subscribers. A subscriber that has
// not read its previous message gets it replaced, so slow readers never
// block Show.
type Hub struct {
	mu     sync.Mutex
	latest presenter.DisplayMessage
	shown  bool
	subs   map[chan presenter.DisplayMessage]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: map[chan presenter.DisplayMessage]struct{}{}}
}

func (h *Hub) Show(m presenter.DisplayMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest, h.shown = m, true
	for ch := range h.subs {
		select {
		case <-ch:
		default:
		}
		ch <- m
	}
}

// Latest returns the last shown message, if any.
func (h *Hub) Latest() (presenter.DisplayMessage, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest, h.shown
}

// Subscribe returns a channel that receives the latest message (when there
// is one) followed by every update. Call cancel to detach.
func (h *Hub) Subscribe() (updates <-chan presenter.DisplayMessage, cancel func()) {
	ch := make(chan presenter.DisplayMessage, 1)
	h.mu.Lock()
	if h.shown {
		ch <- h.latest
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
		})
	}
}

// Subscribers reports how many subscriptions are attached.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
