package presenter

import "sync"

// Display is the single rendering target. Each Show replaces whatever was
// shown before.
type Display interface {
	Show(DisplayMessage)
}

// DisplayFunc adapts a function to Display.
type DisplayFunc func(DisplayMessage)

func (f DisplayFunc) Show(m DisplayMessage) { f(m) }

// Slot keeps the most recently shown message.
type Slot struct {
	mu    sync.Mutex
	msg   DisplayMessage
	shown bool
}

func (s *Slot) Show(m DisplayMessage) {
	s.mu.Lock()
	s.msg, s.shown = m, true
	s.mu.Unlock()
}

// Latest returns the last message and whether anything was shown yet.
func (s *Slot) Latest() (DisplayMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.msg, s.shown
}

// Chan is a single-slot channel sink. An unread message is evicted by the
// next one, so a reader never sees a stale message.
type Chan struct {
	mu sync.Mutex
	ch chan DisplayMessage
}

func NewChan() *Chan {
	return &Chan{ch: make(chan DisplayMessage, 1)}
}

func (c *Chan) Show(m DisplayMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.ch:
	default:
	}
	c.ch <- m
}

// C returns the receive side.
func (c *Chan) C() <-chan DisplayMessage { return c.ch }

// Multi fans each message out to every sink in order.
type Multi []Display

func (m Multi) Show(msg DisplayMessage) {
	for _, d := range m {
		if d != nil {
			d.Show(msg)
		}
	}
}
