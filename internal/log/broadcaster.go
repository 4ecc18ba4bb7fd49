package log

import (
	"io"
	"sync"
)

// Broadcaster is an io.Writer that fans every Write out to all subscriber
// channels, letting the admin API stream log lines to attached clients.
// Safe for concurrent use.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[chan []byte]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan []byte]struct{}),
	}
}

// Write copies each write (typically one log line) to every subscriber. A
// full subscriber channel is skipped so a stuck client never blocks the
// logger.
func (b *Broadcaster) Write(p []byte) (int, error) {
	buf := make([]byte, len(p))
	copy(buf, p)

	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers {
		select {
		case ch <- buf:
		default:
		}
	}
	return len(p), nil
}

// Subscribe registers a subscriber and returns a buffered channel receiving
// copies of every log line. Call Unsubscribe when done.
func (b *Broadcaster) Subscribe() chan []byte {
	ch := make(chan []byte, 256)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber channel and closes it.
func (b *Broadcaster) Unsubscribe(ch chan []byte) {
	b.mu.Lock()
	delete(b.subscribers, ch)
	b.mu.Unlock()
	close(ch)
}

var _ io.Writer = (*Broadcaster)(nil)
