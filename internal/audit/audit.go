// Package audit records who did what, off the request path.
package audit

import (
	"github.com/charmbracelet/log"
)

type entry struct {
	clientID string
	action   string
}

// Recorder appends action entries to the audit log. Recording never blocks
// the caller: entries go through a buffered channel drained by a single
// goroutine, and are dropped if the buffer is full.
type Recorder struct {
	logger  *log.Logger
	entries chan entry
	done    chan struct{}
}

// NewRecorder starts the drain goroutine.
func NewRecorder(logger *log.Logger) *Recorder {
	r := &Recorder{
		logger:  logger,
		entries: make(chan entry, 256),
		done:    make(chan struct{}),
	}
	go r.drain()
	return r
}

// Action records that the client performed the described action.
func (r *Recorder) Action(clientID, action string) {
	select {
	case r.entries <- entry{clientID: clientID, action: action}:
	default:
		// full buffer, drop rather than stall a response
	}
}

// Close flushes buffered entries and stops the drain goroutine.
func (r *Recorder) Close() {
	close(r.entries)
	<-r.done
}

func (r *Recorder) drain() {
	defer close(r.done)
	for e := range r.entries {
		r.logger.Info("action", "client", e.clientID, "action", e.action)
	}
}
