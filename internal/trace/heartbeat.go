package trace

import (
	"fmt"
	"runtime"
	"sync"
	"time"
)

// Heartbeat emits periodic events so a stuck build stays visible in the
// trace: heartbeats keep coming while no span ends.
type Heartbeat struct {
	tracer Tracer
	stop   chan struct{}
	once   sync.Once
	done   sync.WaitGroup
}

// StartHeartbeat starts emitting every interval. It returns nil when
// tracing is off or interval is not positive; Stop accepts nil.
func StartHeartbeat(tracer Tracer, interval time.Duration) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{tracer: tracer, stop: make(chan struct{})}
	h.done.Go(func() { h.run(interval) })
	return h
}

func (h *Heartbeat) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for n := 1; ; n++ {
		select {
		case now := <-ticker.C:
			h.tracer.Emit(&Event{
				Time:   now,
				Kind:   KindHeartbeat,
				Scope:  ScopeDriver,
				Name:   "heartbeat",
				Detail: fmt.Sprintf("#%d, %d goroutines", n, runtime.NumGoroutine()),
			})
		case <-h.stop:
			return
		}
	}
}

// Stop ends the heartbeat and waits for its goroutine.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.stop) })
	h.done.Wait()
}
