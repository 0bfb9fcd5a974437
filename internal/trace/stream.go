package trace

import (
	"bufio"
	"io"
	"os"
	"sync"
)

// StreamTracer writes events as they happen. Output to a terminal stream
// is flushed per event; file output is buffered until Flush.
type StreamTracer struct {
	mu        sync.Mutex
	dst       io.Writer
	buf       *bufio.Writer
	autoFlush bool
	level     Level
	format    Format
}

func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	return &StreamTracer{
		dst:       w,
		buf:       bufio.NewWriter(w),
		autoFlush: w == os.Stderr || w == os.Stdout,
		level:     level,
		format:    format,
	}
}

func (t *StreamTracer) Emit(ev *Event) {
	if !t.level.ShouldEmit(ev.Scope) && ev.Kind != KindHeartbeat {
		return
	}
	ev.Seq = NextSeq()
	data := FormatEvent(ev, t.format)

	t.mu.Lock()
	defer t.mu.Unlock()
	// best-effort: a broken trace output must not fail the build
	_, _ = t.buf.Write(data)
	if t.autoFlush {
		_ = t.buf.Flush()
	}
}

func (t *StreamTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.Flush()
}

// Close flushes and closes the destination unless it is stdout or stderr.
func (t *StreamTracer) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}
	if t.dst == os.Stderr || t.dst == os.Stdout {
		return nil
	}
	if closer, ok := t.dst.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (t *StreamTracer) Level() Level  { return t.level }
func (t *StreamTracer) Enabled() bool { return t.level > LevelOff }
