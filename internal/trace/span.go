package trace

import (
	"context"
	"sync/atomic"
	"time"
)

var (
	globalSeq   atomic.Uint64
	globalSpans atomic.Uint64
)

// NextSeq returns a monotonically increasing sequence number.
func NextSeq() uint64 { return globalSeq.Add(1) }

// NextSpanID returns a unique span ID.
func NextSpanID() uint64 { return globalSpans.Add(1) }

// Span tracks one begin/end pair. A disabled span still measures time.
type Span struct {
	tracer  Tracer
	id      uint64
	parent  SpanContext
	scope   Scope
	name    string
	started time.Time
	extra   map[string]string
	ended   atomic.Bool
}

func enabled(t Tracer, scope Scope) bool {
	return t != nil && t.Enabled() && t.Level().ShouldEmit(scope)
}

// Begin starts a span below parent and emits its begin event.
func Begin(t Tracer, scope Scope, name string, parent SpanContext) *Span {
	now := time.Now()
	if !enabled(t, scope) {
		return &Span{started: now}
	}
	sp := &Span{tracer: t, id: NextSpanID(), parent: parent, scope: scope, name: name, started: now}
	t.Emit(sp.event(KindSpanBegin, now))
	return sp
}

// BeginContext starts a span below the one stored in ctx and returns a
// context carrying the new span.
func BeginContext(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	parent := CurrentSpan(ctx)
	sp := Begin(FromContext(ctx), scope, name, parent)
	if sp.id == 0 {
		return ctx, sp
	}
	return WithSpanContext(ctx, SpanContext{SpanID: sp.id, Unit: parent.Unit}), sp
}

func (s *Span) event(kind Kind, at time.Time) *Event {
	return &Event{
		Time:     at,
		Kind:     kind,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parent.SpanID,
		Unit:     s.parent.Unit,
		Name:     s.name,
	}
}

// End emits the end event once and returns the span duration.
func (s *Span) End(detail string) time.Duration {
	if s == nil {
		return 0
	}
	now := time.Now()
	dur := now.Sub(s.started)
	if s.tracer == nil || s.ended.Swap(true) {
		return dur
	}
	ev := s.event(KindSpanEnd, now)
	ev.Detail = detail
	ev.Elapsed = dur
	ev.Extra = s.extra
	s.tracer.Emit(ev)
	return dur
}

// WithExtra adds a key-value pair to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.tracer == nil {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string)
	}
	s.extra[key] = value
	return s
}

// ID is 0 for disabled spans.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Point emits an instant event below the span stored in ctx.
func Point(ctx context.Context, scope Scope, name, detail string) {
	t := FromContext(ctx)
	if !enabled(t, scope) {
		return
	}
	parent := CurrentSpan(ctx)
	t.Emit(&Event{
		Time:     time.Now(),
		Kind:     KindPoint,
		Scope:    scope,
		ParentID: parent.SpanID,
		Unit:     parent.Unit,
		Name:     name,
		Detail:   detail,
	})
}
