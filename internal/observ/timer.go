// Package observ measures how long the stages of one compilation take.
package observ

import "time"

// Timer collects stage durations in the order the stages began. It is
// owned by a single run and not safe for concurrent use.
type Timer struct {
	now    func() time.Time
	stages []stage
}

type stage struct {
	name  string
	start time.Time
	dur   time.Duration
	note  string
	done  bool
}

// NewTimer returns a timer reading the wall clock.
func NewTimer() *Timer { return &Timer{now: time.Now} }

// Mark is a started stage; End it exactly once.
type Mark struct {
	t   *Timer
	idx int
}

// Begin starts timing name.
func (t *Timer) Begin(name string) Mark {
	t.stages = append(t.stages, stage{name: name, start: t.now()})
	return Mark{t: t, idx: len(t.stages) - 1}
}

// End stops the stage and attaches a short note such as "3 functions".
// Ending a stage twice keeps the first measurement.
func (m Mark) End(note string) {
	if m.t == nil {
		return
	}
	s := &m.t.stages[m.idx]
	if s.done {
		return
	}
	s.dur = m.t.now().Sub(s.start)
	s.note = note
	s.done = true
}

// PhaseReport is one finished stage in milliseconds.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

// Report lists finished stages and their sum.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

// Report snapshots the finished stages. Stages still running are left out.
func (t *Timer) Report() Report {
	var rep Report
	var total time.Duration
	for _, s := range t.stages {
		if !s.done {
			continue
		}
		total += s.dur
		rep.Phases = append(rep.Phases, PhaseReport{Name: s.name, DurationMS: millis(s.dur), Note: s.note})
	}
	rep.TotalMS = millis(total)
	return rep
}

// Lookup returns the first finished stage called name.
func (r Report) Lookup(name string) (PhaseReport, bool) {
	for _, p := range r.Phases {
		if p.Name == name {
			return p, true
		}
	}
	return PhaseReport{}, false
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
