package metrics

import (
	"sync"
	"time"
)

// -----------------------------
// Run Steps
// -----------------------------

// Step is the timing of one stage of a comparison run.
type Step struct {
	Name     string        `json:"name"`
	Rows     int           `json:"rows"`
	Duration time.Duration `json:"duration"`
}

// Recorder collects steps in the order they finish.
type Recorder struct {
	mu    sync.Mutex
	steps []Step
	now   func() time.Time
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

// Track starts timing name. Calling the returned func stops the clock and
// records the number of rows the step handled.
func (r *Recorder) Track(name string) func(rows int) {
	start := r.now()
	return func(rows int) {
		d := r.now().Sub(start)
		r.mu.Lock()
		defer r.mu.Unlock()
		r.steps = append(r.steps, Step{Name: name, Rows: rows, Duration: d})
	}
}

// Steps returns a copy of the recorded steps.
func (r *Recorder) Steps() []Step {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Step(nil), r.steps...)
}

// Total sums the duration of every recorded step.
func (r *Recorder) Total() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total time.Duration
	for _, s := range r.steps {
		total += s.Duration
	}
	return total
}
