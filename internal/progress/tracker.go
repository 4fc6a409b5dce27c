// Package progress provides the step state machine that drives user-visible
// search status independently of data correctness.
package progress

import (
	"fmt"
	"sync"
	"time"
)

// Status is the state of a single step.
type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

// Step identifies one named pipeline step.
type Step string

// Steps of the advanced search path, in activation order.
const (
	StepCategorize Step = "categorize"
	StepCollect    Step = "collect"
	StepRank       Step = "rank"
	StepFilter     Step = "filter"
	StepTitles     Step = "titles"
)

// DefaultSteps returns the step order for the advanced search path.
func DefaultSteps() []Step {
	return []Step{StepCategorize, StepCollect, StepRank, StepFilter, StepTitles}
}

// Transition describes one observed state change.
type Transition struct {
	Step    Step
	Status  Status
	Message string
	At      time.Time
}

// StepState is a snapshot of one step.
type StepState struct {
	Step    Step   `json:"step"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Tracker enforces the step lifecycle pending -> active -> complete|error
// with strictly ordered activation: a later step is never activated while an
// earlier one is not complete, and nothing activates after an error.
//
// Tracker is safe for concurrent use. Subscribers are notified outside the
// lock, in transition order per subscriber.
type Tracker struct {
	mu          sync.Mutex
	order       []Step
	status      map[Step]Status
	messages    map[Step]string
	failed      bool
	subscribers []func(Transition)
}

// NewTracker creates a tracker with all steps pending.
func NewTracker(steps []Step) *Tracker {
	if len(steps) == 0 {
		steps = DefaultSteps()
	}
	t := &Tracker{
		order:    append([]Step(nil), steps...),
		status:   make(map[Step]Status, len(steps)),
		messages: make(map[Step]string, len(steps)),
	}
	for _, s := range steps {
		t.status[s] = StatusPending
	}
	return t
}

// Subscribe registers a callback invoked for every transition.
func (t *Tracker) Subscribe(fn func(Transition)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subscribers = append(t.subscribers, fn)
}

// Activate marks a step active. It fails if the step is unknown, not
// pending, an earlier step is not complete, or the session already failed.
func (t *Tracker) Activate(step Step) error {
	t.mu.Lock()
	if t.failed {
		t.mu.Unlock()
		return fmt.Errorf("cannot activate %q: session already failed", step)
	}
	idx := t.index(step)
	if idx < 0 {
		t.mu.Unlock()
		return fmt.Errorf("unknown step %q", step)
	}
	if t.status[step] != StatusPending {
		t.mu.Unlock()
		return fmt.Errorf("cannot activate %q: status is %s", step, t.status[step])
	}
	for _, earlier := range t.order[:idx] {
		if t.status[earlier] != StatusComplete {
			t.mu.Unlock()
			return fmt.Errorf("cannot activate %q: %q is %s", step, earlier, t.status[earlier])
		}
	}
	t.status[step] = StatusActive
	subs := t.snapshotSubscribers()
	t.mu.Unlock()

	t.notify(subs, Transition{Step: step, Status: StatusActive, At: time.Now()})
	return nil
}

// Complete marks the active step complete.
func (t *Tracker) Complete(step Step) error {
	t.mu.Lock()
	if t.status[step] != StatusActive {
		status := t.status[step]
		t.mu.Unlock()
		return fmt.Errorf("cannot complete %q: status is %s", step, status)
	}
	t.status[step] = StatusComplete
	subs := t.snapshotSubscribers()
	t.mu.Unlock()

	t.notify(subs, Transition{Step: step, Status: StatusComplete, At: time.Now()})
	return nil
}

// Fail marks the active step as errored and terminates the session: no
// subsequent step will ever activate.
func (t *Tracker) Fail(step Step, message string) error {
	t.mu.Lock()
	if t.status[step] != StatusActive {
		status := t.status[step]
		t.mu.Unlock()
		return fmt.Errorf("cannot fail %q: status is %s", step, status)
	}
	t.status[step] = StatusError
	t.messages[step] = message
	t.failed = true
	subs := t.snapshotSubscribers()
	t.mu.Unlock()

	t.notify(subs, Transition{Step: step, Status: StatusError, Message: message, At: time.Now()})
	return nil
}

// Failed reports whether any step errored.
func (t *Tracker) Failed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failed
}

// ErrorMessage returns the message of the errored step, if any.
func (t *Tracker) ErrorMessage() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.order {
		if t.status[s] == StatusError {
			return t.messages[s]
		}
	}
	return ""
}

// Terminal reports whether the session reached a terminal state: either a
// step errored, or every step completed.
func (t *Tracker) Terminal() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failed {
		return true
	}
	for _, s := range t.order {
		if t.status[s] != StatusComplete {
			return false
		}
	}
	return true
}

// Snapshot returns the current state of every step in order.
func (t *Tracker) Snapshot() []StepState {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]StepState, 0, len(t.order))
	for _, s := range t.order {
		out = append(out, StepState{Step: s, Status: t.status[s], Message: t.messages[s]})
	}
	return out
}

// Status returns the current status of one step.
func (t *Tracker) Status(step Step) Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status[step]
}

func (t *Tracker) index(step Step) int {
	for i, s := range t.order {
		if s == step {
			return i
		}
	}
	return -1
}

func (t *Tracker) snapshotSubscribers() []func(Transition) {
	return append([]func(Transition){}, t.subscribers...)
}

func (t *Tracker) notify(subs []func(Transition), tr Transition) {
	for _, fn := range subs {
		fn(tr)
	}
}
