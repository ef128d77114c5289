package chat

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Reveal pacing: per-character delay is derived from the full length so short
// and long replies both land near the target duration, clamped to keep either
// extreme readable.
const (
	stepFloor   = 20 * time.Millisecond
	stepCeiling = 50 * time.Millisecond
	targetTotal = 1500 * time.Millisecond
)

// AnimationTask is one in-flight reveal. The stopped flag is the cancellation
// token shared by every scheduled step; a fired step re-checks it before
// writing.
type AnimationTask struct {
	MessageID string

	mu       sync.Mutex
	full     []rune
	revealed int
	stopped  bool
	timers   []*clock.Timer
}

// visible returns the currently revealed prefix
func (t *AnimationTask) visible() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.full[:t.revealed])
}

func (t *AnimationTask) stop() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	for _, tm := range t.timers {
		tm.Stop()
	}
	t.timers = nil
	return string(t.full[:t.revealed])
}

// Animator schedules incremental reveals of finished bot texts. Tasks for
// different message ids run concurrently and are cancelled independently.
type Animator struct {
	clock clock.Clock

	mu    sync.Mutex
	tasks map[string]*AnimationTask
}

// NewAnimator creates an animator driven by the given clock
func NewAnimator(clk clock.Clock) *Animator {
	return &Animator{
		clock: clk,
		tasks: make(map[string]*AnimationTask),
	}
}

// stepDelay computes the per-character delay for a text of n runes
func stepDelay(n int) time.Duration {
	if n <= 0 {
		return stepFloor
	}
	d := targetTotal / time.Duration(n)
	if d < stepFloor {
		return stepFloor
	}
	if d > stepCeiling {
		return stepCeiling
	}
	return d
}

// Animate schedules one step per character of fullText at offsets i*delay.
// Each step that fires before cancellation extends the visible prefix by one
// rune and invokes onStep with it; the final step additionally invokes
// onComplete. Callbacks run on timer goroutines, never under the task lock.
// A second Animate for the same message id cancels the first.
func (a *Animator) Animate(messageID, fullText string, onStep func(visible string), onComplete func()) {
	runes := []rune(fullText)
	if len(runes) == 0 {
		if onComplete != nil {
			onComplete()
		}
		return
	}

	task := &AnimationTask{
		MessageID: messageID,
		full:      runes,
	}

	a.mu.Lock()
	if prev, ok := a.tasks[messageID]; ok {
		prev.stop()
	}
	a.tasks[messageID] = task
	a.mu.Unlock()

	delay := stepDelay(len(runes))

	task.mu.Lock()
	for i := 1; i <= len(runes); i++ {
		step := i
		timer := a.clock.AfterFunc(time.Duration(step)*delay, func() {
			a.fire(task, step, onStep, onComplete)
		})
		task.timers = append(task.timers, timer)
	}
	task.mu.Unlock()
}

func (a *Animator) fire(task *AnimationTask, step int, onStep func(visible string), onComplete func()) {
	task.mu.Lock()
	if task.stopped || step <= task.revealed {
		task.mu.Unlock()
		return
	}
	task.revealed = step
	visible := string(task.full[:step])
	final := step == len(task.full)
	task.mu.Unlock()

	if onStep != nil {
		onStep(visible)
	}
	if final {
		a.mu.Lock()
		if a.tasks[task.MessageID] == task {
			delete(a.tasks, task.MessageID)
		}
		a.mu.Unlock()
		if onComplete != nil {
			onComplete()
		}
	}
}

// Stop cancels the task for the given message id. Already-fired steps are not
// undone; the revealed prefix at stop time is returned so the caller can
// append its stop marker. Returns false if no task is in flight.
func (a *Animator) Stop(messageID string) (string, bool) {
	a.mu.Lock()
	task, ok := a.tasks[messageID]
	if ok {
		delete(a.tasks, messageID)
	}
	a.mu.Unlock()
	if !ok {
		return "", false
	}
	return task.stop(), true
}

// StopAll cancels every in-flight task
func (a *Animator) StopAll() {
	a.mu.Lock()
	tasks := a.tasks
	a.tasks = make(map[string]*AnimationTask)
	a.mu.Unlock()
	for _, t := range tasks {
		t.stop()
	}
}

// Active reports whether a reveal is in flight for the given message id
func (a *Animator) Active(messageID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.tasks[messageID]
	return ok
}
