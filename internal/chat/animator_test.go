package chat

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// stepRecorder collects onStep snapshots safely across timer goroutines
type stepRecorder struct {
	mu       sync.Mutex
	steps    []string
	complete bool
}

func (r *stepRecorder) onStep(visible string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, visible)
}

func (r *stepRecorder) onComplete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.complete = true
}

func (r *stepRecorder) snapshot() ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.steps...), r.complete
}

func TestAnimator_RevealsMonotonePrefixes(t *testing.T) {
	defer goleak.VerifyNone(t)

	mock := clock.NewMock()
	a := NewAnimator(mock)
	rec := &stepRecorder{}

	const text = "Halo, selamat datang"
	a.Animate("m1", text, rec.onStep, rec.onComplete)

	mock.Add(2 * time.Second)

	require.Eventually(t, func() bool {
		_, done := rec.snapshot()
		return done
	}, time.Second, 5*time.Millisecond)

	steps, _ := rec.snapshot()
	require.NotEmpty(t, steps)
	for i := 1; i < len(steps); i++ {
		assert.True(t, strings.HasPrefix(steps[i], steps[i-1]),
			"step %d %q does not extend %q", i, steps[i], steps[i-1])
		assert.Greater(t, len(steps[i]), len(steps[i-1]))
	}
	assert.Equal(t, text, steps[len(steps)-1])
	assert.False(t, a.Active("m1"))
}

func TestAnimator_StepDelayClamped(t *testing.T) {
	// Short text slows to the ceiling, long text hits the floor.
	assert.Equal(t, stepCeiling, stepDelay(3))
	assert.Equal(t, stepFloor, stepDelay(500))
	assert.Equal(t, 30*time.Millisecond, stepDelay(50))
}

func TestAnimator_StopKeepsRevealedPrefix(t *testing.T) {
	mock := clock.NewMock()
	a := NewAnimator(mock)
	rec := &stepRecorder{}

	// 30 runes at 50ms per step
	text := strings.Repeat("a", 30)
	a.Animate("m1", text, rec.onStep, rec.onComplete)

	mock.Add(250 * time.Millisecond)
	require.Eventually(t, func() bool {
		steps, _ := rec.snapshot()
		return len(steps) > 0 && len(steps[len(steps)-1]) == 5
	}, time.Second, 5*time.Millisecond)

	visible, ok := a.Stop("m1")
	require.True(t, ok)
	assert.Equal(t, strings.Repeat("a", 5), visible)
	assert.False(t, a.Active("m1"))

	// Remaining timers are cancelled: advancing further reveals nothing new.
	mock.Add(2 * time.Second)
	steps, done := rec.snapshot()
	assert.False(t, done)
	assert.Equal(t, 5, len(steps[len(steps)-1]))
}

func TestAnimator_StopWithoutTask(t *testing.T) {
	a := NewAnimator(clock.NewMock())
	visible, ok := a.Stop("missing")
	assert.False(t, ok)
	assert.Empty(t, visible)
}

func TestAnimator_EmptyTextCompletesImmediately(t *testing.T) {
	a := NewAnimator(clock.NewMock())
	rec := &stepRecorder{}

	a.Animate("m1", "", rec.onStep, rec.onComplete)

	steps, done := rec.snapshot()
	assert.Empty(t, steps)
	assert.True(t, done)
	assert.False(t, a.Active("m1"))
}

func TestAnimator_IndependentTasks(t *testing.T) {
	mock := clock.NewMock()
	a := NewAnimator(mock)
	rec1 := &stepRecorder{}
	rec2 := &stepRecorder{}

	a.Animate("m1", strings.Repeat("x", 30), rec1.onStep, rec1.onComplete)
	a.Animate("m2", strings.Repeat("y", 30), rec2.onStep, rec2.onComplete)

	mock.Add(250 * time.Millisecond)
	require.Eventually(t, func() bool {
		s1, _ := rec1.snapshot()
		s2, _ := rec2.snapshot()
		return len(s1) > 0 && len(s2) > 0
	}, time.Second, 5*time.Millisecond)

	// Stopping one task leaves the other running to completion.
	_, ok := a.Stop("m1")
	require.True(t, ok)

	mock.Add(2 * time.Second)
	require.Eventually(t, func() bool {
		_, done := rec2.snapshot()
		return done
	}, time.Second, 5*time.Millisecond)

	_, done1 := rec1.snapshot()
	assert.False(t, done1)
	s2, _ := rec2.snapshot()
	assert.Equal(t, strings.Repeat("y", 30), s2[len(s2)-1])
}

func TestAnimator_StopAll(t *testing.T) {
	mock := clock.NewMock()
	a := NewAnimator(mock)

	a.Animate("m1", "pertama", nil, nil)
	a.Animate("m2", "kedua", nil, nil)
	require.True(t, a.Active("m1"))
	require.True(t, a.Active("m2"))

	a.StopAll()
	assert.False(t, a.Active("m1"))
	assert.False(t, a.Active("m2"))
}
