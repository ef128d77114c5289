package chat

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"surveychat/internal/model"
)

// PopupPhase is the nested auto-switch popup state within QA mode
type PopupPhase string

const (
	PopupNone      PopupPhase = "NONE"
	PopupCountdown PopupPhase = "COUNTDOWN_TO_POPUP"
	PopupActive    PopupPhase = "POPUP_ACTIVE"
)

// ModeState is a read-only snapshot of the interaction-mode machine
type ModeState struct {
	Mode             model.Mode `json:"mode"`
	PopupPhase       PopupPhase `json:"popupPhase"`
	SecondsRemaining int        `json:"secondsRemaining,omitempty"`
}

// ModeController runs the SURVEY / QA state machine with its countdown-driven
// auto-switch popup. Staying in QA requires activity: every successful QA
// exchange resets the idle countdown; once it elapses a popup with its own
// shorter countdown offers the switch back to survey mode, and switches
// automatically at zero.
//
// onSwitch fires after any popup-driven transition into SURVEY (confirmed or
// automatic); the orchestrator uses it to synthesize the switch announcement.
// Manual toggles do not fire it. Callbacks run outside the controller lock.
type ModeController struct {
	clk        clock.Clock
	idleAfter  time.Duration
	popupAfter time.Duration
	onSwitch   func(auto bool)
	onChange   func(ModeState)

	mu      sync.Mutex
	mode    model.Mode
	phase   PopupPhase
	seconds int
	gen     int // invalidates timers scheduled for an abandoned state
	idle    *clock.Timer
	tick    *clock.Timer
}

// NewModeController creates a controller starting in SURVEY mode
func NewModeController(clk clock.Clock, idleAfter, popupAfter time.Duration, onSwitch func(auto bool), onChange func(ModeState)) *ModeController {
	return &ModeController{
		clk:        clk,
		idleAfter:  idleAfter,
		popupAfter: popupAfter,
		onSwitch:   onSwitch,
		onChange:   onChange,
		mode:       model.ModeSurvey,
		phase:      PopupNone,
	}
}

// State returns a snapshot of the current mode state
func (c *ModeController) State() ModeState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *ModeController) snapshotLocked() ModeState {
	return ModeState{Mode: c.mode, PopupPhase: c.phase, SecondsRemaining: c.seconds}
}

// Mode returns the current interaction mode
func (c *ModeController) Mode() model.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Toggle flips the interaction mode. Entering QA starts the idle countdown;
// entering SURVEY cancels all pending QA timers.
func (c *ModeController) Toggle() model.Mode {
	c.mu.Lock()
	var st ModeState
	if c.mode == model.ModeSurvey {
		c.mode = model.ModeQA
		c.startIdleLocked()
	} else {
		c.enterSurveyLocked()
	}
	st = c.snapshotLocked()
	mode := c.mode
	c.mu.Unlock()

	c.notify(st)
	return mode
}

// ResetCountdown restarts the idle countdown after a successful QA exchange.
// No-op unless the conversation is in QA with the idle countdown running.
func (c *ModeController) ResetCountdown() {
	c.mu.Lock()
	if c.mode != model.ModeQA || c.phase != PopupCountdown {
		c.mu.Unlock()
		return
	}
	c.startIdleLocked()
	st := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(st)
}

// ConfirmSwitch completes the popup's switch back to survey mode
func (c *ModeController) ConfirmSwitch() {
	c.switchFromPopup(false)
}

// DismissPopup keeps the user in QA mode and restarts the idle countdown
func (c *ModeController) DismissPopup() {
	c.mu.Lock()
	if c.phase != PopupActive {
		c.mu.Unlock()
		return
	}
	c.startIdleLocked()
	st := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(st)
}

// Close cancels all pending timers
func (c *ModeController) Close() {
	c.mu.Lock()
	c.cancelTimersLocked()
	c.mu.Unlock()
}

func (c *ModeController) switchFromPopup(auto bool) {
	c.mu.Lock()
	if c.mode != model.ModeQA || c.phase != PopupActive {
		c.mu.Unlock()
		return
	}
	c.enterSurveyLocked()
	st := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(st)
	if c.onSwitch != nil {
		c.onSwitch(auto)
	}
}

// startIdleLocked (re)starts the countdown to the popup
func (c *ModeController) startIdleLocked() {
	c.cancelTimersLocked()
	c.phase = PopupCountdown
	c.seconds = 0
	gen := c.gen
	c.idle = c.clk.AfterFunc(c.idleAfter, func() { c.idleElapsed(gen) })
}

func (c *ModeController) enterSurveyLocked() {
	c.cancelTimersLocked()
	c.mode = model.ModeSurvey
	c.phase = PopupNone
	c.seconds = 0
}

func (c *ModeController) cancelTimersLocked() {
	c.gen++
	if c.idle != nil {
		c.idle.Stop()
		c.idle = nil
	}
	if c.tick != nil {
		c.tick.Stop()
		c.tick = nil
	}
}

func (c *ModeController) idleElapsed(gen int) {
	c.mu.Lock()
	if gen != c.gen || c.mode != model.ModeQA || c.phase != PopupCountdown {
		c.mu.Unlock()
		return
	}
	c.phase = PopupActive
	c.seconds = int(c.popupAfter / time.Second)
	c.scheduleTickLocked(gen)
	st := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(st)
}

func (c *ModeController) scheduleTickLocked(gen int) {
	c.tick = c.clk.AfterFunc(time.Second, func() { c.tickElapsed(gen) })
}

func (c *ModeController) tickElapsed(gen int) {
	c.mu.Lock()
	if gen != c.gen || c.phase != PopupActive {
		c.mu.Unlock()
		return
	}
	c.seconds--
	if c.seconds <= 0 {
		c.seconds = 0
		c.mu.Unlock()
		c.switchFromPopup(true)
		return
	}
	c.scheduleTickLocked(gen)
	st := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(st)
}

func (c *ModeController) notify(st ModeState) {
	if c.onChange != nil {
		c.onChange(st)
	}
}
