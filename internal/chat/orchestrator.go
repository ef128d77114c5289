package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"surveychat/internal/model"
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrBusy         = errors.New("a reply is still in progress")
)

// stopMarker is appended to whatever text was revealed when the user stops a
// reply animation.
const stopMarker = " [dihentikan]"

// switchFetchTimeout bounds the current-question fetch during a mode switch
const switchFetchTimeout = 10 * time.Second

// Backend is the survey/QA backend collaborator. All methods return the
// tagged-union payload shape.
type Backend interface {
	SubmitResponse(ctx context.Context, sessionID, text string) (*model.SurveyPayload, error)
	CurrentQuestion(ctx context.Context, sessionID string) (*model.SurveyPayload, error)
	QueryQA(ctx context.Context, text string) (*model.SurveyPayload, error)
	UpdateAnswer(ctx context.Context, sessionID, questionCode, text string) (*model.SurveyPayload, error)
}

// ProfileSink is the long-lived user-profile collaborator; it learns about
// survey session ids adopted by a conversation.
type ProfileSink interface {
	SessionChanged(ctx context.Context, conversationID, sessionID string) error
}

// Notifier pushes conversation events to the presentation layer
type Notifier interface {
	MessageAppended(conversationID string, msg model.DisplayMessage)
	MessageUpdated(conversationID string, msg model.DisplayMessage)
	ModeChanged(conversationID string, st ModeState)
	AutoScroll(conversationID string)
}

// ConversationConfig carries the timing knobs of one conversation
type ConversationConfig struct {
	IdleCountdown  time.Duration // QA inactivity before the switch popup
	PopupCountdown time.Duration // popup lifetime before the automatic switch
}

// Snapshot is the read-only view of a conversation for the presentation layer
type Snapshot struct {
	ID        string                 `json:"id"`
	SessionID string                 `json:"sessionId,omitempty"`
	Mode      ModeState              `json:"mode"`
	Messages  []model.DisplayMessage `json:"messages"`
}

// Conversation orchestrates one survey chat: it owns the transcript, drives
// the reveal animation and the mode machine, and talks to the backend. The
// presentation layer only reads snapshots and issues commands.
type Conversation struct {
	ID string

	logger   *zap.Logger
	backend  Backend
	profile  ProfileSink
	notifier Notifier

	transcript *Transcript
	animator   *Animator
	modes      *ModeController
	scroll     *ScrollCoordinator

	mu        sync.Mutex
	sessionID string
	busy      bool
	lastBotID string
}

// NewConversation wires a conversation. sessionID may be empty; the backend
// assigns one on survey auto-start and the conversation adopts it.
func NewConversation(id, sessionID string, backend Backend, profile ProfileSink, notifier Notifier, clk clock.Clock, cfg ConversationConfig, logger *zap.Logger) *Conversation {
	c := &Conversation{
		ID:         id,
		logger:     logger,
		backend:    backend,
		profile:    profile,
		notifier:   notifier,
		transcript: NewTranscript(),
		animator:   NewAnimator(clk),
		scroll:     NewScrollCoordinator(),
		sessionID:  sessionID,
	}
	c.modes = NewModeController(clk, cfg.IdleCountdown, cfg.PopupCountdown,
		c.handleModeSwitch,
		func(st ModeState) { notifier.ModeChanged(id, st) },
	)
	return c
}

// Snapshot returns the current transcript and mode state
func (c *Conversation) Snapshot() Snapshot {
	c.mu.Lock()
	sessionID := c.sessionID
	c.mu.Unlock()
	return Snapshot{
		ID:        c.ID,
		SessionID: sessionID,
		Mode:      c.modes.State(),
		Messages:  c.transcript.Messages(),
	}
}

// Transcript exposes the message store (read-mostly; the edit flow reads the
// cached question objects from it)
func (c *Conversation) Transcript() *Transcript {
	return c.transcript
}

// SendMessage runs the full send cycle: user entry, loading bot placeholder,
// backend call, parse, reveal animation, options on completion. Blank input
// and input while a reply is in flight are rejected. Backend failures are
// recovered locally as an error-kind bot message; they are not returned.
func (c *Conversation) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.busy = true
	sessionID := c.sessionID
	c.mu.Unlock()

	mode := c.modes.Mode()

	userMsg := model.DisplayMessage{
		ID:     uuid.NewString(),
		Text:   text,
		Sender: model.SenderUser,
		Mode:   mode,
	}
	c.appendMessage(userMsg)

	botID := c.appendPlaceholder(mode)

	var payload *model.SurveyPayload
	var err error
	if mode == model.ModeQA {
		payload, err = c.backend.QueryQA(ctx, text)
	} else {
		payload, err = c.backend.SubmitResponse(ctx, sessionID, text)
	}
	if err != nil {
		c.logger.Warn("backend call failed",
			zap.String("conversation", c.ID),
			zap.String("mode", string(mode)),
			zap.Error(err))
		c.installError(botID)
		return nil
	}

	c.adoptSession(ctx, payload.SessionID)

	parsed := Parse(payload)
	if mode == model.ModeQA {
		c.modes.ResetCountdown()
	}

	c.installReply(botID, parsed)
	c.animateReply(botID, parsed)
	return nil
}

// StopAnimation cancels the in-flight reveal of the latest bot reply. The
// revealed prefix stays in place with the stop marker appended; the marker is
// never sent back to the backend.
func (c *Conversation) StopAnimation() bool {
	c.mu.Lock()
	botID := c.lastBotID
	c.mu.Unlock()
	if botID == "" {
		return false
	}

	visible, ok := c.animator.Stop(botID)
	if !ok {
		return false
	}

	text := visible + stopMarker
	loading := false
	c.transcript.UpdateByID(botID, MessagePatch{Text: &text, Loading: &loading})
	if msg, ok := c.transcript.Get(botID); ok {
		c.notifier.MessageUpdated(c.ID, msg)
	}
	c.clearBusy()
	return true
}

// ToggleMode flips between SURVEY and QA
func (c *Conversation) ToggleMode() model.Mode {
	return c.modes.Toggle()
}

// ConfirmModeSwitch accepts the popup's switch back to survey mode
func (c *Conversation) ConfirmModeSwitch() {
	c.modes.ConfirmSwitch()
}

// DismissModePopup keeps the conversation in QA mode
func (c *Conversation) DismissModePopup() {
	c.modes.DismissPopup()
}

// ModeState returns the mode/popup snapshot
func (c *Conversation) ModeState() ModeState {
	return c.modes.State()
}

// ReportScroll records a client scroll position
func (c *Conversation) ReportScroll(offset, viewport, content float64) {
	c.scroll.ReportScroll(offset, viewport, content)
}

// SessionID returns the adopted survey session id
func (c *Conversation) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Close cancels all timers and animations
func (c *Conversation) Close() {
	c.animator.StopAll()
	c.modes.Close()
	c.clearBusy()
}

// handleModeSwitch synthesizes the switch announcement after a popup-driven
// transition into SURVEY. Mode consistency wins over message fidelity: a
// failed current-question fetch still yields the generic switch text.
func (c *Conversation) handleModeSwitch(auto bool) {
	c.mu.Lock()
	sessionID := c.sessionID
	c.busy = true
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), switchFetchTimeout)
	defer cancel()

	synth := &model.SurveyPayload{Info: "switched_to_survey"}
	payload, err := c.backend.CurrentQuestion(ctx, sessionID)
	if err != nil {
		c.logger.Warn("current question fetch failed during mode switch",
			zap.String("conversation", c.ID),
			zap.Bool("auto", auto),
			zap.Error(err))
	} else {
		synth.CurrentQuestion = payload.CurrentQuestion
		if synth.CurrentQuestion == nil {
			synth.CurrentQuestion = payload.NextQuestion
		}
	}

	parsed := Parse(synth)
	botID := c.appendPlaceholder(model.ModeSurvey)
	c.installReply(botID, parsed)
	c.animateReply(botID, parsed)
}

// appendMessage appends and broadcasts a finished message
func (c *Conversation) appendMessage(msg model.DisplayMessage) {
	c.transcript.Append(msg)
	c.notifier.MessageAppended(c.ID, msg)
	if c.scroll.Pinned() {
		c.notifier.AutoScroll(c.ID)
	}
}

// appendPlaceholder appends the loading bot message that the reply animates
// into
func (c *Conversation) appendPlaceholder(mode model.Mode) string {
	bot := model.DisplayMessage{
		ID:      uuid.NewString(),
		Sender:  model.SenderBot,
		Mode:    mode,
		Loading: true,
	}
	c.transcript.Append(bot)
	c.mu.Lock()
	c.lastBotID = bot.ID
	c.mu.Unlock()
	c.notifier.MessageAppended(c.ID, bot)
	return bot.ID
}

// installReply installs the parsed metadata on the placeholder. Text stays
// empty and Loading true until the first animation step; Options are withheld
// until the animation completes.
func (c *Conversation) installReply(botID string, parsed model.DisplayMessage) {
	patch := MessagePatch{
		ResponseKind: &parsed.ResponseKind,
		Citation:     &parsed.Citation,
	}
	if parsed.Question != nil {
		patch.Question = parsed.Question
		patch.QuestionCode = &parsed.QuestionCode
	}
	c.transcript.UpdateByID(botID, patch)
}

// installError substitutes the fixed apologetic message without animation
func (c *Conversation) installError(botID string) {
	text := textBackendError
	loading := false
	kind := model.KindError
	c.transcript.UpdateByID(botID, MessagePatch{Text: &text, Loading: &loading, ResponseKind: &kind})
	if msg, ok := c.transcript.Get(botID); ok {
		c.notifier.MessageUpdated(c.ID, msg)
	}
	c.clearBusy()
}

// animateReply drives the reveal of a parsed reply onto the placeholder
func (c *Conversation) animateReply(botID string, parsed model.DisplayMessage) {
	options := parsed.Options
	c.animator.Animate(botID, parsed.Text,
		func(visible string) {
			loading := false
			c.transcript.UpdateByID(botID, MessagePatch{Text: &visible, Loading: &loading})
			if msg, ok := c.transcript.Get(botID); ok {
				c.notifier.MessageUpdated(c.ID, msg)
			}
		},
		func() {
			if len(options) > 0 {
				c.transcript.UpdateByID(botID, MessagePatch{Options: options})
			}
			loading := false
			c.transcript.UpdateByID(botID, MessagePatch{Loading: &loading})
			if msg, ok := c.transcript.Get(botID); ok {
				c.notifier.MessageUpdated(c.ID, msg)
			}
			if c.scroll.Pinned() {
				c.notifier.AutoScroll(c.ID)
			}
			c.clearBusy()
		},
	)
}

// adoptSession stores a backend-assigned session id and propagates it to the
// profile collaborator, exactly once per change.
func (c *Conversation) adoptSession(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	c.mu.Lock()
	if c.sessionID == sessionID {
		c.mu.Unlock()
		return
	}
	c.sessionID = sessionID
	c.mu.Unlock()

	if c.profile == nil {
		return
	}
	if err := c.profile.SessionChanged(ctx, c.ID, sessionID); err != nil {
		c.logger.Warn("profile session propagation failed",
			zap.String("conversation", c.ID),
			zap.Error(err))
	}
}

func (c *Conversation) clearBusy() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}
