package service

import (
	"context"
	"errors"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"surveychat/internal/cache"
	"surveychat/internal/chat"
	"surveychat/internal/config"
	"surveychat/internal/model"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrEditNotFound         = errors.New("edit session not found")
)

// ConversationService owns the live conversations and edit sessions of this
// instance. Hot session state (survey session id, mode) is mirrored into
// Redis so reconnecting clients resume where they left off.
//
// The service also implements chat.Notifier: it forwards engine events to the
// broadcaster injected via SetNotifier and keeps the cache mirror current.
type ConversationService struct {
	backend   chat.Backend
	profile   chat.ProfileSink
	convCache cache.ConversationCache
	clk       clock.Clock
	cfg       chat.ConversationConfig
	logger    *zap.Logger

	notifier chat.Notifier

	mu            sync.RWMutex
	conversations map[string]*chat.Conversation
	participants  map[string]string // conversationID -> participantID
	edits         map[string]*chat.EditSession
}

// NewConversationService creates a new conversation service
func NewConversationService(backend chat.Backend, profile chat.ProfileSink, convCache cache.ConversationCache, clk clock.Clock, cfg *config.Config, logger *zap.Logger) *ConversationService {
	return &ConversationService{
		backend:   backend,
		profile:   profile,
		convCache: convCache,
		clk:       clk,
		cfg: chat.ConversationConfig{
			IdleCountdown:  cfg.IdleCountdown,
			PopupCountdown: cfg.PopupCountdown,
		},
		logger:        logger,
		conversations: make(map[string]*chat.Conversation),
		participants:  make(map[string]string),
		edits:         make(map[string]*chat.EditSession),
	}
}

// SetNotifier sets the broadcaster for conversation events
func (s *ConversationService) SetNotifier(n chat.Notifier) {
	s.notifier = n
}

// Create starts a new conversation for a participant
func (s *ConversationService) Create(ctx context.Context, participantID string) (chat.Snapshot, error) {
	id := uuid.NewString()
	conv := chat.NewConversation(id, "", s.backend, s.profile, s, s.clk, s.cfg, s.logger)

	s.mu.Lock()
	s.conversations[id] = conv
	s.participants[id] = participantID
	s.mu.Unlock()

	if err := s.convCache.Set(ctx, &cache.ConversationState{
		ConversationID: id,
		ParticipantID:  participantID,
		Mode:           model.ModeSurvey,
	}); err != nil {
		s.logger.Warn("conversation cache write failed", zap.String("conversation", id), zap.Error(err))
	}

	return conv.Snapshot(), nil
}

// Resume rebuilds a conversation from its cached session state, for clients
// reconnecting after an instance restart. The live conversation wins when one
// already exists; the cached participant binding must match. The rebuilt
// conversation carries the cached survey session id and mode, with an empty
// transcript (the transcript itself is not persisted).
func (s *ConversationService) Resume(ctx context.Context, conversationID, participantID string) (chat.Snapshot, error) {
	s.mu.RLock()
	conv, ok := s.conversations[conversationID]
	s.mu.RUnlock()
	if ok {
		return conv.Snapshot(), nil
	}

	state, err := s.convCache.Get(ctx, conversationID)
	if err != nil {
		s.logger.Warn("conversation cache read failed", zap.String("conversation", conversationID), zap.Error(err))
		return chat.Snapshot{}, ErrConversationNotFound
	}
	if state == nil || state.ParticipantID != participantID {
		return chat.Snapshot{}, ErrConversationNotFound
	}

	conv = chat.NewConversation(conversationID, state.SessionID, s.backend, s.profile, s, s.clk, s.cfg, s.logger)
	if state.Mode == model.ModeQA {
		conv.ToggleMode()
	}

	s.mu.Lock()
	if existing, ok := s.conversations[conversationID]; ok {
		// Another request resumed it first.
		conv.Close()
		conv = existing
	} else {
		s.conversations[conversationID] = conv
		s.participants[conversationID] = participantID
	}
	s.mu.Unlock()

	return conv.Snapshot(), nil
}

// Get returns a live conversation
func (s *ConversationService) Get(conversationID string) (*chat.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[conversationID]
	if !ok {
		return nil, ErrConversationNotFound
	}
	return conv, nil
}

// Snapshot returns the transcript and mode state of a conversation
func (s *ConversationService) Snapshot(conversationID string) (chat.Snapshot, error) {
	conv, err := s.Get(conversationID)
	if err != nil {
		return chat.Snapshot{}, err
	}
	return conv.Snapshot(), nil
}

// SendMessage forwards a user message into the conversation
func (s *ConversationService) SendMessage(ctx context.Context, conversationID, text string) error {
	conv, err := s.Get(conversationID)
	if err != nil {
		return err
	}
	if err := conv.SendMessage(ctx, text); err != nil {
		return err
	}
	s.mirrorState(ctx, conv)
	return nil
}

// StopAnimation stops the in-flight reveal of the latest bot reply
func (s *ConversationService) StopAnimation(conversationID string) (bool, error) {
	conv, err := s.Get(conversationID)
	if err != nil {
		return false, err
	}
	return conv.StopAnimation(), nil
}

// ToggleMode flips the interaction mode
func (s *ConversationService) ToggleMode(ctx context.Context, conversationID string) (chat.ModeState, error) {
	conv, err := s.Get(conversationID)
	if err != nil {
		return chat.ModeState{}, err
	}
	conv.ToggleMode()
	s.mirrorState(ctx, conv)
	return conv.ModeState(), nil
}

// ConfirmSwitch accepts the popup's switch back to survey mode
func (s *ConversationService) ConfirmSwitch(ctx context.Context, conversationID string) error {
	conv, err := s.Get(conversationID)
	if err != nil {
		return err
	}
	conv.ConfirmModeSwitch()
	s.mirrorState(ctx, conv)
	return nil
}

// DismissPopup keeps the conversation in QA mode
func (s *ConversationService) DismissPopup(conversationID string) error {
	conv, err := s.Get(conversationID)
	if err != nil {
		return err
	}
	conv.DismissModePopup()
	return nil
}

// ReportScroll records a client scroll position
func (s *ConversationService) ReportScroll(conversationID string, offset, viewport, content float64) error {
	conv, err := s.Get(conversationID)
	if err != nil {
		return err
	}
	conv.ReportScroll(offset, viewport, content)
	return nil
}

// Close tears down a conversation and its cached state
func (s *ConversationService) Close(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	conv, ok := s.conversations[conversationID]
	delete(s.conversations, conversationID)
	delete(s.participants, conversationID)
	s.mu.Unlock()
	if !ok {
		return ErrConversationNotFound
	}

	conv.Close()
	if err := s.convCache.Delete(ctx, conversationID); err != nil {
		s.logger.Warn("conversation cache delete failed", zap.String("conversation", conversationID), zap.Error(err))
	}
	return nil
}

// StartEdit opens an answer-correction session for one question of a
// conversation
func (s *ConversationService) StartEdit(conversationID string, question model.Question) (chat.EditSnapshot, error) {
	conv, err := s.Get(conversationID)
	if err != nil {
		return chat.EditSnapshot{}, err
	}

	id := uuid.NewString()
	edit := chat.NewEditSession(id, conv.SessionID(), question, s.backend, s, s.logger, func() {
		s.logger.Info("answer updated",
			zap.String("conversation", conversationID),
			zap.String("question", question.Code))
	})

	s.mu.Lock()
	s.edits[id] = edit
	s.mu.Unlock()

	return edit.Snapshot(), nil
}

// SubmitCorrection forwards a correction into an edit session
func (s *ConversationService) SubmitCorrection(ctx context.Context, editID, text string) (chat.EditSnapshot, error) {
	s.mu.RLock()
	edit, ok := s.edits[editID]
	s.mu.RUnlock()
	if !ok {
		return chat.EditSnapshot{}, ErrEditNotFound
	}
	if err := edit.SubmitCorrection(ctx, text); err != nil {
		return chat.EditSnapshot{}, err
	}
	return edit.Snapshot(), nil
}

// CloseEdit discards an edit session
func (s *ConversationService) CloseEdit(editID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.edits[editID]; !ok {
		return ErrEditNotFound
	}
	delete(s.edits, editID)
	return nil
}

// mirrorState refreshes the cached session id and mode, best effort
func (s *ConversationService) mirrorState(ctx context.Context, conv *chat.Conversation) {
	s.mu.RLock()
	participantID := s.participants[conv.ID]
	s.mu.RUnlock()

	if err := s.convCache.Set(ctx, &cache.ConversationState{
		ConversationID: conv.ID,
		ParticipantID:  participantID,
		SessionID:      conv.SessionID(),
		Mode:           conv.ModeState().Mode,
	}); err != nil {
		s.logger.Warn("conversation cache write failed", zap.String("conversation", conv.ID), zap.Error(err))
	}
}

// chat.Notifier implementation: forward to the injected broadcaster.

func (s *ConversationService) MessageAppended(conversationID string, msg model.DisplayMessage) {
	if s.notifier != nil {
		s.notifier.MessageAppended(conversationID, msg)
	}
}

func (s *ConversationService) MessageUpdated(conversationID string, msg model.DisplayMessage) {
	if s.notifier != nil {
		s.notifier.MessageUpdated(conversationID, msg)
	}
}

func (s *ConversationService) ModeChanged(conversationID string, st chat.ModeState) {
	if s.notifier != nil {
		s.notifier.ModeChanged(conversationID, st)
	}
}

func (s *ConversationService) AutoScroll(conversationID string) {
	if s.notifier != nil {
		s.notifier.AutoScroll(conversationID)
	}
}
