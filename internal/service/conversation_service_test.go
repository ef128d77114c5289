package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"surveychat/internal/cache"
	"surveychat/internal/chat"
	"surveychat/internal/config"
	"surveychat/internal/model"
)

// memoryCache is an in-process stand-in for the Redis conversation cache
type memoryCache struct {
	mu     sync.Mutex
	states map[string]*cache.ConversationState
}

func newMemoryCache() *memoryCache {
	return &memoryCache{states: make(map[string]*cache.ConversationState)}
}

func (m *memoryCache) Set(ctx context.Context, state *cache.ConversationState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *state
	m.states[state.ConversationID] = &cp
	return nil
}

func (m *memoryCache) Get(ctx context.Context, conversationID string) (*cache.ConversationState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[conversationID]
	if !ok {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

func (m *memoryCache) Delete(ctx context.Context, conversationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, conversationID)
	return nil
}

// stubBackend answers every endpoint with a fixed payload
type stubBackend struct {
	payload *model.SurveyPayload
}

func (s *stubBackend) SubmitResponse(ctx context.Context, sessionID, text string) (*model.SurveyPayload, error) {
	return s.payload, nil
}

func (s *stubBackend) CurrentQuestion(ctx context.Context, sessionID string) (*model.SurveyPayload, error) {
	return s.payload, nil
}

func (s *stubBackend) QueryQA(ctx context.Context, text string) (*model.SurveyPayload, error) {
	return s.payload, nil
}

func (s *stubBackend) UpdateAnswer(ctx context.Context, sessionID, questionCode, text string) (*model.SurveyPayload, error) {
	return s.payload, nil
}

type stubProfile struct{}

func (stubProfile) SessionChanged(ctx context.Context, conversationID, sessionID string) error {
	return nil
}

func newTestService(backend chat.Backend, mc *memoryCache, mock *clock.Mock) *ConversationService {
	cfg := &config.Config{
		IdleCountdown:  10 * time.Second,
		PopupCountdown: 5 * time.Second,
	}
	return NewConversationService(backend, stubProfile{}, mc, mock, cfg, zap.NewNop())
}

func TestConversationService_CreateAndGet(t *testing.T) {
	mc := newMemoryCache()
	svc := newTestService(&stubBackend{}, mc, clock.NewMock())

	snap, err := svc.Create(context.Background(), "participant-1")
	require.NoError(t, err)
	require.NotEmpty(t, snap.ID)
	assert.Equal(t, model.ModeSurvey, snap.Mode.Mode)
	assert.Empty(t, snap.Messages)

	conv, err := svc.Get(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, conv.ID)

	// The cache mirror carries the participant binding from the start.
	st, err := mc.Get(context.Background(), snap.ID)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, "participant-1", st.ParticipantID)
	assert.Equal(t, model.ModeSurvey, st.Mode)
}

func TestConversationService_GetUnknown(t *testing.T) {
	svc := newTestService(&stubBackend{}, newMemoryCache(), clock.NewMock())

	_, err := svc.Get("missing")
	assert.ErrorIs(t, err, ErrConversationNotFound)

	_, err = svc.Snapshot("missing")
	assert.ErrorIs(t, err, ErrConversationNotFound)

	err = svc.SendMessage(context.Background(), "missing", "halo")
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestConversationService_SendMessageMirrorsSession(t *testing.T) {
	backend := &stubBackend{payload: &model.SurveyPayload{
		Info:          "survey_started",
		SessionID:     "sess-7",
		SystemMessage: "Mulai.",
	}}
	mc := newMemoryCache()
	mock := clock.NewMock()
	svc := newTestService(backend, mc, mock)

	snap, err := svc.Create(context.Background(), "participant-1")
	require.NoError(t, err)

	require.NoError(t, svc.SendMessage(context.Background(), snap.ID, "siap"))

	st, err := mc.Get(context.Background(), snap.ID)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, "sess-7", st.SessionID)
}

func TestConversationService_ToggleModeMirrorsMode(t *testing.T) {
	mc := newMemoryCache()
	svc := newTestService(&stubBackend{}, mc, clock.NewMock())

	snap, err := svc.Create(context.Background(), "participant-1")
	require.NoError(t, err)

	st, err := svc.ToggleMode(context.Background(), snap.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ModeQA, st.Mode)

	cached, err := mc.Get(context.Background(), snap.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ModeQA, cached.Mode)
}

func TestConversationService_ResumeRestoresCachedState(t *testing.T) {
	backend := &stubBackend{payload: &model.SurveyPayload{
		Info:          "survey_started",
		SessionID:     "sess-7",
		SystemMessage: "Mulai.",
	}}
	mc := newMemoryCache()
	svc1 := newTestService(backend, mc, clock.NewMock())

	snap, err := svc1.Create(context.Background(), "participant-1")
	require.NoError(t, err)
	require.NoError(t, svc1.SendMessage(context.Background(), snap.ID, "siap"))
	_, err = svc1.ToggleMode(context.Background(), snap.ID)
	require.NoError(t, err)

	// A fresh service sharing the cache stands in for a restarted instance.
	svc2 := newTestService(backend, mc, clock.NewMock())

	resumed, err := svc2.Resume(context.Background(), snap.ID, "participant-1")
	require.NoError(t, err)
	assert.Equal(t, snap.ID, resumed.ID)
	assert.Equal(t, "sess-7", resumed.SessionID)
	assert.Equal(t, model.ModeQA, resumed.Mode.Mode)
	assert.Empty(t, resumed.Messages)

	// The resumed conversation is live on the new instance.
	conv, err := svc2.Get(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, "sess-7", conv.SessionID())
}

func TestConversationService_ResumeLiveConversation(t *testing.T) {
	svc := newTestService(&stubBackend{}, newMemoryCache(), clock.NewMock())

	snap, err := svc.Create(context.Background(), "participant-1")
	require.NoError(t, err)

	resumed, err := svc.Resume(context.Background(), snap.ID, "participant-1")
	require.NoError(t, err)
	assert.Equal(t, snap.ID, resumed.ID)
}

func TestConversationService_ResumeRejectsWrongParticipant(t *testing.T) {
	mc := newMemoryCache()
	svc1 := newTestService(&stubBackend{}, mc, clock.NewMock())

	snap, err := svc1.Create(context.Background(), "participant-1")
	require.NoError(t, err)

	svc2 := newTestService(&stubBackend{}, mc, clock.NewMock())

	_, err = svc2.Resume(context.Background(), snap.ID, "participant-2")
	assert.ErrorIs(t, err, ErrConversationNotFound)

	_, err = svc2.Resume(context.Background(), "missing", "participant-1")
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestConversationService_CloseRemovesEverything(t *testing.T) {
	mc := newMemoryCache()
	svc := newTestService(&stubBackend{}, mc, clock.NewMock())

	snap, err := svc.Create(context.Background(), "participant-1")
	require.NoError(t, err)

	require.NoError(t, svc.Close(context.Background(), snap.ID))

	_, err = svc.Get(snap.ID)
	assert.ErrorIs(t, err, ErrConversationNotFound)

	st, err := mc.Get(context.Background(), snap.ID)
	require.NoError(t, err)
	assert.Nil(t, st)

	assert.ErrorIs(t, svc.Close(context.Background(), snap.ID), ErrConversationNotFound)
}

func TestConversationService_EditLifecycle(t *testing.T) {
	backend := &stubBackend{payload: &model.SurveyPayload{
		Info:          "answer_updated",
		SystemMessage: "Diperbarui.",
	}}
	svc := newTestService(backend, newMemoryCache(), clock.NewMock())

	snap, err := svc.Create(context.Background(), "participant-1")
	require.NoError(t, err)

	question := model.Question{Code: "Q2", Text: "Berapa lama Anda menginap?"}
	editSnap, err := svc.StartEdit(snap.ID, question)
	require.NoError(t, err)
	require.Len(t, editSnap.Messages, 1)
	assert.Equal(t, "Q2", editSnap.QuestionCode)

	editSnap, err = svc.SubmitCorrection(context.Background(), editSnap.ID, "tiga malam")
	require.NoError(t, err)
	assert.True(t, editSnap.Done)

	require.NoError(t, svc.CloseEdit(editSnap.ID))
	assert.ErrorIs(t, svc.CloseEdit(editSnap.ID), ErrEditNotFound)

	_, err = svc.SubmitCorrection(context.Background(), editSnap.ID, "lagi")
	assert.ErrorIs(t, err, ErrEditNotFound)
}

func TestConversationService_StartEditUnknownConversation(t *testing.T) {
	svc := newTestService(&stubBackend{}, newMemoryCache(), clock.NewMock())

	_, err := svc.StartEdit("missing", model.Question{Code: "Q1"})
	assert.ErrorIs(t, err, ErrConversationNotFound)
}
