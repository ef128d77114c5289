package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"surveychat/internal/model"
)

// ErrEditCompleted rejects corrections after the answer has been updated
var ErrEditCompleted = errors.New("edit session already completed")

// EditSession is a reduced orchestrator bound to one question code: an
// isolated transcript seeded with the question, one free-form correction per
// turn, and the same parsing branches as the main conversation. Responses
// render immediately; there is no reveal animation and no mode machine.
type EditSession struct {
	ID           string
	QuestionCode string

	backend  Backend
	notifier Notifier
	logger   *zap.Logger
	onDone   func()

	transcript *Transcript

	mu        sync.Mutex
	sessionID string
	busy      bool
	done      bool
}

// EditSnapshot is the read-only view of an edit session
type EditSnapshot struct {
	ID           string                 `json:"id"`
	QuestionCode string                 `json:"questionCode"`
	Done         bool                   `json:"done"`
	Messages     []model.DisplayMessage `json:"messages"`
}

// NewEditSession seeds the isolated transcript with the question being
// corrected. onDone fires once, when the backend confirms the update, so the
// caller can close the sub-session and refresh its answer listing.
func NewEditSession(id, sessionID string, question model.Question, backend Backend, notifier Notifier, logger *zap.Logger, onDone func()) *EditSession {
	e := &EditSession{
		ID:           id,
		QuestionCode: question.Code,
		backend:      backend,
		notifier:     notifier,
		logger:       logger,
		onDone:       onDone,
		transcript:   NewTranscript(),
		sessionID:    sessionID,
	}

	seed := model.DisplayMessage{
		ID:           uuid.NewString(),
		Text:         question.Text,
		Sender:       model.SenderBot,
		Mode:         model.ModeSurvey,
		ResponseKind: model.KindQuestion,
		QuestionCode: question.Code,
		Question:     &question,
	}
	e.transcript.Append(seed)
	return e
}

// Snapshot returns the edit transcript and completion state
func (e *EditSession) Snapshot() EditSnapshot {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	return EditSnapshot{
		ID:           e.ID,
		QuestionCode: e.QuestionCode,
		Done:         done,
		Messages:     e.transcript.Messages(),
	}
}

// Done reports whether the correction has been accepted
func (e *EditSession) Done() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done
}

// SubmitCorrection sends one free-form correction for the bound question and
// renders the backend's verdict immediately. Backend failures become an
// error-kind transcript entry, not a returned error.
func (e *EditSession) SubmitCorrection(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	e.mu.Lock()
	if e.done {
		e.mu.Unlock()
		return ErrEditCompleted
	}
	if e.busy {
		e.mu.Unlock()
		return ErrBusy
	}
	e.busy = true
	sessionID := e.sessionID
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.busy = false
		e.mu.Unlock()
	}()

	e.append(model.DisplayMessage{
		ID:     uuid.NewString(),
		Text:   text,
		Sender: model.SenderUser,
		Mode:   model.ModeSurvey,
	})

	payload, err := e.backend.UpdateAnswer(ctx, sessionID, e.QuestionCode, text)
	if err != nil {
		e.logger.Warn("answer update failed",
			zap.String("edit", e.ID),
			zap.String("question", e.QuestionCode),
			zap.Error(err))
		e.append(model.DisplayMessage{
			ID:           uuid.NewString(),
			Text:         textBackendError,
			Sender:       model.SenderBot,
			Mode:         model.ModeSurvey,
			ResponseKind: model.KindError,
		})
		return nil
	}

	parsed := Parse(payload)
	parsed.ID = uuid.NewString()
	parsed.Sender = model.SenderBot
	parsed.Mode = model.ModeSurvey
	e.append(parsed)

	if parsed.ResponseKind == model.KindAnswerUpdated {
		e.mu.Lock()
		e.done = true
		e.mu.Unlock()
		if e.onDone != nil {
			e.onDone()
		}
	}
	return nil
}

func (e *EditSession) append(msg model.DisplayMessage) {
	e.transcript.Append(msg)
	if e.notifier != nil {
		e.notifier.MessageAppended(e.ID, msg)
	}
}
