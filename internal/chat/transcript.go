package chat

import (
	"sync"

	"surveychat/internal/model"
)

// MessagePatch describes an in-place update to a transcript message. Nil
// pointer fields leave the corresponding message field untouched.
type MessagePatch struct {
	Text         *string
	Loading      *bool
	ResponseKind *model.ResponseKind
	QuestionCode *string
	Question     *model.Question
	Options      []string
	Citation     *string
}

func (p *MessagePatch) apply(m *model.DisplayMessage) {
	if p.Text != nil {
		m.Text = *p.Text
	}
	if p.Loading != nil {
		m.Loading = *p.Loading
	}
	if p.ResponseKind != nil {
		m.ResponseKind = *p.ResponseKind
	}
	if p.QuestionCode != nil {
		m.QuestionCode = *p.QuestionCode
	}
	if p.Question != nil {
		m.Question = p.Question
	}
	if p.Options != nil {
		m.Options = p.Options
	}
	if p.Citation != nil {
		m.Citation = *p.Citation
	}
}

// Transcript is the ordered message list of one conversation. Order is
// append-only; existing entries are only ever mutated in place, never
// reordered or removed.
type Transcript struct {
	mu   sync.RWMutex
	msgs []model.DisplayMessage
}

// NewTranscript creates an empty transcript
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append adds a message to the end of the transcript
func (t *Transcript) Append(msg model.DisplayMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.msgs = append(t.msgs, msg)
}

// UpdateLast patches the most recent message, but only if it was produced by
// the given sender. Otherwise it is a no-op and returns false.
func (t *Transcript) UpdateLast(sender model.Sender, patch MessagePatch) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.msgs) == 0 {
		return false
	}
	last := &t.msgs[len(t.msgs)-1]
	if last.Sender != sender {
		return false
	}
	patch.apply(last)
	return true
}

// UpdateByID patches the message with the given id. Returns false if no such
// message exists.
func (t *Transcript) UpdateByID(id string, patch MessagePatch) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.msgs {
		if t.msgs[i].ID == id {
			patch.apply(&t.msgs[i])
			return true
		}
	}
	return false
}

// Get returns a copy of the message with the given id
func (t *Transcript) Get(id string) (model.DisplayMessage, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := range t.msgs {
		if t.msgs[i].ID == id {
			return t.msgs[i], true
		}
	}
	return model.DisplayMessage{}, false
}

// Last returns a copy of the most recent message
func (t *Transcript) Last() (model.DisplayMessage, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.msgs) == 0 {
		return model.DisplayMessage{}, false
	}
	return t.msgs[len(t.msgs)-1], true
}

// Messages returns a snapshot copy of the whole transcript
func (t *Transcript) Messages() []model.DisplayMessage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]model.DisplayMessage, len(t.msgs))
	copy(out, t.msgs)
	return out
}

// Len returns the number of messages
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.msgs)
}
