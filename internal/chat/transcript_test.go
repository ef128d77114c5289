package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveychat/internal/model"
)

func TestTranscript_AppendPreservesOrder(t *testing.T) {
	tr := NewTranscript()
	tr.Append(model.DisplayMessage{ID: "1", Sender: model.SenderUser, Text: "halo"})
	tr.Append(model.DisplayMessage{ID: "2", Sender: model.SenderBot, Text: "hai"})
	tr.Append(model.DisplayMessage{ID: "3", Sender: model.SenderUser, Text: "siap"})

	msgs := tr.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{msgs[0].ID, msgs[1].ID, msgs[2].ID})
	assert.Equal(t, 3, tr.Len())
}

func TestTranscript_UpdateLastChecksSender(t *testing.T) {
	tr := NewTranscript()
	tr.Append(model.DisplayMessage{ID: "1", Sender: model.SenderBot, Text: "", Loading: true})

	text := "jawaban"
	loading := false
	ok := tr.UpdateLast(model.SenderBot, MessagePatch{Text: &text, Loading: &loading})
	require.True(t, ok)

	last, _ := tr.Last()
	assert.Equal(t, "jawaban", last.Text)
	assert.False(t, last.Loading)

	// A user message on top blocks bot-targeted updates.
	tr.Append(model.DisplayMessage{ID: "2", Sender: model.SenderUser, Text: "lanjut"})
	other := "tertimpa"
	ok = tr.UpdateLast(model.SenderBot, MessagePatch{Text: &other})
	assert.False(t, ok)
	last, _ = tr.Last()
	assert.Equal(t, "lanjut", last.Text)
}

func TestTranscript_UpdateLastOnEmpty(t *testing.T) {
	tr := NewTranscript()
	text := "x"
	assert.False(t, tr.UpdateLast(model.SenderBot, MessagePatch{Text: &text}))
}

func TestTranscript_UpdateByID(t *testing.T) {
	tr := NewTranscript()
	tr.Append(model.DisplayMessage{ID: "a", Sender: model.SenderBot})
	tr.Append(model.DisplayMessage{ID: "b", Sender: model.SenderBot})

	kind := model.KindQuestion
	code := "Q2"
	ok := tr.UpdateByID("a", MessagePatch{ResponseKind: &kind, QuestionCode: &code})
	require.True(t, ok)

	msg, found := tr.Get("a")
	require.True(t, found)
	assert.Equal(t, model.KindQuestion, msg.ResponseKind)
	assert.Equal(t, "Q2", msg.QuestionCode)

	// Untouched fields keep their values; missing ids are reported.
	other, _ := tr.Get("b")
	assert.Equal(t, model.KindNone, other.ResponseKind)
	assert.False(t, tr.UpdateByID("missing", MessagePatch{ResponseKind: &kind}))
}

func TestTranscript_PatchNilFieldsUntouched(t *testing.T) {
	tr := NewTranscript()
	tr.Append(model.DisplayMessage{
		ID:           "a",
		Sender:       model.SenderBot,
		Text:         "asli",
		ResponseKind: model.KindExpectedAnswer,
		Options:      []string{"Ya", "Tidak"},
	})

	loading := true
	require.True(t, tr.UpdateByID("a", MessagePatch{Loading: &loading}))

	msg, _ := tr.Get("a")
	assert.Equal(t, "asli", msg.Text)
	assert.Equal(t, model.KindExpectedAnswer, msg.ResponseKind)
	assert.Equal(t, []string{"Ya", "Tidak"}, msg.Options)
	assert.True(t, msg.Loading)
}

func TestTranscript_MessagesIsASnapshot(t *testing.T) {
	tr := NewTranscript()
	tr.Append(model.DisplayMessage{ID: "a", Sender: model.SenderBot, Text: "asli"})

	snap := tr.Messages()
	snap[0].Text = "dimodifikasi"

	msg, _ := tr.Get("a")
	assert.Equal(t, "asli", msg.Text)
}
