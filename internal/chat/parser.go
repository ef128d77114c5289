package chat

import (
	"strings"

	"surveychat/internal/model"
)

// Fallback and fixed texts. The backend speaks Indonesian to respondents, so
// the locally synthesized texts do too.
const (
	textGenericFallback = "Silakan lanjutkan survei Anda."
	textCompleted       = "Terima kasih, survei Anda telah selesai."
	textNoNextQuestion  = "Tidak ada pertanyaan berikutnya. Silakan lanjutkan survei Anda."
	textClarifyFallback = "Mohon jawab sesuai dengan pertanyaan yang diberikan."
	textResumePrefix    = "Melanjutkan pertanyaan terakhir:"
	textNotReady        = `Survei belum dimulai. Ketik "siap" untuk memulai survei.`
	textBackendError    = "Maaf, terjadi kesalahan pada sistem. Silakan coba lagi."
	textSwitched        = "Anda telah beralih ke mode survei."
)

// Parse turns a raw backend payload into a displayable message. It is total:
// every payload shape, including unrecognized or partial ones, yields a
// message with non-empty text. The caller owns ID, Sender, Mode and Loading.
func Parse(p *model.SurveyPayload) model.DisplayMessage {
	switch ev := p.Decode().(type) {
	case model.SurveyCompleted:
		text := ev.Notice
		if text == "" {
			text = textCompleted
		}
		return model.DisplayMessage{Text: text, ResponseKind: model.KindSurveyCompleted}

	case model.ExpectedAnswer:
		if ev.Next == nil {
			return model.DisplayMessage{Text: textNoNextQuestion, ResponseKind: model.KindExpectedAnswer}
		}
		return withQuestion(model.DisplayMessage{
			Text:         ev.Next.Text,
			ResponseKind: model.KindExpectedAnswer,
		}, ev.Next)

	case model.UnexpectedAnswer:
		if ev.Current == nil || ev.Reason == "" || ev.FollowUp == "" {
			return model.DisplayMessage{Text: textClarifyFallback, ResponseKind: model.KindUnexpectedAnswer}
		}
		// Follow-up text is shown for every question code uniformly.
		return withQuestion(model.DisplayMessage{
			Text:         ev.Reason + "\n\n" + ev.FollowUp,
			ResponseKind: model.KindUnexpectedAnswer,
		}, ev.Current)

	case model.QuestionInfo:
		return parseQuestionInfo(ev)

	case model.SurveyStarted:
		text := ev.Intro
		if text == "" {
			text = textGenericFallback
		}
		msg := model.DisplayMessage{Text: text, ResponseKind: model.KindSurveyStarted}
		if ev.First != nil {
			msg.Text = text + "\n\n" + ev.First.Text
			msg = withQuestion(msg, ev.First)
		}
		return msg

	case model.NotReady:
		text := ev.System
		if text == "" {
			text = textNotReady
		}
		return model.DisplayMessage{Text: text, ResponseKind: model.KindNotReady}

	case model.ErrorInfo:
		text := ev.Detail
		if text == "" {
			text = textBackendError
		}
		return model.DisplayMessage{Text: text, ResponseKind: model.KindError}

	case model.SwitchedToSurvey:
		msg := model.DisplayMessage{Text: textSwitched, ResponseKind: model.KindSwitchedToSurvey}
		if ev.Current != nil {
			msg.Text = textSwitched + "\n\n" + ev.Current.Text
			msg = withQuestion(msg, ev.Current)
		}
		return msg

	case model.QAAnswer:
		ex := ExtractCitation(ev.Answer, nil)
		return model.DisplayMessage{
			Text:         ex.DisplayText(),
			ResponseKind: model.KindQAResponse,
			Citation:     ex.Citation,
		}

	case model.AnswerUpdated:
		text := ev.System
		if text == "" {
			text = "Jawaban Anda telah diperbarui."
		}
		msg := model.DisplayMessage{Text: text, ResponseKind: model.KindAnswerUpdated}
		if ev.Current != nil {
			msg = withQuestion(msg, ev.Current)
		}
		return msg

	default:
		return model.DisplayMessage{Text: textGenericFallback}
	}
}

// parseQuestionInfo is the richest branch: a free-text answer with the
// citation grammar, or a system-message continuation resuming the last
// question.
func parseQuestionInfo(ev model.QuestionInfo) model.DisplayMessage {
	if ev.Answer != "" {
		ex := ExtractCitation(ev.Answer, ev.Current)
		msg := model.DisplayMessage{
			Text:         ex.DisplayText(),
			ResponseKind: model.KindQuestion,
			Citation:     ex.Citation,
		}
		if ev.Current != nil {
			msg.QuestionCode = ev.Current.Code
			msg.Question = ev.Current
		}
		return msg
	}

	if ev.System != "" && ev.Current != nil {
		return withQuestion(model.DisplayMessage{
			Text:         strings.TrimSpace(ev.System) + "\n\n" + textResumePrefix + "\n" + ev.Current.Text,
			ResponseKind: model.KindQuestion,
		}, ev.Current)
	}

	return model.DisplayMessage{Text: textGenericFallback, ResponseKind: model.KindQuestion}
}

// withQuestion attaches a question object and its selectable options
func withQuestion(msg model.DisplayMessage, q *model.Question) model.DisplayMessage {
	msg.QuestionCode = q.Code
	msg.Question = q
	if len(q.Options) > 0 {
		msg.Options = append([]string(nil), q.Options...)
	}
	return msg
}
