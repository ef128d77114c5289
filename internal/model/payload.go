package model

// SurveyPayload is the raw tagged-union response of the survey/QA backend.
// Which of the optional fields are populated depends on the Info discriminant
// (or, with Info absent, on Answer being present for QA replies).
type SurveyPayload struct {
	Info                string    `json:"info,omitempty"`
	Answer              string    `json:"answer,omitempty"`
	SystemMessage       string    `json:"system_message,omitempty"`
	AdditionalInfo      string    `json:"additional_info,omitempty"`
	SessionID           string    `json:"session_id,omitempty"`
	NextQuestion        *Question `json:"next_question,omitempty"`
	CurrentQuestion     *Question `json:"currentQuestion,omitempty"`
	ClarificationReason string    `json:"clarification_reason,omitempty"`
	FollowUpQuestion    string    `json:"follow_up_question,omitempty"`
}

// ResponseEvent is the closed sum decoded from a SurveyPayload. Exactly one
// variant exists per recognized Info value, plus the bare-answer QA variant
// and a catch-all for anything else, so the parser can switch exhaustively
// instead of probing field presence.
type ResponseEvent interface {
	responseEvent()
}

// SurveyCompleted signals the survey has finished.
type SurveyCompleted struct {
	Notice string
}

// ExpectedAnswer acknowledges an accepted answer and carries the next question.
type ExpectedAnswer struct {
	Next *Question
}

// UnexpectedAnswer flags an answer that needs clarification.
type UnexpectedAnswer struct {
	Current  *Question
	Reason   string
	FollowUp string
}

// QuestionInfo answers a mid-survey question about the current question, or
// resumes the last question when only a system message is present.
type QuestionInfo struct {
	Answer  string
	System  string
	Current *Question
}

// SurveyStarted opens the survey, optionally with the first question.
type SurveyStarted struct {
	Intro string
	First *Question
}

// NotReady tells the respondent the survey has not started yet.
type NotReady struct {
	System string
}

// ErrorInfo carries a backend-reported error.
type ErrorInfo struct {
	Detail string
}

// SwitchedToSurvey confirms a QA-to-survey mode switch.
type SwitchedToSurvey struct {
	Current *Question
}

// QAAnswer is a free-form QA reply (no Info discriminant).
type QAAnswer struct {
	Answer string
}

// AnswerUpdated confirms an answer correction in an edit session.
type AnswerUpdated struct {
	System  string
	Current *Question
}

// UnknownEvent covers unrecognized payload shapes.
type UnknownEvent struct{}

func (SurveyCompleted) responseEvent()  {}
func (ExpectedAnswer) responseEvent()   {}
func (UnexpectedAnswer) responseEvent() {}
func (QuestionInfo) responseEvent()     {}
func (SurveyStarted) responseEvent()    {}
func (NotReady) responseEvent()         {}
func (ErrorInfo) responseEvent()        {}
func (SwitchedToSurvey) responseEvent() {}
func (QAAnswer) responseEvent()         {}
func (AnswerUpdated) responseEvent()    {}
func (UnknownEvent) responseEvent()     {}

// Decode classifies the payload into its ResponseEvent variant. Missing
// sub-fields are preserved as zero values; fallback behavior for them lives
// in the parser, so Decode never fails.
func (p *SurveyPayload) Decode() ResponseEvent {
	if p == nil {
		return UnknownEvent{}
	}

	switch p.Info {
	case "survey_completed":
		notice := p.SystemMessage
		if notice == "" {
			notice = p.AdditionalInfo
		}
		return SurveyCompleted{Notice: notice}
	case "expected_answer":
		return ExpectedAnswer{Next: p.NextQuestion}
	case "unexpected_answer_or_other":
		return UnexpectedAnswer{
			Current:  p.CurrentQuestion,
			Reason:   p.ClarificationReason,
			FollowUp: p.FollowUpQuestion,
		}
	case "question":
		return QuestionInfo{
			Answer:  p.Answer,
			System:  p.SystemMessage,
			Current: p.CurrentQuestion,
		}
	case "survey_started":
		first := p.NextQuestion
		if first == nil {
			first = p.CurrentQuestion
		}
		return SurveyStarted{Intro: p.SystemMessage, First: first}
	case "not_ready_for_survey":
		return NotReady{System: p.SystemMessage}
	case "error":
		return ErrorInfo{Detail: p.AdditionalInfo}
	case "switched_to_survey":
		return SwitchedToSurvey{Current: p.CurrentQuestion}
	case "answer_updated":
		return AnswerUpdated{System: p.SystemMessage, Current: p.CurrentQuestion}
	case "":
		if p.Answer != "" {
			return QAAnswer{Answer: p.Answer}
		}
	}

	return UnknownEvent{}
}
