package model

// Sender identifies who produced a transcript message
type Sender string

const (
	SenderUser Sender = "USER"
	SenderBot  Sender = "BOT"
)

// Mode is the active interaction mode of a conversation
type Mode string

const (
	ModeSurvey Mode = "SURVEY" // structured survey questions
	ModeQA     Mode = "QA"     // free-form questions about the survey
)

// ResponseKind mirrors the backend's info discriminant on a displayed message.
// It is kept on the message so error substitutions stay distinguishable from
// normal bot replies.
type ResponseKind string

const (
	KindExpectedAnswer   ResponseKind = "expected_answer"
	KindUnexpectedAnswer ResponseKind = "unexpected_answer_or_other"
	KindQuestion         ResponseKind = "question"
	KindSurveyStarted    ResponseKind = "survey_started"
	KindSurveyCompleted  ResponseKind = "survey_completed"
	KindNotReady         ResponseKind = "not_ready_for_survey"
	KindError            ResponseKind = "error"
	KindSwitchedToSurvey ResponseKind = "switched_to_survey"
	KindQAResponse       ResponseKind = "qa_response"
	KindAnswerUpdated    ResponseKind = "answer_updated"
	KindNone             ResponseKind = ""
)

// Question is a survey question as delivered by the backend
type Question struct {
	Code       string   `json:"code"`
	Text       string   `json:"text"`
	Type       string   `json:"type"`
	Options    []string `json:"options,omitempty"`
	Validation string   `json:"validation,omitempty"`
}

// DisplayMessage is one entry of a conversation transcript.
//
// Text mutates while the reveal animation is running and is final once the
// animation completes. A USER message is never mutated after creation.
// Options stays empty while Loading is true; the orchestrator installs it
// only after the text animation finishes.
type DisplayMessage struct {
	ID           string       `json:"id"`
	Text         string       `json:"text"`
	Sender       Sender       `json:"sender"`
	Mode         Mode         `json:"mode"`
	Loading      bool         `json:"loading"`
	ResponseKind ResponseKind `json:"responseKind,omitempty"`
	QuestionCode string       `json:"questionCode,omitempty"`
	Question     *Question    `json:"question,omitempty"`
	Options      []string     `json:"options,omitempty"`
	Citation     string       `json:"citation,omitempty"`
}
