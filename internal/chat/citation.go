package chat

import (
	"regexp"
	"strings"

	"surveychat/internal/model"
)

// questionMarker introduces the question block inside a backend answer string.
const questionMarker = "Pertanyaan saat ini:"

// citedPattern matches <explanation> <(Sumber: ...)> [.] [trailer]. The
// explanation is lazy so it stops at the first citation; any courtesy text
// after the citation is captured as trailer and dropped from display.
var citedPattern = regexp.MustCompile(`(?s)^\s*(.*?)\s*(\(Sumber:[^)]*\))\s*\.?\s*(.*?)\s*$`)

// Extraction is the normalized result of the citation grammar
type Extraction struct {
	Explanation   string
	Citation      string
	QuestionBlock string
}

// DisplayText joins explanation and question block the way the transcript
// shows them
func (e Extraction) DisplayText() string {
	if e.QuestionBlock == "" {
		return e.Explanation
	}
	return e.Explanation + "\n\n" + e.QuestionBlock
}

type citationRule struct {
	name  string
	apply func(s string, current *model.Question) (Extraction, bool)
}

// citationRules is tried in order; the final rule is total, so extraction
// never discards content and always yields some explanation.
var citationRules = []citationRule{
	{name: "cited_with_marker", apply: citedWithMarker},
	{name: "marker_only", apply: markerOnly},
	{name: "cited_only", apply: citedOnly},
	{name: "current_question", apply: currentQuestionFallback},
	{name: "plain", apply: plainText},
}

// ExtractCitation runs the tiered citation grammar over a backend answer
// string. current supplies the question block when the string carries no
// marker of its own; it may be nil.
func ExtractCitation(s string, current *model.Question) Extraction {
	for _, rule := range citationRules {
		if ex, ok := rule.apply(s, current); ok {
			return ex
		}
	}
	// Unreachable: plainText always matches.
	return Extraction{Explanation: strings.TrimSpace(s)}
}

// citedWithMarker handles explanation + citation [+ trailer] + marker + question
func citedWithMarker(s string, _ *model.Question) (Extraction, bool) {
	idx := strings.Index(s, questionMarker)
	if idx < 0 {
		return Extraction{}, false
	}
	head, tail := s[:idx], s[idx+len(questionMarker):]
	m := citedPattern.FindStringSubmatch(head)
	if m == nil {
		return Extraction{}, false
	}
	return Extraction{
		Explanation:   strings.TrimSpace(m[1]),
		Citation:      m[2],
		QuestionBlock: strings.TrimSpace(tail),
	}, true
}

// markerOnly splits at the marker when no citation is present
func markerOnly(s string, _ *model.Question) (Extraction, bool) {
	idx := strings.Index(s, questionMarker)
	if idx < 0 {
		return Extraction{}, false
	}
	return Extraction{
		Explanation:   strings.TrimSpace(s[:idx]),
		QuestionBlock: strings.TrimSpace(s[idx+len(questionMarker):]),
	}, true
}

// citedOnly handles a cited explanation without a question block; the caller's
// current question supplies the block
func citedOnly(s string, current *model.Question) (Extraction, bool) {
	m := citedPattern.FindStringSubmatch(s)
	if m == nil {
		return Extraction{}, false
	}
	ex := Extraction{
		Explanation: strings.TrimSpace(m[1]),
		Citation:    m[2],
	}
	if current != nil {
		ex.QuestionBlock = strings.TrimSpace(current.Text)
	}
	return ex, true
}

// currentQuestionFallback re-shows the caller's current question after a
// plain answer carrying neither citation nor marker
func currentQuestionFallback(s string, current *model.Question) (Extraction, bool) {
	if current == nil || strings.TrimSpace(current.Text) == "" {
		return Extraction{}, false
	}
	return Extraction{
		Explanation:   strings.TrimSpace(s),
		QuestionBlock: strings.TrimSpace(current.Text),
	}, true
}

// plainText is the total fallback: the whole string is the explanation
func plainText(s string, _ *model.Question) (Extraction, bool) {
	return Extraction{Explanation: strings.TrimSpace(s)}, true
}
