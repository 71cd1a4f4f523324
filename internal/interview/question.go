package interview

// QuestionType classifies how an answer is checked.
type QuestionType string

const (
	TypeConceptual QuestionType = "conceptual"
	TypeFormula    QuestionType = "formula"
	TypeScenario   QuestionType = "scenario"
	TypeReflection QuestionType = "reflection"
)

// ReflectionField names the part of the reflection payload a question fills.
type ReflectionField string

const (
	ReflectionConfidence      ReflectionField = "confidence"
	ReflectionStrengths       ReflectionField = "strengths"
	ReflectionWeaknesses      ReflectionField = "weaknesses"
	ReflectionImprovementPlan ReflectionField = "improvement_plan"
)

// ExpectedAnswer describes what the rule checker accepts for a formula question.
// Each AcceptedFunctions entry is one alternative; "INDEX/MATCH" requires both functions.
type ExpectedAnswer struct {
	Formula           string   `yaml:"formula" json:"formula,omitempty"`
	AcceptedFunctions []string `yaml:"accepted_functions" json:"accepted_functions,omitempty"`
	Hints             []string `yaml:"hints" json:"hints,omitempty"`
}

// Question is immutable once loaded into the bank.
type Question struct {
	ID              string          `yaml:"id" json:"id"`
	Prompt          string          `yaml:"prompt" json:"prompt"`
	Context         string          `yaml:"context" json:"context,omitempty"`
	Type            QuestionType    `yaml:"type" json:"type"`
	Difficulty      Difficulty      `yaml:"difficulty" json:"difficulty"`
	Phase           Phase           `yaml:"phase" json:"phase"`
	Topic           string          `yaml:"topic" json:"topic,omitempty"`
	Concepts        []string        `yaml:"concepts" json:"concepts,omitempty"`
	Expected        *ExpectedAnswer `yaml:"expected" json:"expected,omitempty"`
	ReflectionField ReflectionField `yaml:"reflection_field" json:"reflection_field,omitempty"`
}

// Checkable reports whether the rule checker can judge answers to q.
func (q Question) Checkable() bool {
	return q.Type == TypeFormula && q.Expected != nil && len(q.Expected.AcceptedFunctions) > 0
}

// Prompt is what the candidate sees for the pending question.
type Prompt struct {
	SessionID  string       `json:"session_id"`
	Phase      Phase        `json:"phase"`
	QuestionID string       `json:"question_id"`
	Text       string       `json:"text"`
	Context    string       `json:"context,omitempty"`
	Type       QuestionType `json:"type"`
	Difficulty Difficulty   `json:"difficulty"`
	// Index is the zero-based position of the question inside its phase.
	Index int `json:"index"`
	Total int `json:"total"`
	// Retry counts how many times the candidate already skipped this question.
	Retry int `json:"retry,omitempty"`
}

// Turn is the outcome of an answer or a skip: either the next prompt or the final report.
type Turn struct {
	Prompt *Prompt         `json:"prompt,omitempty"`
	Report *FeedbackReport `json:"report,omitempty"`
	Record *ResponseRecord `json:"record,omitempty"`
}

// Done reports whether the turn closed the interview.
func (t Turn) Done() bool { return t.Report != nil }
