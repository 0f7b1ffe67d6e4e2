// Package quiz generates quiz questions from a lecture summary. Generated
// text is decoded defensively, each record is validated into a Question,
// and failed attempts are retried with stricter prompts.
package quiz

// Kind discriminates question records.
type Kind string

// Question kinds.
const (
	KindMCQ Kind = "mcq"
	KindTF  Kind = "tf"
)

// TF answers.
const (
	AnswerTrue  = "True"
	AnswerFalse = "False"
)

// Options holds the four labeled choices of a multiple-choice question.
type Options struct {
	A, B, C, D string
}

// Get returns the option for label (A to D), or "".
func (o Options) Get(label string) string {
	switch label {
	case "A":
		return o.A
	case "B":
		return o.B
	case "C":
		return o.C
	case "D":
		return o.D
	}
	return ""
}

// Question is one normalized quiz item.
//
// For KindMCQ, Options are all non-empty and Answer is one of A, B, C, D.
// For KindTF, Options is empty and Answer is AnswerTrue or AnswerFalse.
type Question struct {
	Concept     string
	Text        string
	Kind        Kind
	Options     Options
	Answer      string
	Explanation string
}
