package store

import (
	"strings"
	"time"

	"github.com/alnah/go-lecturequiz/internal/quiz"
)

// DefaultConcept labels questions generated without a concept.
const DefaultConcept = "uncategorized"

// Course groups lectures.
type Course struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:200;not null"`
	Description string
	CreatedAt   time.Time
}

// Lecture holds one recording and the artifacts produced from it.
type Lecture struct {
	ID            uint   `gorm:"primaryKey"`
	CourseID      uint   `gorm:"index;not null"`
	Title         string `gorm:"size:200;not null"`
	AudioRef      string `gorm:"not null"`
	Transcript    string
	Summary       string
	QuizGenerated bool `gorm:"not null;default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Question is a stored quiz item. Options are empty for true/false questions.
type Question struct {
	ID            uint   `gorm:"primaryKey"`
	LectureID     uint   `gorm:"index;not null"`
	QuestionText  string `gorm:"not null"`
	OptionA       string
	OptionB       string
	OptionC       string
	OptionD       string
	CorrectAnswer string `gorm:"size:10;not null"`
	Explanation   string
	Concept       string `gorm:"size:100;not null;default:uncategorized"`
	QuestionType  string `gorm:"size:10;not null;index"`
	CreatedAt     time.Time
}

// Quiz converts the row back to a quiz.Question.
func (q Question) Quiz() quiz.Question {
	return quiz.Question{
		Concept:     q.Concept,
		Text:        q.QuestionText,
		Kind:        quiz.Kind(q.QuestionType),
		Options:     quiz.Options{A: q.OptionA, B: q.OptionB, C: q.OptionC, D: q.OptionD},
		Answer:      q.CorrectAnswer,
		Explanation: q.Explanation,
	}
}

// questionRow maps a generated question to a row of lectureID.
func questionRow(lectureID uint, q quiz.Question) Question {
	concept := strings.TrimSpace(q.Concept)
	if concept == "" {
		concept = DefaultConcept
	}
	return Question{
		LectureID:     lectureID,
		QuestionText:  q.Text,
		OptionA:       q.Options.A,
		OptionB:       q.Options.B,
		OptionC:       q.Options.C,
		OptionD:       q.Options.D,
		CorrectAnswer: q.Answer,
		Explanation:   q.Explanation,
		Concept:       concept,
		QuestionType:  string(q.Kind),
	}
}
