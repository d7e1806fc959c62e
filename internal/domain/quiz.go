// Package domain contains core domain types for the SHSH quiz application.
package domain

import "github.com/ashureev/shsh-quiz/internal/matcher"

// DefaultTextareaRows is used when a multiline question does not set rows.
const DefaultTextareaRows = 5

// Course groups labs under a unique identifier.
type Course struct {
	ID   string
	Labs map[string]*Lab
	// LabOrder lists lab IDs in the order they were declared.
	LabOrder []string
}

// OrderedLabs returns the course's labs in declaration order.
func (c *Course) OrderedLabs() []*Lab {
	labs := make([]*Lab, 0, len(c.LabOrder))
	for _, id := range c.LabOrder {
		labs = append(labs, c.Labs[id])
	}
	return labs
}

// Lab is a single quiz session within a course.
type Lab struct {
	ID        string
	CourseID  string
	Title     string
	Questions []*Question
}

// Question looks up a question by its numeric id.
func (l *Lab) Question(id int) (*Question, bool) {
	for _, q := range l.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return nil, false
}

// Question is one free-text prompt with its acceptable answers.
type Question struct {
	ID          int
	Title       string
	Text        string
	Placeholder string
	Multiline   bool
	Rows        int

	Answers        []matcher.Spec
	CorrectMessage string
	Hint           string
}

// IsCorrect reports whether answer matches at least one of the question's
// answer specs.
func (q *Question) IsCorrect(answer string) bool {
	return matcher.Any(q.Answers, answer)
}

// Feedback returns the message shown to the learner for an outcome.
func (q *Question) Feedback(correct bool) string {
	if correct {
		return q.CorrectMessage
	}
	return q.Hint
}

// LabSummary is a (course, lab) pair for catalog listings.
type LabSummary struct {
	CourseID      string `json:"course"`
	LabID         string `json:"lab"`
	Title         string `json:"title"`
	QuestionCount int    `json:"questions"`
}
