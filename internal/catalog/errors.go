package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound matches every *NotFoundError via errors.Is.
var ErrNotFound = errors.New("not found")

// Identifier kinds reported by NotFoundError.
const (
	KindCourse   = "course"
	KindLab      = "lab"
	KindQuestion = "question"
)

// NotFoundError reports which identifier failed to resolve.
type NotFoundError struct {
	Kind       string
	CourseID   string
	LabID      string
	QuestionID int
}

func (e *NotFoundError) Error() string {
	switch e.Kind {
	case KindCourse:
		return fmt.Sprintf("unknown course %q", e.CourseID)
	case KindLab:
		return fmt.Sprintf("unknown lab %q in course %q", e.LabID, e.CourseID)
	default:
		return fmt.Sprintf("unknown question %d in lab %q of course %q", e.QuestionID, e.LabID, e.CourseID)
	}
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// LoadError is a fatal configuration problem found while building the
// catalog. It names as much of the location as is known.
type LoadError struct {
	File       string
	CourseID   string
	LabID      string
	QuestionID int
	Err        error
}

func (e *LoadError) Error() string {
	var loc []string
	if e.File != "" {
		loc = append(loc, "file "+e.File)
	}
	if e.CourseID != "" {
		loc = append(loc, fmt.Sprintf("course %q", e.CourseID))
	}
	if e.LabID != "" {
		loc = append(loc, fmt.Sprintf("lab %q", e.LabID))
	}
	if e.QuestionID != 0 {
		loc = append(loc, fmt.Sprintf("question %d", e.QuestionID))
	}
	if len(loc) == 0 {
		return "load questions: " + e.Err.Error()
	}
	return "load questions: " + strings.Join(loc, ", ") + ": " + e.Err.Error()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
