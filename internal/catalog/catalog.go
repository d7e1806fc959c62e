// Package catalog holds the immutable course → lab → question catalog and
// loads it from YAML question files.
package catalog

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ashureev/shsh-quiz/internal/domain"
)

// Catalog is a read-only view of all courses. It is built once at startup
// and is safe for concurrent use without locking.
type Catalog struct {
	courses map[string]*domain.Course
	ids     []string
}

// New builds a catalog from already-compiled courses. It fails with a
// *LoadError when two courses share an id or two labs would share a
// completion marker.
func New(courses ...*domain.Course) (*Catalog, error) {
	c := &Catalog{courses: make(map[string]*domain.Course, len(courses))}
	markers := make(map[string][2]string)
	for _, course := range courses {
		if _, dup := c.courses[course.ID]; dup {
			return nil, &LoadError{CourseID: course.ID, Err: errors.New("duplicate course")}
		}
		for _, lab := range course.OrderedLabs() {
			name := domain.MarkerName(course.ID, lab.ID)
			if prev, clash := markers[name]; clash {
				err := fmt.Errorf("completion marker %s is also used by course %q lab %q", name, prev[0], prev[1])
				return nil, &LoadError{CourseID: course.ID, LabID: lab.ID, Err: err}
			}
			markers[name] = [2]string{course.ID, lab.ID}
		}
		c.courses[course.ID] = course
		c.ids = append(c.ids, course.ID)
	}
	sort.Strings(c.ids)
	return c, nil
}

// Empty reports whether the catalog has no courses.
func (c *Catalog) Empty() bool {
	return len(c.ids) == 0
}

// CourseIDs returns course identifiers in sorted order.
func (c *Catalog) CourseIDs() []string {
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

// ListCourses returns one summary per lab: courses sorted by id, labs in
// declaration order.
func (c *Catalog) ListCourses() []domain.LabSummary {
	var out []domain.LabSummary
	for _, id := range c.ids {
		for _, lab := range c.courses[id].OrderedLabs() {
			out = append(out, domain.LabSummary{
				CourseID:      id,
				LabID:         lab.ID,
				Title:         lab.Title,
				QuestionCount: len(lab.Questions),
			})
		}
	}
	return out
}

// Course returns the course with the given id.
func (c *Catalog) Course(courseID string) (*domain.Course, error) {
	course, ok := c.courses[courseID]
	if !ok {
		return nil, &NotFoundError{Kind: KindCourse, CourseID: courseID}
	}
	return course, nil
}

// Lab returns a lab of a course.
func (c *Catalog) Lab(courseID, labID string) (*domain.Lab, error) {
	course, err := c.Course(courseID)
	if err != nil {
		return nil, err
	}
	lab, ok := course.Labs[labID]
	if !ok {
		return nil, &NotFoundError{Kind: KindLab, CourseID: courseID, LabID: labID}
	}
	return lab, nil
}

// Question returns one question of a lab.
func (c *Catalog) Question(courseID, labID string, questionID int) (*domain.Question, error) {
	lab, err := c.Lab(courseID, labID)
	if err != nil {
		return nil, err
	}
	q, ok := lab.Question(questionID)
	if !ok {
		return nil, &NotFoundError{Kind: KindQuestion, CourseID: courseID, LabID: labID, QuestionID: questionID}
	}
	return q, nil
}
