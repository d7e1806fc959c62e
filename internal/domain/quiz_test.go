package domain

import (
	"testing"

	"github.com/ashureev/shsh-quiz/internal/matcher"
)

func TestQuestionIsCorrectAndFeedback(t *testing.T) {
	q := &Question{
		ID:             1,
		Answers:        []matcher.Spec{matcher.MustCompile("^kubectl get pods$", matcher.IgnoreCase)},
		CorrectMessage: "Nice.",
		Hint:           "Try kubectl get.",
	}

	if !q.IsCorrect("KUBECTL GET PODS") {
		t.Error("expected uppercase answer to be correct")
	}
	if q.IsCorrect("kubectl get pod") {
		t.Error("expected truncated answer to be incorrect")
	}
	if got := q.Feedback(true); got != "Nice." {
		t.Errorf("Feedback(true) = %q", got)
	}
	if got := q.Feedback(false); got != "Try kubectl get." {
		t.Errorf("Feedback(false) = %q", got)
	}
}

func TestLabQuestionLookup(t *testing.T) {
	lab := &Lab{ID: "lab1", Questions: []*Question{{ID: 1}, {ID: 3}}}

	if q, ok := lab.Question(3); !ok || q.ID != 3 {
		t.Fatalf("expected question 3, got %v %v", q, ok)
	}
	if _, ok := lab.Question(2); ok {
		t.Fatal("expected question 2 to be missing")
	}
}

func TestCourseOrderedLabs(t *testing.T) {
	c := &Course{
		ID: "k8s",
		Labs: map[string]*Lab{
			"b": {ID: "b"},
			"a": {ID: "a"},
		},
		LabOrder: []string{"b", "a"},
	}

	labs := c.OrderedLabs()
	if len(labs) != 2 || labs[0].ID != "b" || labs[1].ID != "a" {
		t.Fatalf("unexpected order: %+v", labs)
	}
}
