// Package quiz implements the request-level quiz operations: listing the
// catalog, validating answers and marking labs complete.
package quiz

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ashureev/shsh-quiz/internal/catalog"
	"github.com/ashureev/shsh-quiz/internal/completion"
	"github.com/ashureev/shsh-quiz/internal/domain"
	"github.com/ashureev/shsh-quiz/internal/store"
)

// ValidateRequest is one submitted answer.
type ValidateRequest struct {
	CourseID   string
	LabID      string
	QuestionID int
	Answer     string
}

// ValidateResult carries the outcome and the message to show.
type ValidateResult struct {
	Correct bool   `json:"correct"`
	Message string `json:"message"`
}

// CompleteResult is returned by Complete.
type CompleteResult struct {
	AlreadyComplete bool
}

// Status describes a lab's completion state.
type Status struct {
	Complete bool
	Record   *domain.Completion
}

// Service ties the catalog to the completion tracker. It keeps no
// per-request state.
type Service struct {
	catalog     *catalog.Catalog
	tracker     *completion.Tracker
	ledger      store.Repository
	trimAnswers bool
	logger      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTrimAnswers strips surrounding whitespace from answers before
// matching.
func WithTrimAnswers(trim bool) Option { return func(s *Service) { s.trimAnswers = trim } }

// WithLedger exposes completion records through Status and Completions.
func WithLedger(repo store.Repository) Option { return func(s *Service) { s.ledger = repo } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

// NewService creates a Service.
func NewService(cat *catalog.Catalog, tracker *completion.Tracker, opts ...Option) *Service {
	s := &Service{
		catalog: cat,
		tracker: tracker,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Catalog returns the underlying catalog.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// Courses lists every (course, lab) pair.
func (s *Service) Courses() []domain.LabSummary {
	return s.catalog.ListCourses()
}

// Lab returns a lab or a *catalog.NotFoundError.
func (s *Service) Lab(courseID, labID string) (*domain.Lab, error) {
	return s.catalog.Lab(courseID, labID)
}

// Validate checks one answer. Unknown identifiers yield a
// *catalog.NotFoundError.
func (s *Service) Validate(_ context.Context, req ValidateRequest) (ValidateResult, error) {
	q, err := s.catalog.Question(req.CourseID, req.LabID, req.QuestionID)
	if err != nil {
		return ValidateResult{}, err
	}

	answer := req.Answer
	if s.trimAnswers {
		answer = strings.TrimSpace(answer)
	}

	correct := q.IsCorrect(answer)
	s.logger.Debug("Answer validated",
		"course", req.CourseID,
		"lab", req.LabID,
		"question_id", req.QuestionID,
		"correct", correct)

	return ValidateResult{Correct: correct, Message: q.Feedback(correct)}, nil
}

// Complete marks a known lab complete. Whether every question was answered
// correctly is the client's claim; it is not re-checked here.
func (s *Service) Complete(ctx context.Context, courseID, labID string) (CompleteResult, error) {
	if _, err := s.catalog.Lab(courseID, labID); err != nil {
		return CompleteResult{}, err
	}
	created, err := s.tracker.MarkComplete(ctx, courseID, labID)
	if err != nil {
		return CompleteResult{}, err
	}
	return CompleteResult{AlreadyComplete: !created}, nil
}

// Status reports whether a known lab is complete.
func (s *Service) Status(ctx context.Context, courseID, labID string) (Status, error) {
	if _, err := s.catalog.Lab(courseID, labID); err != nil {
		return Status{}, err
	}
	done, err := s.tracker.IsComplete(ctx, courseID, labID)
	if err != nil {
		return Status{}, err
	}
	st := Status{Complete: done}
	if done && s.ledger != nil {
		rec, err := s.ledger.GetCompletion(ctx, courseID, labID)
		if err != nil {
			s.logger.Warn("Failed to read completion record", "course", courseID, "lab", labID, "error", err)
		} else {
			st.Record = rec
		}
	}
	return st, nil
}

// LedgerEnabled reports whether completion records are kept.
func (s *Service) LedgerEnabled() bool {
	return s.ledger != nil
}

// Completions lists ledger records. It returns nil when no ledger is
// configured.
func (s *Service) Completions(ctx context.Context) ([]*domain.Completion, error) {
	if s.ledger == nil {
		return nil, nil
	}
	return s.ledger.ListCompletions(ctx)
}
