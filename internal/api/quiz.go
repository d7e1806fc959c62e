package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashureev/shsh-quiz/internal/catalog"
	"github.com/ashureev/shsh-quiz/internal/domain"
	"github.com/ashureev/shsh-quiz/internal/quiz"
	"github.com/go-chi/chi/v5"
)

// QuizHandler serves answer validation, completion and catalog endpoints.
type QuizHandler struct {
	svc *quiz.Service
}

// NewQuizHandler creates a new quiz handler.
func NewQuizHandler(svc *quiz.Service) *QuizHandler {
	return &QuizHandler{svc: svc}
}

// RegisterRoutes registers quiz routes.
func (h *QuizHandler) RegisterRoutes(r chi.Router) {
	r.Post("/validate", h.Validate)
	r.Post("/complete", h.Complete)

	r.Route("/api", func(r chi.Router) {
		r.Get("/courses", h.ListCourses)
		r.Get("/courses/{course}/labs/{lab}", h.GetLab)
		r.Get("/courses/{course}/labs/{lab}/status", h.GetStatus)
		r.Get("/completions", h.ListCompletions)
	})
}

type validateRequest struct {
	CourseName string `json:"course_name"`
	LabID      string `json:"lab_id"`
	QuestionID *int   `json:"question_id"`
	Answer     string `json:"answer"`
}

type completeRequest struct {
	CourseName string `json:"course_name"`
	LabID      string `json:"lab_id"`
}

type completeResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	AlreadyComplete bool   `json:"already_complete"`
}

type questionView struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Text        string `json:"text"`
	Placeholder string `json:"placeholder,omitempty"`
	Multiline   bool   `json:"multiline"`
	Rows        int    `json:"rows,omitempty"`
}

type labView struct {
	Course    string         `json:"course"`
	Lab       string         `json:"lab"`
	Title     string         `json:"title"`
	Questions []questionView `json:"questions"`
}

type statusView struct {
	Complete    bool       `json:"complete"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type completionView struct {
	Course      string    `json:"course"`
	Lab         string    `json:"lab"`
	ClientID    string    `json:"client_id,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// Validate checks a submitted answer.
func (h *QuizHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		JSON(w, http.StatusBadRequest, quiz.ValidateResult{Message: "invalid request body"})
		return
	}
	if req.CourseName == "" || req.LabID == "" || req.QuestionID == nil {
		JSON(w, http.StatusBadRequest, quiz.ValidateResult{Message: "course_name, lab_id and question_id are required"})
		return
	}

	res, err := h.svc.Validate(r.Context(), quiz.ValidateRequest{
		CourseID:   req.CourseName,
		LabID:      req.LabID,
		QuestionID: *req.QuestionID,
		Answer:     req.Answer,
	})
	if err != nil {
		var nf *catalog.NotFoundError
		if errors.As(err, &nf) {
			JSON(w, http.StatusNotFound, quiz.ValidateResult{Message: nf.Error()})
			return
		}
		slog.Error("Failed to validate answer", "course", req.CourseName, "lab", req.LabID, "error", err)
		JSON(w, http.StatusInternalServerError, quiz.ValidateResult{Message: "failed to validate answer"})
		return
	}

	JSON(w, http.StatusOK, res)
}

// Complete marks a lab complete.
func (h *QuizHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		JSON(w, http.StatusBadRequest, completeResponse{Message: "invalid request body"})
		return
	}
	if req.CourseName == "" || req.LabID == "" {
		JSON(w, http.StatusBadRequest, completeResponse{Message: "course_name and lab_id are required"})
		return
	}

	res, err := h.svc.Complete(r.Context(), req.CourseName, req.LabID)
	if err != nil {
		var nf *catalog.NotFoundError
		if errors.As(err, &nf) {
			JSON(w, http.StatusNotFound, completeResponse{Message: nf.Error()})
			return
		}
		// The tracker has already logged the persistence failure.
		JSON(w, http.StatusInternalServerError, completeResponse{Message: "failed to record completion"})
		return
	}

	JSON(w, http.StatusOK, completeResponse{
		Success:         true,
		Message:         fmt.Sprintf("Quiz %s/%s marked as complete", req.CourseName, req.LabID),
		AlreadyComplete: res.AlreadyComplete,
	})
}

// ListCourses returns every (course, lab) pair.
func (h *QuizHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	courses := h.svc.Courses()
	if courses == nil {
		courses = []domain.LabSummary{}
	}
	JSON(w, http.StatusOK, courses)
}

// GetLab returns a lab's questions without their answer patterns.
func (h *QuizHandler) GetLab(w http.ResponseWriter, r *http.Request) {
	lab, err := h.svc.Lab(chi.URLParam(r, "course"), chi.URLParam(r, "lab"))
	if err != nil {
		Error(w, http.StatusNotFound, err.Error())
		return
	}

	view := labView{
		Course:    lab.CourseID,
		Lab:       lab.ID,
		Title:     lab.Title,
		Questions: make([]questionView, 0, len(lab.Questions)),
	}
	for _, q := range lab.Questions {
		view.Questions = append(view.Questions, questionView{
			ID:          q.ID,
			Title:       q.Title,
			Text:        q.Text,
			Placeholder: q.Placeholder,
			Multiline:   q.Multiline,
			Rows:        q.Rows,
		})
	}
	JSON(w, http.StatusOK, view)
}

// GetStatus reports whether a lab is complete.
func (h *QuizHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	courseID, labID := chi.URLParam(r, "course"), chi.URLParam(r, "lab")

	st, err := h.svc.Status(r.Context(), courseID, labID)
	if err != nil {
		var nf *catalog.NotFoundError
		if errors.As(err, &nf) {
			Error(w, http.StatusNotFound, nf.Error())
			return
		}
		Error(w, http.StatusInternalServerError, "failed to check completion")
		return
	}

	view := statusView{Complete: st.Complete}
	if st.Record != nil {
		at := st.Record.CompletedAt
		view.CompletedAt = &at
	}
	JSON(w, http.StatusOK, view)
}

// ListCompletions returns the completion ledger.
func (h *QuizHandler) ListCompletions(w http.ResponseWriter, r *http.Request) {
	if !h.svc.LedgerEnabled() {
		Error(w, http.StatusNotFound, "completion ledger is disabled")
		return
	}

	records, err := h.svc.Completions(r.Context())
	if err != nil {
		slog.Error("Failed to list completions", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list completions")
		return
	}

	views := make([]completionView, 0, len(records))
	for _, c := range records {
		views = append(views, completionView{
			Course:      c.CourseID,
			Lab:         c.LabID,
			ClientID:    c.ClientID,
			CompletedAt: c.CompletedAt,
		})
	}
	JSON(w, http.StatusOK, views)
}
