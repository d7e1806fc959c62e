package api

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/ashureev/shsh-quiz/internal/quiz"
	"github.com/ashureev/shsh-quiz/web"
	"github.com/go-chi/chi/v5"
)

// PageHandler serves the HTML quiz pages.
type PageHandler struct {
	svc   *quiz.Service
	pages *web.Pages
}

// NewPageHandler creates a new page handler.
func NewPageHandler(svc *quiz.Service, pages *web.Pages) *PageHandler {
	return &PageHandler{svc: svc, pages: pages}
}

// RegisterRoutes registers page routes and the fallback 404 page.
func (h *PageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Index)
	r.Get("/{course}/{lab}", h.Lab)
	r.Get("/reset-page/{course}/{lab}", h.ResetPage)
	r.NotFound(h.NotFound)
}

// Index lists every course and its labs.
func (h *PageHandler) Index(w http.ResponseWriter, _ *http.Request) {
	cat := h.svc.Catalog()
	data := web.IndexData{}
	for _, id := range cat.CourseIDs() {
		course, err := cat.Course(id)
		if err != nil {
			continue
		}
		data.Courses = append(data.Courses, web.CourseView{ID: id, Labs: course.OrderedLabs()})
	}

	h.render(w, http.StatusOK, func(buf *bytes.Buffer) error {
		return h.pages.RenderIndex(buf, data)
	})
}

// Lab renders the quiz page for one lab.
func (h *PageHandler) Lab(w http.ResponseWriter, r *http.Request) {
	courseID, labID := chi.URLParam(r, "course"), chi.URLParam(r, "lab")

	lab, err := h.svc.Lab(courseID, labID)
	if err != nil {
		h.notFound(w, courseID, labID)
		return
	}

	h.render(w, http.StatusOK, func(buf *bytes.Buffer) error {
		return h.pages.RenderLab(buf, web.LabData{Lab: lab})
	})
}

// ResetPage renders the page that clears a lab's progress in the browser.
// Completion markers are never removed.
func (h *PageHandler) ResetPage(w http.ResponseWriter, r *http.Request) {
	courseID, labID := chi.URLParam(r, "course"), chi.URLParam(r, "lab")

	lab, err := h.svc.Lab(courseID, labID)
	if err != nil {
		h.notFound(w, courseID, labID)
		return
	}

	h.render(w, http.StatusOK, func(buf *bytes.Buffer) error {
		return h.pages.RenderReset(buf, web.LabData{Lab: lab})
	})
}

// NotFound renders the 404 page for unmatched paths.
func (h *PageHandler) NotFound(w http.ResponseWriter, _ *http.Request) {
	h.notFound(w, "", "")
}

func (h *PageHandler) notFound(w http.ResponseWriter, courseID, labID string) {
	data := web.NotFoundData{
		CourseID: courseID,
		LabID:    labID,
		Courses:  h.svc.Catalog().CourseIDs(),
	}
	h.render(w, http.StatusNotFound, func(buf *bytes.Buffer) error {
		return h.pages.RenderNotFound(buf, data)
	})
}

// render buffers the page so a template error never leaves a partial
// response behind.
func (h *PageHandler) render(w http.ResponseWriter, status int, fn func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		slog.Error("Failed to render page", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Debug("Failed to write page", "error", err)
	}
}
