package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ashureev/shsh-quiz/internal/catalog"
	"github.com/ashureev/shsh-quiz/internal/completion"
	"github.com/ashureev/shsh-quiz/internal/quiz"
	"github.com/ashureev/shsh-quiz/internal/store"
	"github.com/ashureev/shsh-quiz/web"
	"github.com/go-chi/chi/v5"
)

const testCourse = `
lab1:
  title: "Pods"
  questions:
    - id: 1
      title: "List pods"
      text: "Which command lists pods?"
      placeholder: "kubectl ..."
      answers:
        - pattern: "^kubectl get pods$"
          flags: "i"
      correct_message: "Correct."
      hint: "Use kubectl get."
`

type testServer struct {
	router    chi.Router
	markerDir string
}

func newTestServer(t *testing.T, repo store.Repository) *testServer {
	t.Helper()

	course, err := catalog.ParseCourse("k8s", []byte(testCourse), nil)
	if err != nil {
		t.Fatalf("parse course: %v", err)
	}
	cat, err := catalog.New(course)
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}

	markerDir := t.TempDir()
	markers, err := completion.NewFileMarkers(markerDir)
	if err != nil {
		t.Fatalf("new markers: %v", err)
	}
	tracker := completion.NewTracker(markers, completion.WithLedger(repo))
	svc := quiz.NewService(cat, tracker, quiz.WithTrimAnswers(true), quiz.WithLedger(repo))

	pages, err := web.LoadPages()
	if err != nil {
		t.Fatalf("load pages: %v", err)
	}

	r := chi.NewRouter()
	NewHealthHandler(repo, markerDir, 0).RegisterHealth(r)
	NewQuizHandler(svc).RegisterRoutes(r)
	NewPageHandler(svc, pages).RegisterRoutes(r)
	return &testServer{router: r, markerDir: markerDir}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var got map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return got
}

func TestValidateEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantCorrect bool
		wantMessage string
	}{
		{"correct", `{"course_name":"k8s","lab_id":"lab1","question_id":1,"answer":"  Kubectl Get Pods "}`, http.StatusOK, true, "Correct."},
		{"incorrect", `{"course_name":"k8s","lab_id":"lab1","question_id":1,"answer":"kubectl get pod"}`, http.StatusOK, false, "Use kubectl get."},
		{"missing answer", `{"course_name":"k8s","lab_id":"lab1","question_id":1}`, http.StatusOK, false, "Use kubectl get."},
		{"unknown course", `{"course_name":"nope","lab_id":"lab1","question_id":1,"answer":"x"}`, http.StatusNotFound, false, `unknown course "nope"`},
		{"unknown lab", `{"course_name":"k8s","lab_id":"lab9","question_id":1,"answer":"x"}`, http.StatusNotFound, false, ""},
		{"unknown question", `{"course_name":"k8s","lab_id":"lab1","question_id":7,"answer":"x"}`, http.StatusNotFound, false, ""},
		{"malformed body", `{"course_name":`, http.StatusBadRequest, false, ""},
		{"missing question", `{"course_name":"k8s","lab_id":"lab1"}`, http.StatusBadRequest, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := srv.do(http.MethodPost, "/validate", tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rr.Code, rr.Body.String())
			}
			got := decodeBody(t, rr)
			if got["correct"] != tt.wantCorrect {
				t.Errorf("expected correct=%v, got %v", tt.wantCorrect, got["correct"])
			}
			if tt.wantMessage != "" && got["message"] != tt.wantMessage {
				t.Errorf("expected message %q, got %v", tt.wantMessage, got["message"])
			}
		})
	}
}

func TestCompleteEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := srv.do(http.MethodPost, "/complete", `{"course_name":"k8s","lab_id":"lab1"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	got := decodeBody(t, rr)
	if got["success"] != true || got["already_complete"] != false {
		t.Fatalf("unexpected body %v", got)
	}
	if strings.Contains(rr.Body.String(), srv.markerDir) {
		t.Error("response leaks marker path")
	}

	data, err := os.ReadFile(filepath.Join(srv.markerDir, "quiz_complete_k8s_lab1.txt"))
	if err != nil {
		t.Fatalf("read marker: %v", err)
	}
	if string(data) != "Quiz k8s/lab1 completed successfully\n" {
		t.Errorf("unexpected marker content %q", data)
	}

	rr = srv.do(http.MethodPost, "/complete", `{"course_name":"k8s","lab_id":"lab1"}`)
	got = decodeBody(t, rr)
	if rr.Code != http.StatusOK || got["already_complete"] != true {
		t.Fatalf("expected idempotent success, got %d %v", rr.Code, got)
	}
}

func TestCompleteUnknownLab(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := srv.do(http.MethodPost, "/complete", `{"course_name":"k8s","lab_id":"lab9"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	entries, err := os.ReadDir(srv.markerDir)
	if err != nil {
		t.Fatalf("read marker dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no markers, found %d", len(entries))
	}
}

func TestCompletePersistenceFailure(t *testing.T) {
	srv := newTestServer(t, nil)
	if err := os.RemoveAll(srv.markerDir); err != nil {
		t.Fatalf("remove marker dir: %v", err)
	}

	rr := srv.do(http.MethodPost, "/complete", `{"course_name":"k8s","lab_id":"lab1"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	got := decodeBody(t, rr)
	if got["success"] != false || got["message"] != "failed to record completion" {
		t.Errorf("unexpected body %v", got)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := srv.do(http.MethodGet, "/api/courses", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var list []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0]["course"] != "k8s" || list[0]["lab"] != "lab1" {
		t.Fatalf("unexpected listing %v", list)
	}

	rr = srv.do(http.MethodGet, "/api/courses/k8s/labs/lab1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "kubectl get pods$") {
		t.Error("lab view leaks answer patterns")
	}

	rr = srv.do(http.MethodGet, "/api/courses/k8s/labs/nope", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestStatusAndCompletionsWithLedger(t *testing.T) {
	repo, err := store.Open(store.Options{Driver: store.DriverSQLite, Path: filepath.Join(t.TempDir(), "quiz.db")})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	srv := newTestServer(t, repo)

	rr := srv.do(http.MethodGet, "/api/courses/k8s/labs/lab1/status", "")
	if got := decodeBody(t, rr); got["complete"] != false {
		t.Fatalf("expected incomplete, got %v", got)
	}

	srv.do(http.MethodPost, "/complete", `{"course_name":"k8s","lab_id":"lab1"}`)

	rr = srv.do(http.MethodGet, "/api/courses/k8s/labs/lab1/status", "")
	got := decodeBody(t, rr)
	if got["complete"] != true || got["completed_at"] == nil {
		t.Fatalf("expected completion with timestamp, got %v", got)
	}

	rr = srv.do(http.MethodGet, "/api/completions", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var rows []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 1 || rows[0]["lab"] != "lab1" {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestCompletionsDisabledWithoutLedger(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := srv.do(http.MethodGet, "/api/completions", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
