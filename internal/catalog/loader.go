package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/ashureev/shsh-quiz/internal/domain"
	"github.com/ashureev/shsh-quiz/internal/matcher"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// IDPattern constrains course and lab identifiers. They end up in marker
// file names, so path separators and leading dots are not allowed.
var IDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// reservedCourseIDs are first path segments owned by the HTTP API, where
// a course's quiz pages would be unreachable.
var reservedCourseIDs = map[string]bool{"api": true}

//go:embed lab_schema.json
var labSchemaJSON []byte

const labSchemaURL = "schema://quiz/lab.json"

var labSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(labSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("parse lab schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(labSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("add lab schema: %w", err)
	}
	return c.Compile(labSchemaURL)
})

type labFile struct {
	Title     string         `yaml:"title"`
	Questions []questionFile `yaml:"questions"`
}

type questionFile struct {
	ID             int          `yaml:"id"`
	Title          string       `yaml:"title"`
	Text           string       `yaml:"text"`
	Placeholder    string       `yaml:"placeholder"`
	Multiline      bool         `yaml:"multiline"`
	Rows           int          `yaml:"rows"`
	Answers        []answerFile `yaml:"answers"`
	CorrectMessage string       `yaml:"correct_message"`
	Hint           string       `yaml:"hint"`
}

type answerFile struct {
	Pattern string `yaml:"pattern"`
	Flags   string `yaml:"flags"`
}

// LoadDir builds a catalog from every *.yaml and *.yml file in dir. The
// file base name is the course id. Files are parsed in parallel; any
// error aborts the whole load.
func LoadDir(ctx context.Context, dir string, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &LoadError{File: dir, Err: fmt.Errorf("read questions directory: %w", err)}
	}

	var files []string
	seen := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		courseID := strings.TrimSuffix(e.Name(), ext)
		if prev, dup := seen[courseID]; dup {
			return nil, &LoadError{File: e.Name(), CourseID: courseID, Err: fmt.Errorf("course also defined in %s", prev)}
		}
		seen[courseID] = e.Name()
		files = append(files, e.Name())
	}
	sort.Strings(files)

	courses := make([]*domain.Course, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, name := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(dir, name)
			data, err := os.ReadFile(path)
			if err != nil {
				return &LoadError{File: name, Err: err}
			}
			courseID := strings.TrimSuffix(name, filepath.Ext(name))
			course, err := ParseCourse(courseID, data, logger)
			if err != nil {
				var le *LoadError
				if errors.As(err, &le) && le.File == "" {
					le.File = name
				}
				return err
			}
			courses[i] = course
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cat, err := New(courses...)
	if err != nil {
		return nil, err
	}
	logger.Info("Question catalog loaded", "dir", dir, "courses", len(courses), "labs", len(cat.ListCourses()))
	return cat, nil
}

// ParseCourse decodes one course file: a YAML mapping of lab id to lab.
// Every answer pattern is compiled here so a bad pattern fails the load.
func ParseCourse(courseID string, data []byte, logger *slog.Logger) (*domain.Course, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !IDPattern.MatchString(courseID) {
		return nil, &LoadError{CourseID: courseID, Err: fmt.Errorf("invalid course id, must match %s", IDPattern)}
	}
	if reservedCourseIDs[courseID] {
		return nil, &LoadError{CourseID: courseID, Err: errors.New("course id is reserved")}
	}

	course := &domain.Course{ID: courseID, Labs: make(map[string]*domain.Lab)}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{CourseID: courseID, Err: fmt.Errorf("parse yaml: %w", err)}
	}
	if doc.Kind == 0 {
		logger.Warn("Question file is empty", "course", courseID)
		return course, nil
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, &LoadError{CourseID: courseID, Err: errors.New("top level must be a mapping of lab id to lab")}
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		labID := root.Content[i].Value
		node := root.Content[i+1]

		if !IDPattern.MatchString(labID) {
			return nil, &LoadError{CourseID: courseID, LabID: labID, Err: fmt.Errorf("invalid lab id, must match %s", IDPattern)}
		}
		if _, dup := course.Labs[labID]; dup {
			return nil, &LoadError{CourseID: courseID, LabID: labID, Err: errors.New("duplicate lab id")}
		}
		if err := validateLabNode(node); err != nil {
			return nil, &LoadError{CourseID: courseID, LabID: labID, Err: err}
		}

		var lf labFile
		if err := node.Decode(&lf); err != nil {
			return nil, &LoadError{CourseID: courseID, LabID: labID, Err: fmt.Errorf("decode lab: %w", err)}
		}
		lab, err := buildLab(courseID, labID, lf, logger)
		if err != nil {
			return nil, err
		}
		course.Labs[labID] = lab
		course.LabOrder = append(course.LabOrder, labID)
	}

	return course, nil
}

// validateLabNode checks the structure of a single lab against the
// embedded JSON schema.
func validateLabNode(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("decode lab: %w", err)
	}
	// Round-trip through JSON so the validator sees plain JSON values.
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("unsupported lab structure: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("unsupported lab structure: %w", err)
	}

	schema, err := labSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("invalid lab: %w", err)
	}
	return nil
}

func buildLab(courseID, labID string, lf labFile, logger *slog.Logger) (*domain.Lab, error) {
	lab := &domain.Lab{
		ID:        labID,
		CourseID:  courseID,
		Title:     lf.Title,
		Questions: make([]*domain.Question, 0, len(lf.Questions)),
	}

	ids := make(map[int]struct{}, len(lf.Questions))
	for _, qf := range lf.Questions {
		if _, dup := ids[qf.ID]; dup {
			return nil, &LoadError{CourseID: courseID, LabID: labID, QuestionID: qf.ID, Err: errors.New("duplicate question id")}
		}
		ids[qf.ID] = struct{}{}

		q := &domain.Question{
			ID:             qf.ID,
			Title:          qf.Title,
			Text:           qf.Text,
			Placeholder:    qf.Placeholder,
			Multiline:      qf.Multiline,
			Rows:           qf.Rows,
			CorrectMessage: qf.CorrectMessage,
			Hint:           qf.Hint,
			Answers:        make([]matcher.Spec, 0, len(qf.Answers)),
		}
		if q.Multiline && q.Rows == 0 {
			q.Rows = domain.DefaultTextareaRows
		}

		for _, af := range qf.Answers {
			flags, ignored := matcher.ParseFlags(af.Flags)
			if len(ignored) > 0 {
				logger.Warn("Ignoring unrecognized answer flags",
					"course", courseID, "lab", labID, "question_id", qf.ID, "flags", string(ignored))
			}
			spec, err := matcher.Compile(af.Pattern, flags)
			if err != nil {
				return nil, &LoadError{CourseID: courseID, LabID: labID, QuestionID: qf.ID, Err: err}
			}
			q.Answers = append(q.Answers, spec)
		}
		lab.Questions = append(lab.Questions, q)
	}
	return lab, nil
}
