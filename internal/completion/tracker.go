// Package completion records that a lab's quiz was passed, as a durable
// marker an out-of-process checker can observe.
package completion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ashureev/shsh-quiz/internal/domain"
	"golang.org/x/sync/singleflight"
)

// Key identifies a lab's completion marker.
type Key struct {
	CourseID string
	LabID    string
}

func (k Key) String() string {
	return k.CourseID + "/" + k.LabID
}

// MarkerStore is a durable create-if-absent set of keys.
type MarkerStore interface {
	// Create adds the marker and reports whether this call created it.
	// Creating an existing marker is not an error.
	Create(ctx context.Context, key Key) (bool, error)

	// Exists reports whether the marker is present.
	Exists(ctx context.Context, key Key) (bool, error)

	// Location describes where the marker for key lives.
	Location(key Key) string
}

// Recorder keeps an audit record of completions.
type Recorder interface {
	RecordCompletion(ctx context.Context, c *domain.Completion) error
}

// PersistenceError is returned when a marker could not be written or read.
type PersistenceError struct {
	Key Key
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s completion marker %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Tracker moves labs from incomplete to complete. It trusts its caller to
// have checked that every question was answered correctly.
type Tracker struct {
	markers  MarkerStore
	ledger   Recorder
	clientID func(context.Context) string
	logger   *slog.Logger
	now      func() time.Time
	group    singleflight.Group
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLedger records newly created completions in r.
func WithLedger(r Recorder) Option { return func(t *Tracker) { t.ledger = r } }

// WithClientID extracts the anonymous client id stored in ledger records.
func WithClientID(fn func(context.Context) string) Option {
	return func(t *Tracker) { t.clientID = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(t *Tracker) { t.logger = l } }

// NewTracker creates a tracker over markers.
func NewTracker(markers MarkerStore, opts ...Option) *Tracker {
	t := &Tracker{
		markers: markers,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// MarkComplete creates the lab's marker if absent and reports whether
// this call created it. An already complete lab is not an error.
func (t *Tracker) MarkComplete(ctx context.Context, courseID, labID string) (bool, error) {
	key := Key{CourseID: courseID, LabID: labID}

	// Concurrent requests for the same lab share one create attempt; only
	// the caller whose function ran reports the creation.
	ran := false
	v, err, _ := t.group.Do(key.String(), func() (interface{}, error) {
		ran = true
		return t.markers.Create(ctx, key)
	})
	if err != nil {
		t.logger.Error("Failed to write completion marker", "course", courseID, "lab", labID, "error", err)
		return false, &PersistenceError{Key: key, Op: "create", Err: err}
	}
	if !ran || !v.(bool) {
		t.logger.Debug("Lab already complete", "course", courseID, "lab", labID)
		return false, nil
	}

	t.logger.Info("Lab marked complete", "course", courseID, "lab", labID, "marker", t.markers.Location(key))
	t.record(ctx, key)
	return true, nil
}

func (t *Tracker) record(ctx context.Context, key Key) {
	if t.ledger == nil {
		return
	}
	c := &domain.Completion{
		CourseID:    key.CourseID,
		LabID:       key.LabID,
		Marker:      t.markers.Location(key),
		CompletedAt: t.now(),
	}
	if t.clientID != nil {
		c.ClientID = t.clientID(ctx)
	}
	if err := t.ledger.RecordCompletion(ctx, c); err != nil {
		t.logger.Warn("Failed to record completion in ledger", "course", key.CourseID, "lab", key.LabID, "error", err)
	}
}

// IsComplete reports whether the lab's marker exists.
func (t *Tracker) IsComplete(ctx context.Context, courseID, labID string) (bool, error) {
	key := Key{CourseID: courseID, LabID: labID}
	ok, err := t.markers.Exists(ctx, key)
	if err != nil {
		return false, &PersistenceError{Key: key, Op: "check", Err: err}
	}
	return ok, nil
}

// Location returns where the lab's marker lives.
func (t *Tracker) Location(courseID, labID string) string {
	return t.markers.Location(Key{CourseID: courseID, LabID: labID})
}
