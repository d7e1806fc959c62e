package domain

import (
	"fmt"
	"time"
)

// Completion records that a lab's quiz was passed.
type Completion struct {
	CourseID    string    `json:"course"`
	LabID       string    `json:"lab"`
	ClientID    string    `json:"client_id,omitempty"`
	Marker      string    `json:"marker"`
	CompletedAt time.Time `json:"completed_at"`
}

// MarkerName is the file name an external checker polls for a lab's
// completion. Distinct labs must never share a name.
func MarkerName(courseID, labID string) string {
	return fmt.Sprintf("quiz_complete_%s_%s.txt", courseID, labID)
}
