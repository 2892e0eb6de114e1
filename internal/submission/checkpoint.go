// Package submission persists a finished quotation: request id, document folder,
// attachments, spreadsheet rows, time log, client directory and audit trail.
package submission

import (
	"slices"
	"time"

	"github.com/angelmondragon/freightquote-backend/pkg/enums"
)

// Checkpoint is the resumable progress of a finalize. It lives in the wizard
// session so a retry continues from the first incomplete step.
type Checkpoint struct {
	RequestID      string               `json:"request_id,omitempty"`
	FolderID       string               `json:"folder_id,omitempty"`
	FolderLink     string               `json:"folder_link,omitempty"`
	EndTime        *time.Time           `json:"end_time,omitempty"`
	Step           enums.SubmissionStep `json:"step"`
	Worksheets     []string             `json:"worksheets,omitempty"`
	TimeLogged     bool                 `json:"time_logged"`
	ClientRecorded bool                 `json:"client_recorded"`
	AuditRecorded  bool                 `json:"audit_recorded"`
	Submitted      bool                 `json:"submitted"`
	Attempts       int                  `json:"attempts"`
}

// Done reports whether the quotation was already persisted.
func (c *Checkpoint) Done() bool {
	return c != nil && (c.Submitted || c.Step == enums.StepComplete)
}

func (c *Checkpoint) reached(step enums.SubmissionStep) bool {
	return c.Step.Reached(step)
}

func (c *Checkpoint) advance(step enums.SubmissionStep) {
	if !c.Step.Reached(step) {
		c.Step = step
	}
}

func (c *Checkpoint) wrote(worksheet string) bool {
	return slices.Contains(c.Worksheets, worksheet)
}
