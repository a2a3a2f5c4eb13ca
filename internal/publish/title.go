// Package publish pushes task branches and drives review record titles.
package publish

import (
	"fmt"
	"time"
)

// Phase names the stage a review record title advertises.
type Phase string

const (
	// PhaseStarted marks a record whose task is still executing.
	PhaseStarted Phase = "STARTED"
	// PhaseComplete marks a record whose task finished successfully.
	PhaseComplete Phase = "COMPLETE"
	// PhaseFailed marks a record whose task failed after publication.
	PhaseFailed Phase = "FAILED"
)

const (
	// glyphStarted leads titles of in-flight records.
	glyphStarted = "🚧"
	// glyphComplete leads titles of successful records.
	glyphComplete = "✅"
	// glyphFailed leads titles of failed records.
	glyphFailed = "❌"
)

// titleDateLayout is the date suffix appended to every record title.
const titleDateLayout = "2006-01-02"

// Glyph returns the status sigil for a phase.
func Glyph(phase Phase) string {
	switch phase {
	case PhaseComplete:
		return glyphComplete
	case PhaseFailed:
		return glyphFailed
	default:
		return glyphStarted
	}
}

// Title renders the review record title for a task at a phase:
//
//	🚧[AI TASK STARTED] Add login page 2026-03-02
func Title(taskTitle string, phase Phase, at time.Time) string {
	return fmt.Sprintf("%s[AI TASK %s] %s %s", Glyph(phase), phase, taskTitle, at.Format(titleDateLayout))
}
