package attempt

import (
	"time"

	"github.com/abhisek/prepzone/internal/exam"
)

// attemptStartedMsg is sent when the service has opened the attempt.
type attemptStartedMsg struct {
	Session *exam.Session
	Err     error
}

// attemptStateMsg carries the server's remaining time when the start
// payload had no duration.
type attemptStateMsg struct {
	State *exam.State
	Err   error
}

// timerTickMsg is sent every second while the attempt runs.
type timerTickMsg time.Time

// screenshotMsg is sent when the screenshot signal arrives.
type screenshotMsg struct{}

// answerSavedMsg confirms an autosave.
type answerSavedMsg struct {
	QuestionID string
	Err        error
}

// violationReportedMsg confirms a violation report.
type violationReportedMsg struct {
	Err error
}

// submittedMsg is sent when submission, grading and local history
// writes are complete.
type submittedMsg struct {
	Result *exam.Result
	Err    error
}
