package attempt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"

	att "github.com/abhisek/prepzone/internal/attempt"
	"github.com/abhisek/prepzone/internal/exam"
	"github.com/abhisek/prepzone/internal/router"
	"github.com/abhisek/prepzone/internal/screen"
	"github.com/abhisek/prepzone/internal/screens/result"
	"github.com/abhisek/prepzone/internal/store"
	"github.com/abhisek/prepzone/internal/ui/components"
	"github.com/abhisek/prepzone/internal/ui/layout"
)

// requestTimeout bounds every service call made from the screen.
const requestTimeout = 30 * time.Second

// Settings carries the attempt options from configuration.
type Settings struct {
	MaxWarnings int
	Screenshots bool
}

type violationEntry struct {
	Reason string
	Count  int
	At     time.Time
}

// AttemptScreen hosts the attempt engine: it renders the current
// question, feeds terminal events to the security monitor and runs the
// submit flow.
type AttemptScreen struct {
	svc      exam.Service
	repo     store.AttemptRepo
	testID   string
	settings Settings
	log      zerolog.Logger
	now      func() time.Time

	session *exam.Session
	engine  *att.Engine
	monitor *att.Monitor
	source  *termSource
	shots   *screenshotWatcher

	options components.OptionList
	input   components.TextInput
	palette components.Palette
	confirm components.ButtonRow

	showConfirm bool
	ending      bool
	endReason   exam.EndReason

	// Set by engine and monitor callbacks, drained after each event.
	timeUp          bool
	violationReason string
	pendingReports  []string

	violations []violationEntry
	saved      map[string]string
	warning    string
	saveErr    string
	submitErr  string
	errMsg     string
}

var _ screen.Screen = (*AttemptScreen)(nil)
var _ screen.KeyHintProvider = (*AttemptScreen)(nil)
var _ screen.StatusProvider = (*AttemptScreen)(nil)
var _ screen.BackInterceptor = (*AttemptScreen)(nil)
var _ screen.Closer = (*AttemptScreen)(nil)

// New creates an attempt screen for testID.
func New(svc exam.Service, repo store.AttemptRepo, testID string, settings Settings, log zerolog.Logger) *AttemptScreen {
	return &AttemptScreen{
		svc:      svc,
		repo:     repo,
		testID:   testID,
		settings: settings,
		log:      log.With().Str("component", "attempt").Str("test_id", testID).Logger(),
		now:      time.Now,
		saved:    make(map[string]string),
	}
}

func (s *AttemptScreen) Init() tea.Cmd {
	return s.startAttempt()
}

func (s *AttemptScreen) Title() string {
	if s.session != nil && s.session.Title != "" {
		return s.session.Title
	}
	return "Attempt"
}

// InterceptBack keeps Esc inside the screen while an attempt is open.
func (s *AttemptScreen) InterceptBack() bool {
	return s.engine != nil && s.errMsg == ""
}

func (s *AttemptScreen) KeyHints() []layout.KeyHint {
	switch {
	case s.engine == nil:
		return nil
	case s.ending && s.submitErr != "":
		return []layout.KeyHint{
			{Key: "R", Description: "Retry submit"},
			{Key: "Esc", Description: "Leave"},
		}
	case s.ending:
		return nil
	case s.showConfirm:
		return []layout.KeyHint{
			{Key: "←→", Description: "Choose"},
			{Key: "Enter", Description: "Confirm"},
			{Key: "Esc", Description: "Cancel"},
		}
	case s.palette.Focused:
		return []layout.KeyHint{
			{Key: "Arrows", Description: "Move"},
			{Key: "Enter", Description: "Go to"},
			{Key: "G/Esc", Description: "Close"},
		}
	}
	hints := []layout.KeyHint{{Key: "←→", Description: "Prev/Next"}}
	if q, ok := s.engine.Current(); ok && q.Type.IsChoice() {
		hints = append(hints, layout.KeyHint{Key: "1-9", Description: "Select"})
	}
	return append(hints,
		layout.KeyHint{Key: "M", Description: "Mark"},
		layout.KeyHint{Key: "C", Description: "Clear"},
		layout.KeyHint{Key: "G", Description: "Palette"},
		layout.KeyHint{Key: "S", Description: "Submit"},
	)
}

// Close tears the attempt down when the app quits mid-attempt.
func (s *AttemptScreen) Close() {
	s.teardown()
}

func (s *AttemptScreen) teardown() {
	if s.engine != nil {
		s.engine.Stop()
	}
	s.shots.stop()
}

func (s *AttemptScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case attemptStartedMsg:
		return s.handleStarted(msg)

	case attemptStateMsg:
		return s.handleState(msg)

	case timerTickMsg:
		return s.handleTick(time.Time(msg))

	case tea.FocusMsg:
		return s.handleAppState(att.AppActive)

	case tea.BlurMsg:
		return s.handleAppState(att.AppBackground)

	case screenshotMsg:
		return s.handleScreenshot()

	case components.OptionPressedMsg:
		return s.handleOptionPressed(msg)

	case components.PaletteJumpMsg:
		s.palette.Focused = false
		return s, s.navigate(func() bool { return s.engine.GoTo(msg.Index) })

	case answerSavedMsg:
		if msg.Err != nil {
			s.saveErr = fmt.Sprintf("Autosave failed: %v", msg.Err)
			delete(s.saved, msg.QuestionID)
		} else {
			s.saveErr = ""
		}
		return s, nil

	case violationReportedMsg:
		if msg.Err != nil {
			s.log.Warn().Err(msg.Err).Msg("Violation report failed")
		}
		return s, nil

	case submittedMsg:
		return s.handleSubmitted(msg)

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.engine != nil && !s.ending {
		if q, ok := s.engine.Current(); ok && q.Type.IsNumeric() {
			var cmd tea.Cmd
			s.input, cmd = s.input.Update(msg)
			return s, cmd
		}
	}
	return s, nil
}

func (s *AttemptScreen) startAttempt() tea.Cmd {
	svc := s.svc
	testID := s.testID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		sess, err := svc.StartAttempt(ctx, testID)
		return attemptStartedMsg{Session: sess, Err: err}
	}
}

func (s *AttemptScreen) fetchState() tea.Cmd {
	svc := s.svc
	attemptID := s.session.AttemptID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		st, err := svc.AttemptState(ctx, attemptID)
		return attemptStateMsg{State: st, Err: err}
	}
}

func (s *AttemptScreen) handleStarted(msg attemptStartedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.errMsg = fmt.Sprintf("Could not start the test: %v", msg.Err)
		return s, nil
	}
	sess := msg.Session
	if len(sess.Questions) == 0 {
		s.errMsg = "This test has no questions."
		return s, nil
	}
	s.session = sess
	s.log = s.log.With().Str("attempt_id", sess.AttemptID).Logger()

	opts := []att.EngineOption{
		att.WithOnTimeUp(func(att.Snapshot) { s.timeUp = true }),
		att.WithLogger(s.log),
	}
	if sess.RemainingSeconds != nil {
		opts = append(opts, att.WithInitialRemaining(*sess.RemainingSeconds))
	}
	s.engine = att.New(sess.Questions, sess.DurationSeconds, opts...)
	s.restoreProgress(sess.Answers, sess.Statuses)

	s.monitor = att.NewMonitor(s.settings.MaxWarnings,
		func(reason string) {
			if s.violationReason == "" {
				s.violationReason = reason
			}
		},
		att.WithEventHook(s.recordViolation),
		att.WithMonitorLogger(s.log),
	)
	s.source = newTermSource()
	s.engine.AttachSecurity(s.monitor.Start(s.source))

	s.palette = components.NewPalette(s.engine.Total(), 5)
	s.resetInputs()

	// A resumed attempt with no time left is over; the timer latched at
	// zero never fires on its own.
	if sess.RemainingSeconds != nil && *sess.RemainingSeconds <= 0 {
		s.log.Info().Msg("Resumed attempt has no time left")
		return s, s.finish(exam.EndTimeUp)
	}

	cmds := []tea.Cmd{tickCmd()}
	if s.settings.Screenshots {
		s.shots = newScreenshotWatcher()
		cmds = append(cmds, s.shots.wait())
	}

	s.log.Info().
		Int("questions", s.engine.Total()).
		Int("duration_secs", sess.DurationSeconds).
		Bool("resumed", sess.RemainingSeconds != nil).
		Msg("Attempt started")

	if sess.DurationSeconds <= 0 && sess.RemainingSeconds == nil {
		cmds = append(cmds, s.fetchState())
	} else {
		s.engine.Start(s.now())
	}
	if q, ok := s.engine.Current(); ok && q.Type.IsNumeric() {
		cmds = append(cmds, s.input.Init())
	}
	return s, tea.Batch(cmds...)
}

// restoreProgress replays answers and statuses saved before a resume.
// Statuses the engine derives from answers are left to SaveAnswer; visits
// and review marks are replayed on top.
func (s *AttemptScreen) restoreProgress(answers map[string]att.Answer, statuses map[string]att.Status) {
	if len(answers) == 0 && len(statuses) == 0 {
		return
	}
	for i, q := range s.engine.Questions() {
		a, hasAnswer := answers[q.ID]
		hasAnswer = hasAnswer && !a.IsEmpty()
		st, hasStatus := statuses[q.ID]
		if !hasAnswer && (!hasStatus || st == att.StatusNotVisited) {
			continue
		}

		s.engine.GoTo(i)
		if hasAnswer {
			s.engine.SaveAnswer(a)
			s.saved[q.ID] = a.String()
		}
		if hasStatus && st.IsMarked() {
			s.engine.MarkForReview()
		}
	}
	s.engine.GoTo(0)
}

func (s *AttemptScreen) handleState(msg attemptStateMsg) (screen.Screen, tea.Cmd) {
	if s.engine == nil || s.ending {
		return s, nil
	}
	if msg.Err != nil {
		s.teardown()
		s.errMsg = fmt.Sprintf("Could not load the test duration: %v", msg.Err)
		return s, nil
	}
	if msg.State.Submitted || msg.State.RemainingSeconds <= 0 {
		s.log.Info().
			Bool("submitted", msg.State.Submitted).
			Msg("Attempt has no time left")
		return s, s.finish(exam.EndTimeUp)
	}
	if s.engine.AdoptDuration(msg.State.RemainingSeconds) {
		s.engine.Start(s.now())
	}
	return s, nil
}

func (s *AttemptScreen) handleTick(t time.Time) (screen.Screen, tea.Cmd) {
	if s.engine == nil || s.engine.Stopped() {
		return s, nil
	}
	s.engine.Sync(t)
	if s.timeUp {
		return s, s.finish(exam.EndTimeUp)
	}
	return s, tickCmd()
}

func (s *AttemptScreen) handleAppState(st att.AppState) (screen.Screen, tea.Cmd) {
	if s.source == nil || s.ending {
		return s, nil
	}
	s.source.emitAppState(st)
	return s, s.drainSecurity()
}

func (s *AttemptScreen) handleScreenshot() (screen.Screen, tea.Cmd) {
	if s.source == nil || s.ending {
		return s, nil
	}
	s.source.emitScreenshot()
	return s, tea.Batch(s.drainSecurity(), s.shots.wait())
}

func (s *AttemptScreen) recordViolation(v att.Violation) {
	s.violations = append(s.violations, violationEntry{Reason: v.Reason, Count: v.Count, At: s.now()})
	s.pendingReports = append(s.pendingReports, v.Reason)
	s.warning = fmt.Sprintf("Warning %d/%d: %s", v.Count, s.monitor.Threshold(), v.Reason)
}

// drainSecurity turns callback state into commands: one report per
// counted violation, then a forced submit once the threshold is hit.
func (s *AttemptScreen) drainSecurity() tea.Cmd {
	var cmds []tea.Cmd
	for _, reason := range s.pendingReports {
		cmds = append(cmds, s.reportViolation(reason))
	}
	s.pendingReports = nil

	if s.violationReason != "" {
		cmds = append(cmds, s.finish(exam.EndViolation))
	}
	return tea.Batch(cmds...)
}

func (s *AttemptScreen) reportViolation(reason string) tea.Cmd {
	svc := s.svc
	attemptID := s.session.AttemptID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return violationReportedMsg{Err: svc.ReportViolation(ctx, attemptID, reason)}
	}
}

func (s *AttemptScreen) handleOptionPressed(msg components.OptionPressedMsg) (screen.Screen, tea.Cmd) {
	if s.engine == nil || s.ending {
		return s, nil
	}
	s.engine.SelectOption(msg.OptionID)
	return s, s.autosaveCurrent()
}

// autosaveCurrent saves the current answer if it differs from the last
// value sent for that question.
func (s *AttemptScreen) autosaveCurrent() tea.Cmd {
	q, ok := s.engine.Current()
	if !ok {
		return nil
	}
	a, _ := s.engine.CurrentAnswer()
	text := a.String()
	if prev, ok := s.saved[q.ID]; ok && prev == text {
		return nil
	}
	if _, ok := s.saved[q.ID]; !ok && a.IsEmpty() {
		return nil
	}
	s.saved[q.ID] = text

	svc := s.svc
	attemptID := s.session.AttemptID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return answerSavedMsg{QuestionID: q.ID, Err: svc.SaveAnswer(ctx, attemptID, q.ID, a)}
	}
}

// navigate saves a pending numeric answer, moves, and rebuilds the
// input widgets for the new question.
func (s *AttemptScreen) navigate(move func() bool) tea.Cmd {
	save := s.autosaveCurrent()
	if !move() {
		return save
	}
	s.resetInputs()
	if q, ok := s.engine.Current(); ok && q.Type.IsNumeric() {
		return tea.Batch(save, s.input.Init())
	}
	return save
}

func (s *AttemptScreen) resetInputs() {
	q, ok := s.engine.Current()
	if !ok {
		return
	}
	s.options = components.NewOptionList(q)
	s.input = components.NewTextInput("Type a number", q.Type == att.TypeNumerical, 24)
	if a, ok := s.engine.CurrentAnswer(); ok && q.Type.IsNumeric() {
		s.input.SetValue(a.String())
		s.input.SetState(att.NumericValid)
	}
}

func (s *AttemptScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.errMsg != "" {
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}
	if s.engine == nil {
		return s, nil
	}

	if s.ending {
		if s.submitErr == "" {
			return s, nil
		}
		switch key {
		case "r", "R":
			s.submitErr = ""
			return s, s.submitCmd(s.endReason)
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
		return s, nil
	}

	if s.showConfirm {
		if key == "esc" {
			s.showConfirm = false
			return s, nil
		}
		var cmd tea.Cmd
		s.confirm, cmd = s.confirm.Update(msg)
		return s, cmd
	}

	if s.palette.Focused {
		switch key {
		case "esc", "g", "G":
			s.palette.Focused = false
			return s, nil
		}
		var cmd tea.Cmd
		s.palette, cmd = s.palette.Update(msg)
		return s, cmd
	}

	switch key {
	case "esc", "s", "S":
		return s, s.openConfirm()
	case "right", "n", "N":
		return s, s.navigate(s.engine.Next)
	case "left", "p", "P":
		return s, s.navigate(s.engine.Prev)
	case "m", "M":
		s.engine.MarkForReview()
		return s, nil
	case "c", "C":
		s.engine.ClearResponse()
		s.resetInputs()
		return s, s.autosaveCurrent()
	case "g", "G":
		s.palette.Focused = true
		s.palette.Cursor = s.engine.CurrentIndex()
		return s, nil
	}

	q, ok := s.engine.Current()
	if !ok {
		return s, nil
	}
	if q.Type.IsChoice() {
		var cmd tea.Cmd
		s.options, cmd = s.options.Update(msg)
		return s, cmd
	}

	var cmd tea.Cmd
	before := s.input.Value()
	s.input, cmd = s.input.Update(msg)
	if s.input.Value() != before {
		s.input.SetState(s.engine.SetNumericText(s.input.Value()))
	}
	return s, cmd
}

func (s *AttemptScreen) openConfirm() tea.Cmd {
	s.showConfirm = true
	s.confirm = components.NewButtonRow(1,
		components.NewButton("Submit test", false, func() tea.Cmd {
			s.showConfirm = false
			return s.finish(exam.EndManual)
		}),
		components.NewButton("Keep working", false, func() tea.Cmd {
			s.showConfirm = false
			return nil
		}),
	)
	return nil
}

// finish ends the attempt exactly once: the engine stops, the monitor is
// released and the final state is submitted.
func (s *AttemptScreen) finish(reason exam.EndReason) tea.Cmd {
	if s.ending || s.engine == nil {
		return nil
	}
	s.ending = true
	s.endReason = reason
	s.showConfirm = false
	s.palette.Focused = false
	s.teardown()

	s.log.Info().
		Str("reason", string(reason)).
		Int("remaining_secs", s.engine.Remaining()).
		Int("violations", len(s.violations)).
		Msg("Attempt ending")

	return s.submitCmd(reason)
}

func (s *AttemptScreen) submitCmd(reason exam.EndReason) tea.Cmd {
	snap := s.engine.Snapshot()
	req := exam.SubmitRequest{
		AttemptID:       s.session.AttemptID,
		Answers:         snap.Answers,
		Statuses:        snap.Statuses,
		Reason:          reason,
		ViolationReason: s.violationReason,
		RemainingSecs:   snap.Remaining,
	}
	svc := s.svc
	repo := s.repo
	sess := s.session
	violations := append([]violationEntry(nil), s.violations...)
	log := s.log
	now := s.now

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := svc.Submit(ctx, req); err != nil {
			var rej *exam.ErrRejected
			// A retried submit can find the attempt already closed.
			if !errors.As(err, &rej) || rej.Status != http.StatusConflict {
				return submittedMsg{Err: fmt.Errorf("submit: %w", err)}
			}
		}
		res, err := svc.Result(ctx, req.AttemptID)
		if err != nil {
			return submittedMsg{Err: fmt.Errorf("fetch result: %w", err)}
		}

		if repo != nil {
			if err := saveHistory(ctx, repo, svc.Name(), sess, req, res, violations, now()); err != nil {
				log.Warn().Err(err).Msg("Save attempt history")
			}
		}
		return submittedMsg{Result: res}
	}
}

func (s *AttemptScreen) handleSubmitted(msg submittedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.submitErr = msg.Err.Error()
		s.log.Error().Err(msg.Err).Msg("Submit failed")
		return s, nil
	}
	res := msg.Result
	s.log.Info().
		Float64("score", res.Score).
		Float64("max_score", res.MaxScore).
		Msg("Attempt graded")

	return s, func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: result.New(res)}
	}
}

// saveHistory writes the attempt summary and its audit events.
func saveHistory(ctx context.Context, repo store.AttemptRepo, backend string, sess *exam.Session, req exam.SubmitRequest, res *exam.Result, violations []violationEntry, submittedAt time.Time) error {
	rec := &store.AttemptRecord{
		AttemptID:     sess.AttemptID,
		TestID:        sess.TestID,
		Title:         sess.Title,
		Backend:       backend,
		Reason:        string(req.Reason),
		Score:         res.Score,
		MaxScore:      res.MaxScore,
		Correct:       res.Correct,
		Incorrect:     res.Incorrect,
		Unattempted:   res.Unattempted,
		Violations:    len(violations),
		DurationSecs:  sess.DurationSeconds,
		RemainingSecs: req.RemainingSecs,
		StartedAt:     sess.StartedAt,
		SubmittedAt:   submittedAt,
	}
	if err := repo.SaveAttempt(ctx, rec); err != nil {
		return err
	}

	events := []store.AttemptEvent{{
		AttemptID: sess.AttemptID,
		Kind:      store.EventStarted,
		Timestamp: sess.StartedAt,
		Data: map[string]any{
			"questions":     len(sess.Questions),
			"duration_secs": sess.DurationSeconds,
		},
	}}
	for _, v := range violations {
		events = append(events, store.AttemptEvent{
			AttemptID: sess.AttemptID,
			Kind:      store.EventViolation,
			Timestamp: v.At,
			Data:      map[string]any{"reason": v.Reason, "count": v.Count},
		})
	}
	events = append(events, store.AttemptEvent{
		AttemptID: sess.AttemptID,
		Kind:      store.EventSubmitted,
		Timestamp: submittedAt,
		Data: map[string]any{
			"reason":           string(req.Reason),
			"violation_reason": req.ViolationReason,
			"answered":         len(req.Answers),
			"score":            res.Score,
		},
	})

	for _, ev := range events {
		if _, err := repo.AppendEvent(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

// tickCmd returns a 1-second tick command.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return timerTickMsg(t)
	})
}
