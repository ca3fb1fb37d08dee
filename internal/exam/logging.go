package exam

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/abhisek/prepzone/internal/attempt"
)

// LoggingService is a decorator that logs every call with its latency.
type LoggingService struct {
	inner Service
	log   zerolog.Logger
}

// WithLogging wraps a Service with structured logging.
func WithLogging(s Service, log zerolog.Logger) Service {
	return &LoggingService{
		inner: s,
		log:   log.With().Str("component", "exam").Str("backend", s.Name()).Logger(),
	}
}

func (l *LoggingService) observe(op string, start time.Time, err error) *zerolog.Event {
	var ev *zerolog.Event
	if err != nil {
		ev = l.log.Warn().Err(err)
	} else {
		ev = l.log.Debug()
	}
	return ev.Str("op", op).Int64("latency_ms", time.Since(start).Milliseconds())
}

func (l *LoggingService) ListTests(ctx context.Context) ([]TestInfo, error) {
	start := time.Now()
	tests, err := l.inner.ListTests(ctx)
	l.observe("list_tests", start, err).Int("count", len(tests)).Msg("Exam call")
	return tests, err
}

func (l *LoggingService) StartAttempt(ctx context.Context, testID string) (*Session, error) {
	start := time.Now()
	sess, err := l.inner.StartAttempt(ctx, testID)
	ev := l.observe("start_attempt", start, err).Str("test_id", testID)
	if sess != nil {
		ev = ev.Str("attempt_id", sess.AttemptID).
			Int("questions", len(sess.Questions)).
			Bool("resumed", sess.RemainingSeconds != nil)
	}
	ev.Msg("Exam call")
	return sess, err
}

func (l *LoggingService) AttemptState(ctx context.Context, attemptID string) (*State, error) {
	start := time.Now()
	st, err := l.inner.AttemptState(ctx, attemptID)
	l.observe("attempt_state", start, err).Str("attempt_id", attemptID).Msg("Exam call")
	return st, err
}

func (l *LoggingService) SaveAnswer(ctx context.Context, attemptID, questionID string, a attempt.Answer) error {
	start := time.Now()
	err := l.inner.SaveAnswer(ctx, attemptID, questionID, a)
	l.observe("save_answer", start, err).
		Str("attempt_id", attemptID).
		Str("question_id", questionID).
		Bool("clear", a.IsEmpty()).
		Msg("Exam call")
	return err
}

func (l *LoggingService) ReportViolation(ctx context.Context, attemptID, reason string) error {
	start := time.Now()
	err := l.inner.ReportViolation(ctx, attemptID, reason)
	l.observe("report_violation", start, err).
		Str("attempt_id", attemptID).
		Str("reason", reason).
		Msg("Exam call")
	return err
}

func (l *LoggingService) Submit(ctx context.Context, req SubmitRequest) error {
	start := time.Now()
	err := l.inner.Submit(ctx, req)
	l.observe("submit", start, err).
		Str("attempt_id", req.AttemptID).
		Str("reason", string(req.Reason)).
		Int("answers", len(req.Answers)).
		Msg("Exam call")
	return err
}

func (l *LoggingService) Result(ctx context.Context, attemptID string) (*Result, error) {
	start := time.Now()
	res, err := l.inner.Result(ctx, attemptID)
	ev := l.observe("result", start, err).Str("attempt_id", attemptID)
	if res != nil {
		ev = ev.Float64("score", res.Score)
	}
	ev.Msg("Exam call")
	return res, err
}

func (l *LoggingService) Name() string { return l.inner.Name() }

func (l *LoggingService) Close() error { return l.inner.Close() }
