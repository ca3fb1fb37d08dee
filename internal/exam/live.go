package exam

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/abhisek/prepzone/internal/attempt"
)

// LiveConfig configures the platform client.
type LiveConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// LiveService talks to the platform: REST for catalog, attempt state and
// results, and a per-attempt websocket stream for autosave, violation
// reports and submission.
type LiveService struct {
	base   *url.URL
	token  string
	client *http.Client
	dialer *websocket.Dialer
	log    zerolog.Logger

	mu     sync.Mutex
	stream *streamConn
}

type streamConn struct {
	attemptID string
	conn      *websocket.Conn
}

// NewLiveService creates a client for cfg.BaseURL.
func NewLiveService(cfg LiveConfig, log zerolog.Logger) (*LiveService, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base URL scheme must be http or https, got %q", base.Scheme)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &LiveService{
		base:   base,
		token:  cfg.Token,
		client: &http.Client{Timeout: timeout},
		dialer: &websocket.Dialer{HandshakeTimeout: timeout},
		log:    log.With().Str("component", "live_service").Logger(),
	}, nil
}

func (s *LiveService) Name() string { return "live" }

func (s *LiveService) ListTests(ctx context.Context) ([]TestInfo, error) {
	var out struct {
		Tests []TestInfo `json:"tests"`
	}
	if err := s.doJSON(ctx, http.MethodGet, "/api/v1/tests", nil, &out, notFound("tests", "")); err != nil {
		return nil, err
	}
	return out.Tests, nil
}

func (s *LiveService) StartAttempt(ctx context.Context, testID string) (*Session, error) {
	var sess Session
	path := "/api/v1/tests/" + url.PathEscape(testID) + "/attempts"
	body := struct {
		Resume bool `json:"resume"`
	}{Resume: true}
	if err := s.doJSON(ctx, http.MethodPost, path, body, &sess, notFound("test", testID)); err != nil {
		return nil, err
	}
	if sess.AttemptID == "" {
		return nil, &ErrUnavailable{Err: errors.New("start attempt: response missing attempt_id")}
	}
	return &sess, nil
}

func (s *LiveService) AttemptState(ctx context.Context, attemptID string) (*State, error) {
	var st State
	path := "/api/v1/attempts/" + url.PathEscape(attemptID)
	if err := s.doJSON(ctx, http.MethodGet, path, nil, &st, notFound("attempt", attemptID)); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *LiveService) Result(ctx context.Context, attemptID string) (*Result, error) {
	var res Result
	path := "/api/v1/attempts/" + url.PathEscape(attemptID) + "/result"
	if err := s.doJSON(ctx, http.MethodGet, path, nil, &res, notFound("attempt", attemptID)); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *LiveService) SaveAnswer(ctx context.Context, attemptID, questionID string, a attempt.Answer) error {
	_, err := s.call(ctx, attemptID, AutosaveRequest{
		Action: ActionAutosave,
		QID:    questionID,
		Answer: a.String(),
		Clear:  a.IsEmpty(),
	})
	return err
}

func (s *LiveService) ReportViolation(ctx context.Context, attemptID, reason string) error {
	payload, err := json.Marshal(CheatPayload{Reason: reason, At: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal cheat payload: %w", err)
	}
	_, err = s.call(ctx, attemptID, CheatRequest{Action: ActionCheat, Payload: string(payload)})
	return err
}

func (s *LiveService) Submit(ctx context.Context, req SubmitRequest) error {
	msg := SubmitStreamRequest{
		Action:          ActionSubmit,
		Reason:          req.Reason,
		ViolationReason: req.ViolationReason,
		Answers:         make(map[string]string, len(req.Answers)),
		Statuses:        make(map[string]string, len(req.Statuses)),
		Remaining:       req.RemainingSecs,
	}
	for id, a := range req.Answers {
		msg.Answers[id] = a.String()
	}
	for id, st := range req.Statuses {
		msg.Statuses[id] = st.String()
	}

	resp, err := s.call(ctx, req.AttemptID, msg)
	if err != nil {
		return s.submitConflict(ctx, req.AttemptID, err)
	}
	if resp.Event != EventGraded {
		return &ErrUnavailable{Err: fmt.Errorf("submit: unexpected event %q", resp.Event)}
	}
	s.closeStream()
	return nil
}

// submitConflict turns a rejected submit into a 409 when the platform
// reports the attempt as already submitted, e.g. after a graded reply was
// lost and the submit was retried.
func (s *LiveService) submitConflict(ctx context.Context, attemptID string, err error) error {
	var rej *ErrRejected
	if !errors.As(err, &rej) || rej.Status == http.StatusConflict {
		return err
	}
	st, stateErr := s.AttemptState(ctx, attemptID)
	if stateErr != nil || !st.Submitted {
		return err
	}
	s.log.Debug().Str("attempt_id", attemptID).Msg("Submit rejected on an already submitted attempt")
	s.closeStream()
	return &ErrRejected{Status: http.StatusConflict, Message: rej.Message}
}

// Close releases the attempt stream.
func (s *LiveService) Close() error {
	s.closeStream()
	return nil
}

// call sends one stream request and waits for its response. Requests are
// serialized; pongs from keepalive are skipped.
func (s *LiveService) call(ctx context.Context, attemptID string, req any) (*StreamResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, err := s.connLocked(ctx, attemptID)
	if err != nil {
		return nil, err
	}

	if err := writeTyped(ctx, conn, req); err != nil {
		s.dropLocked()
		return nil, &ErrUnavailable{Err: fmt.Errorf("stream write: %w", err)}
	}
	for {
		var resp StreamResponse
		if err := readJSON(ctx, conn, &resp); err != nil {
			s.dropLocked()
			return nil, &ErrUnavailable{Err: fmt.Errorf("stream read: %w", err)}
		}
		switch resp.Event {
		case EventPong:
			continue
		case EventError:
			status := http.StatusUnprocessableEntity
			if resp.Code > 0 {
				status = resp.Code
			}
			return nil, &ErrRejected{Status: status, Message: resp.Error}
		default:
			return &resp, nil
		}
	}
}

// connLocked returns the stream for attemptID, dialing and verifying it
// with a ping when needed.
func (s *LiveService) connLocked(ctx context.Context, attemptID string) (*websocket.Conn, error) {
	if s.stream != nil && s.stream.attemptID == attemptID {
		return s.stream.conn, nil
	}
	s.dropLocked()

	u := *s.base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = u.Path + "/ws/v1/attempts/" + url.PathEscape(attemptID) + "/stream"

	header := http.Header{}
	if s.token != "" {
		header.Set("Authorization", "Bearer "+s.token)
	}
	conn, resp, err := s.dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			if mapped := statusError(resp, notFound("attempt", attemptID)); mapped != nil {
				return nil, mapped
			}
		}
		return nil, &ErrUnavailable{Err: fmt.Errorf("dial stream: %w", err)}
	}

	if err := writeTyped(ctx, conn, PingRequest{Action: ActionPing}); err != nil {
		conn.Close()
		return nil, &ErrUnavailable{Err: fmt.Errorf("stream ping: %w", err)}
	}
	var pong StreamResponse
	if err := readJSON(ctx, conn, &pong); err != nil || pong.Event != EventPong {
		conn.Close()
		if err == nil {
			if pong.Event == EventError {
				return nil, &ErrRejected{Status: http.StatusForbidden, Message: pong.Error}
			}
			err = fmt.Errorf("unexpected event %q", pong.Event)
		}
		return nil, &ErrUnavailable{Err: fmt.Errorf("stream handshake: %w", err)}
	}

	s.log.Debug().Str("attempt_id", attemptID).Msg("Stream connected")
	s.stream = &streamConn{attemptID: attemptID, conn: conn}
	return conn, nil
}

func (s *LiveService) closeStream() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropLocked()
}

func (s *LiveService) dropLocked() {
	if s.stream == nil {
		return
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = s.stream.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = s.stream.conn.Close()
	s.stream = nil
}

// doJSON performs a REST call. body, when non-nil, is sent as JSON; out
// receives the decoded response.
func (s *LiveService) doJSON(ctx context.Context, method, path string, body, out any, nf *ErrNotFound) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.base.String()+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &ErrUnavailable{Err: err}
	}
	defer resp.Body.Close()

	if err := statusError(resp, nf); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ErrUnavailable{Err: fmt.Errorf("decode %s %s: %w", method, path, err)}
	}
	return nil
}

func notFound(kind, id string) *ErrNotFound {
	return &ErrNotFound{Kind: kind, ID: id}
}

// statusError maps a non-2xx response to a typed error.
func statusError(resp *http.Response, nf *ErrNotFound) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var apiErr struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(raw, &apiErr) != nil || apiErr.Error == "" {
		apiErr.Error = strings.TrimSpace(string(raw))
	}
	if apiErr.Error == "" {
		apiErr.Error = http.StatusText(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nf
	case resp.StatusCode == http.StatusTooManyRequests:
		return &ErrRateLimit{
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        errors.New(apiErr.Error),
		}
	case resp.StatusCode >= 500:
		return &ErrUnavailable{Err: fmt.Errorf("status %d: %s", resp.StatusCode, apiErr.Error)}
	default:
		return &ErrRejected{Status: resp.StatusCode, Message: apiErr.Error}
	}
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
