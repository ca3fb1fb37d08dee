package exam

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

// Action names a stream request.
type Action string

const (
	ActionAutosave Action = "autosave"
	ActionSubmit   Action = "submit"
	ActionPing     Action = "ping"
	ActionCheat    Action = "cheat"
)

// AutosaveRequest saves a single answer. Clear removes it instead.
type AutosaveRequest struct {
	Action Action `json:"action"`
	QID    string `json:"q_id"`
	Answer string `json:"ans"`
	Clear  bool   `json:"clear,omitempty"`
}

// CheatRequest reports a security event. Payload is a JSON string.
type CheatRequest struct {
	Action  Action `json:"action"`
	Payload string `json:"payload"`
}

// CheatPayload is the decoded form of CheatRequest.Payload.
type CheatPayload struct {
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

// SubmitStreamRequest finishes the attempt with the final client state.
type SubmitStreamRequest struct {
	Action          Action            `json:"action"`
	Reason          EndReason         `json:"reason"`
	ViolationReason string            `json:"violation_reason,omitempty"`
	Answers         map[string]string `json:"answers"`
	Statuses        map[string]string `json:"statuses"`
	Remaining       int               `json:"remaining_seconds"`
}

// PingRequest checks the stream is alive.
type PingRequest struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

// Event names a stream response.
type Event string

const (
	EventError   Event = "error"
	EventSuccess Event = "success"
	EventGraded  Event = "graded"
	EventPong    Event = "pong"
)

// StreamResponse is the union of every server event.
type StreamResponse struct {
	Event  Event   `json:"event"`
	Status string  `json:"status,omitempty"`
	Score  float64 `json:"score,omitempty"`
	Error  string  `json:"error,omitempty"`

	// Code is an optional HTTP-style status for error events.
	Code int `json:"code,omitempty"`
}

const (
	writeWait = 10 * time.Second
	readWait  = 30 * time.Second
)

// writeTyped sends v with a write deadline bounded by ctx.
func writeTyped(ctx context.Context, conn *websocket.Conn, v any) error {
	conn.SetWriteDeadline(deadline(ctx, writeWait))
	return conn.WriteJSON(v)
}

// readJSON decodes the next message with a read deadline bounded by ctx.
func readJSON(ctx context.Context, conn *websocket.Conn, v any) error {
	conn.SetReadDeadline(deadline(ctx, readWait))
	return conn.ReadJSON(v)
}

func deadline(ctx context.Context, fallback time.Duration) time.Time {
	d := time.Now().Add(fallback)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}
	return d
}
