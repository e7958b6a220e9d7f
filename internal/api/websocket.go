package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"proviai.com/provider-assistant/internal/core"
)

const (
	wsBuffer       = 64
	wsWriteTimeout = 5 * time.Second
)

// wsMessage is one frame of the transcript stream.
type wsMessage struct {
	Type  string      `json:"type"` // state, entry or reset
	Entry *core.Entry `json:"entry,omitempty"`
	State core.State  `json:"state"`
}

// TranscriptStreamHandler streams transcript entries to the browser as they
// are appended. The first frame carries the full state.
func (h *APIHandler) TranscriptStreamHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := SessionFromContext(r.Context()).ID()
	wizard := h.runnerFor(r).Wizard()

	// The stream outlives the server's WriteTimeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("Could not clear write deadline", zap.Error(err))
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn("Failed to accept websocket", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	defer func() {
		if closeErr := conn.Close(websocket.StatusNormalClosure, "stream ended"); closeErr != nil {
			h.logger.Debug("Failed to close websocket", zap.Error(closeErr))
		}
	}()

	// The stream is one-way; CloseRead cancels ctx when the client goes away.
	ctx := conn.CloseRead(r.Context())

	entries := make(chan core.Entry, wsBuffer)
	overflow := make(chan struct{})
	var overflowed bool
	unsubscribe := wizard.Subscribe(func(e core.Entry) {
		if overflowed {
			return
		}
		select {
		case entries <- e:
		default:
			overflowed = true
			close(overflow)
		}
	})
	defer unsubscribe()

	if err := h.writeFrame(ctx, conn, wsMessage{Type: "state", State: wizard.Snapshot()}); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-overflow:
			h.logger.Warn("Transcript stream fell behind", zap.String("session_id", sessionID))
			return
		case e := <-entries:
			msg := wsMessage{Type: "entry", State: wizard.Snapshot()}
			if e.ID == "" {
				msg.Type = "reset"
			} else {
				msg.Entry = &e
			}
			if err := h.writeFrame(ctx, conn, msg); err != nil {
				return
			}
		}
	}
}

func (h *APIHandler) writeFrame(ctx context.Context, conn *websocket.Conn, msg wsMessage) error {
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()

	err := wsjson.Write(ctx, conn, msg)
	if err != nil && !errors.Is(err, context.Canceled) {
		h.logger.Debug("Websocket write failed", zap.Error(err))
	}
	return err
}
