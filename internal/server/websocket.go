// SPDX-License-Identifier: EPL-2.0

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ik5/audconv/convert"
	"github.com/ik5/audconv/engine"
	"github.com/ik5/audconv/formats"
)

const (
	writeDeadline = 10 * time.Second
	readDeadline  = 60 * time.Second
)

// Message types sent by the server on /ws/convert.
const (
	TypeProgress = "progress"
	TypeResult   = "result"
	TypeError    = "error"
)

// WSRequest opens a WebSocket conversion. The file follows as one binary
// frame.
type WSRequest struct {
	Format   string          `json:"format"`
	Filename string          `json:"filename"`
	MIMEType string          `json:"mime_type"`
	Quality  convert.Quality `json:"quality"`
}

// WSMessage is a text frame sent back to the client. A result message is
// followed by the converted file as one binary frame.
type WSMessage struct {
	Type     string          `json:"type"`
	Progress int             `json:"progress"`
	Message  string          `json:"message,omitempty"`
	Error    string          `json:"error,omitempty"`
	Result   *convert.Result `json:"result,omitempty"`
	Size     int             `json:"size,omitempty"`
}

// wsConn serializes writes; gorilla allows one concurrent writer.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return c.conn.WriteMessage(messageType, data)
}

func (c *wsConn) send(msg WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.write(websocket.TextMessage, data)
}

func (c *wsConn) fail(err error) {
	c.send(WSMessage{Type: TypeError, Error: err.Error()})
	c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// handleWebSocket runs one conversion per connection and streams its
// progress.
func (h *HTTPServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade error", "error", err)
		return
	}
	defer conn.Close()

	h.logger.Debug("new WebSocket connection", "remote", r.RemoteAddr)

	conn.SetReadLimit(h.maxUpload + formOverhead)
	ws := &wsConn{conn: conn}

	req, data, err := readWSRequest(conn)
	if err != nil {
		h.logger.Warn("bad WebSocket request", "remote", r.RemoteAddr, "error", err)
		ws.fail(err)
		return
	}

	format, err := formats.ParseFormat(req.Format)
	if err != nil {
		ws.fail(err)
		return
	}

	// The peer has nothing more to send; a read error means it went away.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	if err := h.acquire(ctx); err != nil {
		ws.fail(err)
		return
	}
	defer h.release()

	start := time.Now()
	res, err := h.conv.Convert(ctx, convert.Request{
		File:    engine.File{Name: req.Filename, MIMEType: req.MIMEType, Data: data},
		Format:  format,
		Quality: req.Quality,
	}, func(p convert.Progress) {
		ws.send(WSMessage{Type: TypeProgress, Progress: p.Progress, Message: p.Message})
	})
	if h.metrics != nil {
		status := http.StatusOK
		if err != nil {
			status = statusFor(err)
		}
		h.metrics.RecordHTTPRequest(r.Method, "/ws/convert", status, time.Since(start).Seconds())
	}
	if err != nil {
		h.logger.Warn("WebSocket conversion failed", "file", req.Filename, "format", format, "error", err)
		ws.fail(err)
		return
	}

	if err := ws.send(WSMessage{Type: TypeResult, Result: res, Size: len(res.Data)}); err != nil {
		h.logger.Warn("sending result", "error", err)
		return
	}
	if err := ws.write(websocket.BinaryMessage, res.Data); err != nil {
		h.logger.Warn("sending converted file", "error", err)
		return
	}
	ws.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// readWSRequest reads the JSON header frame and the binary file frame.
func readWSRequest(conn *websocket.Conn) (WSRequest, []byte, error) {
	var req WSRequest

	conn.SetReadDeadline(time.Now().Add(readDeadline))
	kind, msg, err := conn.ReadMessage()
	if err != nil {
		return req, nil, fmt.Errorf("reading request: %w", err)
	}
	if kind != websocket.TextMessage {
		return req, nil, errors.New("first frame must be a JSON request")
	}
	if err := json.Unmarshal(msg, &req); err != nil {
		return req, nil, fmt.Errorf("decoding request: %w", err)
	}

	kind, data, err := conn.ReadMessage()
	if err != nil {
		return req, nil, fmt.Errorf("reading file: %w", err)
	}
	if kind != websocket.BinaryMessage {
		return req, nil, errors.New("second frame must carry the file")
	}
	conn.SetReadDeadline(time.Time{})

	return req, data, nil
}
