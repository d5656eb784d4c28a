package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

type FrameType string

const (
	FrameTypeRequest  FrameType = "request"
	FrameTypeResponse FrameType = "response"
	FrameTypeEvent    FrameType = "event"
)

// Frame is the envelope exchanged with the gateway over WebSocket.
type Frame struct {
	Type    FrameType       `json:"type"`
	ID      uint64          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
	Code    string          `json:"code,omitempty"`
}

// WSTransport multiplexes calls over a single WebSocket connection. The
// connection is dialled on first use and redialled after it drops.
type WSTransport struct {
	url     string
	token   string
	timeout time.Duration
	logger  *logrus.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	pending map[uint64]chan Frame
	nextID  atomic.Uint64
}

func NewWSTransport(baseURL, token string, timeout time.Duration, logger *logrus.Logger) *WSTransport {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WSTransport{
		url:     wsURL(baseURL),
		token:   token,
		timeout: timeout,
		logger:  logger,
		pending: make(map[uint64]chan Frame),
	}
}

// wsURL maps an http(s) gateway address to its ws(s) endpoint.
func wsURL(base string) string {
	base = strings.TrimRight(base, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	if !strings.HasSuffix(base, "/ws") {
		base += "/ws"
	}
	return base
}

func (t *WSTransport) connect(ctx context.Context) (*websocket.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return t.conn, nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	opts := &websocket.DialOptions{}
	if t.token != "" {
		opts.HTTPHeader = http.Header{"Authorization": []string{"Bearer " + t.token}}
	}
	conn, _, err := websocket.Dial(dialCtx, t.url, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrUnavailable, t.url, err)
	}
	conn.SetReadLimit(maxResponseBytes)

	t.conn = conn
	go t.readLoop(conn)

	t.logger.WithField("url", t.url).Info("Connected to gateway websocket")
	return conn, nil
}

func (t *WSTransport) readLoop(conn *websocket.Conn) {
	for {
		var frame Frame
		if err := wsjson.Read(context.Background(), conn, &frame); err != nil {
			t.drop(conn, err)
			return
		}
		if frame.Type != FrameTypeResponse {
			continue
		}

		t.mu.Lock()
		ch, ok := t.pending[frame.ID]
		delete(t.pending, frame.ID)
		t.mu.Unlock()

		if ok {
			ch <- frame
		}
	}
}

// drop forgets a broken connection and fails every call waiting on it.
func (t *WSTransport) drop(conn *websocket.Conn, cause error) {
	t.mu.Lock()
	if t.conn != conn {
		t.mu.Unlock()
		return
	}
	t.conn = nil
	pending := t.pending
	t.pending = make(map[uint64]chan Frame)
	t.mu.Unlock()

	if cause != nil && websocket.CloseStatus(cause) != websocket.StatusNormalClosure {
		t.logger.WithError(cause).Warn("Gateway websocket connection lost")
	}
	for _, ch := range pending {
		close(ch)
	}
	conn.Close(websocket.StatusGoingAway, "")
}

func (t *WSTransport) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	payload, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s params: %w", method, err)
	}

	conn, err := t.connect(ctx)
	if err != nil {
		return nil, err
	}

	id := t.nextID.Add(1)
	ch := make(chan Frame, 1)
	t.mu.Lock()
	t.pending[id] = ch
	t.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req := Frame{Type: FrameTypeRequest, ID: id, Method: method, Payload: payload}
	if err := wsjson.Write(ctx, conn, req); err != nil {
		t.forget(id)
		t.drop(conn, err)
		return nil, fmt.Errorf("%w: write %s: %v", ErrUnavailable, method, err)
	}

	select {
	case frame, ok := <-ch:
		if !ok {
			return nil, fmt.Errorf("%w: connection closed during %s", ErrUnavailable, method)
		}
		if frame.Error != "" {
			return nil, &RPCError{Method: method, Code: frame.Code, Message: frame.Error}
		}
		if len(frame.Payload) == 0 {
			return json.RawMessage("null"), nil
		}
		return frame.Payload, nil
	case <-ctx.Done():
		t.forget(id)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s timed out", ErrUnavailable, method)
		}
		return nil, ctx.Err()
	}
}

func (t *WSTransport) forget(id uint64) {
	t.mu.Lock()
	delete(t.pending, id)
	t.mu.Unlock()
}

func (t *WSTransport) Close() error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn != nil {
		t.drop(conn, nil)
	}
	return nil
}
