package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const websocketWriteTimeout = 2 * time.Second

// WebSocketSource streams recognition from a recognizer service. Each
// listening session opens a connection, sends {"type":"start"}, and reads
// result, complete, and error frames until the service completes or the
// session is stopped, at which point {"type":"stop"} is sent.
type WebSocketSource struct {
	*runner
	url    string
	dialer *websocket.Dialer
	logger *slog.Logger
}

// NewWebSocketSource builds a source for a ws:// or wss:// recognizer URL.
func NewWebSocketSource(rawURL string, logger *slog.Logger) (*WebSocketSource, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse recognizer url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("recognizer url must use ws or wss, got %q", u.Scheme)
	}

	s := &WebSocketSource{
		url:    u.String(),
		dialer: &websocket.Dialer{HandshakeTimeout: 5 * time.Second},
		logger: logger,
	}
	s.runner = newRunner(s.open)
	return s, nil
}

type controlFrame struct {
	Type string `json:"type"`
}

type recognizerFrame struct {
	Type       string  `json:"type"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Cause      string  `json:"cause"`
	Code       string  `json:"code"`
}

type websocketSession struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	logger  *slog.Logger
}

func (s *WebSocketSource) open(ctx context.Context) (session, error) {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial recognizer %s: %w", s.url, err)
	}

	sess := &websocketSession{conn: conn, logger: s.logger}
	if err := sess.send("start"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("start recognizer session: %w", err)
	}
	return sess, nil
}

func (w *websocketSession) send(kind string) error {
	payload, err := json.Marshal(controlFrame{Type: kind})
	if err != nil {
		return err
	}

	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(websocketWriteTimeout))
	return w.conn.WriteMessage(websocket.TextMessage, payload)
}

func (w *websocketSession) run(ctx context.Context, emit func(Event) bool) {
	finished := make(chan struct{})
	defer close(finished)

	go func() {
		select {
		case <-ctx.Done():
			_ = w.send("stop")
			_ = w.conn.Close()
		case <-finished:
			_ = w.conn.Close()
		}
	}()

	gotResult := false
	for {
		_, data, err := w.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			code := "connection closed"
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				code = err.Error()
			}
			emit(Event{Kind: KindError, Code: code})
			return
		}

		var frame recognizerFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			w.log("ignoring malformed recognizer frame", slog.String("frame", string(data)))
			continue
		}

		switch strings.ToLower(frame.Type) {
		case string(KindResult):
			text := strings.TrimSpace(frame.Text)
			if text == "" {
				continue
			}
			gotResult = true
			if !emit(Event{Kind: KindResult, Text: text, Confidence: frame.Confidence}) {
				return
			}
		case string(KindComplete):
			cause := Cause(frame.Cause)
			switch {
			case cause != "":
			case gotResult:
				cause = CauseComplete
			default:
				cause = CauseNoSpeech
			}
			emit(Event{Kind: KindComplete, Cause: cause})
			return
		case string(KindError):
			code := frame.Code
			if code == "" {
				code = "recognizer error"
			}
			emit(Event{Kind: KindError, Code: code})
			return
		default:
			w.log("ignoring unknown recognizer frame", slog.String("type", frame.Type))
		}
	}
}

func (w *websocketSession) log(msg string, attrs ...slog.Attr) {
	if w.logger == nil {
		return
	}
	w.logger.LogAttrs(context.Background(), slog.LevelDebug, msg, attrs...)
}
