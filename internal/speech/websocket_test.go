package speech

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type recognizerScript func(t *testing.T, conn *websocket.Conn)

func startRecognizerServer(t *testing.T, script recognizerScript) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var start controlFrame
		if err := conn.ReadJSON(&start); err != nil || start.Type != "start" {
			return
		}
		script(t, conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocketSourceResultAndComplete(t *testing.T) {
	url := startRecognizerServer(t, func(t *testing.T, conn *websocket.Conn) {
		_ = conn.WriteJSON(recognizerFrame{Type: "result", Text: "what is the weather", Confidence: 0.7})
		_ = conn.WriteJSON(recognizerFrame{Type: "complete"})
	})

	src, err := NewWebSocketSource(url, nil)
	require.NoError(t, err)
	require.NoError(t, src.Start(context.Background()))

	ev := nextEvent(t, src)
	require.Equal(t, KindResult, ev.Kind)
	require.Equal(t, "what is the weather", ev.Text)

	ev = nextEvent(t, src)
	require.Equal(t, KindComplete, ev.Kind)
	require.Equal(t, CauseComplete, ev.Cause)
}

func TestWebSocketSourceErrorFrame(t *testing.T) {
	url := startRecognizerServer(t, func(t *testing.T, conn *websocket.Conn) {
		_ = conn.WriteJSON(recognizerFrame{Type: "error", Code: "audio-device"})
	})

	src, err := NewWebSocketSource(url, nil)
	require.NoError(t, err)
	require.NoError(t, src.Start(context.Background()))

	ev := nextEvent(t, src)
	require.Equal(t, KindError, ev.Kind)
	require.Equal(t, "audio-device", ev.Code)
}

func TestWebSocketSourceCompleteCause(t *testing.T) {
	url := startRecognizerServer(t, func(t *testing.T, conn *websocket.Conn) {
		_ = conn.WriteJSON(recognizerFrame{Type: "complete", Cause: "no_speech"})
	})

	src, err := NewWebSocketSource(url, nil)
	require.NoError(t, err)
	require.NoError(t, src.Start(context.Background()))

	ev := nextEvent(t, src)
	require.Equal(t, CauseNoSpeech, ev.Cause)
}

func TestWebSocketSourceCompleteWithoutResultIsNoSpeech(t *testing.T) {
	url := startRecognizerServer(t, func(t *testing.T, conn *websocket.Conn) {
		_ = conn.WriteJSON(recognizerFrame{Type: "result", Text: "   "})
		_ = conn.WriteJSON(recognizerFrame{Type: "complete"})
	})

	src, err := NewWebSocketSource(url, nil)
	require.NoError(t, err)
	require.NoError(t, src.Start(context.Background()))

	ev := nextEvent(t, src)
	require.Equal(t, KindComplete, ev.Kind)
	require.Equal(t, CauseNoSpeech, ev.Cause)
}

func TestWebSocketSourceStopSendsStopFrame(t *testing.T) {
	stopped := make(chan struct{})
	url := startRecognizerServer(t, func(t *testing.T, conn *websocket.Conn) {
		var frame controlFrame
		if err := conn.ReadJSON(&frame); err == nil && frame.Type == "stop" {
			close(stopped)
		}
	})

	src, err := NewWebSocketSource(url, nil)
	require.NoError(t, err)
	require.NoError(t, src.Start(context.Background()))
	require.Equal(t, StatusRunning, src.Status())

	require.NoError(t, src.Stop(context.Background()))
	select {
	case <-stopped:
	case <-time.After(3 * time.Second):
		t.Fatal("recognizer never received stop frame")
	}
	require.Equal(t, StatusIdle, src.Status())
}

func TestNewWebSocketSourceRejectsHTTPURL(t *testing.T) {
	_, err := NewWebSocketSource("http://127.0.0.1:1", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "ws or wss")
}
