package speech

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCommandSourceEmitsResultThenComplete(t *testing.T) {
	script := writeRecognizer(t, `#!/usr/bin/env sh
echo 'loading model'
echo '{"text": "  open firefox ", "confidence": 0.87}'
`)
	src := NewCommandSource([]string{script}, nil)

	require.NoError(t, src.Start(context.Background()))
	first := nextEvent(t, src)
	require.Equal(t, KindResult, first.Kind)
	require.Equal(t, "open firefox", first.Text)
	require.InDelta(t, 0.87, first.Confidence, 0.0001)
	require.Equal(t, uint64(1), first.Session)

	second := nextEvent(t, src)
	require.Equal(t, KindComplete, second.Kind)
	require.Equal(t, CauseComplete, second.Cause)

	require.Eventually(t, func() bool { return src.Status() == StatusIdle }, time.Second, 10*time.Millisecond)
}

func TestCommandSourceNoSpeech(t *testing.T) {
	script := writeRecognizer(t, "#!/usr/bin/env sh\nexit 0\n")
	src := NewCommandSource([]string{script}, nil)

	require.NoError(t, src.Start(context.Background()))
	ev := nextEvent(t, src)
	require.Equal(t, KindComplete, ev.Kind)
	require.Equal(t, CauseNoSpeech, ev.Cause)
}

func TestCommandSourceJSONErrorLine(t *testing.T) {
	script := writeRecognizer(t, `#!/usr/bin/env sh
echo '{"error": "No audio file provided"}'
exit 1
`)
	src := NewCommandSource([]string{script}, nil)

	require.NoError(t, src.Start(context.Background()))
	ev := nextEvent(t, src)
	require.Equal(t, KindError, ev.Kind)
	require.Equal(t, "No audio file provided", ev.Code)
	require.NoError(t, src.Stop(context.Background()))
}

func TestCommandSourceNonZeroExitWithoutJSON(t *testing.T) {
	script := writeRecognizer(t, "#!/usr/bin/env sh\necho boom >&2\nexit 3\n")
	src := NewCommandSource([]string{script}, nil)

	require.NoError(t, src.Start(context.Background()))
	ev := nextEvent(t, src)
	require.Equal(t, KindError, ev.Kind)
	require.Equal(t, "exit status 3", ev.Code)
}

func TestCommandSourceStartMissingBinary(t *testing.T) {
	src := NewCommandSource([]string{filepath.Join(t.TempDir(), "missing")}, nil)
	err := src.Start(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "start recognizer")
	require.Equal(t, StatusIdle, src.Status())
}

func TestCommandSourceStopDiscardsPendingEvents(t *testing.T) {
	script := writeRecognizer(t, `#!/usr/bin/env sh
echo '{"text": "late result"}'
sleep 5
`)
	src := NewCommandSource([]string{script}, nil)

	require.NoError(t, src.Start(context.Background()))
	require.Eventually(t, func() bool { return src.Status() == StatusRunning }, time.Second, 10*time.Millisecond)

	// Starting again while running is a no-op.
	require.NoError(t, src.Start(context.Background()))

	stopCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, src.Stop(stopCtx))
	require.NoError(t, src.Stop(stopCtx))
	require.Equal(t, StatusIdle, src.Status())

	select {
	case ev := <-src.Events():
		t.Fatalf("unexpected event after stop: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCommandSourceNumbersSessions(t *testing.T) {
	script := writeRecognizer(t, "#!/usr/bin/env sh\necho '{\"text\": \"yes\"}'\n")
	src := NewCommandSource([]string{script}, nil)

	for want := uint64(1); want <= 2; want++ {
		require.NoError(t, src.Start(context.Background()))
		ev := nextEvent(t, src)
		require.Equal(t, want, ev.Session)
		require.NoError(t, src.Stop(context.Background()))
	}
}

func writeRecognizer(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recognize")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
	return path
}

func nextEvent(t *testing.T, src Source) Event {
	t.Helper()
	select {
	case ev := <-src.Events():
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for speech event")
		return Event{}
	}
}
