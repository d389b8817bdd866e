package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vettahq/vetta/internal/config"
	"github.com/vettahq/vetta/internal/stt"
)

func runCommand(t *testing.T, args []string) (stdout string, stderr string, err error) {
	t.Helper()

	cmd := NewRootCmd()
	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)

	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)

	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

// newProcessAppForTest wires a process command to a scripted strategy
// so runs never touch a real socket or config file.
func newProcessAppForTest(t *testing.T, strategy stt.Strategy) (*appState, *cobra.Command) {
	t.Helper()

	app := &appState{
		noProgress: true,
		logger:     zap.NewNop(),
		now:        func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) },
		out:        new(bytes.Buffer),
		loadConfigFn: func(string) (config.Config, error) {
			return config.Config{
				Strategy:      "local",
				SocketPath:    "/tmp/test-whisper.sock",
				DialTimeout:   time.Second,
				Language:      "en",
				InitialPrompt: "Earnings call transcript.",
				NumSpeakers:   2,
			}, nil
		},
		newStrategyFn: func(stt.Config, *zap.Logger) (stt.Strategy, error) {
			return strategy, nil
		},
	}
	return app, newProcessCmd(app)
}

func runProcessCmd(t *testing.T, cmd *cobra.Command, args []string) (string, error) {
	t.Helper()

	outBuf := new(bytes.Buffer)
	cmd.SetOut(outBuf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return outBuf.String(), err
}

// writeMP3 drops a file with mp3 magic bytes into a temp dir.
func writeMP3(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "call.mp3")
	require.NoError(t, os.WriteFile(path, []byte("ID3\x03\x00\x00\x00\x00\x00\x21some_payload"), 0o644))
	return path
}

// fakeStrategy replays canned segments and a terminal result.
type fakeStrategy struct {
	segments []stt.Segment
	final    error // nil means clean completion

	transcribeCalls int
	lastPath        string
	lastOpts        stt.Options
}

func (f *fakeStrategy) Transcribe(_ context.Context, audioPath string, opts stt.Options) (stt.Stream, error) {
	f.transcribeCalls++
	f.lastPath = audioPath
	f.lastOpts = opts
	final := f.final
	if final == nil {
		final = io.EOF
	}
	return &fakeStream{segments: f.segments, final: final}, nil
}

func (f *fakeStrategy) Close() error { return nil }

type fakeStream struct {
	segments []stt.Segment
	final    error
	pos      int
	closed   bool
}

func (s *fakeStream) Recv() (stt.Segment, error) {
	if s.pos < len(s.segments) {
		seg := s.segments[s.pos]
		s.pos++
		return seg, nil
	}
	return stt.Segment{}, s.final
}

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}
