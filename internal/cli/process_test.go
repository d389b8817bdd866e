package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vettahq/vetta/internal/stt"
)

func callSegments() []stt.Segment {
	return []stt.Segment{
		{Start: 0.0, End: 3.5, Text: "Good morning everyone."},
		{Start: 3.5, End: 7.2, Text: "Welcome to the Q4 earnings call."},
		{Start: 7.2, End: 10.0, Text: "Revenue grew twelve percent."},
	}
}

func TestProcessHappyPath(t *testing.T) {
	t.Parallel()

	strategy := &fakeStrategy{segments: callSegments()}
	_, cmd := newProcessAppForTest(t, strategy)

	audio := writeMP3(t)
	out, err := runProcessCmd(t, cmd, []string{
		"--file", audio, "--ticker", "AAPL", "--year", "2025", "--quarter", "Q4",
	})
	require.NoError(t, err)

	require.Equal(t, 1, strategy.transcribeCalls)
	require.Equal(t, audio, strategy.lastPath)
	require.Contains(t, out, "Processing AAPL Q4 2025")
	require.Contains(t, out, "audio/mpeg")
	require.Contains(t, out, "Transcription finished (3 segments)")
}

func TestProcessPassesOptionsFromConfigAndFlags(t *testing.T) {
	t.Parallel()

	strategy := &fakeStrategy{segments: callSegments()}
	_, cmd := newProcessAppForTest(t, strategy)

	_, err := runProcessCmd(t, cmd, []string{
		"--file", writeMP3(t), "--ticker", "MSFT", "--year", "2026", "--quarter", "q1",
		"--language", "de", "--diarization", "--num-speakers", "5",
	})
	require.NoError(t, err)

	require.Equal(t, "de", strategy.lastOpts.Language)
	require.True(t, strategy.lastOpts.Diarization)
	require.Equal(t, 5, strategy.lastOpts.NumSpeakers)
	// Unset flags fall back to config values.
	require.Equal(t, "Earnings call transcript.", strategy.lastOpts.InitialPrompt)
}

func TestProcessWritesTranscriptFile(t *testing.T) {
	t.Parallel()

	strategy := &fakeStrategy{segments: callSegments()}
	_, cmd := newProcessAppForTest(t, strategy)

	outPath := filepath.Join(t.TempDir(), "transcript.srt")
	stdout, err := runProcessCmd(t, cmd, []string{
		"--file", writeMP3(t), "--ticker", "AAPL", "--year", "2025", "--quarter", "Q4",
		"--out", outPath,
	})
	require.NoError(t, err)
	require.Contains(t, stdout, outPath)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "00:00:00,000 --> 00:00:03,500")
	require.Contains(t, string(data), "Good morning everyone.")
}

func TestProcessPrintFlagDumpsTranscript(t *testing.T) {
	t.Parallel()

	strategy := &fakeStrategy{segments: callSegments()}
	app, cmd := newProcessAppForTest(t, strategy)

	_, err := runProcessCmd(t, cmd, []string{
		"--file", writeMP3(t), "--ticker", "AAPL", "--year", "2025", "--quarter", "Q4",
		"--print",
	})
	require.NoError(t, err)

	printed := app.out.(interface{ String() string }).String()
	require.Contains(t, printed, "Good morning everyone.\nWelcome to the Q4 earnings call.\n")
}

func TestProcessRejectsBadQuarter(t *testing.T) {
	t.Parallel()

	strategy := &fakeStrategy{}
	_, cmd := newProcessAppForTest(t, strategy)

	_, err := runProcessCmd(t, cmd, []string{
		"--file", writeMP3(t), "--ticker", "AAPL", "--year", "2025", "--quarter", "Q9",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid quarter")
	require.Zero(t, strategy.transcribeCalls)
}

func TestProcessRejectsInvalidMediaBeforeTranscribing(t *testing.T) {
	t.Parallel()

	strategy := &fakeStrategy{}
	_, cmd := newProcessAppForTest(t, strategy)

	pdf := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4\npayload"), 0o644))

	_, err := runProcessCmd(t, cmd, []string{
		"--file", pdf, "--ticker", "AAPL", "--year", "2025", "--quarter", "Q4",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported format")
	require.Contains(t, err.Error(), "hint:")
	require.Zero(t, strategy.transcribeCalls)
}

func TestProcessSurfacesStreamInterruption(t *testing.T) {
	t.Parallel()

	strategy := &fakeStrategy{
		segments: callSegments()[:1],
		final: &stt.Error{
			Kind:    stt.KindStreamInterrupted,
			Message: "worker closed the stream before completion",
		},
	}
	_, cmd := newProcessAppForTest(t, strategy)

	_, err := runProcessCmd(t, cmd, []string{
		"--file", writeMP3(t), "--ticker", "AAPL", "--year", "2025", "--quarter", "Q4",
	})
	require.Error(t, err)

	kind, ok := stt.KindOf(err)
	require.True(t, ok)
	require.Equal(t, stt.KindStreamInterrupted, kind)
}

func TestProcessRendersWorkerUnavailableRemedy(t *testing.T) {
	t.Parallel()

	strategy := &fakeStrategy{
		final: &stt.Error{
			Kind:    stt.KindWorkerUnavailable,
			Message: "worker endpoint /tmp/test-whisper.sock does not exist",
			Remedy:  "start the whisper worker or check the configured socket path",
		},
	}
	_, cmd := newProcessAppForTest(t, strategy)

	_, err := runProcessCmd(t, cmd, []string{
		"--file", writeMP3(t), "--ticker", "AAPL", "--year", "2025", "--quarter", "Q4",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "hint: start the whisper worker")
}
