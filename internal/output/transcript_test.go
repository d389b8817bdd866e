package output

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vettahq/vetta/internal/earnings"
	"github.com/vettahq/vetta/internal/stt"
)

func sampleDocument() Document {
	return Document{
		Meta:      earnings.CallMeta{Ticker: "AAPL", Year: 2025, Quarter: earnings.Q4},
		Source:    "/data/aapl-q4.mp3",
		Strategy:  "local",
		Generated: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Segments: []stt.Segment{
			{Start: 0.0, End: 3.5, Text: "Good morning everyone."},
			{Start: 3.5, End: 7.2, Text: "  Welcome to the call.  "},
			{Start: 7.2, End: 10.0, Text: ""},
			{Start: 10.0, End: 12.5, Text: "Revenue grew.", SpeakerID: "CFO"},
		},
	}
}

func TestDetectFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want Format
	}{
		{"transcript.srt", FormatSRT},
		{"transcript.SRT", FormatSRT},
		{"transcript.md", FormatMarkdown},
		{"transcript.markdown", FormatMarkdown},
		{"transcript.txt", FormatText},
		{"transcript", FormatText},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, DetectFormat(tt.path))
		})
	}
}

func TestRenderTextSkipsBlankAndTrims(t *testing.T) {
	t.Parallel()

	got := Render(sampleDocument(), FormatText)
	require.Equal(t, "Good morning everyone.\nWelcome to the call.\nCFO: Revenue grew.\n", got)
}

func TestRenderSRT(t *testing.T) {
	t.Parallel()

	got := Render(sampleDocument(), FormatSRT)

	require.Contains(t, got, "1\n00:00:00,000 --> 00:00:03,500\nGood morning everyone.\n")
	require.Contains(t, got, "00:00:03,500 --> 00:00:07,200")
	require.Contains(t, got, "CFO: Revenue grew.")

	// The blank segment is dropped and numbering stays contiguous.
	require.NotContains(t, got, "\n4\n")
	require.Contains(t, got, "\n3\n")
}

func TestRenderMarkdown(t *testing.T) {
	t.Parallel()

	got := Render(sampleDocument(), FormatMarkdown)

	require.True(t, strings.HasPrefix(got, "# AAPL Q4 2025 Earnings Call\n"))
	require.Contains(t, got, "- Source: `/data/aapl-q4.mp3`")
	require.Contains(t, got, "- Strategy: `local`")
	require.Contains(t, got, "- Generated: 2026-08-30T12:00:00Z")
	require.Contains(t, got, "[00:00:00-00:00:03] Good morning everyone.")
	require.Contains(t, got, "**CFO**: Revenue grew.")
}

func TestSRTTimestampRollsOverHours(t *testing.T) {
	t.Parallel()

	require.Equal(t, "01:01:01,250", srtTimestamp(3661.25))
	require.Equal(t, "00:00:00,000", srtTimestamp(-5))
}
