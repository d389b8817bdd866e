// Package output renders a finished transcript to the formats the CLI
// can write: plain text, SRT subtitles, and markdown.
package output

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/vettahq/vetta/internal/earnings"
	"github.com/vettahq/vetta/internal/stt"
)

// Format selects a transcript rendering.
type Format string

const (
	FormatText     Format = "text"
	FormatSRT      Format = "srt"
	FormatMarkdown Format = "markdown"
)

// DetectFormat picks a format from an output file name. Unknown
// extensions fall back to plain text.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".srt":
		return FormatSRT
	case ".md", ".markdown":
		return FormatMarkdown
	default:
		return FormatText
	}
}

// Document bundles everything a rendering needs.
type Document struct {
	Meta      earnings.CallMeta
	Source    string
	Strategy  string
	Generated time.Time
	Segments  []stt.Segment
}

// Render produces the transcript in the requested format.
func Render(doc Document, format Format) string {
	switch format {
	case FormatSRT:
		return renderSRT(doc)
	case FormatMarkdown:
		return renderMarkdown(doc)
	default:
		return renderText(doc)
	}
}

func renderText(doc Document) string {
	var b strings.Builder
	for _, seg := range doc.Segments {
		line := strings.TrimSpace(seg.Text)
		if line == "" {
			continue
		}
		if seg.SpeakerID != "" {
			fmt.Fprintf(&b, "%s: %s\n", seg.SpeakerID, line)
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func renderSRT(doc Document) string {
	var b strings.Builder
	index := 0
	for _, seg := range doc.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		if seg.SpeakerID != "" {
			text = seg.SpeakerID + ": " + text
		}
		index++
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", index, srtTimestamp(seg.Start), srtTimestamp(seg.End), text)
	}
	return b.String()
}

func renderMarkdown(doc Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s Earnings Call\n\n", doc.Meta.Label())
	if doc.Source != "" {
		fmt.Fprintf(&b, "- Source: `%s`\n", doc.Source)
	}
	if doc.Strategy != "" {
		fmt.Fprintf(&b, "- Strategy: `%s`\n", doc.Strategy)
	}
	if !doc.Generated.IsZero() {
		fmt.Fprintf(&b, "- Generated: %s\n", doc.Generated.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "- Segments: %d\n", len(doc.Segments))
	b.WriteString("\n---\n\n")

	for _, seg := range doc.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		speaker := ""
		if seg.SpeakerID != "" {
			speaker = "**" + seg.SpeakerID + "**: "
		}
		fmt.Fprintf(&b, "[%s-%s] %s%s\n\n", clockTimestamp(seg.Start), clockTimestamp(seg.End), speaker, text)
	}
	return b.String()
}

// srtTimestamp renders seconds as HH:MM:SS,mmm.
func srtTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	d := time.Duration(seconds * float64(time.Second))
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	ms := int(d.Milliseconds()) % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// clockTimestamp renders seconds as HH:MM:SS.
func clockTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	d := time.Duration(seconds * float64(time.Second))
	return fmt.Sprintf("%02d:%02d:%02d", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}
