package stt

// Wire contract with the local worker: one JSON object per line in
// each direction. The client sends a single request line, then reads
// response lines until a "done" message (clean completion) or an
// "error" message, or until the worker closes the connection. Audio is
// always addressed by path; both processes share a filesystem, and
// multi-hundred-megabyte recordings make byte copies across the socket
// wasteful.

type wireRequest struct {
	RequestID string      `json:"request_id"`
	AudioPath string      `json:"audio_path"`
	Language  string      `json:"language,omitempty"`
	Options   wireOptions `json:"options"`
}

type wireOptions struct {
	Diarization   bool   `json:"diarization"`
	NumSpeakers   int    `json:"num_speakers,omitempty"`
	InitialPrompt string `json:"initial_prompt,omitempty"`
}

const (
	msgSegment = "segment"
	msgError   = "error"
	msgDone    = "done"
)

type wireMessage struct {
	Type    string       `json:"type"`
	Segment *wireSegment `json:"segment,omitempty"`
	Message string       `json:"message,omitempty"`
}

type wireSegment struct {
	StartTime  float64    `json:"start_time"`
	EndTime    float64    `json:"end_time"`
	Text       string     `json:"text"`
	SpeakerID  string     `json:"speaker_id"`
	Confidence float64    `json:"confidence"`
	Words      []wireWord `json:"words,omitempty"`
}

type wireWord struct {
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

func (w *wireSegment) toSegment() Segment {
	seg := Segment{
		Start:      w.StartTime,
		End:        w.EndTime,
		Text:       w.Text,
		SpeakerID:  w.SpeakerID,
		Confidence: w.Confidence,
	}
	if len(w.Words) > 0 {
		seg.Words = make([]Word, len(w.Words))
		for i, ww := range w.Words {
			seg.Words[i] = Word{
				Start:      ww.StartTime,
				End:        ww.EndTime,
				Text:       ww.Text,
				Confidence: ww.Confidence,
			}
		}
	}
	return seg
}
