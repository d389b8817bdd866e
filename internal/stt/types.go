package stt

// Options configures a single transcription request. A value is
// constructed once per request and never mutated by the strategy.
type Options struct {
	// Language is an optional ISO 639-1 hint; empty lets the worker
	// auto-detect.
	Language string

	// Diarization asks the worker to attribute segments to speakers.
	Diarization bool

	// NumSpeakers is the expected speaker count; ignored unless
	// Diarization is set and zero means "let the worker decide".
	NumSpeakers int

	// InitialPrompt biases the model, e.g. toward financial vocabulary.
	InitialPrompt string
}

// Word is one token of a segment with its own time range.
type Word struct {
	Start      float64
	End        float64
	Text       string
	Confidence float64
}

// Segment is one unit of transcribed output. Start and End are seconds
// from the beginning of the recording; Start is non-decreasing across a
// stream. SpeakerID stays empty until a diarization stage assigns one.
type Segment struct {
	Start      float64
	End        float64
	Text       string
	SpeakerID  string
	Confidence float64
	Words      []Word
}
