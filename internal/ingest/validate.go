// Package ingest validates media files before they enter the
// transcription pipeline, so a bad input is rejected with a precise
// diagnosis instead of a worker-side failure minutes in.
package ingest

import (
	"errors"
	"fmt"
	"os"

	"github.com/gabriel-vasile/mimetype"
)

// MaxFileSizeMB caps accepted recordings. A two-hour earnings call in
// any supported format fits comfortably under this.
const MaxFileSizeMB = 500

// allowedMIMETypes are matched through mimetype's alias handling, so
// audio/wav also covers audio/x-wav and friends.
var allowedMIMETypes = []string{
	"audio/mpeg",  // .mp3
	"audio/wav",   // .wav
	"audio/x-m4a", // .m4a
	"video/mp4",   // .mp4
}

// Reason identifies why a file was rejected.
type Reason string

const (
	ReasonNotFound      Reason = "file_not_found"
	ReasonEmpty         Reason = "file_empty"
	ReasonTooLarge      Reason = "file_too_large"
	ReasonInvalidFormat Reason = "invalid_format"
	ReasonUnknownType   Reason = "unknown_type"
)

// Error describes a rejected media file. Remedy is an operator-facing
// hint the CLI renders alongside the message.
type Error struct {
	Reason  Reason
	Message string
	Remedy  string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// ReasonOf extracts the rejection reason from err's chain.
func ReasonOf(err error) (Reason, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Reason, true
	}
	return "", false
}

// Info summarizes an accepted file.
type Info struct {
	MIME   string
	SizeMB int64
}

// Description renders the accepted-file summary, e.g. "audio/mpeg (42MB)".
func (i Info) Description() string {
	return fmt.Sprintf("%s (%dMB)", i.MIME, i.SizeMB)
}

// Validate checks that path names a non-empty, size-bounded media file
// whose magic bytes match a supported format. File extensions are
// ignored; only content counts.
func Validate(path string) (Info, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Info{}, &Error{
				Reason:  ReasonNotFound,
				Message: fmt.Sprintf("file not found: %s", path),
				Remedy:  "check that the path is correct and you have read permissions",
				Err:     err,
			}
		}
		return Info{}, &Error{
			Reason:  ReasonNotFound,
			Message: fmt.Sprintf("file not accessible: %s", path),
			Remedy:  "check that the path is correct and you have read permissions",
			Err:     err,
		}
	}

	if fi.Size() == 0 {
		return Info{}, &Error{
			Reason:  ReasonEmpty,
			Message: "file is empty (0 bytes)",
			Remedy:  "the file exists but has no content; check whether the download completed",
		}
	}

	sizeMB := fi.Size() / (1024 * 1024)
	if sizeMB > MaxFileSizeMB {
		return Info{}, &Error{
			Reason:  ReasonTooLarge,
			Message: fmt.Sprintf("file is %dMB, over the %dMB limit", sizeMB, MaxFileSizeMB),
			Remedy:  "compress the audio or split the recording",
		}
	}

	kind, err := mimetype.DetectFile(path)
	if err != nil {
		return Info{}, &Error{
			Reason:  ReasonUnknownType,
			Message: fmt.Sprintf("could not read file header: %s", path),
			Err:     err,
		}
	}

	for _, allowed := range allowedMIMETypes {
		if kind.Is(allowed) {
			return Info{MIME: kind.String(), SizeMB: sizeMB}, nil
		}
	}

	if kind.Is("application/octet-stream") {
		return Info{}, &Error{
			Reason:  ReasonUnknownType,
			Message: "could not determine file type",
			Remedy:  "the file header is corrupt or missing magic bytes",
		}
	}

	return Info{}, &Error{
		Reason:  ReasonInvalidFormat,
		Message: fmt.Sprintf("unsupported format detected: %s", kind.String()),
		Remedy:  "only mp3, wav, m4a and mp4 are supported; convert the file with ffmpeg first",
	}
}
