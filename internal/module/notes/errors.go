package notes

import "errors"

var (
	// ErrTranscriptTooShort indicates the transcript is missing or under
	// the minimum length after trimming.
	ErrTranscriptTooShort = errors.New("transcript must be at least 10 characters long")

	// ErrUnknownContentType indicates an unsupported content type.
	ErrUnknownContentType = errors.New("unknown content type")

	// ErrEmptyCompletion indicates the model returned no content.
	ErrEmptyCompletion = errors.New("no content generated")
)
