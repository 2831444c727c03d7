package stt

import "context"

// Params configure one recognition stream.
type Params struct {
	Model          string
	Language       string
	Encoding       string
	SampleRateHz   int
	CommitStrategy string // "vad": service finalizes on detected silence; "manual": explicit commit messages
}

type Event struct {
	Text      string
	Committed bool // finalized, will not be retracted or extended
}

// Stream is one live recognition session. Events is closed when the
// underlying connection dies; SendAudio after that returns an error.
type Stream interface {
	SendAudio(frame []byte) error
	Events() <-chan Event
	Close() error
}

type Recognizer interface {
	Start(ctx context.Context, p Params) (Stream, error)
}
