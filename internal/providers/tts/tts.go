package tts

import "context"

type Synthesizer interface {
	// Synthesize maps text to audio bytes for the provider's configured voice.
	Synthesize(ctx context.Context, text string) (audio []byte, contentType string, err error)
}
