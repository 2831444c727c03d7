package stt

import (
	"context"
	"strings"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// GoogleSpeech runs recognition through Cloud Speech StreamingRecognize.
// Interim results map to partial events, is_final results to committed ones.
type GoogleSpeech struct {
	c      *speech.Client
	Logger *logrus.Logger
}

func NewGoogleSpeech(ctx context.Context, credentialsFile string, l *logrus.Logger) (*GoogleSpeech, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	c, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GoogleSpeech{c: c, Logger: l}, nil
}

func (g *GoogleSpeech) Close() error { return g.c.Close() }

func (g *GoogleSpeech) Start(ctx context.Context, p Params) (Stream, error) {
	sr, err := g.c.StreamingRecognize(ctx)
	if err != nil {
		return nil, err
	}

	language := p.Language
	if language == "" || len(language) == 2 {
		// Cloud Speech wants a BCP-47 tag
		if language == "" {
			language = "en-US"
		} else {
			language = language + "-US"
		}
	}

	err = sr.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:        encodingFor(p.Encoding),
					SampleRateHertz: int32(p.SampleRateHz),
					LanguageCode:    language,
					Model:           p.Model,
				},
				InterimResults:  true,
				SingleUtterance: p.CommitStrategy == "manual",
			},
		},
	})
	if err != nil {
		return nil, err
	}

	s := &googleStream{sr: sr, events: make(chan Event, 16)}
	go s.readLoop(g.Logger)
	return s, nil
}

func encodingFor(name string) speechpb.RecognitionConfig_AudioEncoding {
	switch {
	case strings.HasPrefix(name, "ulaw"), strings.HasPrefix(name, "mulaw"):
		return speechpb.RecognitionConfig_MULAW
	default:
		return speechpb.RecognitionConfig_LINEAR16
	}
}

type googleStream struct {
	sr     speechpb.Speech_StreamingRecognizeClient
	mu     sync.Mutex
	closed bool
	events chan Event
}

func (s *googleStream) readLoop(l *logrus.Logger) {
	defer close(s.events)
	for {
		resp, err := s.sr.Recv()
		if err != nil {
			if l != nil {
				s.mu.Lock()
				closed := s.closed
				s.mu.Unlock()
				if !closed {
					l.WithError(err).Warn("cloud speech stream ended")
				}
			}
			return
		}
		for _, res := range resp.Results {
			if len(res.Alternatives) == 0 {
				continue
			}
			s.events <- Event{
				Text:      res.Alternatives[0].Transcript,
				Committed: res.IsFinal,
			}
		}
	}
}

func (s *googleStream) SendAudio(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return context.Canceled
	}
	return s.sr.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: frame,
		},
	})
}

func (s *googleStream) Events() <-chan Event { return s.events }

func (s *googleStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.sr.CloseSend()
}
