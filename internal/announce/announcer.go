// Package announce turns an agent reply into audible speech inside the
// call's conference, via a three-tier fallback on the telephony control
// plane.
package announce

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/logger"
	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/providers/tts"
	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/session"
	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/storage"
	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/telephony"
	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/utils"
)

type Announcer struct {
	Registry  session.Registry
	Telephony telephony.API // nil when credentials are absent
	TTS       tts.Synthesizer
	Blobs     BlobStore
	Uploader  storage.Uploader // optional archival copy; nil disables
	BaseURL   string           // public base for /audio/<id>; empty disables playback
	TTL       time.Duration
	Logger    *logrus.Logger
}

// Announce synthesizes text, stores it for retrieval, and plays it into the
// call's conference. Missing session metadata or missing configuration is a
// skip, not an error; only exhausting every playback tier returns one.
func (a *Announcer) Announce(ctx context.Context, callSID, text string) error {
	const op = "Announcer.Announce"
	log := logger.ForCall(a.Logger, callSID)

	meta, ok := a.Registry.Get(callSID)
	if !ok {
		log.Debug("announce skipped, no session metadata")
		return nil
	}
	if a.BaseURL == "" || a.Telephony == nil {
		log.Debug("announce skipped, playback not configured")
		return nil
	}

	audio, contentType, err := a.TTS.Synthesize(ctx, text)
	if err != nil {
		return utils.E(utils.CodeUnavailable, op, "speech synthesis failed", err)
	}

	id := uuid.NewString()
	if err := a.Blobs.Put(ctx, id, Blob{Data: audio, ContentType: contentType}, a.TTL); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to store audio blob", err)
	}
	if a.Uploader != nil {
		objectName := fmt.Sprintf("replies/%s/%s.mp3", callSID, id)
		if _, err := a.Uploader.Upload(ctx, objectName, contentType, bytes.NewReader(audio)); err != nil {
			log.WithError(err).Warn("reply archival upload failed")
		}
	}
	playURL := fmt.Sprintf("%s/audio/%s", a.BaseURL, id)

	meta = a.resolveConference(ctx, log, meta)

	var lastErr error

	if meta.ConferenceSID != "" {
		if err := a.Telephony.AnnounceConference(ctx, meta.ConferenceSID, playURL); err == nil {
			log.WithField("conference_sid", meta.ConferenceSID).Info("announced to conference")
			return nil
		} else {
			lastErr = err
			log.WithError(err).Warn("conference announce failed, trying participant")
		}

		if err := a.Telephony.AnnounceParticipant(ctx, meta.ConferenceSID, callSID, playURL); err == nil {
			log.Info("announced to participant")
			return nil
		} else {
			lastErr = err
			log.WithError(err).Warn("participant announce failed, falling back to call update")
		}
	} else {
		log.Warn("no conference sid resolved, skipping announce tiers")
	}

	// last resort: rewrite the call's instructions to play the blob and
	// rejoin; the caller briefly leaves the conference on this path
	twiml := fmt.Sprintf(
		`<Response><Play>%s</Play><Dial><Conference>%s</Conference></Dial></Response>`,
		playURL, meta.ConferenceName)
	if err := a.Telephony.UpdateCallTwiML(ctx, callSID, twiml); err == nil {
		log.Info("announced via call instruction replacement")
		return nil
	} else {
		lastErr = err
		log.WithError(err).Error("call instruction replacement failed")
	}

	return utils.E(utils.CodeUnavailable, op, "all playback tiers failed", lastErr)
}

// resolveConference re-queries the control plane by friendly name; the SID
// captured at join time goes stale if the conference was torn down and
// recreated.
func (a *Announcer) resolveConference(ctx context.Context, log *logrus.Entry, meta session.Meta) session.Meta {
	if meta.ConferenceName == "" {
		return meta
	}

	confs, err := a.Telephony.ListConferences(ctx, meta.ConferenceName, telephony.StatusInProgress)
	if err != nil {
		log.WithError(err).Warn("conference lookup failed, using cached sid")
		return meta
	}
	if len(confs) == 0 {
		return meta
	}
	if confs[0].SID != meta.ConferenceSID {
		meta = a.Registry.Upsert(meta.CallSID, session.Fields{ConferenceSID: session.Str(confs[0].SID)})
	}
	return meta
}
