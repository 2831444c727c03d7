package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/api/handlers"
)

type Deps struct {
	Call       *handlers.CallHandler
	Conference *handlers.ConferenceHandler
	Media      *handlers.MediaWSHandler
	Audio      *handlers.AudioHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Telephony webhooks
	r.POST("/voice", d.Call.Inbound)
	r.POST("/conference/status", d.Conference.Status)

	// Playback fetch (the provider GETs announce URLs)
	r.GET("/audio/:id", d.Audio.Get)

	// Per-call media stream
	r.GET("/media", d.Media.Stream)
}
