package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/announce"
	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/utils"
)

// AudioHandler serves stored reply audio to the telephony provider's
// announce fetch. Expired or unknown ids are a 404.
type AudioHandler struct {
	Blobs announce.BlobStore
}

func (h *AudioHandler) Get(c *gin.Context) {
	const op = "AudioHandler.Get"

	id := c.Param("id")
	if id == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "missing audio id", nil))
		return
	}

	blob, found, err := h.Blobs.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "blob store read failed", err))
		return
	}
	if !found {
		writeError(c, utils.E(utils.CodeNotFound, op, "audio not found or expired", nil))
		return
	}

	c.Data(http.StatusOK, blob.ContentType, blob.Data)
}
