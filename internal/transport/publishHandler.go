package transport

import (
	"net/http"
	"strconv"

	"github.com/ds124wfegd/pfpframe/internal/entity"
	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
)

func (h *PublishHandler) Upload(c *gin.Context) {
	url, err := h.service.Upload(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity.UploadResponse{URL: url})
}

func (h *PublishHandler) SetProfilePicture(c *gin.Context) {
	var req entity.SetPFPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := h.service.StartJob(req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Header("Location", "/api/v1/pfp/jobs/"+job.ID)
	c.JSON(http.StatusAccepted, job)
}

// GetJob answers with the job in every case. A failed job carries the status
// of its cause, so an approval timeout reads as 504.
func (h *PublishHandler) GetJob(c *gin.Context) {
	job, err := h.service.Job(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	status := http.StatusOK
	if job.State == entity.JobFailed && job.Cause != nil {
		status = statusFor(job.Cause)
	}
	c.JSON(status, job)
}

func (h *PublishHandler) JobQR(c *gin.Context) {
	job, err := h.service.Job(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if job.DeepLinkURL == "" {
		abortWithError(c, entity.ErrNoDeepLink)
		return
	}

	png, err := qrcode.Encode(job.DeepLinkURL, qrcode.Medium, h.qrSize)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

func (h *PublishHandler) SignOut(c *gin.Context) {
	fid, err := strconv.ParseUint(c.Param("fid"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fid"})
		return
	}

	if err := h.service.SignOut(c.Request.Context(), fid); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
