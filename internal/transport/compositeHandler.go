package transport

import (
	"fmt"
	"io"
	"net/http"

	"github.com/ds124wfegd/pfpframe/internal/entity"
	"github.com/gin-gonic/gin"
)

func (h *CompositeHandler) ListFilters(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"filters": entity.Filters})
}

func (h *CompositeHandler) Render(c *gin.Context) {
	var req entity.RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	composite, err := h.service.Render(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, composite)
}

func (h *CompositeHandler) Get(c *gin.Context) {
	composite, err := h.service.Get(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, composite)
}

func (h *CompositeHandler) Latest(c *gin.Context) {
	composite, err := h.service.Latest(c.Param("session"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, composite)
}

func (h *CompositeHandler) Download(c *gin.Context) {
	id := c.Param("id")
	r, err := h.service.Open(id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="pfp-%s.png"`, id))
	c.Data(http.StatusOK, "image/png", data)
}

func (h *CompositeHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "composite deleted"})
}
