package handler

import (
	"StudyVault/internal/dto"
	"StudyVault/utils"

	"github.com/gin-gonic/gin"
)

// ShareFile grants an email address visibility of a file.
func (h *Handler) ShareFile(c *gin.Context) {
	var req dto.ShareFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	grant, err := h.svc.ShareFile(c.Request.Context(), identity(c), c.Param("id"), req.Email)
	if err != nil {
		fail(c, err)
		return
	}
	utils.Created(c, grant)
}

// ListShared lists files shared with the caller's email.
func (h *Handler) ListShared(c *gin.Context) {
	files, err := h.svc.ListSharedWithMe(c.Request.Context(), identity(c))
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, files)
}
