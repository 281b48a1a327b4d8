package handler

import (
	"StudyVault/utils"

	"github.com/gin-gonic/gin"
)

// ListTrashedSubjects lists the recycle bin's subjects.
func (h *Handler) ListTrashedSubjects(c *gin.Context) {
	subjects, err := h.svc.ListTrashedSubjects(c.Request.Context(), identity(c))
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, subjects)
}

// ListTrashedFiles lists the recycle bin's files.
func (h *Handler) ListTrashedFiles(c *gin.Context) {
	files, err := h.svc.ListTrashedFiles(c.Request.Context(), identity(c))
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, files)
}
