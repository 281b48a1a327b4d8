package handler

import (
	"StudyVault/internal/dto"
	"StudyVault/internal/service"
	"StudyVault/utils"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateSubject(c *gin.Context) {
	var req dto.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	subject, err := h.svc.CreateSubject(c.Request.Context(), identity(c), service.SubjectInput{
		Name:     req.Name,
		Color:    req.Color,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		fail(c, err)
		return
	}
	utils.Created(c, subject)
}

func (h *Handler) UpdateSubject(c *gin.Context) {
	var req dto.UpdateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	subject, err := h.svc.UpdateSubject(c.Request.Context(), identity(c), c.Param("id"), service.SubjectPatch{
		Name:     req.Name,
		Color:    req.Color,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, subject)
}

func (h *Handler) ListSubjects(c *gin.Context) {
	subjects, err := h.svc.ListActiveSubjects(c.Request.Context(), identity(c))
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, subjects)
}

func (h *Handler) ListSubjectFiles(c *gin.Context) {
	files, err := h.svc.ListActiveFiles(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, files)
}

func (h *Handler) TrashSubject(c *gin.Context) {
	if err := h.svc.TrashSubject(c.Request.Context(), identity(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, nil)
}

func (h *Handler) RestoreSubject(c *gin.Context) {
	if err := h.svc.RestoreSubject(c.Request.Context(), identity(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, nil)
}

// PurgeSubject deletes the subject and every file in it. A partial failure
// answers 207 with the pending file ids; repeating the request retries them.
func (h *Handler) PurgeSubject(c *gin.Context) {
	if err := h.svc.PurgeSubject(c.Request.Context(), identity(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, nil)
}
