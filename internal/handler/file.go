package handler

import (
	"StudyVault/internal/dto"
	"StudyVault/internal/service"
	"StudyVault/utils"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// UploadFile stores the multipart "file" field in the subject. An optional
// "type" form field overrides the content type derived from the name.
func (h *Handler) UploadFile(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		utils.Fail(c, http.StatusBadRequest, "file required")
		return
	}
	body, err := header.Open()
	if err != nil {
		utils.Fail(c, http.StatusBadRequest, "cannot read upload: "+err.Error())
		return
	}
	defer body.Close()

	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		name = header.Filename
	}
	file, err := h.svc.CreateFile(c.Request.Context(), identity(c), service.FileInput{
		SubjectID: c.Param("id"),
		Name:      name,
		Size:      header.Size,
		Type:      c.PostForm("type"),
		Body:      body,
	})
	if err != nil {
		fail(c, err)
		return
	}
	utils.Created(c, file)
}

func (h *Handler) TrashFile(c *gin.Context) {
	if err := h.svc.TrashFile(c.Request.Context(), identity(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, nil)
}

func (h *Handler) RestoreFile(c *gin.Context) {
	if err := h.svc.RestoreFile(c.Request.Context(), identity(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, nil)
}

func (h *Handler) PurgeFile(c *gin.Context) {
	if err := h.svc.PurgeFile(c.Request.Context(), identity(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, nil)
}

func (h *Handler) ToggleFavorite(c *gin.Context) {
	fileID := c.Param("id")
	favorite, err := h.svc.ToggleFavorite(c.Request.Context(), identity(c), fileID)
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, dto.FavoriteResponse{FileID: fileID, IsFavorite: favorite})
}

// FileURL returns a presigned download URL.
func (h *Handler) FileURL(c *gin.Context) {
	fileID := c.Param("id")
	url, err := h.svc.FileURL(c.Request.Context(), identity(c), fileID)
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, dto.FileURLResponse{FileID: fileID, URL: url})
}

func (h *Handler) ListFavorites(c *gin.Context) {
	files, err := h.svc.ListFavoriteFiles(c.Request.Context(), identity(c))
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, files)
}

func (h *Handler) SearchFiles(c *gin.Context) {
	files, err := h.svc.SearchFiles(c.Request.Context(), identity(c), c.Query("q"))
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, files)
}

func (h *Handler) Usage(c *gin.Context) {
	usage, err := h.svc.StorageUsage(c.Request.Context(), identity(c))
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, usage)
}
