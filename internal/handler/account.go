package handler

import (
	"StudyVault/internal/dto"
	"StudyVault/internal/service"
	"StudyVault/utils"
	"strings"

	"github.com/gin-gonic/gin"
)

// Register starts a registration and mails the activation link.
func (h *Handler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	pending, err := h.svc.Register(c.Request.Context(), service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		ActivateURL: h.activateURL(c),
	})
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, pending)
}

// Activate creates the account for a mailed token.
func (h *Handler) Activate(c *gin.Context) {
	user, err := h.svc.Activate(c.Request.Context(), c.Query("token"))
	if err != nil {
		fail(c, err)
		return
	}
	utils.Created(c, user)
}

// activateURL uses the configured base URL, else the host the client reached
// us on, honoring proxy headers.
func (h *Handler) activateURL(c *gin.Context) string {
	base := h.baseURL
	if base == "" {
		scheme := "http"
		if forwarded := strings.TrimSpace(c.GetHeader("X-Forwarded-Proto")); forwarded != "" {
			scheme = forwarded
		} else if c.Request.TLS != nil {
			scheme = "https"
		}
		host := strings.TrimSpace(c.GetHeader("X-Forwarded-Host"))
		if host == "" {
			host = c.Request.Host
		}
		base = scheme + "://" + host
	}
	return base + "/api/activate"
}

// Login exchanges credentials for a bearer token.
func (h *Handler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	token, user, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, dto.LoginResponse{Token: token, User: user})
}
