package handler

import (
	"StudyVault/internal/dto"
	"StudyVault/internal/service"
	"StudyVault/utils"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Handler exposes the service over HTTP.
type Handler struct {
	svc *service.Service
	// baseURL prefixes activation links. Empty means derive it per request.
	baseURL string
}

func New(svc *service.Service, baseURL string) *Handler {
	return &Handler{svc: svc, baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/")}
}

// identity reads the caller set by utils.AuthMiddleware.
func identity(c *gin.Context) service.Identity {
	userID, _ := c.Get(utils.ContextUserID)
	email, _ := c.Get(utils.ContextEmail)
	id := service.Identity{}
	id.UserID, _ = userID.(uint64)
	id.Email, _ = email.(string)
	return id
}

// fail maps service errors onto HTTP statuses.
func fail(c *gin.Context, err error) {
	var partial *service.PartialFailureError
	switch {
	case errors.As(err, &partial):
		utils.FailWithData(c, http.StatusMultiStatus, err.Error(), dto.PurgePendingResponse{
			SubjectID: partial.SubjectID,
			Pending:   partial.Pending,
		})
	case errors.Is(err, service.ErrValidation):
		utils.Fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		utils.Fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		utils.Fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		utils.Fail(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrStorage):
		log.Error().Err(err).Str("path", c.FullPath()).Msg("object store failure")
		utils.Fail(c, http.StatusBadGateway, "object storage unavailable")
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		utils.Fail(c, http.StatusInternalServerError, "internal error")
	}
}

func badRequest(c *gin.Context, err error) {
	utils.Fail(c, http.StatusBadRequest, "invalid request: "+err.Error())
}
