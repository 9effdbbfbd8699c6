package queue

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mediqueue/clinic-api/internal/middleware"
	"github.com/mediqueue/clinic-api/internal/model"
	"github.com/mediqueue/clinic-api/internal/service/queue"
	apperrors "github.com/mediqueue/clinic-api/pkg/errors"
	"github.com/mediqueue/clinic-api/pkg/httputil"
)

type Handler struct {
	service *queue.Service
}

func NewHandler(service *queue.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	q := rg.Group("/queue")
	{
		q.POST("/join", auth.RequireRoles(model.RolePatient), h.Join)
		q.GET("/me", auth.RequireRoles(model.RolePatient), h.MyStatus)
		q.GET("/doctor/:doctorId", h.DoctorQueue)
		q.PATCH("/:entryId/status", auth.RequireRoles(model.RoleDoctor, model.RoleAdmin), h.UpdateStatus)
	}
}

func (h *Handler) Join(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)

	var req model.JoinQueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid doctor id"))
		return
	}

	entry, err := h.service.Join(c.Request.Context(), doctorID, actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, entry, "joined queue")
}

func (h *Handler) MyStatus(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)

	status, err := h.service.MyStatus(c.Request.Context(), actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, status, "queue status")
}

func (h *Handler) DoctorQueue(c *gin.Context) {
	doctorID, err := uuid.Parse(c.Param("doctorId"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid doctor id"))
		return
	}

	views, err := h.service.DoctorQueue(c.Request.Context(), doctorID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, views, "doctor queue")
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)

	entryID, err := uuid.Parse(c.Param("entryId"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid queue entry id"))
		return
	}

	var req model.UpdateQueueStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	entry, err := h.service.UpdateStatus(c.Request.Context(), entryID, req.Status, actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, entry, "queue entry updated")
}
