package appointment

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mediqueue/clinic-api/internal/middleware"
	"github.com/mediqueue/clinic-api/internal/model"
	"github.com/mediqueue/clinic-api/internal/service/appointment"
	apperrors "github.com/mediqueue/clinic-api/pkg/errors"
	"github.com/mediqueue/clinic-api/pkg/httputil"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	appointments := rg.Group("/appointments")
	{
		appointments.POST("", auth.RequireRoles(model.RolePatient), h.Book)
		appointments.GET("", h.List)
		appointments.PATCH("/:id/status", auth.RequireRoles(model.RoleDoctor, model.RoleAdmin), h.UpdateStatus)
		appointments.PATCH("/:id/cancel", h.Cancel)
	}
}

func (h *Handler) Book(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)

	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	booked, err := h.service.Book(c.Request.Context(), &req, actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, booked, "appointment booked")
}

func (h *Handler) List(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	result, err := h.service.ListForUser(c.Request.Context(), actor, c.Query("status"), page, limit)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, result, "appointments")
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid appointment id"))
		return
	}

	var req model.UpdateAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	updated, err := h.service.UpdateStatus(c.Request.Context(), id, req.Status, actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, updated, "appointment updated")
}

func (h *Handler) Cancel(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid appointment id"))
		return
	}

	cancelled, err := h.service.Cancel(c.Request.Context(), id, actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, cancelled, "appointment cancelled")
}
