package patient

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mediqueue/clinic-api/internal/middleware"
	"github.com/mediqueue/clinic-api/internal/model"
	"github.com/mediqueue/clinic-api/internal/service/patient"
	apperrors "github.com/mediqueue/clinic-api/pkg/errors"
	"github.com/mediqueue/clinic-api/pkg/httputil"
	"github.com/mediqueue/clinic-api/pkg/storage"
)

type Handler struct {
	service *patient.Service
	store   storage.Store
}

func NewHandler(service *patient.Service, store storage.Store) *Handler {
	return &Handler{service: service, store: store}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	patients := rg.Group("/patients", auth.RequireRoles(model.RolePatient))
	{
		patients.POST("", h.CreateProfile)
		patients.GET("/me", h.GetOwn)
		patients.PUT("/me", h.Update)
		patients.POST("/me/avatar", h.UploadAvatar)
	}
}

func (h *Handler) CreateProfile(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)

	var req model.CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	created, err := h.service.CreateProfile(c.Request.Context(), &req, actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, created, "patient profile created")
}

func (h *Handler) GetOwn(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)

	found, err := h.service.GetOwn(c.Request.Context(), actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, found, "patient profile")
}

func (h *Handler) Update(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)

	var req model.UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	updated, err := h.service.Update(c.Request.Context(), &req, actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, updated, "patient profile updated")
}

func (h *Handler) UploadAvatar(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)

	file, err := c.FormFile("avatar")
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("avatar file is required"))
		return
	}

	url, err := h.store.Save(file)
	if err != nil {
		httputil.RespondWithError(c, apperrors.Internal(err))
		return
	}

	updated, err := h.service.UpdateAvatar(c.Request.Context(), actor, url)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, updated, "avatar uploaded")
}
