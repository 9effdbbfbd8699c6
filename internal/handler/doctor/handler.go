package doctor

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mediqueue/clinic-api/internal/middleware"
	"github.com/mediqueue/clinic-api/internal/model"
	"github.com/mediqueue/clinic-api/internal/service/doctor"
	apperrors "github.com/mediqueue/clinic-api/pkg/errors"
	"github.com/mediqueue/clinic-api/pkg/httputil"
	"github.com/mediqueue/clinic-api/pkg/storage"
)

type Handler struct {
	service *doctor.Service
	store   storage.Store
}

func NewHandler(service *doctor.Service, store storage.Store) *Handler {
	return &Handler{service: service, store: store}
}

// RegisterPublicRoutes mounts the verified-doctor directory, readable
// without a token.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	doctors := rg.Group("/doctors")
	{
		doctors.GET("", h.ListApproved)
		doctors.GET("/:id", h.Get)
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	doctors := rg.Group("/doctors")
	{
		doctors.POST("", auth.RequireRoles(model.RoleDoctor), h.CreateProfile)
		doctors.GET("/me", auth.RequireRoles(model.RoleDoctor), h.GetOwn)
		doctors.PUT("/me/availability", auth.RequireRoles(model.RoleDoctor, model.RoleAdmin), h.UpdateAvailability)
		doctors.POST("/me/avatar", auth.RequireRoles(model.RoleDoctor), h.UploadAvatar)
	}
}

func (h *Handler) CreateProfile(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)

	var req model.CreateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	created, err := h.service.CreateProfile(c.Request.Context(), &req, actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, created, "doctor profile created")
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid doctor id"))
		return
	}

	found, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, found, "doctor")
}

func (h *Handler) GetOwn(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)

	found, err := h.service.GetOwn(c.Request.Context(), actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, found, "doctor profile")
}

func (h *Handler) UpdateAvailability(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)

	var req model.UpdateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	updated, err := h.service.UpdateAvailability(c.Request.Context(), &req, actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, updated, "availability updated")
}

func (h *Handler) ListApproved(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	filters := &model.DoctorFilters{
		Specialization: c.Query("specialization"),
		Page:           page,
		Limit:          limit,
	}

	doctors, total, err := h.service.ListApproved(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, httputil.PaginatedData{
		Docs: doctors,
		Pagination: httputil.Pagination{
			Page:       filters.Page,
			Limit:      filters.Limit,
			TotalDocs:  total,
			TotalPages: int((total + int64(filters.Limit) - 1) / int64(filters.Limit)),
		},
	}, "doctors")
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
