package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mediqueue/clinic-api/internal/middleware"
	"github.com/mediqueue/clinic-api/internal/model"
	"github.com/mediqueue/clinic-api/internal/repository"
	"github.com/mediqueue/clinic-api/internal/service/doctor"
	apperrors "github.com/mediqueue/clinic-api/pkg/errors"
	"github.com/mediqueue/clinic-api/pkg/httputil"
)

type Handler struct {
	doctorSvc *doctor.Service
	userRepo  repository.UserRepository
}

func NewHandler(doctorSvc *doctor.Service, userRepo repository.UserRepository) *Handler {
	return &Handler{doctorSvc: doctorSvc, userRepo: userRepo}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	adminGroup := rg.Group("/admin", auth.RequireRoles(model.RoleAdmin))
	{
		adminGroup.PATCH("/doctors/:id/verification", h.VerifyDoctor)
		adminGroup.GET("/users", h.ListUsers)
	}
}

// VerifyDoctor approves or rejects a doctor's credentials, which gates
// whether the profile is publicly listed and bookable.
func (h *Handler) VerifyDoctor(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid doctor id"))
		return
	}

	var req model.VerifyDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	updated, err := h.doctorSvc.Verify(c.Request.Context(), id, req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, updated, "doctor verification updated")
}

func (h *Handler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	users, total, err := h.userRepo.List(c.Request.Context(), page, limit)
	if err != nil {
		httputil.RespondWithError(c, apperrors.Internal(err))
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, httputil.PaginatedData{
		Docs: users,
		Pagination: httputil.Pagination{
			Page:       page,
			Limit:      limit,
			TotalDocs:  total,
			TotalPages: int((total + int64(limit) - 1) / int64(limit)),
		},
	}, "users")
}
