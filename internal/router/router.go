package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/mediqueue/clinic-api/internal/handler"
	"github.com/mediqueue/clinic-api/internal/handler/admin"
	"github.com/mediqueue/clinic-api/internal/handler/appointment"
	"github.com/mediqueue/clinic-api/internal/handler/auth"
	"github.com/mediqueue/clinic-api/internal/handler/doctor"
	"github.com/mediqueue/clinic-api/internal/handler/patient"
	"github.com/mediqueue/clinic-api/internal/handler/queue"
	"github.com/mediqueue/clinic-api/internal/middleware"
	"github.com/mediqueue/clinic-api/internal/model"
)

type Config struct {
	RateLimit  rate.Limit
	RateBurst  int
	CORSConfig middleware.CORSConfig
}

type Router struct {
	engine       *gin.Engine
	auth         *middleware.AuthMiddleware
	h            *handler.Handler
	authH        *auth.Handler
	doctorH      *doctor.Handler
	patientH     *patient.Handler
	queueH       *queue.Handler
	appointmentH *appointment.Handler
	adminH       *admin.Handler
	metrics      *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

func NewRouter(
	authMW *middleware.AuthMiddleware,
	h *handler.Handler,
	authH *auth.Handler,
	doctorH *doctor.Handler,
	patientH *patient.Handler,
	queueH *queue.Handler,
	appointmentH *appointment.Handler,
	adminH *admin.Handler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := model.RegisterValidations(v); err != nil {
			panic(err)
		}
	}

	engine := gin.New()

	r := &Router{
		engine:       engine,
		auth:         authMW,
		h:            h,
		authH:        authH,
		doctorH:      doctorH,
		patientH:     patientH,
		queueH:       queueH,
		appointmentH: appointmentH,
		adminH:       adminH,
		metrics:      initRouterMetrics("clinic_api"),
	}

	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		r.metricsMiddleware(),
	)

	engine.Use(middleware.CORS(config.CORSConfig))

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RPS:   float64(config.RateLimit),
		Burst: config.RateBurst,
	})
	engine.Use(rateLimiter.RateLimit())

	return r
}

// Setup mounts every route at the service root; clients address the
// documented paths (/queue/join, /appointments, ...) without a version prefix.
func (r *Router) Setup() {
	api := r.engine.Group("")

	r.setupHealthCheck(api)

	// Public routes
	r.authH.RegisterPublicRoutes(api)
	r.doctorH.RegisterPublicRoutes(api)

	// Protected routes
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.authH.RegisterProtectedRoutes(protected)
	r.doctorH.RegisterRoutes(protected, r.auth)
	r.patientH.RegisterRoutes(protected, r.auth)
	r.queueH.RegisterRoutes(protected, r.auth)
	r.appointmentH.RegisterRoutes(protected, r.auth)
	r.adminH.RegisterRoutes(protected, r.auth)
}

func (r *Router) setupHealthCheck(rg *gin.RouterGroup) {
	health := rg.Group("/health")
	{
		health.GET("/live", r.h.LivenessCheck)
		health.GET("/ready", r.h.ReadinessCheck)
		health.GET("/metrics", r.h.MetricsHandler)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string) *routerMetrics {
	return &routerMetrics{
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "type"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	prometheus.MustRegister(r.metrics.requestDuration, r.metrics.requestTotal, r.metrics.errorTotal)

	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= 400 {
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "http").Inc()
		}
	}
}
