package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Deps struct {
	Env         string
	ServiceName string
	CORSOrigins []string

	Users     handlers.UsersService
	Projects  handlers.ProjectsService
	Tasks     handlers.TasksService
	Dashboard handlers.DashboardService
	AdminJobs handlers.AdminJobsRepo

	Tokens middlewares.TokenVerifier
	Prom   *observability.Prom
	// Gatherer backs /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// Ping is the readiness check; nil means always ready.
	Ping func(ctx context.Context) error

	AuthRateLimit int
	APIRateLimit  int
	RateWindow    time.Duration
}

func NewRouter(log *slog.Logger, d Deps) *gin.Engine {
	if d.Env != "dev" && d.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := handlers.RegisterValidators(); err != nil {
		log.Error("register validators", "err", err)
	}

	if d.ServiceName == "" {
		d.ServiceName = "taskhub-api"
	}
	if d.RateWindow <= 0 {
		d.RateWindow = time.Minute
	}
	if d.AuthRateLimit <= 0 {
		d.AuthRateLimit = 20
	}
	if d.APIRateLimit <= 0 {
		d.APIRateLimit = 300
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(d.ServiceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(1 << 20))
	r.Use(middlewares.RequireJSON())

	// health
	h := handlers.NewHealthHandler(d.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))

	// docs
	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	authLimiter := middlewares.NewRateLimiter(d.AuthRateLimit, d.RateWindow)
	apiLimiter := middlewares.NewRateLimiter(d.APIRateLimit, d.RateWindow)
	auth := middlewares.NewAuthMiddleware(d.Tokens)

	usersHandler := handlers.NewUsersHandler(d.Users)
	projectsHandler := handlers.NewProjectsHandler(d.Projects)
	tasksHandler := handlers.NewTasksHandler(d.Tasks)
	dashboardHandler := handlers.NewDashboardHandler(d.Dashboard)

	api := r.Group("/api")

	// public auth routes, limited per client ip
	public := api.Group("/users")
	public.Use(authLimiter.RateLimiterMiddleware(middlewares.KeyByIP))
	{
		public.POST("", usersHandler.Register)
		public.POST("/login", usersHandler.Login)
		public.POST("/forgotpassword", usersHandler.ForgotPassword)
		public.PUT("/resetpassword/:token", usersHandler.ResetPassword)
	}

	private := api.Group("")
	private.Use(auth.RequireAuth())
	private.Use(apiLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP))
	{
		private.GET("/users/me", usersHandler.Me)
		private.PUT("/users/profile", usersHandler.UpdateProfile)

		private.GET("/projects", projectsHandler.List)
		private.POST("/projects", projectsHandler.Create)
		private.GET("/projects/:id", projectsHandler.Get)
		private.PUT("/projects/:id", projectsHandler.Update)
		private.DELETE("/projects/:id", projectsHandler.Delete)

		private.GET("/tasks", tasksHandler.List)
		private.POST("/tasks", tasksHandler.Create)
		private.GET("/tasks/project/:projectId", tasksHandler.ListForProject)
		private.PUT("/tasks/:id", tasksHandler.Update)
		private.DELETE("/tasks/:id", tasksHandler.Delete)

		private.GET("/dashboard/stats", dashboardHandler.Stats)
	}

	if d.AdminJobs != nil {
		adminJobs := handlers.NewAdminJobsHandler(d.AdminJobs)

		admin := private.Group("/admin")
		admin.Use(auth.RequireRole("admin"))
		{
			admin.GET("/jobs", adminJobs.List)
			admin.GET("/jobs/:id", adminJobs.GetByID)
			admin.POST("/jobs/:id/retry", adminJobs.Retry)
			admin.POST("/jobs/reprocess-dead", adminJobs.ReprocessDead)
		}
	}

	return r
}
