package server

import (
	"context"
	"net/http"
	"time"

	"gymdesk/internal/activity"
	"gymdesk/internal/attendance"
	"gymdesk/internal/auth"
	"gymdesk/internal/backup"
	"gymdesk/internal/config"
	"gymdesk/internal/email"
	"gymdesk/internal/logger"
	"gymdesk/internal/member"
	"gymdesk/internal/payment"
	"gymdesk/internal/statscache"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Dependencies are the stores and clients the ledgers run on. Redis and
// Email are optional; without them statistics are computed per request and
// no e-mails are sent.
type Dependencies struct {
	Members    member.Repository
	Payments   payment.Repository
	Invoices   payment.InvoiceSequence
	Activities activity.Repository
	Redis      *redis.Client
	Email      *email.Service
	Google     auth.GoogleVerifier
	Now        func() time.Time
}

type Server struct {
	router  *gin.Engine
	http    *http.Server
	config  *config.Config
	email   *email.Service
	stats   *statscache.Cache
	limiter *RateLimiter
}

func New(cfg *config.Config, deps Dependencies) *Server {
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	activities := activity.NewService(deps.Activities, activity.WithClock(now))
	locks := member.NewLocks()
	members := member.NewService(deps.Members, activities, member.WithClock(now), member.WithLocks(locks))

	paymentOpts := []payment.Option{payment.WithClock(now)}
	attendanceOpts := []attendance.Option{attendance.WithClock(now), attendance.WithLocks(locks)}
	if deps.Email != nil {
		paymentOpts = append(paymentOpts, payment.WithNotifier(deps.Email))
		attendanceOpts = append(attendanceOpts, attendance.WithNotifier(deps.Email))
	}
	payments := payment.NewService(deps.Payments, deps.Invoices, memberDirectory{members: members}, activities, paymentOpts...)
	checkIns := attendance.NewService(deps.Members, payments, activities, attendanceOpts...)

	var stats *statscache.Cache
	var statsSource payment.StatisticsSource
	if deps.Redis != nil {
		stats = statscache.New(deps.Redis, payments, cfg.StatsTTL)
		statsSource = stats
	}

	authService := auth.NewService(cfg.OperatorUsername, cfg.OperatorPasswordHash, cfg.JWTSecret, deps.Google, cfg.GoogleAllowedEmails)

	authHandler := auth.NewHandler(authService)
	memberHandler := member.NewHandler(members)
	paymentHandler := payment.NewHandler(payments, statsSource)
	attendanceHandler := attendance.NewHandler(checkIns)
	activityHandler := activity.NewHandler(activities)
	backupHandler := backup.NewHandler(backup.NewService(members, payments, activities))

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(corsMiddleware())
	limiter := NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 3*time.Minute)
	router.Use(RateLimitMiddleware(limiter))

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	public := router.Group("/auth")
	{
		public.POST("/login", authHandler.Login)
		public.POST("/google", authHandler.Google)
		public.POST("/refresh", authHandler.Refresh)
	}

	protected := router.Group("/")
	protected.Use(auth.AuthMiddleware(cfg.JWTSecret))
	if stats != nil {
		protected.Use(StatsInvalidationMiddleware(stats))
	}
	{
		protected.GET("/auth/session", authHandler.Session)

		protected.GET("/members", memberHandler.List)
		protected.POST("/members", memberHandler.Create)
		protected.GET("/members/overview", memberHandler.Overview)
		protected.GET("/members/:id", memberHandler.Get)
		protected.PUT("/members/:id", memberHandler.Update)
		protected.DELETE("/members/:id", memberHandler.Delete)
		protected.POST("/members/:id/reset-sessions", memberHandler.ResetSessions)
		protected.POST("/members/:id/check-in", attendanceHandler.CheckIn)
		protected.GET("/members/:id/payments", paymentHandler.ListByMember)
		protected.GET("/members/:id/activities", activityHandler.ListByMember)

		protected.GET("/payments", paymentHandler.List)
		protected.POST("/payments", paymentHandler.Create)
		protected.POST("/payments/session", paymentHandler.CreateSession)
		protected.GET("/payments/statistics", paymentHandler.Statistics)
		protected.GET("/payments/price", paymentHandler.Price)
		protected.GET("/payments/export.xlsx", paymentHandler.Export)
		protected.GET("/payments/:id", paymentHandler.Get)
		protected.PUT("/payments/:id", paymentHandler.Update)
		protected.DELETE("/payments/:id", paymentHandler.Delete)

		protected.GET("/activities", activityHandler.Recent)

		protected.GET("/backup", backupHandler.Export)
		protected.POST("/backup", backupHandler.Restore)

		if deps.Email != nil {
			protected.GET("/test-email", TestEmail(deps.Email))
		}
	}

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		config:  cfg,
		email:   deps.Email,
		stats:   stats,
		limiter: limiter,
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// RunBackground starts the rate limiter sweep, the e-mail consumer and the
// statistics refresher. They stop when ctx is cancelled.
func (s *Server) RunBackground(ctx context.Context) {
	go s.limiter.Run(ctx, time.Minute)
	if s.email != nil {
		go s.email.Start(ctx)
	}
	if s.stats != nil {
		go s.stats.Run(ctx, s.config.StatsRefreshInterval)
	}
}

func (s *Server) Start() error {
	logger.Infof("Server starting on %s", s.http.Addr)
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
