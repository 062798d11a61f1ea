package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "telros.ru/usersvc/docs"
	"telros.ru/usersvc/internal/config"
	"telros.ru/usersvc/internal/middleware"
	"telros.ru/usersvc/internal/model"

	authHttp "telros.ru/usersvc/internal/modules/auth/delivery/http"
	authService "telros.ru/usersvc/internal/modules/auth/service"

	photoHttp "telros.ru/usersvc/internal/modules/photo/delivery/http"
	photoRepo "telros.ru/usersvc/internal/modules/photo/repository"
	photoService "telros.ru/usersvc/internal/modules/photo/service"

	profileHttp "telros.ru/usersvc/internal/modules/profile/delivery/http"
	profileRepo "telros.ru/usersvc/internal/modules/profile/repository"
	profileService "telros.ru/usersvc/internal/modules/profile/service"

	searchService "telros.ru/usersvc/internal/modules/search/service"

	userRepo "telros.ru/usersvc/internal/modules/user/repository"

	"telros.ru/usersvc/pkg/cache"
	"telros.ru/usersvc/pkg/password"
	"telros.ru/usersvc/pkg/token"
	"telros.ru/usersvc/pkg/validator"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

// NewServer wires repositories, services and handlers onto a gin engine.
// redisClient may be nil, in which case principals are not cached.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	validator.Setup()

	tokenCodec, err := token.NewCodec(cfg.JWTSecret, cfg.JWTExpiration)
	if err != nil {
		return nil, err
	}
	hasher := password.NewHasher(cfg.PasswordCost)

	profileIndex := searchService.NewNoopProfileIndex()
	if cfg.MeiliHost != "" {
		meiliClient := meilisearch.New(cfg.MeiliHost, meilisearch.WithAPIKey(cfg.MeiliAPIKey))
		profileIndex = searchService.NewMeiliProfileIndex(meiliClient)
	}

	userRepository := userRepo.NewUserRepository(db)

	// the authenticator needs the password hash, so it never reads the cache
	principalLoader := authService.NewPrincipalLoader(userRepository)
	cachedLoader := authService.NewCachingPrincipalLoader(
		principalLoader,
		cache.New(redisClient, "principal", cfg.PrincipalCacheTTL),
	)

	authSvc := authService.NewAuthService(userRepository, principalLoader, hasher, tokenCodec, profileIndex)
	authHandler := authHttp.NewAuthHandler(authSvc)

	profileSvc := profileService.NewProfileService(profileRepo.NewProfileRepository(db), userRepository, profileIndex, cachedLoader)
	profileHandler := profileHttp.NewProfileHandler(profileSvc)

	photoSvc := photoService.NewPhotoService(photoRepo.NewPhotoRepository(db), cfg.UploadMaxSize)
	photoHandler := photoHttp.NewPhotoHandler(photoSvc, profileSvc)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(registry)

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(metrics.Handler())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/metrics", "/healthz"},
	}))

	authMiddleware := middleware.NewAuthMiddleware(tokenCodec, cachedLoader)
	router.Use(authMiddleware.Authenticate())

	// Public routes
	router.GET("/healthz", healthz(db))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/signin", authHandler.SignIn)
		auth.POST("/signup", authHandler.SignUp)
	}

	adminOnly := middleware.RequireRoles(model.RoleAdmin)
	anyUser := middleware.RequireRoles(model.RoleUser, model.RoleAdmin)
	uploadLimit := middleware.UploadBodyLimit(cfg.UploadMaxSize)

	users := api.Group("/users")
	{
		users.GET("", adminOnly, profileHandler.ListUsers)
		users.GET("/search", adminOnly, profileHandler.Search)

		users.GET("/me", anyUser, profileHandler.GetCurrent)
		users.POST("/me", anyUser, profileHandler.UpsertCurrent)
		users.POST("/me/photo", anyUser, uploadLimit, photoHandler.UploadCurrent)
		users.DELETE("/me/photo", anyUser, photoHandler.DeleteCurrent)

		users.GET("/:id", anyUser, profileHandler.GetByID)
		users.PUT("/:id", adminOnly, profileHandler.Update)
		users.DELETE("/:id", adminOnly, profileHandler.Delete)

		users.GET("/:id/photo", anyUser, photoHandler.Get)
		users.POST("/:id/photo", adminOnly, uploadLimit, photoHandler.Upload)
		users.DELETE("/:id/photo", adminOnly, photoHandler.Delete)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func healthz(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			log.Errorf("health check failed: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "up"})
	}
}

func setupCORS(router *gin.Engine, origins []string) {
	config := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		MaxAge:        time.Hour,
	}

	if len(origins) == 0 || (len(origins) == 1 && strings.TrimSpace(origins[0]) == "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
		config.AllowCredentials = true
	}

	router.Use(cors.New(config))
}
