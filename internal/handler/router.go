package handler

import (
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/photoshare/internal/config"
	"github.com/xxxsen/photoshare/internal/metrics"
	"github.com/xxxsen/photoshare/internal/middleware"
)

type RouterDeps struct {
	Auth        *AuthHandler
	Upload      *UploadHandler
	Profile     *ProfileHandler
	Blobs       *BlobHandler
	Metrics     *metrics.Metrics
	MetricsPath string
	JWTSecret   []byte
	RateLimit   time.Duration
	CORS        config.CORSConfig
}

// Middlewares is the chain installed in front of every route.
func Middlewares(deps RouterDeps) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		middleware.RequestID(),
		middleware.AccessLog(),
		middleware.CORS(deps.CORS),
		deps.Metrics.Middleware(),
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs([]string{"^/blobs/"})),
	}
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	limiter := middleware.RateLimit(deps.RateLimit)
	api.POST("/signup", limiter, deps.Auth.Signup)
	api.POST("/login", limiter, deps.Auth.Login)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.POST("/upload", deps.Upload.Upload)
	authGroup.GET("/profile", deps.Profile.Get)

	if deps.Blobs != nil {
		api.PUT("/blobs/:key", deps.Blobs.Put)
		api.GET("/blobs/:key", deps.Blobs.Get)
	}
	if deps.Metrics != nil && deps.MetricsPath != "" {
		api.GET(deps.MetricsPath, gin.WrapH(deps.Metrics.Handler()))
	}
}

// NewRouter builds a standalone engine with the same chain the server uses.
func NewRouter(deps RouterDeps) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(Middlewares(deps)...)
	RegisterRoutes(engine.Group(""), deps)
	return engine
}
