package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yash-flix/VeriDoc-Ai/config"
	"github.com/yash-flix/VeriDoc-Ai/controllers"
	"github.com/yash-flix/VeriDoc-Ai/middleware"
	"github.com/yash-flix/VeriDoc-Ai/utils"
)

// Deps carries the controllers and settings the router wires.
type Deps struct {
	Config    config.AppConfig
	Uploads   *controllers.UploadController
	Documents *controllers.DocumentController
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(deps Deps) *gin.Engine {
	cfg := deps.Config
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil && cfg.GinPath != "" {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}
	r.MaxMultipartMemory = int64(max(cfg.MaxUploadMB, 1)) << 20

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	if cfg.UploadDir != "" {
		r.Static("/static/uploads", cfg.UploadDir)
	}

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	limited := middleware.RateLimitMiddleware(cfg.RateLimitPerMinute)

	api := r.Group("/api/v1")
	api.POST("/upload", limited, deps.Uploads.Upload)

	api.GET("/documents", deps.Documents.List)
	api.GET("/status/:id", deps.Documents.Status)
	api.POST("/verify/:id", limited, deps.Documents.Verify)
	api.POST("/approve/:id", deps.Documents.Approve)
	api.POST("/reject/:id", deps.Documents.Reject)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		ctx.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	})

	return r
}
