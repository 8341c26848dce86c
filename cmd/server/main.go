package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"delivery_costs_backend/internal/config"
	"delivery_costs_backend/internal/database"
	"delivery_costs_backend/internal/router"
	"delivery_costs_backend/internal/services"
	"delivery_costs_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.InitLogger("info", "console")
		utils.LogError(err, "Invalid configuration")
		os.Exit(1)
	}

	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)
	if cfg.JWTSecret == "" {
		utils.LogWarn("JWT_SECRET is not set, using the built-in development key")
	}
	utils.SetJWTSecret(cfg.JWTSecret)

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		utils.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}
	defer db.Close()

	container := services.NewContainer(db, cfg.RecalcWorkers, cfg.ProgressRetention)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(utils.GinLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.ExposeHeaders = []string{"Location", "Retry-After"}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	router.Setup(engine, container)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Port, "recalc_workers": cfg.RecalcWorkers})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.LogError(err, "Failed to start server")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utils.LogInfo("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.LogError(err, "Server forced to shutdown")
	}
	// running recalculations stop between orders and record their final state
	if err := container.Recalculation.Shutdown(ctx); err != nil {
		utils.LogError(err, "Recalculations did not stop in time")
	}
	utils.LogInfo("Server exited")
}
