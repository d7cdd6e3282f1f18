package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Brianwan04/PixBackend/common"
	"github.com/Brianwan04/PixBackend/constant"
	"github.com/Brianwan04/PixBackend/controller"
	"github.com/Brianwan04/PixBackend/middleware"
	"github.com/Brianwan04/PixBackend/relay/channel/replicate"
	"github.com/Brianwan04/PixBackend/router"
	"github.com/Brianwan04/PixBackend/service"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		common.SysLog("no .env file found, relying on environment")
	}
	constant.LoadEnv()

	for _, dir := range []string{constant.UploadStagingDir, constant.ProcessedDir, constant.PublicUploadsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			common.SysError(fmt.Sprintf("failed to create directory %s: %v", dir, err))
			os.Exit(1)
		}
	}

	if os.Getenv("GIN_MODE") == "" && os.Getenv("NODE_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	adaptor := replicate.NewAdaptor(constant.ReplicateBaseURL, constant.ReplicateAPIToken, service.GetHttpClient())
	adaptor.WaitSeconds = constant.PredictionWaitSeconds
	adaptor.MaxUploadRetries = constant.UploadMaxRetries

	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())
	engine.Use(middleware.RequestId())
	engine.Use(middleware.CORS())
	appCtx, stopBackground := context.WithCancel(context.Background())
	router.SetApiRouter(appCtx, engine, controller.NewImageController(adaptor))
	service.ScheduleCleanup(appCtx)

	addr := fmt.Sprintf("%s:%d", constant.Host, constant.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: engine,
	}

	go func() {
		common.SysLog(fmt.Sprintf("PixBackend running on %s", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.SysError(fmt.Sprintf("server error: %v", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	common.SysLog(fmt.Sprintf("received %s, closing server", sig))

	stopBackground()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		common.SysError(fmt.Sprintf("forced shutdown: %v", err))
		os.Exit(1)
	}
	common.SysLog("http server closed")
}
