package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/rs/cors"
	"github.com/ytakahashi/todo-list/internal/config"
	"github.com/ytakahashi/todo-list/internal/handlers"
	"github.com/ytakahashi/todo-list/internal/models"
	"github.com/ytakahashi/todo-list/internal/services"
	"github.com/ytakahashi/todo-list/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	kv, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s storage: %v", cfg.Backend, err)
	}
	defer kv.Close()

	store := services.NewTaskStore(kv,
		services.WithKey(cfg.StorageKey),
		services.WithOnChange(func(p models.Projection) {
			log.Printf("Tasks changed: %s", p.Summary)
		}),
	)
	store.Load(ctx)

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type"},
	})
	e.Use(echo.WrapMiddleware(c.Handler))

	handlers.NewTaskHandler(store).Register(e)

	if cfg.LineEnabled() {
		bot, err := messaging_api.NewMessagingApiAPI(cfg.LineChannelToken)
		if err != nil {
			log.Fatalf("Failed to create LINE bot client: %v", err)
		}
		webhookHandler := handlers.NewWebhookHandler(bot, store, cfg.LineChannelSecret)
		e.POST("/webhook", webhookHandler.HandleWebhook)
		log.Println("LINE webhook enabled")
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	go func() {
		log.Printf("Server starting on port %s (%s storage)", cfg.Port, cfg.Backend)
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown failed: %v", err)
	}
	log.Println("Server stopped")
}
