package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/messenger-go-api/internal/config"
	"github.com/noah-isme/messenger-go-api/internal/database"
	"github.com/noah-isme/messenger-go-api/internal/handler"
	"github.com/noah-isme/messenger-go-api/internal/middleware"
	"github.com/noah-isme/messenger-go-api/internal/repository"
	"github.com/noah-isme/messenger-go-api/internal/router"
	"github.com/noah-isme/messenger-go-api/internal/service"
	"github.com/noah-isme/messenger-go-api/internal/store"
	cloud "github.com/noah-isme/messenger-go-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	documents := store.NewRedisStore(redisClient, cfg.EventChannelBase, logger).
		WithWatchDebounce(cfg.WatchDebounce)

	userRepo := repository.NewUserRepository(documents, logger)
	conversationRepo := repository.NewConversationRepository(documents, logger)
	threadRepo := repository.NewThreadRepository(documents, logger)

	messengerService := service.NewMessengerService(userRepo, conversationRepo, threadRepo, natsConn, cfg.EventChannelBase, validate, logger)
	accountService := service.NewAccountService(userRepo, uploader, validate, logger)
	mediaService := service.NewMediaService(uploader, cfg.MediaMaxSizeMB, logger)

	accountHandler := handler.NewAccountHandler(accountService, logger)
	conversationHandler := handler.NewConversationHandler(messengerService, logger)
	mediaHandler := handler.NewMediaHandler(mediaService, logger)
	liveHandler := handler.NewLiveHandler(messengerService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AccountHandler:      accountHandler,
		ConversationHandler: conversationHandler,
		MediaHandler:        mediaHandler,
		LiveHandler:         liveHandler,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
