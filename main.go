package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"group-chat-service/internal/auth"
	"group-chat-service/internal/config"
	"group-chat-service/internal/db"
	"group-chat-service/internal/handlers"
	"group-chat-service/internal/middleware"
	"group-chat-service/internal/observability"
	"group-chat-service/internal/rabbitmq"
	"group-chat-service/internal/repositories"
	"group-chat-service/internal/smartreply"
	"group-chat-service/internal/storage"
	"group-chat-service/internal/telemetry"
	"group-chat-service/internal/ws"
)

const serviceName = "group-chat-service"

func main() {
	cfg := config.Load()
	ctx := context.Background()

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.OTLPEndpoint, serviceName)
	if err != nil {
		log.Printf("tracing disabled: %v", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTracing(shutdownCtx)
		}()
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	log.Printf("event publisher mode=%s", rabbitmq.PublisherMode(publisher))
	observability.SetPublisher(publisher)
	audit := telemetry.NewAuditEmitter(publisher, "audit.chat", serviceName, cfg.Environment)

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}

	var uploader storage.Uploader
	if cfg.S3Bucket != "" {
		s3Uploader, err := storage.NewS3Uploader(ctx, cfg.AWSRegion, cfg.S3Bucket)
		if err != nil {
			log.Printf("s3 uploads disabled: %v", err)
		} else {
			uploader = s3Uploader
		}
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTLifetime)

	userRepo := repositories.NewUserRepo(database)
	groupRepo := repositories.NewGroupRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	hub := ws.NewHub()
	socketHandler := ws.NewSocketHandler(hub, ws.NewDispatcher(hub))

	authHandler := handlers.NewAuthHandler(userRepo, jwtManager, audit, cfg.Environment == "production")
	groupHandler := handlers.NewGroupHandler(groupRepo, audit)
	messageHandler := handlers.NewMessageHandler(messageRepo, groupRepo, audit)
	uploadHandler := handlers.NewUploadHandler(uploader)
	smartReplyHandler := handlers.NewSmartReplyHandler(
		smartreply.NewClient(cfg.OpenAIAPIKey),
		smartreply.NewCache(redisClient),
	)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(jwtManager)

	router.POST("/api/auth/register", authHandler.Register)
	router.POST("/api/auth/login", authHandler.Login)
	router.POST("/api/auth/forgot-password", authHandler.ForgotPassword)
	router.GET("/api/auth/me", authMiddleware, authHandler.Me)

	router.GET("/api/groups", authMiddleware, groupHandler.ListGroups)
	router.POST("/api/groups", authMiddleware, groupHandler.CreateGroup)
	router.POST("/api/groups/join", authMiddleware, groupHandler.JoinGroup)
	router.POST("/api/groups/leave", authMiddleware, groupHandler.LeaveGroup)
	router.DELETE("/api/groups/:group_id", authMiddleware, groupHandler.DeleteGroup)

	router.GET("/api/messages", authMiddleware, messageHandler.ListMessages)
	router.POST("/api/messages", authMiddleware, messageHandler.PostMessage)
	router.POST("/api/messages/read", authMiddleware, messageHandler.MarkRead)

	router.POST("/api/upload", authMiddleware, uploadHandler.Upload)
	router.POST("/api/smart-reply", authMiddleware, smartReplyHandler.Suggest)

	// The realtime endpoint is unauthenticated; room membership is
	// client-asserted on this surface.
	router.GET("/socket", socketHandler.Handle)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterDebugRoutes(router, audit, cfg.DebugRoutes)

	log.Printf("listening on :%s environment=%s", cfg.Port, cfg.Environment)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
