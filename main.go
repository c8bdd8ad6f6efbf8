package main

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/CharanLingolu/LC-Ai-Backend/config"
	"github.com/CharanLingolu/LC-Ai-Backend/controllers"
	"github.com/CharanLingolu/LC-Ai-Backend/database"
	"github.com/CharanLingolu/LC-Ai-Backend/middleware"
	"github.com/CharanLingolu/LC-Ai-Backend/services"
	"github.com/CharanLingolu/LC-Ai-Backend/store"
	"github.com/CharanLingolu/LC-Ai-Backend/websocket"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	setupLogger(cfg.Env)

	// Initialize database
	if err := database.Connect(cfg.DB); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	roomStore := store.NewGormRoomStore(database.DB)
	messageStore := store.NewGormMessageStore(database.DB)

	mailer := services.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Password)
	uploader, err := services.NewDiskUploader(cfg.Upload.Dir, cfg.Upload.BaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare upload directory")
	}
	aiProxy := services.NewHTTPChatProxy(cfg.AI.URL, cfg.AI.APIKey, cfg.AI.Model)

	socketServer := websocket.NewServer(roomStore, messageStore, aiProxy)

	authController := controllers.NewAuthController(mailer)
	roomController := controllers.NewRoomController(roomStore, messageStore)
	uploadController := controllers.NewUploadController(uploader)

	// Set up router
	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Authentication routes
	auth := router.Group("/api")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/otp/request", authController.RequestOTP)
		auth.POST("/otp/verify", authController.VerifyOTP)
	}

	// Protected routes
	api := router.Group("/api")
	api.Use(middleware.JWTAuth())
	{
		api.GET("/rooms", roomController.GetRooms)
		api.GET("/messages", roomController.GetMessages)
	}

	// Invite previews and uploads are open so link recipients and guests can
	// use them before signing in
	router.GET("/api/invite/:link", roomController.GetInvitePreview)
	router.POST("/api/upload", uploadController.Upload)
	router.Static("/uploads", cfg.Upload.Dir)

	// WebSocket route
	router.GET("/ws", socketServer.HandleConnection)

	log.Info().Str("port", cfg.Port).Msg("server running")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}

func setupLogger(env string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	switch env {
	case "prod":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
