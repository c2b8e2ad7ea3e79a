package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/miriadsolutions/atendimento-backend/database"
	"github.com/miriadsolutions/atendimento-backend/internal/handlers"
	"github.com/miriadsolutions/atendimento-backend/internal/models"
	"github.com/miriadsolutions/atendimento-backend/internal/routes"
	"github.com/miriadsolutions/atendimento-backend/internal/services"
	"github.com/miriadsolutions/atendimento-backend/internal/storage"
)

func main() {
	// Load .env file for local development
	if os.Getenv("INSTANCE_CONNECTION_NAME") == "" {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("⚠️  No .env file found - checking environment variables")
		}
	}

	// Initialize storage
	var store storage.Store

	if os.Getenv("USE_MEMORY_STORE") == "true" {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		log.Println("📦 Connecting to PostgreSQL database...")
		database.Connect()

		log.Println("🔄 Running database migrations...")
		err := database.DB.AutoMigrate(
			&models.Client{},
			&models.Contract{},
			&models.SurveyResponse{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		store = storage.NewDatabaseStore(database.DB)
		log.Println("✅ Using PostgreSQL database storage")
	}

	// External collaborators
	twilioService, err := services.NewTwilioService()
	if err != nil {
		log.Fatal("Failed to initialize Twilio service:", err)
	}
	log.Println("✅ Twilio service initialized")

	driveService, err := services.NewDriveService()
	if err != nil {
		log.Fatal("Failed to initialize Drive service:", err)
	}
	log.Println("✅ Google Drive service initialized")

	trelloService, err := services.NewTrelloService()
	if err != nil {
		log.Fatal("Failed to initialize Trello service:", err)
	}
	log.Println("✅ Trello service initialized")

	mailerService, err := services.NewMailerService()
	if err != nil {
		log.Fatal("Failed to initialize mailer service:", err)
	}
	log.Println("✅ Mailer service initialized")

	// Conversation state and flows. All sessions start fresh.
	sessionManager := services.NewSessionManager()
	sessionManager.ResetAll()
	sessionManager.StartSweeper()

	intakeService := services.NewIntakeService(
		twilioService, store, driveService, trelloService, mailerService, sessionManager)
	internalFlow := services.NewInternalFlowService(twilioService)
	conversationService := services.NewConversationService(
		sessionManager, twilioService, store, intakeService, internalFlow)

	whatsappHandler := handlers.NewWhatsAppHandler(conversationService)

	log.Println("✅ All services initialized")

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "Miriad Atendimento v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 15 * time.Minute,
	}))

	routes.SetupRoutes(app, whatsappHandler)

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		log.Println("⏹️  Stopping session sweeper...")
		sessionManager.Stop()
		log.Println("⏹️  Shutting down server...")
		_ = app.Shutdown()
	}()

	log.Println("========================================")
	log.Printf("🚀 Miriad Atendimento starting on port %s", port)
	log.Printf("📊 Storage: %s", storageType())
	log.Println("========================================")

	log.Fatal(app.Listen(":" + port))
}

func storageType() string {
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		return "In-Memory (Testing)"
	}
	return "PostgreSQL Database"
}
