package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/streadway/amqp"

	"recette/internal/handlers"
	"recette/internal/middleware"
	"recette/internal/models"
	"recette/internal/repositories"
	"recette/internal/services"
	"recette/pkg/rabbitmq"
	"recette/pkg/storage"

	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("BASE_URL", "http://localhost:8080")
	viper.SetDefault("JWT_SECRET", "dev_jwt_secret")
	viper.SetDefault("SQLITE_PATH", "recette.db")
	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("S3_BUCKET", "recipe-images")
	viper.AutomaticEnv()

	appPort := viper.GetString("APP_PORT")
	baseURL := viper.GetString("BASE_URL")
	jwtSecret := viper.GetString("JWT_SECRET")

	// Missing configuration is logged, not fatal: the first call that needs
	// the absent service fails instead.
	if viper.GetString("EDITOR_API_KEY") == "" {
		log.Println("EDITOR_API_KEY is not set; the rich text editor will run unlicensed")
	}

	// --- Database ---
	db, err := openDatabase()
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Profile{}, &models.Recipe{}, &models.RecipeImage{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// --- Object storage ---
	var objectStorage storage.ObjectStorage
	if viper.GetString("S3_ACCESS_KEY") != "" {
		s3Storage, err := storage.NewS3Storage(context.Background(), storage.Config{
			Endpoint:  viper.GetString("S3_ENDPOINT"),
			Region:    viper.GetString("S3_REGION"),
			Bucket:    viper.GetString("S3_BUCKET"),
			AccessKey: viper.GetString("S3_ACCESS_KEY"),
			SecretKey: viper.GetString("S3_SECRET_KEY"),
		})
		if err != nil {
			log.Fatalf("Failed to initialize object storage: %v", err)
		}
		objectStorage = s3Storage
	} else {
		log.Println("S3_ACCESS_KEY is not set; using in-memory object storage")
		objectStorage = storage.NewMockStorage()
	}

	// --- RabbitMQ mail queue ---
	var mqClient *rabbitmq.Client
	if mqURL := viper.GetString("RABBITMQ_URL"); mqURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: mqURL})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()
	} else {
		log.Println("RABBITMQ_URL is not set; mail events will be skipped")
	}

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	profileRepo := repositories.NewGORMProfileRepository(db)
	recipeRepo := repositories.NewGORMRecipeRepository(db)
	imageRepo := repositories.NewGORMImageRepository(db)

	// --- Services ---
	var mailer services.Mailer
	if mqClient != nil {
		mailer = mqClient
	}
	authService := services.NewAuthService(userRepo, profileRepo, mailer, jwtSecret, baseURL)
	recipeService := services.NewRecipeService(recipeRepo, imageRepo, profileRepo, objectStorage)
	imageService := services.NewImageService(imageRepo, recipeRepo, objectStorage)

	var oauthService *services.OAuthService
	if clientID := viper.GetString("GOOGLE_CLIENT_ID"); clientID != "" {
		oauthService = services.NewGoogleOAuthService(
			authService,
			clientID,
			viper.GetString("GOOGLE_CLIENT_SECRET"),
			baseURL+"/api/v1/auth/callback",
		)
	} else {
		log.Println("GOOGLE_CLIENT_ID is not set; Google sign-in is disabled")
	}

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService, oauthService)
	profileHandler := handlers.NewProfileHandler(authService)
	recipeHandler := handlers.NewRecipeHandler(recipeService)
	imageHandler := handlers.NewImageHandler(imageService)

	// --- Fiber app ---
	app := fiber.New()
	app.Use(logger.New())

	apiV1 := app.Group("/api/v1")

	authRequired := middleware.AuthRequired(authService)
	guestOnly := middleware.GuestOnly(authService)

	authHandler.RegisterRoutes(apiV1, guestOnly, authRequired)
	profileHandler.RegisterRoutes(apiV1, authRequired)
	recipeHandler.RegisterRoutes(apiV1, authRequired)
	imageHandler.RegisterRoutes(apiV1, authRequired)

	// Client bootstrap configuration (rich text editor key).
	apiV1.Get("/config", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"editor_api_key": viper.GetString("EDITOR_API_KEY"),
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Mail consumer ---
	// Stand-in for a real mail worker: logs every queued mail event.
	if mqClient != nil {
		go func() {
			log.Println("Starting RabbitMQ consumer for mail events...")
			messageHandler := func(msg amqp.Delivery) error {
				log.Printf("Received mail event (tag %d): %s", msg.DeliveryTag, string(msg.Body))
				return nil
			}
			if consumerErr := mqClient.ConsumeMailEvents(messageHandler); consumerErr != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
			}
		}()
	}

	// --- Start HTTP server ---
	log.Printf("Starting server on port %s", appPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}

// openDatabase opens postgres when DATABASE_URL is set and falls back to a
// local sqlite file for development.
func openDatabase() (*gorm.DB, error) {
	if dsn := viper.GetString("DATABASE_URL"); dsn != "" {
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}
	path := viper.GetString("SQLITE_PATH")
	log.Printf("DATABASE_URL is not set; using sqlite database at %s", path)
	return gorm.Open(sqlite.Open(path), &gorm.Config{})
}
