package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"session-pool-system/handlers"
	"session-pool-system/livekit"
	"session-pool-system/models"
	"session-pool-system/services"
	"session-pool-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New()

	// Load allowed origins from environment variable
	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Session{},
		&models.SessionParticipant{},
		&models.Group{},
		&models.GroupMember{},
		&models.Profile{},
		&models.InstantQueueEntry{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	rooms, err := livekit.NewClientFromEnv()
	if err != nil {
		log.Fatal("failed to configure room provider:", err)
	}

	gateService := services.NewGateService(db, rooms)
	streakService := services.NewStreakService(db)
	instantService := services.NewInstantMatchService(db, rooms)
	sessionService := services.NewSessionService(db, rooms)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Room cleanup runs regardless of where the cron trigger lives.
	cleanupClient := workers.NewRoomCleanupClient(db, rooms)
	go workers.PollRoomCleanup(ctx, cleanupClient, 1*time.Minute)

	// The in-process scheduler is optional; deployments driven by an
	// external cron trigger hit the /cron endpoints instead.
	if strings.EqualFold(os.Getenv("ENABLE_INTERNAL_SCHEDULER"), "true") {
		scheduler := services.NewLifecycleScheduler(gateService, streakService, instantService)
		sched, err := scheduler.Start(ctx)
		if err != nil {
			log.Fatal("failed to start lifecycle scheduler:", err)
		}
		defer func() { _ = sched.Shutdown() }()
	}

	handlers.SetupCronRoutes(app, gateService, streakService, instantService)
	handlers.SetupSessionRoutes(app, sessionService, instantService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Room cleanup worker running (every 1m)")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	_ = app.Shutdown()
}
