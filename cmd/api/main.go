package main

import (
	"log"
	"os"
	"time"

	"github.com/dairydesk/dairydesk-golang/internal/auth"
	"github.com/dairydesk/dairydesk-golang/internal/database"
	"github.com/dairydesk/dairydesk-golang/internal/handlers"
	"github.com/dairydesk/dairydesk-golang/internal/mirror"
	"github.com/dairydesk/dairydesk-golang/internal/routes"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// 0. --- Load Environment Variables (.env) ---
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	// 1. --- Database Connection ---
	db, err := database.OpenDB()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// 2. --- Redis Connection (sessions + change notifications) ---
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "127.0.0.1:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()

	// 3. --- Data Synchronization Layer ---
	syncer := mirror.NewSyncer(db, mirror.NewRedisNotifier(rdb))
	defer syncer.CloseAll()

	// --- Application Setup ---
	app := &handlers.Handlers{
		DB:       db,
		Sessions: auth.NewRedisSessionStore(rdb),
		Syncer:   syncer,
	}

	// 4. --- Background Worker (Cron) ---
	// Runs every hour to delete profiles that never finished verification.
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		log.Println("Background Worker Started: purging abandoned profiles hourly...")

		for range ticker.C {
			app.PurgeAbandonedProfiles()
		}
	}()

	// --- Router Setup ---
	router := routes.SetupRouter(app)

	// --- Start Server ---
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Starting DairyDesk API server on port %s...", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
