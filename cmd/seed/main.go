// Command seed loads the embedded locality reference data into MongoDB.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/courier-gateway/app/services"
	"github.com/courier-gateway/internal/seed"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal("Cannot initialize logger:", err)
	}
	defer logger.Sync()

	mongoURL := getEnv("MONGO_URL", "mongodb://localhost:27017/courier_gateway")
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(mongoURL))
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error("Error disconnecting MongoDB", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := client.Ping(ctx, nil); err != nil {
		logger.Fatal("Failed to ping MongoDB", zap.Error(err))
	}
	db := client.Database(getEnv("MONGO_DB", "courier_gateway"))

	candidates, err := seed.Candidates()
	if err != nil {
		logger.Fatal("Embedded seed data invalid", zap.Error(err))
	}

	referenceService, err := services.NewReferenceService(db, 16, logger)
	if err != nil {
		logger.Fatal("Failed to initialize reference service", zap.Error(err))
	}

	if err := referenceService.SeedLocalities(ctx, candidates); err != nil {
		logger.Fatal("Seeding failed", zap.Error(err))
	}

	logger.Info("Seeded locality reference data", zap.Int("count", len(candidates)))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
