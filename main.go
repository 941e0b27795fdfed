package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/courier-gateway/app/config"
	"github.com/courier-gateway/app/controllers"
	"github.com/courier-gateway/app/services"
	"github.com/courier-gateway/internal/courier"
	"github.com/courier-gateway/internal/matcher"
	"github.com/courier-gateway/routes"
)

func main() {
	// 1. Load configuration
	loadConfig()

	// 2. Initialize logger
	logger := initLogger()
	defer logger.Sync()

	logger.Info("Starting Courier Gateway Service")

	// 3. Connect to MongoDB
	mongoDB := initMongoDB(logger)
	defer func() {
		if err := mongoDB.Client().Disconnect(context.Background()); err != nil {
			logger.Error("Error disconnecting MongoDB", zap.Error(err))
		}
	}()

	// 4. Resolution cache (in-process LRU, Redis L2 when reachable)
	redisURL := getEnv("REDIS_URL", "")
	resolutionCache, err := services.NewResolutionCache(
		redisURL,
		getEnvInt("RESOLUTION_CACHE_SIZE", config.C.Cache.ResolutionSize),
		config.C.Cache.ResolutionTTL,
		logger,
	)
	if err != nil {
		logger.Fatal("Failed to initialize resolution cache", zap.Error(err))
	}

	// 5. Reference data service
	referenceService, err := services.NewReferenceService(mongoDB, config.C.Cache.ReferenceSize, logger)
	if err != nil {
		logger.Fatal("Failed to initialize reference service", zap.Error(err))
	}

	// 6. Matcher and locality resolution
	resolver := matcher.NewResolver(logger)
	localityService := services.NewLocalityService(referenceService, resolver, resolutionCache, logger)

	// 7. Courier clients
	bostaClient := courier.NewBostaClient(config.C.Endpoints.BostaURL, logger)
	aramexClient := courier.NewAramexClient(config.C.Endpoints.AramexURL, courier.AramexAccount{
		Username:      config.C.Aramex.Username,
		Password:      config.C.Aramex.Password,
		AccountNumber: config.C.Aramex.AccountNumber,
		AccountPin:    config.C.Aramex.AccountPin,
		AccountEntity: config.C.Aramex.AccountEntity,
	}, logger)
	khazenlyClient := courier.NewKhazenlyClient(config.C.Endpoints.KhazenlyURL, logger)

	// 8. Order and shipment services
	orderService := services.NewOrderService(mongoDB, localityService, config.C.Policies, logger)
	shipmentService := services.NewShipmentService(
		mongoDB,
		localityService,
		config.C.Policies,
		bostaClient,
		aramexClient,
		khazenlyClient,
		logger,
	)

	// 9. Controllers
	orderController := controllers.NewOrderController(orderService, shipmentService, logger)
	adminController := controllers.NewAdminController(
		orderService,
		localityService,
		referenceService,
		resolutionCache,
		config.C.Policies,
		logger,
	)

	// 10. Gin router
	router := gin.Default()

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	// 11. Routes
	routes.SetupAPIRoutes(router, orderController, adminController)
	routes.SetupHealthRoutes(router, orderController)

	// 12. Start server
	port := getEnv("APP_PORT", "8080")
	logger.Info("Courier Gateway Service starting", zap.String("port", port))

	if err := router.Run(":" + port); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

// loadConfig reads the gateway config file, falling back to built-in
// defaults when none is present.
func loadConfig() {
	viper.SetDefault("app.port", "8080")
	viper.SetDefault("app.env", "development")
	viper.SetDefault("gateway.config", "./config/gateway.yaml")
	viper.SetDefault("mongo.url", "mongodb://localhost:27017/courier_gateway")

	viper.AutomaticEnv()

	path := getEnv("GATEWAY_CONFIG", viper.GetString("gateway.config"))
	if err := config.Load(path); err != nil {
		log.Printf("Warning: cannot read gateway config %s, using defaults: %v", path, err)
		config.UseDefaults()
	}
}

// initLogger builds a structured logger
func initLogger() *zap.Logger {
	env := getEnv("APP_ENV", "development")

	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	logger, err := cfg.Build()
	if err != nil {
		log.Fatal("Cannot initialize logger:", err)
	}

	return logger
}

// initMongoDB connects and pings before the server starts taking traffic
func initMongoDB(logger *zap.Logger) *mongo.Database {
	mongoURL := getEnv("MONGO_URL", "mongodb://localhost:27017/courier_gateway")

	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(mongoURL))
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Ping(ctx, nil); err != nil {
		logger.Fatal("Failed to ping MongoDB", zap.Error(err))
	}

	dbName := getEnv("MONGO_DB", "courier_gateway")
	db := client.Database(dbName)
	logger.Info("Connected to MongoDB", zap.String("database", dbName))

	return db
}

// getEnv reads an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt reads an environment variable as int with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
