// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	userstore "github.com/dalemusser/camphub/internal/app/store/users"
	"github.com/dalemusser/camphub/internal/app/system/indexes"
	"github.com/dalemusser/camphub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens the MongoDB client and verifies it with a ping.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize).
		SetAppName("camphub")

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		logger.Error("MongoDB connect failed", zap.Error(err))
		return DBDeps{}, fmt.Errorf("connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		logger.Error("MongoDB ping failed", zap.Error(err))
		return DBDeps{}, fmt.Errorf("ping MongoDB: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool", appCfg.MongoMaxPoolSize),
		zap.Uint64("min_pool", appCfg.MongoMinPoolSize))

	return DBDeps{
		CampHubMongoClient:   client,
		CampHubMongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema reconciles indexes and creates the bootstrap admin.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	if err := indexes.EnsureAll(ctx, deps.CampHubMongoDatabase); err != nil {
		logger.Error("index reconciliation failed", zap.Error(err))
		return err
	}
	return ensureAdmin(ctx, deps, appCfg.AdminName, appCfg.AdminEmail, appCfg.AdminPassword, logger)
}

// ensureAdmin creates the configured admin when the database has no active
// admin yet. It does nothing when no admin email is configured.
func ensureAdmin(ctx context.Context, deps DBDeps, name, email, password string, logger *zap.Logger) error {
	if email == "" {
		return nil
	}
	created, err := userstore.New(deps.CampHubMongoDatabase).EnsureAdmin(ctx, name, email, password)
	if err != nil {
		logger.Error("bootstrap admin failed", zap.String("email", email), zap.Error(err))
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if created {
		logger.Info("bootstrap admin created", zap.String("email", email))
	}
	return nil
}
