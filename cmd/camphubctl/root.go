package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dalemusser/camphub/internal/app/store/audit"
	"github.com/dalemusser/camphub/internal/app/system/auditlog"
	"github.com/dalemusser/camphub/internal/app/system/timeouts"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// env reads CAMPHUB_<key>, falling back to def.
func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv("CAMPHUB_" + strings.ToUpper(key))); v != "" {
		return v
	}
	return def
}

type globals struct {
	mongoURI string
	database string
	verbose  bool

	log    *zap.Logger
	client *mongo.Client
	db     *mongo.Database
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:           "camphubctl",
		Short:         "Manage camp registrants from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := zap.NewDevelopmentConfig()
			if !g.verbose {
				cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
			}
			logger, err := cfg.Build()
			if err != nil {
				return err
			}
			g.log = logger
			timeouts.ConfigureFromEnv()
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			g.close()
			if g.log != nil {
				_ = g.log.Sync()
			}
			return nil
		},
	}

	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	root.PersistentFlags().StringVar(&g.mongoURI, "mongo-uri", env("mongo_uri", "mongodb://localhost:27017"), "MongoDB connection URI (CAMPHUB_MONGO_URI)")
	root.PersistentFlags().StringVar(&g.database, "database", env("mongo_database", "camphub"), "MongoDB database name (CAMPHUB_MONGO_DATABASE)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log at info level")

	root.AddCommand(
		newAddUserCmd(g),
		newTemplateCmd(g),
		newImportCmd(g),
		newUndoImportCmd(g),
		newExportCmd(g),
		newAssignCmd(g),
	)
	return root
}

// connect opens the database on first use.
func (g *globals) connect(ctx context.Context) (*mongo.Database, error) {
	if g.db != nil {
		return g.db, nil
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(g.mongoURI).SetAppName("camphubctl"))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB at %s: %w", g.mongoURI, err)
	}
	g.client = client
	g.db = client.Database(g.database)
	g.log.Info("connected", zap.String("database", g.database))
	return g.db, nil
}

func (g *globals) close() {
	if g.client != nil {
		_ = g.client.Disconnect(context.Background())
		g.client = nil
		g.db = nil
	}
}

// audit records CLI actions alongside web ones.
func (g *globals) audit(db *mongo.Database) *auditlog.Logger {
	return auditlog.New(audit.New(db), g.log, auditlog.Config{
		Auth: env("audit_log_auth", auditlog.ModeAll),
		Data: env("audit_log_data", auditlog.ModeAll),
	})
}
