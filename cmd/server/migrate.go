package main

import (
	"context"
	"fmt"
	"time"

	"github.com/AnshRaj112/diary-backend/internal/config"
	"github.com/AnshRaj112/diary-backend/internal/database"
	"github.com/AnshRaj112/diary-backend/internal/store"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create MongoDB indexes and PostgreSQL tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			log := newLogger(cfg)
			defer log.Sync()

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			client, db, err := database.ConnectMongo(cfg.MongoURI, log)
			if err != nil {
				return fmt.Errorf("connect to MongoDB: %w", err)
			}
			defer database.DisconnectMongo(client)

			if err := store.NewMongo(db).EnsureIndexes(ctx); err != nil {
				return fmt.Errorf("ensure entry indexes: %w", err)
			}
			log.Info("MongoDB entry indexes ensured")

			if cfg.PostgresURI == "" {
				log.Info("POSTGRES_URI not set; skipping profile tables")
				return nil
			}
			pg, err := database.ConnectPostgres(cfg.PostgresURI, log)
			if err != nil {
				return fmt.Errorf("connect to PostgreSQL: %w", err)
			}
			defer database.DisconnectPostgres(pg)

			if err := store.NewPostgresProfiles(pg).InitTables(ctx); err != nil {
				return fmt.Errorf("init profile tables: %w", err)
			}
			log.Info("PostgreSQL profile tables initialized")
			return nil
		},
	}
}
