package db

import (
	"context"
	"fmt"

	"veritas/migrations"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

// Migrate brings the schema at dsn up to date. gorm's AutoMigrate is not used:
// the CHECK constraints live in the SQL files.
func Migrate(ctx context.Context, dsn string, log logrus.FieldLogger) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect for migrations: %w", err)
	}
	defer conn.Close(context.Background())

	ran, err := migrations.Apply(ctx, conn)
	if err != nil {
		return err
	}
	if len(ran) > 0 {
		log.WithField("versions", ran).Info("migrations applied")
	}
	return nil
}
