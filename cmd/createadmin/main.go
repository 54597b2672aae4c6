// Command createadmin provisions the default admin account. It is a
// standalone bootstrap step, deliberately outside the alerting engine.
package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/alertline/alertline-api/internal/config"
	"github.com/alertline/alertline-api/internal/directory"

	_ "github.com/lib/pq" // PostgreSQL driver
)

func main() {
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	logger := zerolog.New(consoleWriter).With().Timestamp().Logger()

	cfg := config.Load()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	defer db.Close()

	dir := directory.NewPostgres(db)
	ctx := context.Background()

	if _, err := dir.GetUserByUsername(ctx, "admin"); err == nil {
		logger.Info().Msg("Admin user already exists")
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		logger.Fatal().Err(err).Msg("Failed to look up admin user")
	}

	user, err := dir.CreateUser(ctx, directory.CreateUserParams{
		Username: "admin",
		Password: "admin123",
		IsAdmin:  true,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create admin user")
	}

	logger.Info().Str("user_id", user.ID).Msg("Admin user created: username=admin, password=admin123")
}
