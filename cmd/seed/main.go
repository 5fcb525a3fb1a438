/**
 * @description
 * Development seed: inserts a demo customer and a stored card so webhook
 * payloads referencing john@example.com / payment method 1 resolve
 * locally. Safe to run repeatedly.
 */
package main

import (
	"context"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/transfa/billing-service/internal/config"
)

func main() {
	_ = godotenv.Load()

	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", "billing-seed").
		Logger()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("unable to connect to database")
	}
	defer conn.Close(ctx)

	var userID int64
	err = conn.QueryRow(ctx, `
		INSERT INTO users (name, email, password)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, "John Doe", "john@example.com", "password").Scan(&userID)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to seed user")
	}

	var methodID int64
	err = conn.QueryRow(ctx, `
		SELECT id FROM payment_methods WHERE user_id = $1 AND card_number = $2
	`, userID, "4242424242424242").Scan(&methodID)
	if err == pgx.ErrNoRows {
		err = conn.QueryRow(ctx, `
			INSERT INTO payment_methods (user_id, type, card_number, expiration_date)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, userID, "card", "4242424242424242", time.Date(2027, time.December, 1, 0, 0, 0, 0, time.UTC)).Scan(&methodID)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to seed payment method")
	}

	logger.Info().Int64("user_id", userID).Int64("payment_method_id", methodID).Msg("seed complete")
}
