package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	_ = godotenv.Load()

	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		log.Fatal().Msg("DB_URL is required")
	}

	dir, err := migrationsDir()
	if err != nil {
		log.Fatal().Err(err).Msg("could not locate migrations")
	}

	m, err := migrate.New("file://"+dir, dbURL)
	if err != nil {
		log.Fatal().Err(err).Str("dir", dir).Msg("could not open migrator")
	}

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	default:
		log.Fatal().Str("command", command).Msg("unknown command, want up or down")
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal().Err(err).Str("command", command).Msg("migration failed")
	}

	log.Info().Str("command", command).Str("dir", dir).Msg("migrations applied")
}

// migrationsDir resolves where the SQL migrations live: MIGRATIONS_DIR wins,
// otherwise walk up from the working directory and the binary location until a
// migrations/ directory appears.
func migrationsDir() (string, error) {
	if dir := os.Getenv("MIGRATIONS_DIR"); dir != "" {
		return filepath.Abs(dir)
	}

	var roots []string
	if cwd, err := os.Getwd(); err == nil {
		roots = append(roots, cwd)
	}
	if exe, err := os.Executable(); err == nil {
		roots = append(roots, filepath.Dir(exe))
	}

	for _, root := range roots {
		for current := root; ; current = filepath.Dir(current) {
			candidate := filepath.Join(current, "migrations")
			if info, err := os.Stat(candidate); err == nil && info.IsDir() {
				return filepath.Abs(candidate)
			}
			if filepath.Dir(current) == current {
				break
			}
		}
	}

	return "", fmt.Errorf("no migrations directory found, set MIGRATIONS_DIR")
}
