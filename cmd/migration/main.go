package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/riskibarqy/sports-viewing/internal/app"
	"github.com/riskibarqy/sports-viewing/internal/config"
	"github.com/riskibarqy/sports-viewing/internal/platform/logging"
)

var errUsage = errors.New("usage")

type command struct {
	name   string
	steps  int
	target uint
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	cmd, err := parseCommand(os.Args[1:])
	if err != nil {
		if errors.Is(err, errUsage) {
			printUsage()
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.LoadDatabase()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.NewJSON(cfg.LogLevel).Named("migration")
	defer func() { _ = logger.Sync() }()

	if err := run(cmd, cfg, logger); err != nil {
		logger.Error("migration failed", "command", cmd.name, "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cmd command, cfg config.Config, logger *logging.Logger) error {
	migrationsDir, err := resolveMigrationsDir()
	if err != nil {
		return err
	}

	sourceURL := "file://" + filepath.ToSlash(migrationsDir)
	m, err := migrate.New(sourceURL, app.DatabaseURL(cfg))
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			logger.Warn("close migrator", "source_error", srcErr, "db_error", dbErr)
		}
	}()

	switch cmd.name {
	case "up":
		return logChange(logger, m.Up(), "migrations applied", "source", sourceURL)
	case "down":
		return logChange(logger, m.Steps(-cmd.steps), "migrations rolled back", "steps", cmd.steps)
	case "goto":
		return logChange(logger, m.Migrate(cmd.target), "migrated", "version", cmd.target)
	case "force":
		if err := m.Force(int(cmd.target)); err != nil {
			return fmt.Errorf("force version %d: %w", cmd.target, err)
		}
		logger.Info("version forced", "version", cmd.target)
		return nil
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info("schema version", "version", "none", "dirty", false)
			return nil
		}
		if err != nil {
			return fmt.Errorf("read version: %w", err)
		}
		logger.Info("schema version", "version", version, "dirty", dirty)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd.name)
	}
}

func logChange(logger *logging.Logger, err error, msg string, args ...any) error {
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migration changes")
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info(msg, args...)
	return nil
}

// parseCommand accepts: up | down [n] | version | force <v> | goto <v>.
func parseCommand(args []string) (command, error) {
	if len(args) == 0 {
		return command{}, errUsage
	}

	cmd := command{name: strings.ToLower(strings.TrimSpace(args[0]))}
	rest := args[1:]
	switch cmd.name {
	case "up", "version":
		return cmd, nil
	case "down":
		cmd.steps = 1
		if len(rest) > 0 {
			steps, err := strconv.Atoi(strings.TrimSpace(rest[0]))
			if err != nil || steps <= 0 {
				return command{}, fmt.Errorf("down steps must be a positive integer, got %q", rest[0])
			}
			cmd.steps = steps
		}
		return cmd, nil
	case "force", "goto", "migrate":
		if len(rest) == 0 {
			return command{}, fmt.Errorf("%s requires a version argument", cmd.name)
		}
		target, err := strconv.ParseUint(strings.TrimSpace(rest[0]), 10, 31)
		if err != nil {
			return command{}, fmt.Errorf("invalid version %q: %w", rest[0], err)
		}
		if cmd.name == "migrate" {
			cmd.name = "goto"
		}
		cmd.target = uint(target)
		return cmd, nil
	default:
		return command{}, errUsage
	}
}

func resolveMigrationsDir() (string, error) {
	candidates := []string{
		os.Getenv("MIGRATIONS_DIR"),
		"./db/migrations",
		"/app/db/migrations",
	}

	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			return abs, nil
		}
	}

	return "", fmt.Errorf("migration directory not found (checked MIGRATIONS_DIR, ./db/migrations, /app/db/migrations)")
}

func printUsage() {
	name := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "usage: %s <up|down [n]|version|force <v>|goto <v>>\n", name)
}
