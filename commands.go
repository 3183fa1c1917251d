package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/PressureTank/watchlist/backend/auth"
	"github.com/PressureTank/watchlist/backend/config"
	sqlitedb "github.com/PressureTank/watchlist/backend/database/sqlite"
	"github.com/PressureTank/watchlist/backend/web"
)

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// loadConfig reads the configured file, falling back to the embedded
// defaults when it does not exist.
func loadConfig(path string, logger *zap.Logger) *config.Config {
	if _, err := os.Stat(path); err != nil {
		logger.Warn("Config file not found, using defaults", zap.String("path", path))
		return config.DefaultConfig()
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		logger.Warn("Failed to load config, using defaults", zap.String("path", path), zap.Error(err))
		return config.DefaultConfig()
	}
	return cfg
}

func openStore(cfg *config.Config, logger *zap.Logger) (*sql.DB, *sqlitedb.SQLiteDB, error) {
	db, err := sqlitedb.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	sqlitedb.ConfigurePool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	return db, sqlitedb.NewSQLiteDB(db, logger), nil
}

func serveCommand(logger *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the watchlist web server",
		Flags: []cli.Flag{configFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := loadConfig(cmd.String("config"), logger)

			db, store, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := sqlitedb.RunMigrations(db); err != nil {
				return err
			}

			a := auth.New(
				store,
				store,
				[]byte(cfg.Session.HashKey),
				[]byte(cfg.Session.BlockKey),
				time.Duration(cfg.Session.MaxAgeHours)*time.Hour,
				logger,
			)
			handler, err := web.NewHandler(store, store, a, logger)
			if err != nil {
				return err
			}

			addr := cfg.Addr()
			logger.Info("Server started", zap.String("addr", addr))
			return http.ListenAndServe(addr, handler.Router())
		},
	}
}

func initDBCommand(logger *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "initdb",
		Usage: "Initialize the database schema",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "drop",
				Usage: "Drop all tables before recreating them",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := loadConfig(cmd.String("config"), logger)

			db, _, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			if cmd.Bool("drop") {
				if err := sqlitedb.DropAll(db); err != nil {
					return err
				}
				logger.Info("Dropped tables")
			}
			if err := sqlitedb.RunMigrations(db); err != nil {
				return err
			}
			logger.Info("Initialized database", zap.String("path", cfg.Database.Path))
			return nil
		},
	}
}

func adminCommand(logger *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "Create or update the admin user",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:     "username",
				Aliases:  []string{"u"},
				Usage:    "Login username",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Login password (prompted when omitted)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := loadConfig(cmd.String("config"), logger)

			password := cmd.String("password")
			if password == "" {
				var err error
				password, err = promptPassword()
				if err != nil {
					return err
				}
			}

			db, store, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := sqlitedb.RunMigrations(db); err != nil {
				return err
			}
			if err := store.UpsertAdmin(cmd.String("username"), password); err != nil {
				return err
			}
			logger.Info("Admin user updated", zap.String("username", cmd.String("username")))
			return nil
		},
	}
}

// promptPassword reads the password twice with echo disabled.
func promptPassword() (string, error) {
	fmt.Print("Password: ")
	first, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	fmt.Print("Repeat for confirmation: ")
	second, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	if len(first) == 0 {
		return "", errors.New("password must not be empty")
	}
	return string(first), nil
}

func forgeCommand(logger *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "forge",
		Usage: "Seed the database with sample movies",
		Flags: []cli.Flag{configFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := loadConfig(cmd.String("config"), logger)

			db, store, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := sqlitedb.RunMigrations(db); err != nil {
				return err
			}

			samples := []struct {
				title string
				year  string
			}{
				{"My Neighbor Totoro", "1988"},
				{"Dead Poets Society", "1989"},
				{"A Perfect World", "1993"},
				{"Leon", "1994"},
				{"Mahjong", "1996"},
				{"Swallowtail Butterfly", "1997"},
				{"King of Comedy", "1999"},
				{"Devils on the Doorstep", "1999"},
				{"WALL-E", "2008"},
				{"The Pork of Music", "2012"},
			}
			for _, s := range samples {
				if err := store.AddMovie(s.title, s.year); err != nil {
					return err
				}
			}
			logger.Info("Seeded sample movies", zap.Int("count", len(samples)))
			return nil
		},
	}
}
