package main

import (
	"aniverse/config"
	"aniverse/logging"
	"aniverse/storage"
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
)

var (
	dataPath string
	verbose  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the aniverse sqlite schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "Path to database directory (default DATA_PATH or ./data)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log goose output")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: withStorage(func(s *storage.SQLiteStorage) error {
				if err := s.RunMigrations(); err != nil {
					return err
				}
				fmt.Println("Migrations completed successfully")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: withStorage(func(s *storage.SQLiteStorage) error {
				if err := s.RollbackMigration(); err != nil {
					return err
				}
				fmt.Println("Migration rolled back successfully")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the status of every migration",
			RunE: withStorage(func(s *storage.SQLiteStorage) error {
				m := s.GetMigrationManager()
				if err := m.Initialize(); err != nil {
					return err
				}
				return m.Status()
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: withStorage(func(s *storage.SQLiteStorage) error {
				version, err := s.GetDatabaseVersion()
				if err != nil {
					return err
				}
				fmt.Printf("Database version: %d\n", version)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Roll back every migration",
			RunE: withStorage(func(s *storage.SQLiteStorage) error {
				if err := s.ResetDatabase(); err != nil {
					return err
				}
				fmt.Println("Database reset completed successfully")
				return nil
			}),
		},
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// withStorage opens the database without migrating it, so every subcommand
// sees the schema as it is on disk.
func withStorage(fn func(s *storage.SQLiteStorage) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		level := "warn"
		if verbose {
			level = "info"
		}
		logger, err := logging.New(level)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		path, err := resolveDataPath(dataPath)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}

		s := storage.NewSQLiteStorage(path, logger)
		if _, err := s.GetDB(); err != nil {
			return err
		}
		defer s.Close()

		return fn(s)
	}
}

// resolveDataPath prefers the --data flag and otherwise uses the service configuration
func resolveDataPath(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	return cfg.DataPath, nil
}
