package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"github.com/coregx/sqladvisor"
)

var (
	flagDriver  string
	flagDSN     string
	flagOwner   string
	flagStats   bool
	flagHints   bool
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "sqladvisor",
	Short: "Index recommendations for SQL SELECT statements",
	Long: `sqladvisor parses a SELECT statement, fetches index metadata and column
statistics for the referenced tables from the target database's catalog, and
prints ranked CREATE INDEX / EXTEND INDEX / DROP INDEX recommendations with
generated DDL. Supported catalogs: PostgreSQL, MySQL, SQLite.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDriver, "driver", "postgres", "Database driver: postgres, mysql, or sqlite3")
	rootCmd.PersistentFlags().StringVar(&flagDSN, "dsn", "", "Database connection string")
	rootCmd.PersistentFlags().StringVar(&flagOwner, "owner", "", "Default schema for unqualified table names")
	rootCmd.PersistentFlags().BoolVar(&flagStats, "stats", true, "Fetch column statistics for selectivity scoring")
	rootCmd.PersistentFlags().BoolVar(&flagHints, "hints", false, "Include notes about predicates excluded from analysis")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
}

// newEngine opens the target database and builds an engine from the
// environment-configurable parameters.
func newEngine(connectionID string) (*sqladvisor.Engine, *sql.DB, error) {
	if flagDSN == "" {
		return nil, nil, fmt.Errorf("--dsn is required")
	}

	params, err := sqladvisor.LoadParams()
	if err != nil {
		return nil, nil, err
	}

	db, err := sql.Open(flagDriver, flagDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	opts := []sqladvisor.Option{
		sqladvisor.WithMetadataCache(connectionID),
	}
	if flagVerbose {
		opts = append(opts, sqladvisor.WithLogger(
			sqladvisor.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			})))))
	}

	eng, err := sqladvisor.NewEngineForDB(db, flagDriver, params, opts...)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return eng, db, nil
}
