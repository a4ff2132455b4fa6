package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/veilsec/veil"
	"github.com/veilsec/veil/internal/cli"
)

var (
	refreshDB    string
	refreshQuiet bool
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Force a view/trigger refresh",
	Long:  `Drop and recreate every managed view and trigger against the current catalog state.`,
	Example: `  # Refresh views against the on-disk catalog
  veilctl refresh --db ./app.db`,
	RunE: func(cmd *cobra.Command, args []string) error {
		q := resolveBool(refreshQuiet, cfg.Refresh.Quiet, quiet)
		dsn, err := resolveDSN(refreshDB)
		if err != nil {
			return err
		}
		return runRefresh(dsn, q)
	},
}

func init() {
	f := refreshCmd.Flags()
	f.StringVar(&refreshDB, "db", "", "path to the SQLite database file")
	f.BoolVar(&refreshQuiet, "quiet", false, "suppress non-error output")
}

func runRefresh(dsn string, quiet bool) error {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return cli.DBConnectError("connecting to database", err)
	}
	defer func() { _ = db.Close() }()

	e, err := veil.Open(db)
	if err != nil {
		return cli.GeneralError("attaching engine", err)
	}
	defer func() { _ = e.Close() }()

	ctx := context.Background()
	if err := e.Refresh(ctx); err != nil {
		return cli.EngineError("refreshing views", err)
	}

	if !quiet {
		fmt.Println("Views refreshed.")
	}
	return nil
}
