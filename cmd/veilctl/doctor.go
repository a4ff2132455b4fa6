package main

import (
	"context"
	"database/sql"
	"os"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/veilsec/veil/internal/cli"
	"github.com/veilsec/veil/internal/doctor"
)

var (
	doctorDB      string
	doctorVerbose bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks",
	Long:  `Run health checks against the catalog: label parseability, level rank collisions, and registered-table consistency.`,
	Example: `  # Run health checks
  veilctl doctor --db ./app.db

  # Run with verbose output
  veilctl doctor --db ./app.db --verbose`,
	RunE: func(cmd *cobra.Command, args []string) error {
		v := resolveBool(doctorVerbose, cfg.Doctor.Verbose)
		dsn, err := resolveDSN(doctorDB)
		if err != nil {
			return err
		}
		return runDoctor(dsn, v)
	},
}

func init() {
	f := doctorCmd.Flags()
	f.StringVar(&doctorDB, "db", "", "path to the SQLite database file")
	f.BoolVar(&doctorVerbose, "verbose", false, "show detailed output")
}

func runDoctor(dsn string, verboseFlag bool) error {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return cli.DBConnectError("connecting to database", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	d := doctor.New(db)
	report, err := d.Run(ctx)
	if err != nil {
		return cli.GeneralError("running doctor", err)
	}

	report.Print(os.Stdout, verboseFlag)

	if report.HasErrors() {
		return cli.GeneralError("health checks failed", nil)
	}

	return nil
}
