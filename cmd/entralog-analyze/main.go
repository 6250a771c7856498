// entralog-analyze loads the two combined Parquet outputs into a DuckDB
// database file, derives the events and sessions tables, and exports both
// as CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xtxerr/entralog/internal/analysis"
	"github.com/xtxerr/entralog/internal/combine"
	"github.com/xtxerr/entralog/internal/config"
	"github.com/xtxerr/entralog/internal/logging"
)

func main() {
	cfgPath := flag.String("config", "", "config file path (optional)")
	dbPath := flag.String("db", "", "DuckDB database file (overrides config)")
	signinParquet := flag.String("signin", "", "combined sign-in Parquet file (overrides default)")
	auditParquet := flag.String("audit", "", "combined audit Parquet file (overrides default)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "entralog-analyze: %v\n", err)
		os.Exit(1)
	}
	if *dbPath != "" {
		cfg.Analysis.DBPath = *dbPath
	}

	logging.Init(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format == "json", cfg.Log.File)

	if err := cfg.ValidateAnalysis(); err != nil {
		fmt.Fprintf(os.Stderr, "entralog-analyze: %v\n", err)
		os.Exit(1)
	}

	signinDir, auditDir := cfg.CategoryDirs()
	signin := filepath.Join(signinDir, combine.ParquetName)
	audit := filepath.Join(auditDir, combine.ParquetName)
	if *signinParquet != "" {
		signin = *signinParquet
	}
	if *auditParquet != "" {
		audit = *auditParquet
	}

	loader, err := analysis.Open(cfg.Analysis.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "entralog-analyze: %v\n", err)
		os.Exit(1)
	}
	defer loader.Close()

	res, err := loader.Run(context.Background(), analysis.Options{
		SigninParquet: signin,
		AuditParquet:  audit,
		EventsCSV:     "events.csv",
		SessionsCSV:   "sessions.csv",
		Columns:       cfg.Analysis.Columns,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "entralog-analyze: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s: %d sign-in rows, %d audit rows, %d events, %d sessions\n",
		cfg.Analysis.DBPath, res.SigninRows, res.AuditRows, res.EventRows, res.SessionRows)
}
