package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/api"
	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/config"
	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/export"
	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/ingest"
	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/models"
	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/store"
)

func main() {
	fileFlag := flag.String("file", "", "Parse a single invoice PDF and print the JSON package")
	vendorFlag := flag.String("vendor", "", "Vendor: maxis, celcom, digi (auto-detected if omitted)")
	importFlag := flag.String("import", "", "Batch ingest every PDF in the given directory")
	serveFlag := flag.Bool("serve", false, "Run the HTTP API server")
	excelFlag := flag.String("excel", "", "Also write per-number Excel workbook and calls CSV into this directory")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	helpFlag := flag.Bool("help", false, "Show usage help")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Telecom Invoice Extraction

Extracts structured billing data from Maxis, Celcom, and Digi invoice
PDFs into a common JSON package, with optional Postgres persistence
and spreadsheet export.

Usage:
  billing-extractor [flags]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Auto-detect vendor and print JSON
  billing-extractor -file bill.pdf

  # Specify vendor explicitly
  billing-extractor -file bill.pdf -vendor digi

  # Parse and also write the workbook and calls CSV
  billing-extractor -file bill.pdf -excel ./out

  # Batch ingest a directory (persists when ABES_DB_ENABLED=true)
  billing-extractor -import ./inbox

  # Run the HTTP API
  billing-extractor -serve

Supported Vendors:
  maxis   - Maxis Berhad business bills
  celcom  - Celcom (Malaysia) Berhad bill statements
  digi    - Digi Telecommunications / CelcomDigi bills
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("billing-extractor v%s\n", models.ParserVersion)
		os.Exit(0)
	}
	if *helpFlag || (*fileFlag == "" && *importFlag == "" && !*serveFlag) {
		flag.Usage()
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fatalf("config: %v\n", err)
	}
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))

	vendor, err := parseVendorFlag(*vendorFlag)
	if err != nil {
		fatalf("%v\n", err)
	}

	ctx := context.Background()

	var st store.Store
	if cfg.DB.Enabled {
		db, err := store.NewDB(cfg.DB.DSN())
		if err != nil {
			fatalf("database: %v\n", err)
		}
		defer db.Close()
		pg := store.NewPostgresStore(db, log)
		if err := pg.Init(ctx); err != nil {
			fatalf("database schema: %v\n", err)
		}
		st = pg
	}

	svc := ingest.NewService(st, log)

	switch {
	case *serveFlag:
		if err := api.New(svc, log).Listen(cfg.Server.Listen); err != nil {
			fatalf("server: %v\n", err)
		}

	case *importFlag != "":
		outcomes, err := svc.ProcessDir(ctx, *importFlag, st != nil)
		if err != nil {
			fatalf("%v\n", err)
		}
		failed := 0
		for _, out := range outcomes {
			if out.Status != ingest.StatusParsed {
				failed++
				continue
			}
			if *excelFlag != "" {
				if err := writeExports(out, *excelFlag); err != nil {
					log.Error("export failed", "file", out.File, "error", err)
					failed++
				}
			}
		}
		if failed > 0 {
			os.Exit(1)
		}

	case *fileFlag != "":
		out := svc.ProcessFile(ctx, *fileFlag, vendor, st != nil)
		if out.Status == ingest.StatusFatal {
			fatalf("Error processing %s: %s\n", *fileFlag, out.Error)
		}
		if *excelFlag != "" {
			if err := writeExports(out, *excelFlag); err != nil {
				fatalf("export: %v\n", err)
			}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fatalf("encoding output: %v\n", err)
		}
		if out.Status == ingest.StatusValidationFailed {
			os.Exit(1)
		}
	}
}

// writeExports writes the workbook and calls CSV for one parsed file
// into dir, named after the source PDF.
func writeExports(out *ingest.Outcome, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	base := strings.TrimSuffix(out.File, filepath.Ext(out.File))
	if err := export.WriteWorkbook(out.Package, filepath.Join(dir, base+".xlsx")); err != nil {
		return err
	}
	return export.WriteCallsCSVFile(out.Package, filepath.Join(dir, base+"_calls.csv"))
}

func parseVendorFlag(v string) (models.Vendor, error) {
	switch strings.ToLower(v) {
	case "":
		return "", nil
	case "maxis":
		return models.VendorMaxis, nil
	case "celcom":
		return models.VendorCelcom, nil
	case "digi", "celcomdigi":
		return models.VendorDigi, nil
	default:
		return "", fmt.Errorf("unknown vendor %q, supported: maxis, celcom, digi", v)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
