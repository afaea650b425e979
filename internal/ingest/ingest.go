// Package ingest drives the pipeline from a PDF on disk to a persisted
// package: hash, detect vendor, extract, parse, validate, store. Each
// file gets an independent outcome; one bad file never stops a batch.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/extractor"
	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/models"
	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/parser"
	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/store"
	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/validate"
)

type Status string

const (
	// StatusParsed: extracted, adapted, and shape-valid.
	StatusParsed Status = "parsed"
	// StatusValidationFailed: the document parsed but the package
	// failed shape validation; the package is still attached.
	StatusValidationFailed Status = "validation_failed"
	// StatusFatal: the PDF could not be opened or no parser exists.
	StatusFatal Status = "fatal"
)

// Outcome is the per-file result of one ingest.
type Outcome struct {
	RunID      string                 `json:"run_id,omitempty"`
	DocumentID string                 `json:"document_id"`
	File       string                 `json:"file"`
	Vendor     models.Vendor          `json:"vendor,omitempty"`
	Confidence float64                `json:"confidence,omitempty"`
	Status     Status                 `json:"status"`
	Package    *models.InvoicePackage `json:"package,omitempty"`
	Validation []validate.Result      `json:"validation,omitempty"`
	Persisted  bool                   `json:"persisted"`
	Err        error                  `json:"-"`
	Error      string                 `json:"error,omitempty"`
}

// Service wires the pipeline stages together. Store may be nil, in
// which case packages are parsed and validated but never persisted.
type Service struct {
	store store.Store
	log   *slog.Logger
}

func NewService(st store.Store, log *slog.Logger) *Service {
	return &Service{store: st, log: log}
}

// ProcessFile runs the pipeline for one PDF path. An empty vendor
// means auto-detect.
func (s *Service) ProcessFile(ctx context.Context, path string, vendor models.Vendor, persist bool) *Outcome {
	name := filepath.Base(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return s.fatal(name, fmt.Errorf("reading %s: %w", path, err))
	}
	sum := sha256.Sum256(data)

	doc, err := extractor.ExtractDocument(path)
	if err != nil {
		return s.fatal(name, fmt.Errorf("extracting %s: %w", path, err))
	}

	return s.ProcessDocument(ctx, doc, name, hex.EncodeToString(sum[:]), vendor, persist)
}

// ProcessDocument runs the pipeline stages after extraction. Split out
// so the API layer can reuse it for uploads.
func (s *Service) ProcessDocument(ctx context.Context, doc *extractor.Document, filename, fileSHA string, vendor models.Vendor, persist bool) *Outcome {
	out := &Outcome{
		DocumentID: uuid.NewString(),
		File:       filename,
		Vendor:     vendor,
	}

	if vendor == "" {
		det := parser.DetectVendor(filename, doc)
		if det.Vendor == parser.VendorUnknown {
			return s.fail(out, fmt.Errorf("unable to detect vendor for %s", filename))
		}
		out.Vendor = det.Vendor
		out.Confidence = det.Confidence
		s.log.Debug("vendor detected",
			"file", filename, "vendor", det.Vendor,
			"confidence", det.Confidence, "source", det.Source)
	}

	p, err := parser.New(out.Vendor)
	if err != nil {
		return s.fail(out, err)
	}
	pkg, err := p.Parse(doc)
	if err != nil {
		return s.fail(out, fmt.Errorf("parsing %s: %w", filename, err))
	}
	pkg.Invoice.SourceFilename = filename
	pkg.Invoice.FileSHA256 = fileSHA
	out.Package = pkg

	out.Validation = validate.ValidateWith(pkg, validate.StrictRules())
	if reason := validate.FirstFailure(out.Validation); reason != "" {
		out.Status = StatusValidationFailed
		out.Error = reason
		s.log.Warn("package failed validation",
			"file", filename, "vendor", out.Vendor, "reason", reason)
		return out
	}

	out.Status = StatusParsed
	s.log.Info("package parsed",
		"file", filename, "vendor", out.Vendor,
		"numbers", len(pkg.Numbers), "issues", len(pkg.Issues))

	if persist && s.store != nil {
		if err := s.store.SavePackage(ctx, pkg); err != nil {
			out.Err = err
			out.Error = err.Error()
			s.log.Error("persist failed", "file", filename, "error", err)
			return out
		}
		out.Persisted = true
	}
	return out
}

// ProcessDir ingests every PDF directly under dir, in filename order.
func (s *Service) ProcessDir(ctx context.Context, dir string, persist bool) ([]*Outcome, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading inbox %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	runID := uuid.NewString()
	s.log.Info("ingest run started", "run_id", runID, "dir", dir, "files", len(files))

	outcomes := make([]*Outcome, 0, len(files))
	counts := map[Status]int{}
	for _, name := range files {
		out := s.ProcessFile(ctx, filepath.Join(dir, name), "", persist)
		out.RunID = runID
		counts[out.Status]++
		outcomes = append(outcomes, out)
	}

	s.log.Info("ingest run finished",
		"run_id", runID,
		"parsed", counts[StatusParsed],
		"validation_failed", counts[StatusValidationFailed],
		"fatal", counts[StatusFatal])
	return outcomes, nil
}

func (s *Service) fatal(filename string, err error) *Outcome {
	out := &Outcome{DocumentID: uuid.NewString(), File: filename}
	return s.fail(out, err)
}

func (s *Service) fail(out *Outcome, err error) *Outcome {
	out.Status = StatusFatal
	out.Err = err
	out.Error = err.Error()
	s.log.Error("ingest failed", "file", out.File, "error", err)
	return out
}
