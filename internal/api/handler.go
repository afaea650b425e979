// Package api exposes the extraction pipeline over HTTP.
package api

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/extractor"
	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/ingest"
	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/models"
	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/validate"
)

// ParseResponse is the JSON response from the /api/parse endpoint.
type ParseResponse struct {
	Success    bool                   `json:"success"`
	Error      string                 `json:"error,omitempty"`
	DocumentID string                 `json:"document_id,omitempty"`
	Vendor     string                 `json:"vendor,omitempty"`
	Confidence float64                `json:"confidence,omitempty"`
	Status     string                 `json:"status,omitempty"`
	Package    *models.InvoicePackage `json:"package,omitempty"`
	Validation []validate.Result      `json:"validation,omitempty"`
	Version    string                 `json:"version,omitempty"`
}

// Server wires the fiber app to the ingest pipeline.
type Server struct {
	svc *ingest.Service
	log *slog.Logger
	app *fiber.App
}

func New(svc *ingest.Service, log *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:             32 << 20,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New())

	s := &Server{svc: svc, log: log, app: app}
	app.Get("/api/health", s.handleHealth)
	app.Post("/api/parse", s.handleParse)
	return s
}

// App exposes the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen(addr string) error {
	s.log.Info("http listening", "addr", addr)
	return s.app.Listen(addr)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": models.ParserVersion,
	})
}

func (s *Server) handleParse(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "No file uploaded. Use form field 'file'.")
	}
	if !strings.HasSuffix(strings.ToLower(fh.Filename), ".pdf") {
		return badRequest(c, "Only PDF files are supported.")
	}

	vendor, err := vendorParam(c.FormValue("vendor"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	src, err := fh.Open()
	if err != nil {
		return badRequest(c, fmt.Sprintf("Failed to read upload: %v", err))
	}
	data, err := io.ReadAll(src)
	src.Close()
	if err != nil {
		return badRequest(c, fmt.Sprintf("Failed to read upload: %v", err))
	}
	sum := sha256.Sum256(data)

	// The PDF readers work from a path, so spool the upload to disk.
	tmp, err := os.CreateTemp("", "invoice-*.pdf")
	if err != nil {
		return serverError(c, "Failed to create temp file.")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return serverError(c, "Failed to save uploaded file.")
	}
	tmp.Close()

	doc, err := extractor.ExtractDocument(tmp.Name())
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ParseResponse{
			Error: fmt.Sprintf("PDF extraction failed: %v", err),
		})
	}

	persist := c.FormValue("persist") == "true"
	out := s.svc.ProcessDocument(c.UserContext(), doc, fh.Filename,
		hex.EncodeToString(sum[:]), vendor, persist)

	resp := ParseResponse{
		Success:    out.Status == ingest.StatusParsed,
		Error:      out.Error,
		DocumentID: out.DocumentID,
		Vendor:     string(out.Vendor),
		Confidence: out.Confidence,
		Status:     string(out.Status),
		Package:    out.Package,
		Validation: out.Validation,
		Version:    models.ParserVersion,
	}
	if out.Status == ingest.StatusFatal {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(resp)
	}
	return c.JSON(resp)
}

func vendorParam(v string) (models.Vendor, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "":
		return "", nil
	case "maxis":
		return models.VendorMaxis, nil
	case "celcom":
		return models.VendorCelcom, nil
	case "digi":
		return models.VendorDigi, nil
	default:
		return "", fmt.Errorf("unknown vendor: %q, use maxis, celcom, or digi", v)
	}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ParseResponse{Error: msg})
}

func serverError(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(ParseResponse{Error: msg})
}
