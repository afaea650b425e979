package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/ingest"
)

func setupTestServer() *Server {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(ingest.NewService(nil, log), log)
}

func TestHealthEndpoint(t *testing.T) {
	s := setupTestServer()

	req := httptest.NewRequest("GET", "/api/health", nil)
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var result map[string]string
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if result["status"] != "ok" {
		t.Errorf("expected status=ok, got %q", result["status"])
	}

	if result["engine"] != "fiber" {
		t.Errorf("expected engine=fiber, got %q", result["engine"])
	}
}

func TestParseEndpointRequiresFile(t *testing.T) {
	s := setupTestServer()

	req := httptest.NewRequest("POST", "/api/parse", nil)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=----test")
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("expected 400 for missing file, got %d", resp.StatusCode)
	}
}

func TestParseEndpointRejectsNonPDF(t *testing.T) {
	s := setupTestServer()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "notes.txt")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("plain text"))
	mw.Close()

	req := httptest.NewRequest("POST", "/api/parse", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("expected 400 for non-pdf upload, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var result ParseResponse
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Error == "" {
		t.Error("expected an error message")
	}
}

func TestParseEndpointUnknownVendor(t *testing.T) {
	s := setupTestServer()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "bill.pdf")
	fw.Write([]byte("%PDF-1.4 stub"))
	mw.WriteField("vendor", "umobile")
	mw.Close()

	req := httptest.NewRequest("POST", "/api/parse", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("expected 400 for unknown vendor, got %d", resp.StatusCode)
	}
}

func TestVendorParam(t *testing.T) {
	if v, err := vendorParam(" Digi "); err != nil || string(v) != "digi" {
		t.Errorf("vendorParam(Digi) = %q, %v", v, err)
	}
	if v, err := vendorParam(""); err != nil || v != "" {
		t.Errorf("vendorParam(empty) = %q, %v", v, err)
	}
	if _, err := vendorParam("umobile"); err == nil {
		t.Error("expected error for unsupported vendor")
	}
}
