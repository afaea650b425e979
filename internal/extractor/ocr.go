package extractor

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// IsOCRAvailable reports whether the external OCR toolchain is
// installed. Requires pdftoppm (poppler-utils) and tesseract.
func IsOCRAvailable() bool {
	_, ppmErr := exec.LookPath("pdftoppm")
	_, tessErr := exec.LookPath("tesseract")
	return ppmErr == nil && tessErr == nil
}

// extractWithOCR rasterizes each page and reads it with tesseract.
// Last resort for scanned bills that carry no text layer at all.
func extractWithOCR(filePath string) ([]string, error) {
	if !IsOCRAvailable() {
		return nil, fmt.Errorf("ocr unavailable: need pdftoppm (poppler-utils) and tesseract (tesseract-ocr)")
	}

	tmpDir, err := os.MkdirTemp("", "bill-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("creating ocr temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	// 300 DPI keeps the small tariff-table digits legible to tesseract.
	prefix := filepath.Join(tmpDir, "page")
	if out, err := exec.Command("pdftoppm", "-r", "300", "-png", filePath, prefix).CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %v (output: %s)", err, strings.TrimSpace(string(out)))
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return nil, fmt.Errorf("reading ocr temp dir: %w", err)
	}
	var images []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".png") {
			images = append(images, filepath.Join(tmpDir, e.Name()))
		}
	}
	sort.Strings(images)
	if len(images) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no page images")
	}

	var pages []string
	for _, img := range images {
		text, err := ocrImage(img)
		if err != nil {
			// A single unreadable page degrades, the rest still count.
			continue
		}
		if text != "" {
			pages = append(pages, text)
		}
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("tesseract produced no text from %d page images", len(images))
	}
	return pages, nil
}

func ocrImage(img string) (string, error) {
	// PSM 4: single column of variable-size text, which fits the
	// stacked header/table layout of these bills.
	outBase := strings.TrimSuffix(img, ".png") + "-ocr"
	if out, err := exec.Command("tesseract", img, outBase, "-l", "eng", "--psm", "4").CombinedOutput(); err != nil {
		return "", fmt.Errorf("tesseract failed for %s: %v (output: %s)", filepath.Base(img), err, strings.TrimSpace(string(out)))
	}
	data, err := os.ReadFile(outBase + ".txt")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
