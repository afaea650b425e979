package extractor

import (
	"fmt"
	"io"
	"math"
	"os/exec"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// Word is a positioned text fragment on a page. Coordinates follow the
// PDF convention: Y grows bottom-to-top.
type Word struct {
	X, Y float64
	W    float64
	Text string
}

// Page holds the extracted content of one PDF page.
type Page struct {
	Number int
	Text   string
	Lines  []string
	// Words is only populated by the structured extraction path; the
	// raw-stream and pdftotext fallbacks yield text without coordinates,
	// which disables table reconstruction and leaves regex fallbacks.
	Words []Word
}

// Document is the full extracted content of a PDF file.
type Document struct {
	Pages []Page
}

// Text returns the whole document joined with page breaks.
func (d *Document) Text() string {
	parts := make([]string, 0, len(d.Pages))
	for _, p := range d.Pages {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n\n")
}

// ExtractDocument reads a PDF file and returns per-page text plus word
// coordinates where available. It tries the structured library first,
// then raw content-stream decoding, then the external pdftotext
// command, and finally OCR for scanned files with no text layer. A
// file that cannot be opened or yields no readable text at all is the
// only fatal case at this layer.
func ExtractDocument(filePath string) (*Document, error) {
	doc, libErr := extractWithLibrary(filePath)
	if libErr == nil && isReadable(doc) {
		return doc, nil
	}

	rawPages, rawErr := extractFromStreams(filePath)
	if rawErr == nil {
		doc = pagesToDocument(rawPages)
		if isReadable(doc) {
			return doc, nil
		}
	}

	popplerPages, popplerErr := extractWithPdftotext(filePath)
	if popplerErr == nil {
		doc = pagesToDocument(popplerPages)
		if isReadable(doc) {
			return doc, nil
		}
	}

	ocrPages, ocrErr := extractWithOCR(filePath)
	if ocrErr == nil {
		doc = pagesToDocument(ocrPages)
		if isReadable(doc) {
			return doc, nil
		}
	}

	if libErr != nil {
		return nil, fmt.Errorf("pdf text extraction failed: %w", libErr)
	}
	return nil, fmt.Errorf("no readable text could be extracted from %q; every extraction strategy, OCR included, came back empty", filePath)
}

func pagesToDocument(pages []string) *Document {
	doc := &Document{}
	for i, p := range pages {
		doc.Pages = append(doc.Pages, Page{
			Number: i + 1,
			Text:   p,
			Lines:  NormalizeLines(p),
		})
	}
	return doc
}

// NormalizeLines collapses runs of intra-line whitespace to single
// spaces while preserving line breaks, and drops blank lines.
func NormalizeLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// extractWithLibrary uses ledongthuc/pdf with layered methods per page.
// The library panics on some malformed files; that is contained here.
func extractWithLibrary(filePath string) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf library crashed: %v", r)
		}
	}()

	f, r, openErr := pdf.Open(filePath)
	if openErr != nil {
		return nil, openErr
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	doc = &Document{}
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			doc.Pages = append(doc.Pages, Page{Number: i})
			continue
		}
		p := extractPage(page, i)
		doc.Pages = append(doc.Pages, p)
	}

	if !isReadable(doc) {
		// Word-level extraction produced garbage; retry with the
		// library's whole-document plain-text path before giving up.
		if text := readerPlainText(r); text != "" {
			alt := pagesToDocument([]string{text})
			if isReadable(alt) {
				return alt, nil
			}
		}
	}
	return doc, nil
}

// extractPage reconstructs one page from positioned text fragments,
// grouping by Y into rows and sorting by X within each row. Wide X gaps
// become double spaces so downstream column splitting can find them.
func extractPage(page pdf.Page, number int) Page {
	content := page.Content()
	if len(content.Text) == 0 {
		return plainTextPage(page, number)
	}

	rowMap := make(map[int][]Word)
	for _, t := range content.Text {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		yKey := int(math.Round(t.Y))
		rowMap[yKey] = append(rowMap[yKey], Word{X: t.X, Y: t.Y, W: t.W, Text: t.S})
	}
	if len(rowMap) == 0 {
		return plainTextPage(page, number)
	}

	yKeys := make([]int, 0, len(rowMap))
	for y := range rowMap {
		yKeys = append(yKeys, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(yKeys)))

	var (
		lines []string
		words []Word
	)
	for _, y := range yKeys {
		items := rowMap[y]
		sort.Slice(items, func(a, b int) bool { return items[a].X < items[b].X })

		// Merge adjacent fragments into whole words before emitting.
		merged := mergeFragments(items)
		words = append(words, merged...)

		var b strings.Builder
		var prevEnd float64
		for j, w := range merged {
			if j > 0 {
				if w.X-prevEnd > 12 {
					b.WriteString("  ")
				} else {
					b.WriteString(" ")
				}
			}
			b.WriteString(w.Text)
			prevEnd = w.X + w.W
		}
		line := strings.TrimSpace(b.String())
		if line != "" {
			lines = append(lines, line)
		}
	}

	text := strings.Join(lines, "\n")
	return Page{Number: number, Text: text, Lines: NormalizeLines(text), Words: words}
}

// mergeFragments joins character-level fragments whose boxes touch into
// single word tokens, keeping the leftmost X and summed width.
func mergeFragments(items []Word) []Word {
	var out []Word
	for _, it := range items {
		n := len(out)
		if n > 0 && it.X-(out[n-1].X+out[n-1].W) < 1.2 {
			out[n-1].Text += it.Text
			out[n-1].W = it.X + it.W - out[n-1].X
			continue
		}
		out = append(out, it)
	}
	return out
}

func plainTextPage(page pdf.Page, number int) Page {
	fontNames := page.Fonts()
	fonts := make(map[string]*pdf.Font)
	for _, name := range fontNames {
		f := page.Font(name)
		fonts[name] = &f
	}
	text, err := page.GetPlainText(fonts)
	if err != nil {
		return Page{Number: number}
	}
	text = strings.TrimSpace(text)
	return Page{Number: number, Text: text, Lines: NormalizeLines(text)}
}

func readerPlainText(r *pdf.Reader) string {
	reader, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// extractWithPdftotext shells out to poppler-utils as a last resort for
// files the Go paths cannot decode.
func extractWithPdftotext(filePath string) ([]string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not available: %w", err)
	}

	numPages := 1
	if out, err := exec.Command("pdfinfo", filePath).Output(); err == nil {
		for _, line := range strings.Split(string(out), "\n") {
			if strings.HasPrefix(line, "Pages:") {
				if n, perr := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:"))); perr == nil && n > 0 {
					numPages = n
				}
			}
		}
	}

	var pages []string
	for i := 1; i <= numPages; i++ {
		pageStr := strconv.Itoa(i)
		out, err := exec.Command("pdftotext", "-layout", "-f", pageStr, "-l", pageStr, filePath, "-").Output()
		if err != nil {
			continue
		}
		if text := strings.TrimSpace(string(out)); text != "" {
			pages = append(pages, text)
		}
	}
	if len(pages) == 0 {
		out, err := exec.Command("pdftotext", "-layout", filePath, "-").Output()
		if err != nil {
			return nil, fmt.Errorf("pdftotext failed: %w", err)
		}
		text := strings.TrimSpace(string(out))
		if text == "" {
			return nil, fmt.Errorf("pdftotext produced no output")
		}
		pages = []string{text}
	}
	return pages, nil
}

// billWords that appear in virtually every telecom invoice in scope. If
// the extracted text contains none of these it is treated as garbage.
var billWords = []string{
	"invoice", "bill", "statement", "account", "amount", "total",
	"charges", "payment", "tax", "date", "jumlah", "tarikh", "caj",
	"amaun", "akaun", "mobile", "postpaid", "period", "page",
}

var asciiWordRe = regexp.MustCompile(`[A-Za-z]{3,}`)

// textQuality returns the ratio of plain ASCII readable characters to
// total. Identity-encoded fonts decode into accented noise, so the
// check is deliberately strict ASCII rather than unicode.IsLetter.
func textQuality(doc *Document) float64 {
	total, readable := 0, 0
	for _, page := range doc.Pages {
		for _, r := range page.Text {
			total++
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
				(r >= '0' && r <= '9') || unicode.IsSpace(r) ||
				strings.ContainsRune(`.,-/:;()'"%&@#!?+=*`, r) ||
				r == '£' || r == '$' || r == '€' {
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

func isReadable(doc *Document) bool {
	if doc == nil {
		return false
	}
	n := 0
	for _, p := range doc.Pages {
		n += len(strings.TrimSpace(p.Text))
	}
	if n <= 50 {
		return false
	}
	if textQuality(doc) <= 0.6 {
		return false
	}
	combined := strings.ToLower(doc.Text())
	for _, word := range billWords {
		if strings.Contains(combined, word) {
			return true
		}
	}
	// Unrecognized vocabulary but real words present: let the vendor
	// detector decide instead of rejecting here.
	return len(asciiWordRe.FindAllString(combined, 4)) >= 4
}
