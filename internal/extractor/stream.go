package extractor

import (
	"bytes"
	"compress/zlib"
	"encoding/hex"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf16"
)

// extractFromStreams is the dependency-free fallback extractor. It scans
// the raw PDF byte stream for content streams, decodes Tj/TJ text
// operators directly, and applies any ToUnicode CMap tables so that
// CIDFont/Type0 encoded invoices still come out as readable text.
func extractFromStreams(filePath string) ([]string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	streams := contentStreams(data)
	if len(streams) == 0 {
		return nil, nil
	}

	cm := collectCMaps(streams)

	var texts []string
	for _, stream := range streams {
		body := inflate(stream)
		if text := streamText(body, cm); text != "" {
			texts = append(texts, text)
		}
	}
	if len(texts) == 0 {
		return nil, nil
	}
	return []string{strings.Join(texts, "\n")}, nil
}

// contentStreams returns every stream...endstream payload in the file.
func contentStreams(data []byte) [][]byte {
	var out [][]byte
	start := []byte("stream")
	end := []byte("endstream")

	off := 0
	for off < len(data) {
		i := bytes.Index(data[off:], start)
		if i < 0 {
			break
		}
		s := off + i + len(start)
		if s < len(data) && data[s] == '\r' {
			s++
		}
		if s < len(data) && data[s] == '\n' {
			s++
		}
		j := bytes.Index(data[s:], end)
		if j < 0 {
			break
		}
		if j > 0 {
			out = append(out, data[s:s+j])
		}
		off = s + j + len(end)
	}
	return out
}

func inflate(data []byte) []byte {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return data
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return data
	}
	return out
}

var (
	hexTjRe    = regexp.MustCompile(`<([0-9A-Fa-f]+)>\s*Tj`)
	litTjRe    = regexp.MustCompile(`\(([^)]*)\)\s*(?:Tj|')`)
	tjArrayRe  = regexp.MustCompile(`\[([^\]]*)\]\s*TJ`)
	hexTokenRe = regexp.MustCompile(`<([0-9A-Fa-f]+)>`)
	litTokenRe = regexp.MustCompile(`\(([^)]*)\)`)
	moveTextRe = regexp.MustCompile(`[\d.\-]+\s+[\d.\-]+\s+T[dD]`)
)

// streamText decodes the text operators of one content stream. Td/TD/T*
// positioning operators are treated as line breaks, which is enough to
// keep invoice rows on their own lines.
func streamText(body []byte, cm *cmap) string {
	content := string(body)
	if !strings.Contains(content, "Tj") && !strings.Contains(content, "TJ") {
		return ""
	}

	var lines []string
	var cur strings.Builder
	endLine := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			lines = append(lines, s)
		}
		cur.Reset()
	}

	for _, op := range strings.Split(content, "\n") {
		op = strings.TrimSpace(op)
		if op == "T*" || moveTextRe.MatchString(op) {
			endLine()
		}
		for _, m := range hexTjRe.FindAllStringSubmatch(op, -1) {
			cur.WriteString(decodeHex(m[1], cm))
		}
		for _, m := range litTjRe.FindAllStringSubmatch(op, -1) {
			cur.WriteString(decodeLiteral(m[1], cm))
		}
		for _, m := range tjArrayRe.FindAllStringSubmatch(op, -1) {
			for _, h := range hexTokenRe.FindAllStringSubmatch(m[1], -1) {
				cur.WriteString(decodeHex(h[1], cm))
			}
			for _, l := range litTokenRe.FindAllStringSubmatch(m[1], -1) {
				cur.WriteString(decodeLiteral(l[1], cm))
			}
		}
	}
	endLine()
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// cmap maps hex-encoded character codes to Unicode strings, built from
// the PDF's ToUnicode tables.
type cmap struct {
	codes   map[string]string
	codeLen int
}

var (
	bfCharRe  = regexp.MustCompile(`(?s)beginbfchar\s*(.*?)\s*endbfchar`)
	bfRangeRe = regexp.MustCompile(`(?s)beginbfrange\s*(.*?)\s*endbfrange`)
)

func collectCMaps(streams [][]byte) *cmap {
	cm := &cmap{codes: map[string]string{}}
	for _, s := range streams {
		content := string(inflate(s))
		if !strings.Contains(content, "beginbf") {
			continue
		}
		for _, block := range bfCharRe.FindAllStringSubmatch(content, -1) {
			toks := hexTokenRe.FindAllStringSubmatch(block[1], -1)
			for i := 0; i+1 < len(toks); i += 2 {
				cm.add(toks[i][1], utf16Hex(toks[i+1][1]))
			}
		}
		for _, block := range bfRangeRe.FindAllStringSubmatch(content, -1) {
			for _, line := range strings.Split(block[1], "\n") {
				cm.addRange(strings.TrimSpace(line))
			}
		}
	}
	if len(cm.codes) == 0 {
		return nil
	}
	return cm
}

func (cm *cmap) add(srcHex, uni string) {
	if uni == "" {
		return
	}
	key := strings.ToUpper(srcHex)
	cm.codes[key] = uni
	if cm.codeLen == 0 {
		cm.codeLen = len(key) / 2
	}
}

func (cm *cmap) addRange(line string) {
	if line == "" {
		return
	}
	// Array form: <start> <end> [<u1> <u2> ...]
	if i := strings.Index(line, "["); i >= 0 {
		startToks := hexTokenRe.FindAllStringSubmatch(line[:i], -1)
		if len(startToks) < 2 {
			return
		}
		start := hexToInt(startToks[0][1])
		width := len(startToks[0][1])
		for j, ut := range hexTokenRe.FindAllStringSubmatch(line[i:], -1) {
			cm.add(intToHex(start+j, width), utf16Hex(ut[1]))
		}
		return
	}
	toks := hexTokenRe.FindAllStringSubmatch(line, -1)
	if len(toks) < 3 {
		return
	}
	start, end, dst := hexToInt(toks[0][1]), hexToInt(toks[1][1]), hexToInt(toks[2][1])
	if start < 0 || end < 0 || dst < 0 || end-start > 0xFFFF {
		return
	}
	width := len(toks[0][1])
	for c := start; c <= end; c++ {
		cm.add(intToHex(c, width), utf16Hex(intToHex(dst+c-start, len(toks[2][1]))))
	}
}

// decode maps raw string bytes through the CMap, falling back to a
// single-byte lookup and then printable ASCII passthrough.
func (cm *cmap) decode(raw []byte) string {
	n := cm.codeLen
	if n < 1 {
		n = 1
	}
	var b strings.Builder
	for i := 0; i <= len(raw)-n; i += n {
		key := strings.ToUpper(hex.EncodeToString(raw[i : i+n]))
		if uni, ok := cm.codes[key]; ok {
			b.WriteString(uni)
			continue
		}
		if n > 1 {
			k1 := strings.ToUpper(hex.EncodeToString(raw[i : i+1]))
			if uni, ok := cm.codes[k1]; ok {
				b.WriteString(uni)
				i -= n - 1
				continue
			}
		}
		if n == 1 && raw[i] >= 32 && raw[i] < 127 {
			b.WriteByte(raw[i])
		}
	}
	return b.String()
}

func decodeHex(h string, cm *cmap) string {
	raw, err := hex.DecodeString(h)
	if err != nil {
		return ""
	}
	if cm != nil {
		if s := cm.decode(raw); s != "" {
			return s
		}
	}
	// No usable CMap: try direct UTF-16BE, then ASCII.
	if len(raw)%2 == 0 && len(raw) >= 2 {
		var b strings.Builder
		for i := 0; i+1 < len(raw); i += 2 {
			cp := rune(raw[i])<<8 | rune(raw[i+1])
			if unicode.IsPrint(cp) || cp == ' ' {
				b.WriteRune(cp)
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return printableOnly(string(raw))
}

func decodeLiteral(s string, cm *cmap) string {
	decoded := unescapePDF(s)
	if cm != nil {
		if out := cm.decode([]byte(decoded)); out != "" && mostlyPrintable(out) {
			return out
		}
	}
	return printableOnly(decoded)
}

// unescapePDF resolves backslash escapes and octal codes in a literal
// PDF string.
func unescapePDF(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch c := s[i]; c {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'b', 'f':
			// Ignored control characters.
		case '(', ')', '\\':
			b.WriteByte(c)
		default:
			if c >= '0' && c <= '7' {
				val := int(c - '0')
				for j := 0; j < 2 && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '7'; j++ {
					i++
					val = val*8 + int(s[i]-'0')
				}
				if val < 256 {
					b.WriteByte(byte(val))
				}
			} else {
				b.WriteByte(c)
			}
		}
	}
	return b.String()
}

func utf16Hex(h string) string {
	if len(h)%2 != 0 {
		h = "0" + h
	}
	data, err := hex.DecodeString(h)
	if err != nil {
		return ""
	}
	var units []uint16
	for i := 0; i+1 < len(data); i += 2 {
		units = append(units, uint16(data[i])<<8|uint16(data[i+1]))
	}
	return string(utf16.Decode(units))
}

func hexToInt(h string) int {
	val := 0
	for _, c := range strings.ToUpper(h) {
		val <<= 4
		switch {
		case c >= '0' && c <= '9':
			val += int(c - '0')
		case c >= 'A' && c <= 'F':
			val += int(c-'A') + 10
		default:
			return -1
		}
	}
	return val
}

func intToHex(val, width int) string {
	const digits = "0123456789ABCDEF"
	b := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		b[i] = digits[val&0xF]
		val >>= 4
	}
	return string(b)
}

func printableOnly(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			return r
		}
		return -1
	}, s))
}

func mostlyPrintable(s string) bool {
	if s == "" {
		return false
	}
	n := 0
	runes := []rune(s)
	for _, r := range runes {
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			n++
		}
	}
	return float64(n)/float64(len(runes)) > 0.5
}
