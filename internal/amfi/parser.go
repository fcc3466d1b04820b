package amfi

import (
	"bufio"
	"io"
	"strings"
	"time"
)

// SchemeCodePlaceholder is the value the feed uses when a scheme has no
// real code assigned; it is treated the same as an absent code.
const SchemeCodePlaceholder = "-"

// minFields is the feed-format contract: a scheme line carries at least
// 8 ;-delimited fields, with scheme code, fund name, NAV value and NAV
// date at fixed positions 0, 1, 4 and 7.
const minFields = 8

// sectionHeaders are literal prefixes of the structural headers that
// separate the open- and close-ended halves of the report.
var sectionHeaders = []string{
	"Open Ended Schemes",
	"Close Ended Schemes",
}

// ParsedLine is one normalized scheme line from the NAV report.
//
// Date is nil when the line's NAV date field could not be parsed; the
// line is still emitted so the caller decides its disposition (the
// ingestion pipeline skips nil dates at persist time, the CSV exporter
// writes an empty cell).
type ParsedLine struct {
	FamilyName string
	SchemeCode string
	FundName   string
	Nav        string
	Date       *time.Time
}

// Parse streams the raw multi-section report and calls fn for every
// well-formed scheme line. It is a pure function of the input text and
// can be restarted by re-reading.
//
// Line classification, in order:
//  1. blank lines and section headers are skipped
//  2. a line with no ';' becomes the current fund-family name
//  3. scheme lines are emitted only once a family name is known;
//     lines with fewer than 8 fields are skipped as malformed
//
// A bad line never aborts the parse; only a reader error does.
func Parse(r io.Reader, fn func(ParsedLine)) error {
	scanner := bufio.NewScanner(r)
	// Report lines are short, but leave headroom for pathological input.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	currentFamily := ""

	for scanner.Scan() {
		line := scanner.Text()

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isSectionHeader(line) {
			continue
		}

		if !strings.Contains(line, ";") {
			currentFamily = trimmed
			continue
		}

		if currentFamily == "" {
			continue
		}

		fields := strings.Split(line, ";")
		if len(fields) < minFields {
			continue
		}

		parsed := ParsedLine{
			FamilyName: currentFamily,
			SchemeCode: strings.TrimSpace(fields[0]),
			FundName:   strings.TrimSpace(fields[1]),
			Nav:        strings.TrimSpace(fields[4]),
		}

		if d, err := time.Parse(DateLayout, strings.TrimSpace(fields[7])); err == nil {
			parsed.Date = &d
		}

		fn(parsed)
	}

	return scanner.Err()
}

// ParseReport parses a complete report held in memory and returns all
// scheme lines. Convenience wrapper around Parse for callers and tests
// that do not need streaming.
func ParseReport(raw string) []ParsedLine {
	var lines []ParsedLine
	// strings.Reader never fails, so Parse cannot return an error here.
	_ = Parse(strings.NewReader(raw), func(l ParsedLine) {
		lines = append(lines, l)
	})
	return lines
}

// HasSchemeCode reports whether the line carries a usable scheme code,
// i.e. a non-empty value that is not the "-" placeholder.
func (l ParsedLine) HasSchemeCode() bool {
	return l.SchemeCode != "" && l.SchemeCode != SchemeCodePlaceholder
}

func isSectionHeader(line string) bool {
	for _, h := range sectionHeaders {
		if strings.HasPrefix(line, h) {
			return true
		}
	}
	return false
}
